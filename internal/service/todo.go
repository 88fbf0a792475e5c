package service

import (
	"context"

	"github.com/todoflow-labs/todo-service/internal/dto"
	"github.com/todoflow-labs/todo-service/internal/storage"
)

type Repository interface {
	GetTodos(ctx context.Context, q storage.Querier) ([]dto.Todo, error)
	GetTodo(ctx context.Context, q storage.Querier, id int64) (*dto.Todo, error)
	CreateTodo(ctx context.Context, q storage.Querier, in dto.TodoCreate) (*dto.Todo, error)
	UpdateTodo(ctx context.Context, q storage.Querier, id int64, in dto.TodoUpdate) (*dto.Todo, error)
	DeleteTodo(ctx context.Context, q storage.Querier, id int64) (bool, error)
}

// TodoService forwards every call to the repository unchanged.
type TodoService struct {
	repo Repository
}

func NewTodoService(repo Repository) *TodoService {
	return &TodoService{repo: repo}
}

func (s *TodoService) ListTodos(ctx context.Context, q storage.Querier) ([]dto.Todo, error) {
	return s.repo.GetTodos(ctx, q)
}

func (s *TodoService) GetSingleTodo(ctx context.Context, q storage.Querier, id int64) (*dto.Todo, error) {
	return s.repo.GetTodo(ctx, q, id)
}

func (s *TodoService) CreateNewTodo(ctx context.Context, q storage.Querier, in dto.TodoCreate) (*dto.Todo, error) {
	return s.repo.CreateTodo(ctx, q, in)
}

func (s *TodoService) UpdateExistingTodo(ctx context.Context, q storage.Querier, id int64, in dto.TodoUpdate) (*dto.Todo, error) {
	return s.repo.UpdateTodo(ctx, q, id, in)
}

func (s *TodoService) RemoveTodo(ctx context.Context, q storage.Querier, id int64) (bool, error) {
	return s.repo.DeleteTodo(ctx, q, id)
}
