// Package repository issues the SQL for the todos table. Every function
// takes the caller's Querier, so it runs inside whatever session the caller
// opened. Absence is reported as a nil *dto.Todo or false, never as an error.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/todoflow-labs/todo-service/internal/dto"
	"github.com/todoflow-labs/todo-service/internal/storage"
)

type TodoRepository struct{}

func NewTodoRepository() *TodoRepository {
	return &TodoRepository{}
}

func (TodoRepository) GetTodos(ctx context.Context, q storage.Querier) ([]dto.Todo, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, title, description FROM todos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []dto.Todo{}
	for rows.Next() {
		var t dto.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (TodoRepository) GetTodo(ctx context.Context, q storage.Querier, id int64) (*dto.Todo, error) {
	t := &dto.Todo{}
	err := q.QueryRowContext(ctx, `SELECT id, title, description FROM todos WHERE id = $1`, id).
		Scan(&t.ID, &t.Title, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get todo %d: %w", id, err)
	}
	return t, nil
}

func (TodoRepository) CreateTodo(ctx context.Context, q storage.Querier, in dto.TodoCreate) (*dto.Todo, error) {
	t := &dto.Todo{Title: in.Title, Description: in.Description}
	err := q.QueryRowContext(ctx,
		`INSERT INTO todos (title, description) VALUES ($1, $2) RETURNING id`,
		in.Title, in.Description,
	).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

func (TodoRepository) UpdateTodo(ctx context.Context, q storage.Querier, id int64, in dto.TodoUpdate) (*dto.Todo, error) {
	t := &dto.Todo{}
	err := q.QueryRowContext(ctx,
		`UPDATE todos SET title = $1, description = $2 WHERE id = $3 RETURNING id, title, description`,
		in.Title, in.Description, id,
	).Scan(&t.ID, &t.Title, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update todo %d: %w", id, err)
	}
	return t, nil
}

func (TodoRepository) DeleteTodo(ctx context.Context, q storage.Querier, id int64) (bool, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete todo %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete todo %d: %w", id, err)
	}
	return n > 0, nil
}
