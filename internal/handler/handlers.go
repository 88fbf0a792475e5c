package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/todoflow-labs/todo-service/internal/dto"
	"github.com/todoflow-labs/todo-service/internal/events"
	"github.com/todoflow-labs/todo-service/internal/logging"
	"github.com/todoflow-labs/todo-service/internal/metrics"
	"github.com/todoflow-labs/todo-service/internal/storage"
	"github.com/todoflow-labs/todo-service/internal/validation"
)

const (
	notFoundDetail = "Todo not found"
	maxBodyBytes   = 1 << 20
)

// Sessioner opens a unit of work for one request.
type Sessioner interface {
	Session(ctx context.Context, fn func(q storage.Querier) error) error
}

type Service interface {
	ListTodos(ctx context.Context, q storage.Querier) ([]dto.Todo, error)
	GetSingleTodo(ctx context.Context, q storage.Querier, id int64) (*dto.Todo, error)
	CreateNewTodo(ctx context.Context, q storage.Querier, in dto.TodoCreate) (*dto.Todo, error)
	UpdateExistingTodo(ctx context.Context, q storage.Querier, id int64, in dto.TodoUpdate) (*dto.Todo, error)
	RemoveTodo(ctx context.Context, q storage.Querier, id int64) (bool, error)
}

type Handler struct {
	db     Sessioner
	svc    Service
	events events.Publisher
	logger *logging.Logger
}

func New(db Sessioner, svc Service, pub events.Publisher, logger *logging.Logger) *Handler {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Handler{db: db, svc: svc, events: pub, logger: logger}
}

// Routes mounts the todo endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/todos", h.ListTodos)
	r.Get("/todos/{id}", h.GetTodo)
	r.Post("/todos", h.CreateTodo)
	r.Put("/todos/{id}", h.UpdateTodo)
	r.Delete("/todos/{id}", h.DeleteTodo)
}

func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	var todos []dto.Todo
	err := h.db.Session(r.Context(), func(q storage.Querier) error {
		var err error
		todos, err = h.svc.ListTodos(r.Context(), q)
		return err
	})
	if err != nil {
		h.internalError(w, "list", err)
		return
	}
	metrics.TodoOperationCounter.WithLabelValues("list", metrics.ResultSuccess).Inc()
	WriteJSON(w, http.StatusOK, todos)
}

func (h *Handler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "get")
	if !ok {
		return
	}

	var todo *dto.Todo
	err := h.db.Session(r.Context(), func(q storage.Querier) error {
		var err error
		todo, err = h.svc.GetSingleTodo(r.Context(), q, id)
		return err
	})
	if err != nil {
		h.internalError(w, "get", err)
		return
	}
	if todo == nil {
		h.notFound(w, "get", id)
		return
	}
	metrics.TodoOperationCounter.WithLabelValues("get", metrics.ResultSuccess).Inc()
	WriteJSON(w, http.StatusOK, todo)
}

func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().Msg("handling create todo")
	body, ok := h.readBody(w, r, "create")
	if !ok {
		return
	}
	in, err := validation.DecodeTodoCreate(body)
	if err != nil {
		h.invalid(w, "create", err)
		return
	}

	var todo *dto.Todo
	err = h.db.Session(r.Context(), func(q storage.Querier) error {
		var err error
		todo, err = h.svc.CreateNewTodo(r.Context(), q, in)
		return err
	})
	if err != nil {
		h.internalError(w, "create", err)
		return
	}

	h.events.Publish(dto.TodoEvent{Type: dto.TodoCreatedEvt, ID: todo.ID, Todo: todo})
	metrics.TodoOperationCounter.WithLabelValues("create", metrics.ResultSuccess).Inc()
	WriteJSON(w, http.StatusOK, todo)
}

func (h *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().Msg("handling update todo")
	id, ok := h.pathID(w, r, "update")
	if !ok {
		return
	}
	body, ok := h.readBody(w, r, "update")
	if !ok {
		return
	}
	in, err := validation.DecodeTodoUpdate(body)
	if err != nil {
		h.invalid(w, "update", err)
		return
	}

	var todo *dto.Todo
	err = h.db.Session(r.Context(), func(q storage.Querier) error {
		var err error
		todo, err = h.svc.UpdateExistingTodo(r.Context(), q, id, in)
		return err
	})
	if err != nil {
		h.internalError(w, "update", err)
		return
	}
	if todo == nil {
		h.notFound(w, "update", id)
		return
	}

	h.events.Publish(dto.TodoEvent{Type: dto.TodoUpdatedEvt, ID: todo.ID, Todo: todo})
	metrics.TodoOperationCounter.WithLabelValues("update", metrics.ResultSuccess).Inc()
	WriteJSON(w, http.StatusOK, todo)
}

func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().Msg("handling delete todo")
	id, ok := h.pathID(w, r, "delete")
	if !ok {
		return
	}

	var deleted bool
	err := h.db.Session(r.Context(), func(q storage.Querier) error {
		var err error
		deleted, err = h.svc.RemoveTodo(r.Context(), q, id)
		return err
	})
	if err != nil {
		h.internalError(w, "delete", err)
		return
	}
	if !deleted {
		h.notFound(w, "delete", id)
		return
	}

	h.events.Publish(dto.TodoEvent{Type: dto.TodoDeletedEvt, ID: id})
	metrics.TodoOperationCounter.WithLabelValues("delete", metrics.ResultSuccess).Inc()
	WriteJSON(w, http.StatusOK, dto.Message{Message: "Deleted successfully"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.invalid(w, op, validation.PathError("id", "Input should be a valid integer, unable to parse string as an integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.invalid(w, op, validation.BodyError("unable to read body: "+err.Error()))
		return nil, false
	}
	return body, true
}

func (h *Handler) invalid(w http.ResponseWriter, op string, err error) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		h.internalError(w, op, err)
		return
	}
	metrics.TodoOperationCounter.WithLabelValues(op, metrics.ResultInvalid).Inc()
	h.logger.Debug().Str("operation", op).Str("error", verr.Error()).Msg("rejected request body")
	WriteJSON(w, http.StatusUnprocessableEntity, dto.ValidationErrors{Detail: verr.Fields})
}

func (h *Handler) notFound(w http.ResponseWriter, op string, id int64) {
	h.logger.Debug().Str("operation", op).Int64("id", id).Msg("todo not found")
	metrics.TodoOperationCounter.WithLabelValues(op, metrics.ResultNotFound).Inc()
	WriteJSON(w, http.StatusNotFound, dto.NotFound{Detail: notFoundDetail})
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error().Err(err).Str("operation", op).Msg("todo operation failed")
	metrics.TodoOperationCounter.WithLabelValues(op, metrics.ResultError).Inc()
	WriteError(w, http.StatusInternalServerError, "internal server error")
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a structured JSON error.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{
		"error": msg,
	})
}
