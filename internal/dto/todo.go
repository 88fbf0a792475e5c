// internal/dto/todo.go
package dto

// Todo is the stored record and the response shape.
type Todo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type TodoCreate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TodoUpdate replaces both fields; there is no partial update.
type TodoUpdate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Message struct {
	Message string `json:"message"`
}

type NotFound struct {
	Detail string `json:"detail"`
}

// FieldError mirrors one entry of a 422 response.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type ValidationErrors struct {
	Detail []FieldError `json:"detail"`
}

// Event types published after a committed mutation.
const (
	TodoCreatedEvt = "todo.created"
	TodoUpdatedEvt = "todo.updated"
	TodoDeletedEvt = "todo.deleted"
)

type TodoEvent struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
	Todo *Todo  `json:"todo,omitempty"`
}
