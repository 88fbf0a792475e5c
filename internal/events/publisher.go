package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/todoflow-labs/todo-service/internal/dto"
	"github.com/todoflow-labs/todo-service/internal/logging"
	"github.com/todoflow-labs/todo-service/internal/metrics"
)

const (
	StreamName    = "todo_events"
	SubjectPrefix = "todo.events."
)

// Publisher announces committed todo changes.
type Publisher interface {
	Publish(evt dto.TodoEvent)
}

// Nop drops every event; used when NATS is not configured.
type Nop struct{}

func (Nop) Publish(dto.TodoEvent) {}

// JetStreamPublisher writes events to the todo_events stream. Failures are
// logged and counted; they never fail the request that caused the event.
type JetStreamPublisher struct {
	js     nats.JetStreamContext
	logger *logging.Logger
}

// EnsureStream creates the stream. An existing stream with a different
// config is accepted only if it still captures todo.events.>.
func EnsureStream(js nats.JetStreamContext) error {
	subject := SubjectPrefix + ">"
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{subject},
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("create stream %s: %w", StreamName, err)
	}

	info, err := js.StreamInfo(StreamName)
	if err != nil {
		return fmt.Errorf("inspect stream %s: %w", StreamName, err)
	}
	if !slices.Contains(info.Config.Subjects, subject) {
		return fmt.Errorf("stream %s exists with subjects %v, want %s", StreamName, info.Config.Subjects, subject)
	}
	return nil
}

func NewJetStreamPublisher(js nats.JetStreamContext, logger *logging.Logger) *JetStreamPublisher {
	return &JetStreamPublisher{js: js, logger: logger}
}

// Subject maps an event type such as todo.created to todo.events.created.
func Subject(eventType string) string {
	return SubjectPrefix + strings.TrimPrefix(eventType, "todo.")
}

func (p *JetStreamPublisher) Publish(evt dto.TodoEvent) {
	data, _ := json.Marshal(evt)
	if _, err := p.js.Publish(Subject(evt.Type), data); err != nil {
		p.logger.Error().Err(err).Str("type", evt.Type).Int64("id", evt.ID).Msg("failed to publish todo event")
		metrics.EventPublishCounter.WithLabelValues(evt.Type, metrics.ResultError).Inc()
		return
	}
	p.logger.Debug().Str("type", evt.Type).Int64("id", evt.ID).Msg("todo event published")
	metrics.EventPublishCounter.WithLabelValues(evt.Type, metrics.ResultSuccess).Inc()
}
