package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoflow-labs/todo-service/internal/dto"
	"github.com/todoflow-labs/todo-service/internal/events"
	"github.com/todoflow-labs/todo-service/internal/logging"
	"github.com/todoflow-labs/todo-service/internal/metrics"
)

func setupEmbeddedNATSServer(t *testing.T) (*server.Server, nats.JetStreamContext, *nats.Conn) {
	opts := &server.Options{
		JetStream: true,
		StoreDir:  t.TempDir(),
		Port:      -1,
		NoLog:     true,
		NoSigs:    true,
	}
	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()
	if !srv.ReadyForConnections(10 * time.Second) {
		t.Fatal("NATS server not ready in time")
	}

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)

	js, err := nc.JetStream()
	require.NoError(t, err)
	require.NoError(t, events.EnsureStream(js))

	return srv, js, nc
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "todo.events.created", events.Subject(dto.TodoCreatedEvt))
	assert.Equal(t, "todo.events.deleted", events.Subject(dto.TodoDeletedEvt))
}

func TestEnsureStreamIdempotent(t *testing.T) {
	srv, js, nc := setupEmbeddedNATSServer(t)
	defer srv.Shutdown()
	defer nc.Close()

	assert.NoError(t, events.EnsureStream(js))
}

func TestEnsureStreamAcceptsCompatibleExisting(t *testing.T) {
	srv, js, nc := setupEmbeddedNATSServer(t)
	defer srv.Shutdown()
	defer nc.Close()

	_, err := js.UpdateStream(&nats.StreamConfig{
		Name:     events.StreamName,
		Subjects: []string{"todo.events.>"},
		MaxMsgs:  1000,
	})
	require.NoError(t, err)
	assert.NoError(t, events.EnsureStream(js))
}

func TestEnsureStreamRejectsMismatchedSubjects(t *testing.T) {
	srv, js, nc := setupEmbeddedNATSServer(t)
	defer srv.Shutdown()
	defer nc.Close()

	_, err := js.UpdateStream(&nats.StreamConfig{
		Name:     events.StreamName,
		Subjects: []string{"legacy.todos.>"},
	})
	require.NoError(t, err)

	err = events.EnsureStream(js)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legacy.todos.>")
}

func TestPublish(t *testing.T) {
	srv, js, nc := setupEmbeddedNATSServer(t)
	defer srv.Shutdown()
	defer nc.Close()

	pub := events.NewJetStreamPublisher(js, logging.Nop())
	before := testutil.ToFloat64(metrics.EventPublishCounter.WithLabelValues(dto.TodoUpdatedEvt, metrics.ResultSuccess))

	todo := &dto.Todo{ID: 42, Title: "New", Description: "Updated"}
	pub.Publish(dto.TodoEvent{Type: dto.TodoUpdatedEvt, ID: 42, Todo: todo})

	sub, err := js.PullSubscribe("todo.events.updated", "test-durable-update")
	require.NoError(t, err)
	msgs, err := sub.Fetch(1, nats.MaxWait(time.Second))
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var received dto.TodoEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &received))
	assert.Equal(t, dto.TodoUpdatedEvt, received.Type)
	assert.Equal(t, int64(42), received.ID)
	assert.Equal(t, todo, received.Todo)

	after := testutil.ToFloat64(metrics.EventPublishCounter.WithLabelValues(dto.TodoUpdatedEvt, metrics.ResultSuccess))
	assert.Equal(t, before+1, after)
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	srv, js, nc := setupEmbeddedNATSServer(t)
	defer srv.Shutdown()
	nc.Close()

	pub := events.NewJetStreamPublisher(js, logging.Nop())
	before := testutil.ToFloat64(metrics.EventPublishCounter.WithLabelValues(dto.TodoDeletedEvt, metrics.ResultError))

	assert.NotPanics(t, func() {
		pub.Publish(dto.TodoEvent{Type: dto.TodoDeletedEvt, ID: 1})
	})
	after := testutil.ToFloat64(metrics.EventPublishCounter.WithLabelValues(dto.TodoDeletedEvt, metrics.ResultError))
	assert.Equal(t, before+1, after)
}
