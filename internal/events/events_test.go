package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/taskmaster/internal/logging"
	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func receive(t *testing.T, ch chan *nats.Msg) *nats.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestNATSPublisher_StoreEvents(t *testing.T) {
	server := startTestNATSServer(t)

	pub, err := Connect(server.ClientURL(), "test.tasks")
	require.NoError(t, err)
	defer pub.Close()

	sub, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	ch := make(chan *nats.Msg, 8)
	s, err := sub.ChanSubscribe("test.tasks.>", ch)
	require.NoError(t, err)
	defer s.Unsubscribe()
	require.NoError(t, sub.Flush())

	store := taskstore.New(taskstore.WithChangeHook(Hook(pub, nil)))

	task, err := store.Append("buy milk")
	require.NoError(t, err)
	_, err = store.MarkComplete(task.ID)
	require.NoError(t, err)
	_, err = store.Remove(task.ID)
	require.NoError(t, err)

	wantSubjects := []string{"test.tasks.created", "test.tasks.completed", "test.tasks.deleted"}
	seen := make(map[string]bool)
	for range wantSubjects {
		msg := receive(t, ch)

		var ev Event
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, "test.tasks."+string(ev.Kind), msg.Subject)
		assert.Equal(t, task.ID, ev.Task.ID)
		assert.Equal(t, "buy milk", ev.Task.Description)
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.OccurredAt.IsZero())
		seen[msg.Subject] = true
	}
	for _, subject := range wantSubjects {
		assert.True(t, seen[subject], "missing event on %s", subject)
	}
}

func TestNATSPublisher_Subject(t *testing.T) {
	p := NewNATSPublisher(nil, "")
	assert.Equal(t, "taskmaster.tasks.created", p.Subject(taskstore.ChangeCreated))
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewNATSPublisher(nc, "x").Publish(ctx, NewEvent(taskstore.Change{Kind: taskstore.ChangeCreated}))
	assert.ErrorIs(t, err, context.Canceled)
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, ev Event) error { return errors.New("broker down") }
func (failingPublisher) Close() error                                { return nil }

func TestHook_PublishFailureIsLoggedNotFatal(t *testing.T) {
	tl := logging.NewTestLogger()
	store := taskstore.New(taskstore.WithChangeHook(Hook(failingPublisher{}, tl.Logger)))

	task, err := store.Append("still stored")
	require.NoError(t, err)
	assert.Equal(t, 1, task.ID)
	assert.Equal(t, 1, store.Len())

	tl.AssertLogged(t, zapcore.WarnLevel, "failed to publish task event")
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
