package hostbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/pvpguard/combatcore/internal/dispatcher"
	"github.com/pvpguard/combatcore/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(d.Close)

	d.Register(":ECHO:", func(e dispatcher.Event) (any, error) {
		return e.Args, nil
	})
	d.Register(":FAIL:", func(dispatcher.Event) (any, error) {
		return nil, errors.New("nope")
	})
	d.Register(":NIL:", func(dispatcher.Event) (any, error) {
		return nil, nil
	})
	d.Register(":NAN:", func(dispatcher.Event) (any, error) {
		return math.NaN(), nil
	})
	return d
}

func decode(t *testing.T, out string) [][]any {
	t.Helper()
	var replies [][]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var msg []any
		require.NoError(t, json.Unmarshal([]byte(line), &msg), line)
		replies = append(replies, msg)
	}
	return replies
}

func TestServe(t *testing.T) {
	var out bytes.Buffer
	b := New(newDispatcher(t), &out)

	in := strings.NewReader(":ECHO:|a|b\n\n:FAIL:\n:NIL:\r\n:MISSING:|x\n")
	require.NoError(t, b.Serve(context.Background(), in))

	assert.Equal(t, [][]any{
		{"ok", ":ECHO:", []any{"a", "b"}},
		{"error", ":FAIL:", "nope"},
		{"ok", ":NIL:"},
		{"error", ":MISSING:", "no handler registered"},
	}, decode(t, out.String()))
}

func TestHandle_Timestamp(t *testing.T) {
	b := New(newDispatcher(t), io.Discard)
	b.now = func() time.Time { return time.Unix(0, 42) }
	assert.Equal(t, []any{"ok", CmdTimestamp, "42"}, b.Handle(CmdTimestamp))
}

func TestHandle_NoArgs(t *testing.T) {
	b := New(newDispatcher(t), io.Discard)
	assert.Equal(t, []any{"ok", ":ECHO:", []string{}}, b.Handle(":ECHO:"))
}

func TestServe_UnencodableResult(t *testing.T) {
	var out bytes.Buffer
	b := New(newDispatcher(t), &out)
	require.NoError(t, b.Serve(context.Background(), strings.NewReader(":NAN:\n")))

	replies := decode(t, out.String())
	require.Len(t, replies, 1)
	assert.Equal(t, "error", replies[0][0])
	assert.Equal(t, ":NAN:", replies[0][1])
}

func TestServe_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(newDispatcher(t), io.Discard).Serve(ctx, pr) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestServe_WriteError(t *testing.T) {
	b := New(newDispatcher(t), failingWriter{})
	err := b.Serve(context.Background(), strings.NewReader(":NIL:\n"))
	assert.ErrorContains(t, err, "broken pipe")
}
