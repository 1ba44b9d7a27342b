package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/pvpguard/combatcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageLog struct {
	mu       sync.Mutex
	messages []Envelope
	secrets  []string
}

func (m *messageLog) add(env Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Envelope(nil), m.messages...)
}

func (m *messageLog) count(msgType string) int {
	n := 0
	for _, e := range m.all() {
		if e.Type == msgType {
			n++
		}
	}
	return n
}

// testServer acks hello messages and records everything it receives. When
// dropFirst is set, the first connection is closed right after its ack.
func testServer(t *testing.T, dropFirst bool) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.mu.Lock()
		ml.secrets = append(ml.secrets, r.URL.Query().Get("secret"))
		ml.mu.Unlock()

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		n := conns.Add(1)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var env Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == TypeHello {
				data, _ := json.Marshal(AckMessage{Type: TypeAck, For: TypeHello})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
				if dropFirst && n == 1 {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, ml
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func sampleVerdict() core.Verdict {
	return core.Verdict{
		Time:           time.UnixMilli(1_700_000_000_000),
		Attacker:       uuid.New(),
		Victim:         uuid.New(),
		Tier:           core.TierModern,
		AttackerEye:    core.NewVec3(0, 1.62, 0),
		VictimPosition: core.NewVec3(3.5, 0, 0),
		Accepted:       false,
		Reason:         "too_far_effective",
		Effective:      3.4,
	}
}

func TestInit_SendsHelloWithSecret(t *testing.T) {
	srv, ml := testServer(t, false)

	s := New(Config{URL: wsURL(srv), Secret: "s3cret"}, nil)
	require.NoError(t, s.Init())
	defer s.Close()

	msgs := ml.all()
	require.NotEmpty(t, msgs)
	assert.Equal(t, TypeHello, msgs[0].Type)

	var hello HelloPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &hello))
	assert.Equal(t, "combatcore", hello.Service)
	assert.Equal(t, s.instance, hello.Instance)

	ml.mu.Lock()
	assert.Equal(t, "s3cret", ml.secrets[0])
	ml.mu.Unlock()
}

func TestRecordVerdict_Streams(t *testing.T) {
	srv, ml := testServer(t, false)

	s := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, s.Init())
	defer s.Close()

	v := sampleVerdict()
	require.NoError(t, s.RecordVerdict(v))

	require.Eventually(t, func() bool { return ml.count(TypeVerdict) == 1 }, time.Second, 5*time.Millisecond)

	var got VerdictPayload
	for _, e := range ml.all() {
		if e.Type == TypeVerdict {
			require.NoError(t, json.Unmarshal(e.Payload, &got))
		}
	}
	assert.Equal(t, v.Attacker.String(), got.Attacker)
	assert.Equal(t, "modern", got.Tier)
	assert.Equal(t, "too_far_effective", got.Reason)
	assert.Equal(t, [3]float64{3.5, 0, 0}, got.VictimPosition)
	assert.Equal(t, int64(1_700_000_000_000), got.Time)
}

func TestReconnect_ReplaysHello(t *testing.T) {
	srv, ml := testServer(t, true)

	s := New(Config{URL: wsURL(srv)}, nil)
	s.conn.initialBackoff = 10 * time.Millisecond
	require.NoError(t, s.Init())
	defer s.Close()

	require.Eventually(t, func() bool { return ml.count(TypeHello) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		s.conn.mu.Lock()
		defer s.conn.mu.Unlock()
		return s.conn.conn != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.RecordVerdict(sampleVerdict()))
	assert.Eventually(t, func() bool { return ml.count(TypeVerdict) == 1 }, time.Second, 10*time.Millisecond)
}

func TestInit_DialFailure(t *testing.T) {
	s := New(Config{URL: "ws://127.0.0.1:1/verdicts"}, nil)
	err := s.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "websocket dial failed")
	assert.NoError(t, s.Close())
}

func TestClose_Idempotent(t *testing.T) {
	srv, _ := testServer(t, false)
	s := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, s.Init())

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
