// Package websocket streams attack verdicts to a remote collector.
package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pvpguard/combatcore/pkg/core"
)

// ErrDropped is returned when the send queue is full.
var ErrDropped = errors.New("verdict stream backlog full")

// Config holds WebSocket sink configuration.
type Config struct {
	URL    string
	Secret string
}

// Sink implements storage.AuditSink over a WebSocket.
type Sink struct {
	conn     *connection
	cfg      Config
	instance string
}

func New(cfg Config, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		conn:     newConnection(logger),
		cfg:      cfg,
		instance: uuid.NewString(),
	}
}

// Init connects and waits for the collector to acknowledge the hello.
func (s *Sink) Init() error {
	hello, err := marshalEnvelope(TypeHello, HelloPayload{Service: "combatcore", Instance: s.instance})
	if err != nil {
		return err
	}
	s.conn.hello = hello

	if err := s.conn.dial(s.cfg.URL, s.cfg.Secret); err != nil {
		return err
	}
	return s.conn.sendAndWait(hello, TypeHello, ackTimeout)
}

func (s *Sink) Close() error {
	return s.conn.close()
}

// RecordVerdict queues v; it never blocks on the network.
func (s *Sink) RecordVerdict(v core.Verdict) error {
	data, err := marshalEnvelope(TypeVerdict, verdictPayload(v))
	if err != nil {
		return err
	}
	if !s.conn.send(data) {
		return ErrDropped
	}
	return nil
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
