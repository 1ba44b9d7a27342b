// Package hostbridge connects the game host to the dispatcher over a line
// protocol. Each request line is
//
//	command|arg|arg...
//
// and each reply is one JSON array line: ["ok", command, result] or
// ["error", command, message]. A nil result is sent as ["ok", command].
package hostbridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pvpguard/combatcore/internal/dispatcher"
)

// CmdTimestamp is answered by the bridge itself with UTC nanoseconds.
const CmdTimestamp = ":TIMESTAMP:"

// maxLine bounds one request line.
const maxLine = 1 << 20

// Dispatcher is the routing surface the bridge needs.
type Dispatcher interface {
	HasHandler(command string) bool
	Dispatch(e dispatcher.Event) (any, error)
}

// Bridge serves one host connection.
type Bridge struct {
	d   Dispatcher
	now func() time.Time

	mu  sync.Mutex
	out *bufio.Writer
}

func New(d Dispatcher, w io.Writer) *Bridge {
	return &Bridge{d: d, now: time.Now, out: bufio.NewWriter(w)}
}

// Serve reads requests from r until EOF or ctx is done. Requests are
// handled in order; every request gets exactly one reply.
func (b *Bridge) Serve(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLine)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return ctx.Err()
				}
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := b.reply(b.Handle(line)); err != nil {
				return fmt.Errorf("writing reply: %w", err)
			}
		}
	}
}

// Handle answers a single request line.
func (b *Bridge) Handle(line string) []any {
	line = strings.TrimRight(line, "\r")
	parts := strings.Split(line, "|")
	command, args := parts[0], parts[1:]

	if command == CmdTimestamp {
		return reply(command, strconv.FormatInt(b.now().UTC().UnixNano(), 10), nil)
	}
	if !b.d.HasHandler(command) {
		return reply(command, nil, errors.New("no handler registered"))
	}

	result, err := b.d.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: b.now(),
	})
	return reply(command, result, err)
}

func reply(command string, result any, err error) []any {
	if err != nil {
		return []any{"error", command, err.Error()}
	}
	if result == nil {
		return []any{"ok", command}
	}
	return []any{"ok", command, result}
}

func (b *Bridge) reply(msg []any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		data, _ = json.Marshal([]any{"error", msg[1], fmt.Sprintf("encoding result: %v", err)})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.out.Write(append(data, '\n')); err != nil {
		return err
	}
	return b.out.Flush()
}
