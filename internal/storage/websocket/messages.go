package websocket

import (
	"encoding/json"

	"github.com/pvpguard/combatcore/pkg/core"
)

// Message types on the verdict stream.
const (
	TypeHello   = "hello"
	TypeVerdict = "verdict"
	TypeAck     = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement.
type AckMessage struct {
	Type string `json:"type"`
	For  string `json:"for"`
}

// HelloPayload opens a stream. It is replayed after every reconnect.
type HelloPayload struct {
	Service  string `json:"service"`
	Instance string `json:"instance"`
}

// VerdictPayload is the wire form of core.Verdict.
type VerdictPayload struct {
	Time           int64      `json:"time"` // unix millis
	Attacker       string     `json:"attacker"`
	Victim         string     `json:"victim"`
	Tier           string     `json:"tier"`
	Accepted       bool       `json:"accepted"`
	Reason         string     `json:"reason,omitempty"`
	AttackerEye    [3]float64 `json:"attackerEye"`
	VictimPosition [3]float64 `json:"victimPosition"`
	VictimHeight   float64    `json:"victimHeight"`
	MaxReach       float64    `json:"maxReach"`
	Expansion      float64    `json:"expansion"`
	Horizontal     float64    `json:"horizontal"`
	Vertical       float64    `json:"vertical"`
	Effective      float64    `json:"effective"`
	Revision       uint64     `json:"revision"`
}

func verdictPayload(v core.Verdict) VerdictPayload {
	return VerdictPayload{
		Time:           v.Time.UnixMilli(),
		Attacker:       v.Attacker.String(),
		Victim:         v.Victim.String(),
		Tier:           v.Tier.String(),
		Accepted:       v.Accepted,
		Reason:         v.Reason,
		AttackerEye:    v.AttackerEye,
		VictimPosition: v.VictimPosition,
		VictimHeight:   v.VictimHeight,
		MaxReach:       v.MaxReach,
		Expansion:      v.Expansion,
		Horizontal:     v.Horizontal,
		Vertical:       v.Vertical,
		Effective:      v.Effective,
		Revision:       v.Revision,
	}
}
