package testutil

import (
	"encoding/json"
	"testing"

	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/stretchr/testify/require"
)

// Drain returns every packet queued on s without blocking.
func Drain(t *testing.T, s *session.Session) []packet.Packet {
	t.Helper()
	var out []packet.Packet
	for {
		select {
		case data := <-s.SendChan:
			var pkt packet.Packet
			require.NoError(t, json.Unmarshal(data, &pkt))
			out = append(out, pkt)
		default:
			return out
		}
	}
}

// Types returns the type of every packet.
func Types(pkts []packet.Packet) []string {
	out := make([]string, len(pkts))
	for i, p := range pkts {
		out[i] = p.Type
	}
	return out
}

// Payload decodes the payload of pkt into a new T.
func Payload[T any](t *testing.T, pkt packet.Packet) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(pkt.Payload, &v))
	return v
}
