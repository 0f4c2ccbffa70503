// Package sink delivers decoded messages and diagnostics to a presentation
// or logging collaborator. The protocol core stays I/O-free; anything that
// renders or ships events lives here.
package sink

import (
	"context"

	"github.com/aspenlabs/aspentap/internal/protocol"
)

// Event is the unified output record for one decode result.
type Event struct {
	Conn      string `json:"conn"`
	Direction string `json:"direction,omitempty"`
	Kind      string `json:"kind,omitempty"`
	ReqID     uint64 `json:"req_id,omitempty"`
	Start     uint64 `json:"start"`
	End       uint64 `json:"end"`

	Fields map[string]any `json:"fields,omitempty"`

	Diagnostics []DiagnosticEvent `json:"diagnostics,omitempty"`
}

// DiagnosticEvent is the serializable form of a protocol.Diagnostic.
type DiagnosticEvent struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Start    uint64 `json:"start"`
	End      uint64 `json:"end"`
}

// Sink receives events in decode order.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// FromResult flattens one decode result into an Event. conn labels the
// originating connection; the caller chooses the labeling scheme.
func FromResult(conn string, res protocol.Result) Event {
	ev := Event{Conn: conn}

	if msg := res.Msg; msg != nil {
		ev.Direction = msg.Direction.String()
		ev.Kind = msg.Header.Kind.String()
		ev.ReqID = msg.ReqID
		ev.Start = msg.Range.Start
		ev.End = msg.Range.End
		ev.Fields = bodyFields(msg.Body)
	} else if len(res.Diags) > 0 {
		ev.Start = res.Diags[0].Range.Start
		ev.End = res.Diags[0].Range.End
	}

	for _, d := range res.Diags {
		ev.Diagnostics = append(ev.Diagnostics, DiagnosticEvent{
			Severity: d.Severity.String(),
			Message:  d.Message,
			Start:    d.Range.Start,
			End:      d.Range.End,
		})
	}
	return ev
}

func bodyFields(body protocol.Body) map[string]any {
	switch b := body.(type) {
	case protocol.BeReadRequest:
		return map[string]any{"substring": b.Substring}
	case protocol.LcReadRequest:
		return map[string]any{"id": b.ID}
	case protocol.LcWriteRequest:
		return map[string]any{"id": b.ID, "username": b.Username}
	case protocol.BeReadResponse:
		return map[string]any{"freq": b.Freq}
	case protocol.LcResponse:
		fields := map[string]any{"present": b.Present}
		if b.Present {
			fields["username"] = b.Username
		}
		return fields
	case protocol.UnknownBody:
		return map[string]any{"raw_len": len(b.Raw)}
	}
	return nil
}
