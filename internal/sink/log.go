package sink

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink renders events through a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, ev Event) error {
	entry := s.logger.Info()
	if len(ev.Diagnostics) > 0 && ev.Kind == "" {
		entry = s.logger.Warn()
	}
	entry = entry.
		Str("conn", ev.Conn).
		Uint64("start", ev.Start).
		Uint64("end", ev.End)
	if ev.Kind != "" {
		entry = entry.
			Str("direction", ev.Direction).
			Str("kind", ev.Kind).
			Uint64("req_id", ev.ReqID).
			Interface("fields", ev.Fields)
	}
	if len(ev.Diagnostics) > 0 {
		entry = entry.Interface("diagnostics", ev.Diagnostics)
	}
	entry.Msg("decoded")
	return nil
}

func (s *LogSink) Close() error { return nil }
