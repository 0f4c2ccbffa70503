package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/aspenlabs/aspentap/internal/capture"
	"github.com/aspenlabs/aspentap/internal/config"
	"github.com/aspenlabs/aspentap/internal/logging"
	"github.com/aspenlabs/aspentap/internal/observability"
	"github.com/aspenlabs/aspentap/internal/protocol"
	"github.com/aspenlabs/aspentap/internal/protocol/frame"
	"github.com/aspenlabs/aspentap/internal/sink"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config")
	flag.Parse()

	logger := observability.InitLogger("aspentap", logging.ConfigureRuntime())

	cfg, err := config.LoadTapConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if flag.NArg() == 0 {
		logger.Fatal().Msg("usage: aspentap [-config file] recording...")
	}

	if cfg.MetricsAddr != "" {
		observability.RegisterMetrics()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	out, err := openSink(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open sink")
	}
	defer out.Close()

	ctx := context.Background()
	for _, path := range flag.Args() {
		if err := replay(ctx, cfg, logger, out, path); err != nil {
			logger.Error().Err(err).Str("recording", path).Msg("replay failed")
		}
	}
}

func openSink(cfg config.TapConfig, logger zerolog.Logger) (sink.Sink, error) {
	switch cfg.Sink {
	case config.SinkNATS:
		return sink.NewNATSSink(cfg.NATSURL, cfg.NATSSubject)
	default:
		return sink.NewLogSink(logger), nil
	}
}

func replay(ctx context.Context, cfg config.TapConfig, logger zerolog.Logger, out sink.Sink, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	rd, err := capture.NewReader(f)
	if err != nil {
		return fmt.Errorf("read recording header: %w", err)
	}

	server, err := cfg.ServerEndpoint()
	if err != nil {
		return err
	}
	limits := frame.Limits{MaxFrameBytes: cfg.MaxFrameBytes}
	opts := protocol.Options{
		StrictUTF8:            cfg.StrictUTF8,
		WarnTrailingAfterNone: cfg.WarnTrailingBytes,
	}
	conv := protocol.NewConversation(server, limits, opts)
	conn := fmt.Sprintf("%s<->%s", rd.Client(), rd.Server())
	var failed [2]bool

	for {
		chunk, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read chunk: %w", err)
		}

		flow := protocol.Flow{Src: chunk.Src, Dst: chunk.Dst}
		dir := protocol.Classify(flow, server)
		if failed[dir] {
			continue
		}
		results, need, feedErr := conv.Feed(flow, chunk.Data)
		for _, res := range results {
			record(res)
			if err := out.Publish(ctx, sink.FromResult(conn, res)); err != nil {
				return fmt.Errorf("publish: %w", err)
			}
		}
		if feedErr != nil {
			failed[dir] = true
			observability.RecordStreamFailure(dir.String())
			logger.Error().Err(feedErr).
				Str("conn", conn).
				Str("direction", dir.String()).
				Msg("stream reassembly failed")
			// Fatal for this direction only; the peer stream may still decode.
			continue
		}
		if need > 0 {
			logger.Debug().Str("conn", conn).Uint64("need", need).Msg("awaiting bytes")
		}
	}

	logger.Info().Str("recording", path).Str("conn", conn).Msg("replay complete")
	return nil
}

func record(res protocol.Result) {
	if res.Msg != nil {
		observability.RecordFrame(
			res.Msg.Direction.String(),
			res.Msg.Header.Kind.String(),
			res.Msg.Header.PayloadLen,
		)
	}
	for _, d := range res.Diags {
		observability.RecordDiagnostic(d.Severity.String())
	}
}
