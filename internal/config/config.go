package config

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TapConfig configures one decoding run: where the server lives (for
// direction classification), decoder permissiveness, and output plumbing.
type TapConfig struct {
	ServerAddr    string `toml:"server_addr"`
	MaxFrameBytes uint64 `toml:"max_frame_bytes"`

	StrictUTF8        bool `toml:"strict_utf8"`
	WarnTrailingBytes bool `toml:"warn_trailing_bytes"`

	Sink        string `toml:"sink"`
	NATSURL     string `toml:"nats_url"`
	NATSSubject string `toml:"nats_subject"`

	MetricsAddr string `toml:"metrics_addr"`
}

const (
	SinkLog  = "log"
	SinkNATS = "nats"
)

func DefaultTapConfig() TapConfig {
	return TapConfig{
		ServerAddr:        "127.0.0.1:12345",
		MaxFrameBytes:     8 * 1024 * 1024,
		StrictUTF8:        false,
		WarnTrailingBytes: true,
		Sink:              SinkLog,
		NATSURL:           "nats://localhost:4222",
		NATSSubject:       "aspentap.messages",
	}
}

func LoadTapConfig(path string) (TapConfig, error) {
	cfg := DefaultTapConfig()
	if path != "" {
		if err := loadToml(path, &cfg); err != nil {
			return TapConfig{}, err
		}
	}
	if err := ValidateTapConfig(cfg); err != nil {
		return TapConfig{}, err
	}
	return cfg, nil
}

func ValidateTapConfig(cfg TapConfig) error {
	if _, err := netip.ParseAddrPort(cfg.ServerAddr); err != nil {
		return fmt.Errorf("config: invalid server_addr %q: %w", cfg.ServerAddr, err)
	}
	if cfg.MaxFrameBytes < 9 {
		return fmt.Errorf("config: max_frame_bytes %d cannot hold a header", cfg.MaxFrameBytes)
	}
	switch cfg.Sink {
	case SinkLog:
	case SinkNATS:
		if cfg.NATSURL == "" {
			return fmt.Errorf("config: sink %q requires nats_url", cfg.Sink)
		}
		if cfg.NATSSubject == "" {
			return fmt.Errorf("config: sink %q requires nats_subject", cfg.Sink)
		}
	default:
		return fmt.Errorf("config: unknown sink %q", cfg.Sink)
	}
	return nil
}

// ServerEndpoint parses ServerAddr. Validate has already checked it.
func (c TapConfig) ServerEndpoint() (netip.AddrPort, error) {
	return netip.ParseAddrPort(c.ServerAddr)
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
