package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/elixirclient/pkg/discovery"
	"github.com/xaionaro-go/elixirclient/pkg/player/process"
	"github.com/xaionaro-go/elixirclient/pkg/player/types"
)

type Config struct {
	Discovery      DiscoveryConfig      `yaml:"discovery"`
	ExternalPlayer ExternalPlayerConfig `yaml:"external_player"`
	EmbeddedPlayer EmbeddedPlayerConfig `yaml:"embedded_player"`
}

type DiscoveryConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type ExternalPlayerConfig struct {
	Binaries  []string `yaml:"binaries"`
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

type EmbeddedPlayerConfig struct {
	LibVLCArgs []string `yaml:"libvlc_args,omitempty"`
}

func Default() Config {
	return Config{
		Discovery: DiscoveryConfig{
			Timeout:      discovery.DefaultTimeout,
			PollInterval: discovery.PollInterval,
		},
		ExternalPlayer: ExternalPlayerConfig{
			Binaries: append([]string{}, process.DefaultBinaryNames...),
		},
	}
}

// PlayerOptions returns the options for the player packages.
func (cfg Config) PlayerOptions() types.Options {
	return types.Options{
		types.OptionLibVLCArgs(cfg.EmbeddedPlayer.LibVLCArgs),
		types.OptionExternalBinaries(cfg.ExternalPlayer.Binaries),
		types.OptionExternalExtraArgs(cfg.ExternalPlayer.ExtraArgs),
	}
}

// DiscoveryOptions returns the options for discovery.New. Zero values
// leave the defaults in place.
func (cfg Config) DiscoveryOptions() discovery.Options {
	var opts discovery.Options
	if cfg.Discovery.Timeout > 0 {
		opts = append(opts, discovery.OptionDefaultTimeout(cfg.Discovery.Timeout))
	}
	if cfg.Discovery.PollInterval > 0 {
		opts = append(opts, discovery.OptionPollInterval(cfg.Discovery.PollInterval))
	}
	return opts
}

func ReadConfigFromPath(
	ctx context.Context,
	cfgPath string,
	cfg *Config,
) error {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to read file '%s': %w", cfgPath, err)
	}

	_, err = cfg.Read(b)
	return err
}

// ReadOrDefault reads the config from the path, or returns the default
// one if the file does not exist.
func ReadOrDefault(
	ctx context.Context,
	cfgPath string,
) (Config, error) {
	cfg := Default()
	err := ReadConfigFromPath(ctx, cfgPath, &cfg)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, fs.ErrNotExist):
		logger.Debugf(ctx, "cannot find file '%s', using the default config", cfgPath)
		return Default(), nil
	default:
		return Config{}, err
	}
}

func WriteConfigToPath(
	ctx context.Context,
	cfgPath string,
	cfg Config,
) error {
	pathNew := cfgPath + ".new"
	f, err := os.OpenFile(pathNew, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0640)
	if err != nil {
		return fmt.Errorf("unable to open the file '%s': %w", pathNew, err)
	}
	_, err = cfg.WriteTo(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("unable to write data to file '%s': %w", pathNew, err)
	}
	err = os.Rename(pathNew, cfgPath)
	if err != nil {
		return fmt.Errorf("cannot move '%s' to '%s': %w", pathNew, cfgPath, err)
	}
	logger.Infof(ctx, "wrote to '%s' config %#+v", cfgPath, cfg)
	return nil
}
