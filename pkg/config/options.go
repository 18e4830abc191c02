package config

type Option interface {
	Apply(cfg *Config)
}

type Options []Option

func (options Options) ApplyOverrides(cfg Config) Config {
	for _, option := range options {
		option.Apply(&cfg)
	}
	return cfg
}

type OptionExternalBinaries []string

func (o OptionExternalBinaries) Apply(cfg *Config) {
	cfg.ExternalPlayer.Binaries = o
}

type OptionLibVLCArgs []string

func (o OptionLibVLCArgs) Apply(cfg *Config) {
	cfg.EmbeddedPlayer.LibVLCArgs = o
}
