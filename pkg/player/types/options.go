package types

type Config struct {
	// LibVLCArgs are passed to the libVLC instance on construction.
	LibVLCArgs []string

	// ExternalBinaries is the ordered list of executable names to look up in PATH.
	ExternalBinaries []string

	// ExternalExtraArgs are inserted before the URL when spawning an external player.
	ExternalExtraArgs []string
}

type Option interface {
	Apply(cfg *Config)
}

type Options []Option

func (options Options) Config() Config {
	cfg := Config{}
	options.Apply(&cfg)
	return cfg
}

func (options Options) Apply(cfg *Config) {
	for _, option := range options {
		option.Apply(cfg)
	}
}

type OptionLibVLCArgs []string

func (opt OptionLibVLCArgs) Apply(cfg *Config) {
	cfg.LibVLCArgs = opt
}

type OptionExternalBinaries []string

func (opt OptionExternalBinaries) Apply(cfg *Config) {
	cfg.ExternalBinaries = opt
}

type OptionExternalExtraArgs []string

func (opt OptionExternalExtraArgs) Apply(cfg *Config) {
	cfg.ExternalExtraArgs = opt
}
