package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/elixirclient/pkg/config"
	"github.com/xaionaro-go/elixirclient/pkg/discovery"
	"github.com/xaionaro-go/elixirclient/pkg/observability"
	"github.com/xaionaro-go/elixirclient/pkg/playbackcore"
	"github.com/xaionaro-go/elixirclient/pkg/player"
	"github.com/xaionaro-go/xpath"
)

var (
	// Access these variables only from a main package:

	Root = &cobra.Command{
		Use:          os.Args[0],
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			observability.LogLevelFilter.SetLevel(LoggerLevel)
			logger.Debugf(ctx, "log-level: %v", LoggerLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			logger.Debug(ctx, "end")
		},
	}

	GenerateConfig = &cobra.Command{
		Use:  "generate-config",
		Args: cobra.ExactArgs(0),
		RunE: generateConfig,
	}

	Discover = &cobra.Command{
		Use:   "discover",
		Short: "list the media hosts announced on the local network",
		Args:  cobra.ExactArgs(0),
		RunE:  discover,
	}

	Backends = &cobra.Command{
		Use:   "backends",
		Short: "list the playback backends usable on this machine",
		Args:  cobra.ExactArgs(0),
		RunE:  backends,
	}

	External = &cobra.Command{
		Use:   "external",
		Short: "control a separate VLC process",
	}

	ExternalAvailable = &cobra.Command{
		Use:  "available",
		Args: cobra.ExactArgs(0),
		RunE: externalAvailable,
	}

	ExternalPlay = &cobra.Command{
		Use:   "play URL",
		Short: "start a VLC process for the URL and stop it on interrupt",
		Args:  cobra.ExactArgs(1),
		RunE:  externalPlay,
	}

	Embedded = &cobra.Command{
		Use:   "embedded",
		Short: "control the in-process libVLC player",
	}

	EmbeddedAvailable = &cobra.Command{
		Use:  "available",
		Args: cobra.ExactArgs(0),
		RunE: embeddedAvailable,
	}

	EmbeddedPlay = &cobra.Command{
		Use:   "play URL",
		Short: "play into a native window and read control commands from stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  embeddedPlay,
	}

	LoggerLevel = logger.LevelWarning
)

func init() {
	Root.PersistentFlags().Var(&LoggerLevel, "log-level", "")
	addConfigFlags(Root)

	Discover.Flags().Uint64("timeout-ms", 0, "how long to listen for announcements; zero means the configured default")
	Discover.Flags().Bool("check-health", false, "also check if every found host answers on its health endpoint")
	EmbeddedPlay.Flags().Uint64("xwindow", 0, "the X11 window ID to render into")
	EmbeddedPlay.Flags().Uint64("hwnd", 0, "the Win32 window handle to render into")
	EmbeddedPlay.Flags().Uint64("nsview", 0, "the pointer of the NSView to render into")

	External.AddCommand(ExternalAvailable)
	External.AddCommand(ExternalPlay)
	Embedded.AddCommand(EmbeddedAvailable)
	Embedded.AddCommand(EmbeddedPlay)

	Root.AddCommand(GenerateConfig)
	Root.AddCommand(Discover)
	Root.AddCommand(Backends)
	Root.AddCommand(External)
	Root.AddCommand(Embedded)
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config-path", "~/.elixirctl.yaml", "the path to the config file")
	cmd.PersistentFlags().StringArray("external-binary", nil, "overrides the VLC executables to look up, in order of preference")
	cmd.PersistentFlags().StringArray("libvlc-arg", nil, "overrides the arguments of the libVLC instance")
}

func getConfigPath(cmd *cobra.Command) (string, error) {
	cfgPathRaw, err := cmd.Flags().GetString("config-path")
	if err != nil {
		return "", fmt.Errorf("unable to get the value of flag 'config-path': %w", err)
	}
	return xpath.Expand(cfgPathRaw)
}

// configOverrides collects the config values set by command line flags.
func configOverrides(cmd *cobra.Command) (config.Options, error) {
	var opts config.Options
	if cmd.Flags().Changed("external-binary") {
		binaries, err := cmd.Flags().GetStringArray("external-binary")
		if err != nil {
			return nil, fmt.Errorf("unable to get the value of flag 'external-binary': %w", err)
		}
		opts = append(opts, config.OptionExternalBinaries(binaries))
	}
	if cmd.Flags().Changed("libvlc-arg") {
		args, err := cmd.Flags().GetStringArray("libvlc-arg")
		if err != nil {
			return nil, fmt.Errorf("unable to get the value of flag 'libvlc-arg': %w", err)
		}
		opts = append(opts, config.OptionLibVLCArgs(args))
	}
	return opts, nil
}

func readConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, err := getConfigPath(cmd)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.ReadOrDefault(cmd.Context(), cfgPath)
	if err != nil {
		return config.Config{}, err
	}
	overrides, err := configOverrides(cmd)
	if err != nil {
		return config.Config{}, err
	}
	return overrides.ApplyOverrides(cfg), nil
}

func newCore(cmd *cobra.Command) (*playbackcore.Core, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, err
	}
	manager := player.NewManager(nil, cfg.PlayerOptions()...)
	return playbackcore.New(
		manager,
		manager.NewExternalPlayer(),
		discovery.New(discovery.NewZeroconfBrowser(), cfg.DiscoveryOptions()...),
	), nil
}

func closeCore(ctx context.Context, core *playbackcore.Core) {
	if err := core.Close(ctx); err != nil {
		logger.Errorf(ctx, "unable to close the players: %v", err)
	}
}

func generateConfig(cmd *cobra.Command, args []string) error {
	cfgPath, err := getConfigPath(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("file '%s' already exists", cfgPath)
	}
	return config.WriteConfigToPath(cmd.Context(), cfgPath, config.Default())
}

func discover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	core, err := newCore(cmd)
	if err != nil {
		return err
	}
	defer closeCore(ctx, core)

	timeoutMS, err := cmd.Flags().GetUint64("timeout-ms")
	if err != nil {
		return fmt.Errorf("unable to get the value of flag 'timeout-ms': %w", err)
	}
	var timeoutPtr *uint64
	if timeoutMS > 0 {
		timeoutPtr = &timeoutMS
	}

	checkHealth, err := cmd.Flags().GetBool("check-health")
	if err != nil {
		return fmt.Errorf("unable to get the value of flag 'check-health': %w", err)
	}

	records, err := core.DiscoverHosts(ctx, timeoutPtr)
	if err != nil {
		return err
	}
	if checkHealth {
		return printYAML(cmd, core.CheckHosts(ctx, records))
	}
	return printYAML(cmd, records)
}

func backends(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	core, err := newCore(cmd)
	if err != nil {
		return err
	}
	defer closeCore(ctx, core)
	return printYAML(cmd, core.SupportedBackends(ctx))
}

func printYAML(cmd *cobra.Command, value any) error {
	b, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("unable to serialize %#+v: %w", value, err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}

func externalAvailable(cmd *cobra.Command, args []string) error {
	core, err := newCore(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), core.IsExternalPlayerAvailable(cmd.Context()))
	return nil
}

func externalPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	core, err := newCore(cmd)
	if err != nil {
		return err
	}
	if err := core.PlayExternal(ctx, args[0]); err != nil {
		return err
	}

	// the player process is tied to this one, so keep running until interrupted
	<-ctx.Done()
	logger.Debugf(ctx, "interrupted, stopping the player")
	return core.StopExternal(context.WithoutCancel(ctx))
}

func embeddedAvailable(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	core, err := newCore(cmd)
	if err != nil {
		return err
	}
	defer closeCore(ctx, core)
	fmt.Fprintln(cmd.OutOrStdout(), core.IsEmbeddedPlayerAvailable(ctx))
	return nil
}
