package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/elixirclient/pkg/playbackcore"
	"github.com/xaionaro-go/elixirclient/pkg/player/types"
	"github.com/xaionaro-go/observability"
)

func surfaceFromFlags(cmd *cobra.Command) (types.SurfaceHandle, error) {
	var handles []types.SurfaceHandle
	for _, flagName := range []string{"xwindow", "hwnd", "nsview"} {
		v, err := cmd.Flags().GetUint64(flagName)
		if err != nil {
			return nil, fmt.Errorf("unable to get the value of flag '%s': %w", flagName, err)
		}
		if v == 0 {
			continue
		}
		switch flagName {
		case "xwindow":
			handles = append(handles, types.XlibHandle{Window: v})
		case "hwnd":
			handles = append(handles, types.Win32Handle{HWND: uintptr(v)})
		case "nsview":
			handles = append(handles, types.AppKitHandle{NSView: uintptr(v)})
		}
	}
	switch len(handles) {
	case 0:
		return nil, fmt.Errorf("one of --xwindow, --hwnd or --nsview is required")
	case 1:
		return handles[0], nil
	default:
		return nil, fmt.Errorf("only one surface may be given, got %v", handles)
	}
}

func embeddedPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	surface, err := surfaceFromFlags(cmd)
	if err != nil {
		return err
	}
	core, err := newCore(cmd)
	if err != nil {
		return err
	}
	defer closeCore(context.WithoutCancel(ctx), core)

	if err := core.PlayEmbedded(ctx, surface, args[0]); err != nil {
		return err
	}

	lines := make(chan string)
	observability.GoSafe(ctx, func(ctx context.Context) {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	})

	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return core.StopEmbedded(context.WithoutCancel(ctx))
		case line, ok := <-lines:
			if !ok {
				return core.StopEmbedded(ctx)
			}
			isQuit, err := runControlLine(ctx, core, surface, out, line)
			if err != nil {
				logger.Errorf(ctx, "'%s' failed: %v", line, err)
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if isQuit {
				return core.StopEmbedded(ctx)
			}
		}
	}
}

// runControlLine executes one command of the stdin control protocol:
//
//	pause | tracks | ping | audio <id> | subtitle <id> | stop | quit
func runControlLine(
	ctx context.Context,
	core *playbackcore.Core,
	surface types.SurfaceHandle,
	out io.Writer,
	line string,
) (_isQuit bool, _err error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return false, nil
	}

	switch words[0] {
	case "pause":
		isPlaying, err := core.TogglePauseEmbedded(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "playing: %v\n", isPlaying)
	case "tracks":
		info, err := core.GetTrackInfo(ctx)
		if err != nil {
			return false, err
		}
		b, err := yaml.Marshal(info)
		if err != nil {
			return false, fmt.Errorf("unable to serialize %#+v: %w", info, err)
		}
		fmt.Fprint(out, string(b))
	case "ping":
		isBound, err := core.PingEmbeddedSurface(ctx, surface)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "bound: %v\n", isBound)
	case "audio", "subtitle":
		if len(words) != 2 {
			return false, fmt.Errorf("expected exactly one track ID, got %d arguments", len(words)-1)
		}
		id, err := strconv.ParseInt(words[1], 10, 32)
		if err != nil {
			return false, fmt.Errorf("unable to parse track ID '%s': %w", words[1], err)
		}
		if words[0] == "audio" {
			return false, core.SetAudioTrack(ctx, types.TrackID(id))
		}
		return false, core.SetSubtitleTrack(ctx, types.TrackID(id))
	case "stop":
		return false, core.StopEmbedded(ctx)
	case "quit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command '%s'", words[0])
	}
	return false, nil
}
