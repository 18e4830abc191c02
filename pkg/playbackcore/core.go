// Package playbackcore is the set of operations the UI layer invokes.
// It keeps no state of its own and delegates to the embedded player slot,
// the external process player and the discovery service.
package playbackcore

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/elixirclient/pkg/discovery"
	"github.com/xaionaro-go/elixirclient/pkg/player"
	"github.com/xaionaro-go/elixirclient/pkg/player/embedded"
	"github.com/xaionaro-go/elixirclient/pkg/player/process"
	"github.com/xaionaro-go/elixirclient/pkg/player/types"
)

// maxTimeoutMS is the longest discovery timeout representable as time.Duration.
const maxTimeoutMS = uint64(math.MaxInt64 / int64(time.Millisecond))

var ErrEmbeddedUnavailable = fmt.Errorf("%w: libVLC is not available", types.ErrInit)

type Core struct {
	Embedded      *player.Manager
	External      *process.Player
	Discoverer    *discovery.Discoverer
	HealthChecker *discovery.HealthChecker
}

func New(
	embedded *player.Manager,
	external *process.Player,
	discoverer *discovery.Discoverer,
) *Core {
	return &Core{
		Embedded:      embedded,
		External:      external,
		Discoverer:    discoverer,
		HealthChecker: discovery.NewHealthChecker(),
	}
}

// DiscoverHosts scans the local network for media hosts for timeoutMS
// milliseconds (the discoverer default if nil).
func (c *Core) DiscoverHosts(
	ctx context.Context,
	timeoutMS *uint64,
) ([]discovery.Record, error) {
	return c.Discoverer.Discover(ctx, timeoutFromMS(timeoutMS))
}

// CheckHosts tells which of the discovered hosts answer on their health
// endpoint.
func (c *Core) CheckHosts(
	ctx context.Context,
	records []discovery.Record,
) []discovery.Health {
	return c.HealthChecker.CheckAll(ctx, records)
}

func timeoutFromMS(timeoutMS *uint64) *time.Duration {
	if timeoutMS == nil {
		return nil
	}
	d := time.Duration(min(*timeoutMS, maxTimeoutMS)) * time.Millisecond
	return &d
}

// SupportedBackends lists the playback backends usable right now.
func (c *Core) SupportedBackends(ctx context.Context) []types.Backend {
	return c.Embedded.SupportedBackends(ctx)
}

func (c *Core) IsExternalPlayerAvailable(ctx context.Context) bool {
	return c.External.IsAvailable()
}

func (c *Core) PlayExternal(ctx context.Context, link string) error {
	return c.External.Play(ctx, link)
}

func (c *Core) StopExternal(ctx context.Context) error {
	return c.External.Stop(ctx)
}

func (c *Core) IsEmbeddedPlayerAvailable(ctx context.Context) bool {
	return c.Embedded.IsAvailable(ctx)
}

func (c *Core) withEngine(
	ctx context.Context,
	fn func(ctx context.Context, engine *embedded.Engine) error,
) error {
	return c.Embedded.Ensure(ctx, func(ctx context.Context, engine *embedded.Engine) error {
		if engine == nil {
			return ErrEmbeddedUnavailable
		}
		return fn(ctx, engine)
	})
}

func (c *Core) PlayEmbedded(
	ctx context.Context,
	surface types.SurfaceHandle,
	link string,
) error {
	return c.withEngine(ctx, func(ctx context.Context, engine *embedded.Engine) error {
		return engine.Play(ctx, surface, link)
	})
}

// StopEmbedded never fails because of the player itself: a failed stop is
// only logged.
func (c *Core) StopEmbedded(ctx context.Context) error {
	return c.Embedded.Ensure(ctx, func(ctx context.Context, engine *embedded.Engine) error {
		if engine == nil {
			return nil
		}
		if err := engine.Stop(ctx); err != nil {
			logger.Warnf(ctx, "unable to stop the embedded player: %v", err)
		}
		return nil
	})
}

// PingEmbeddedSurface re-binds the surface to check that it is still
// usable. Returns false (and no error) if there is no embedded player.
func (c *Core) PingEmbeddedSurface(
	ctx context.Context,
	surface types.SurfaceHandle,
) (bool, error) {
	var isBound bool
	err := c.Embedded.Ensure(ctx, func(ctx context.Context, engine *embedded.Engine) error {
		if engine == nil {
			return nil
		}
		if err := engine.BindSurface(ctx, surface); err != nil {
			return err
		}
		isBound = true
		return nil
	})
	return isBound, err
}

// TogglePauseEmbedded returns true if the player is playing after the call.
func (c *Core) TogglePauseEmbedded(ctx context.Context) (bool, error) {
	var isPlaying bool
	err := c.withEngine(ctx, func(ctx context.Context, engine *embedded.Engine) error {
		var err error
		isPlaying, err = engine.TogglePause(ctx)
		return err
	})
	return isPlaying, err
}

func (c *Core) GetTrackInfo(ctx context.Context) (types.TrackInfo, error) {
	var info types.TrackInfo
	err := c.withEngine(ctx, func(ctx context.Context, engine *embedded.Engine) error {
		var err error
		info, err = engine.TrackInfo(ctx)
		return err
	})
	return info, err
}

func (c *Core) SetAudioTrack(ctx context.Context, id types.TrackID) error {
	return c.withEngine(ctx, func(ctx context.Context, engine *embedded.Engine) error {
		return engine.SetAudioTrack(ctx, id)
	})
}

func (c *Core) SetSubtitleTrack(ctx context.Context, id types.TrackID) error {
	return c.withEngine(ctx, func(ctx context.Context, engine *embedded.Engine) error {
		return engine.SetSubtitleTrack(ctx, id)
	})
}

// Close kills the external player and releases the embedded one.
func (c *Core) Close(ctx context.Context) error {
	var mErr *multierror.Error
	mErr = multierror.Append(mErr, c.External.Close(ctx))
	mErr = multierror.Append(mErr, c.Embedded.Close(ctx))
	return mErr.ErrorOrNil()
}
