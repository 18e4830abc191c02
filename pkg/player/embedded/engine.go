package embedded

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/elixirclient/pkg/observability"
	"github.com/xaionaro-go/elixirclient/pkg/player/types"
	"github.com/xaionaro-go/xsync"
)

var ErrClosed = errors.New("the embedded player is closed")

// Engine owns one native player (and the engine instance behind it).
// Every call to the native layer goes through Locker, so concurrent
// calls queue instead of interleaving.
type Engine struct {
	Locker   xsync.Mutex
	Native   NativePlayer
	Media    NativeMedia
	Poisoned bool
}

func New(
	ctx context.Context,
	factory NativeFactory,
) (_ret *Engine, _err error) {
	logger.Debugf(ctx, "New")
	defer func() { logger.Debugf(ctx, "/New: %v", _err) }()

	if factory == nil {
		return nil, fmt.Errorf("%w: no native factory", types.ErrInit)
	}

	native, err := factory(ctx)
	if err != nil {
		if errors.Is(err, types.ErrInit) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", types.ErrInit, err)
	}
	if native == nil {
		return nil, fmt.Errorf("%w: the factory returned no player", types.ErrInit)
	}

	return &Engine{
		Native: native,
	}, nil
}

func (e *Engine) do(
	ctx context.Context,
	fn func(p NativePlayer) error,
) (_err error) {
	e.Locker.Do(ctx, func() {
		_err = e.doLocked(ctx, fn)
	})
	return
}

func (e *Engine) doLocked(
	ctx context.Context,
	fn func(p NativePlayer) error,
) (_err error) {
	if e.Poisoned {
		return types.ErrLock
	}
	if e.Native == nil {
		return ErrClosed
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		// the native state is unknown from now on
		e.Poisoned = true
		observability.ReportPanicIfNotNil(ctx, r)
		_err = fmt.Errorf("%w: the native player panicked: %v", types.ErrLock, r)
	}()
	return fn(e.Native)
}

func doR1[R0 any](
	ctx context.Context,
	e *Engine,
	fn func(p NativePlayer) (R0, error),
) (R0, error) {
	var r0 R0
	err := e.do(ctx, func(p NativePlayer) error {
		var err error
		r0, err = fn(p)
		return err
	})
	return r0, err
}

func (e *Engine) IsPlaying(ctx context.Context) (bool, error) {
	return doR1(ctx, e, func(p NativePlayer) (bool, error) {
		return p.IsPlaying(), nil
	})
}

func (e *Engine) SetPause(ctx context.Context, paused bool) error {
	logger.Debugf(ctx, "SetPause(ctx, %t)", paused)
	return e.do(ctx, func(p NativePlayer) error {
		return p.SetPause(paused)
	})
}

// TogglePause pauses a playing player and resumes a paused one.
// Returns true if the player is playing now.
func (e *Engine) TogglePause(ctx context.Context) (bool, error) {
	logger.Debugf(ctx, "TogglePause")
	return doR1(ctx, e, func(p NativePlayer) (bool, error) {
		isPlaying := p.IsPlaying()
		if err := p.SetPause(isPlaying); err != nil {
			return isPlaying, fmt.Errorf("unable to set pause to %t: %w", isPlaying, err)
		}
		return !isPlaying, nil
	})
}

// BindSurface makes the player render into the given surface. It is safe
// to call it again on an already bound player.
func (e *Engine) BindSurface(
	ctx context.Context,
	surface types.SurfaceHandle,
) (_err error) {
	logger.Tracef(ctx, "BindSurface(ctx, %v)", surface)
	defer func() { logger.Tracef(ctx, "/BindSurface(ctx, %v): %v", surface, _err) }()
	return e.do(ctx, func(p NativePlayer) error {
		return bindSurface(p, surface)
	})
}

// Play opens the link and starts playing it on the surface. The surface is
// re-bound every time, because the host may have recreated it since the
// previous call.
func (e *Engine) Play(
	ctx context.Context,
	surface types.SurfaceHandle,
	link string,
) (_err error) {
	logger.Debugf(ctx, "Play(ctx, %v, '%s')", surface, link)
	defer func() { logger.Debugf(ctx, "/Play(ctx, %v, '%s'): %v", surface, link, _err) }()

	var prevMedia NativeMedia
	defer func() {
		if prevMedia == nil {
			return
		}
		if err := prevMedia.Release(); err != nil {
			logger.Errorf(ctx, "unable to release the previous media: %v", err)
		}
	}()

	return e.do(ctx, func(p NativePlayer) error {
		media, err := p.NewMedia(link)
		if err != nil {
			return fmt.Errorf("%w from '%s': %w", types.ErrMediaCreation, link, err)
		}
		if media == nil {
			return fmt.Errorf("%w from '%s'", types.ErrMediaCreation, link)
		}

		if err := p.SetMedia(media); err != nil {
			if releaseErr := media.Release(); releaseErr != nil {
				logger.Errorf(ctx, "unable to release media '%s': %v", link, releaseErr)
			}
			return fmt.Errorf("unable to attach media '%s' to the player: %w", link, err)
		}
		prevMedia, e.Media = e.Media, media

		if err := bindSurface(p, surface); err != nil {
			return fmt.Errorf("unable to bind the surface %v: %w", surface, err)
		}

		if err := p.Play(); err != nil {
			return fmt.Errorf("%w of '%s': %w", types.ErrPlaybackStart, link, err)
		}
		return nil
	})
}

func (e *Engine) Stop(ctx context.Context) error {
	logger.Debugf(ctx, "Stop")
	return e.do(ctx, func(p NativePlayer) error {
		return p.Stop()
	})
}

func (e *Engine) AudioTracks(ctx context.Context) (types.TrackOptions, error) {
	return doR1(ctx, e, func(p NativePlayer) (types.TrackOptions, error) {
		return audioTracks(ctx, p), nil
	})
}

func (e *Engine) SubtitleTracks(ctx context.Context) (types.TrackOptions, error) {
	return doR1(ctx, e, func(p NativePlayer) (types.TrackOptions, error) {
		return subtitleTracks(ctx, p), nil
	})
}

func (e *Engine) CurrentAudioTrack(ctx context.Context) (types.TrackID, error) {
	return doR1(ctx, e, NativePlayer.AudioTrackID)
}

func (e *Engine) CurrentSubtitleTrack(ctx context.Context) (types.TrackID, error) {
	return doR1(ctx, e, NativePlayer.SubtitleTrackID)
}

// SetAudioTrack does not check the ID against the track list; what happens
// with an unknown ID is up to the native player.
func (e *Engine) SetAudioTrack(ctx context.Context, id types.TrackID) error {
	logger.Debugf(ctx, "SetAudioTrack(ctx, %d)", id)
	return e.do(ctx, func(p NativePlayer) error {
		return p.SetAudioTrack(id)
	})
}

func (e *Engine) SetSubtitleTrack(ctx context.Context, id types.TrackID) error {
	logger.Debugf(ctx, "SetSubtitleTrack(ctx, %d)", id)
	return e.do(ctx, func(p NativePlayer) error {
		return p.SetSubtitleTrack(id)
	})
}

// TrackInfo collects both track lists and both current tracks under one
// lock, so the snapshot is consistent.
func (e *Engine) TrackInfo(ctx context.Context) (types.TrackInfo, error) {
	return doR1(ctx, e, func(p NativePlayer) (types.TrackInfo, error) {
		var (
			info types.TrackInfo
			err  error
		)
		info.Audio = audioTracks(ctx, p)
		if info.CurrentAudio, err = p.AudioTrackID(); err != nil {
			return info, fmt.Errorf("unable to get the current audio track: %w", err)
		}
		info.Subtitles = subtitleTracks(ctx, p)
		if info.CurrentSubtitle, err = p.SubtitleTrackID(); err != nil {
			return info, fmt.Errorf("unable to get the current subtitle track: %w", err)
		}
		return info, nil
	})
}

// audioTracks lists the audio tracks. The native player has no track
// list until some media is playing, so a failure to get it means there
// are no tracks.
func audioTracks(ctx context.Context, p NativePlayer) types.TrackOptions {
	list, err := p.AudioTrackDescriptors()
	if err != nil {
		logger.Debugf(ctx, "unable to get the audio tracks: %v", err)
		return types.TrackOptions{}
	}
	return collectTracks(list)
}

func subtitleTracks(ctx context.Context, p NativePlayer) types.TrackOptions {
	list, err := p.SubtitleTrackDescriptors()
	if err != nil {
		logger.Debugf(ctx, "unable to get the subtitle tracks: %v", err)
		return types.TrackOptions{}
	}
	return collectTracks(list)
}

// Close stops the playback and releases the media, the player and the
// engine instance. The engine is unusable afterwards.
func (e *Engine) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	e.Locker.Do(ctx, func() {
		if e.Native == nil {
			return
		}
		if e.Poisoned {
			// calling into a player in an unknown state may crash the process
			e.Native, e.Media = nil, nil
			_err = fmt.Errorf("%w: leaking the poisoned native player", types.ErrLock)
			return
		}
		var mErr *multierror.Error
		mErr = multierror.Append(mErr, e.Native.Stop())
		if e.Media != nil {
			mErr = multierror.Append(mErr, e.Media.Release())
			e.Media = nil
		}
		mErr = multierror.Append(mErr, e.Native.Release())
		e.Native = nil
		_err = mErr.ErrorOrNil()
	})
	return
}
