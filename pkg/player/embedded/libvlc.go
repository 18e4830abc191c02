//go:build with_libvlc
// +build with_libvlc

package embedded

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	vlc "github.com/adrg/libvlc-go/v3"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/elixirclient/pkg/player/types"
)

const SupportedLibVLC = true

// libVLC keeps a single global instance, so only one player may exist at once.
var libVLCPlayerCounter int64 = 0

type LibVLC struct {
	Player *vlc.Player
}

var _ NativePlayer = (*LibVLC)(nil)

type libVLCMedia struct {
	*vlc.Media
}

func NewLibVLCFactory(args ...string) NativeFactory {
	return func(ctx context.Context) (NativePlayer, error) {
		return NewLibVLC(ctx, args...)
	}
}

func NewLibVLC(
	ctx context.Context,
	args ...string,
) (_ret *LibVLC, _err error) {
	if atomic.AddInt64(&libVLCPlayerCounter, 1) != 1 {
		atomic.AddInt64(&libVLCPlayerCounter, -1)
		return nil, fmt.Errorf("%w: currently we do not support more than one libVLC player at once", types.ErrInit)
	}
	defer func() {
		if _err != nil {
			atomic.AddInt64(&libVLCPlayerCounter, -1)
		}
	}()

	logger.Debugf(ctx, "initializing libVLC with arguments %v", args)
	if err := vlc.Init(args...); err != nil {
		return nil, fmt.Errorf("%w: unable to initialize libVLC with arguments %v: %w", types.ErrInit, args, err)
	}

	player, err := vlc.NewPlayer()
	if err != nil {
		if releaseErr := vlc.Release(); releaseErr != nil {
			logger.Errorf(ctx, "unable to release libVLC: %v", releaseErr)
		}
		return nil, fmt.Errorf("%w: unable to initialize a libVLC player: %w", types.ErrInit, err)
	}

	return &LibVLC{
		Player: player,
	}, nil
}

func (p *LibVLC) NewMedia(link string) (NativeMedia, error) {
	var (
		media *vlc.Media
		err   error
	)
	if urlParsed, _err := url.Parse(link); _err == nil && urlParsed.Scheme != "" {
		media, err = vlc.NewMediaFromURL(link)
	} else {
		media, err = vlc.NewMediaFromPath(link)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", link, err)
	}
	return libVLCMedia{Media: media}, nil
}

func (p *LibVLC) SetMedia(media NativeMedia) error {
	m, ok := media.(libVLCMedia)
	if !ok {
		return fmt.Errorf("unexpected media type %T", media)
	}
	return p.Player.SetMedia(m.Media)
}

func (p *LibVLC) SetNSObject(view uintptr) error {
	return p.Player.SetNSObject(view)
}

func (p *LibVLC) SetXWindow(window uint32) error {
	return p.Player.SetXWindow(window)
}

func (p *LibVLC) SetHWND(hwnd uintptr) error {
	return p.Player.SetHWND(hwnd)
}

func (p *LibVLC) Play() error {
	return p.Player.Play()
}

func (p *LibVLC) Stop() error {
	return p.Player.Stop()
}

func (p *LibVLC) IsPlaying() bool {
	return p.Player.IsPlaying()
}

func (p *LibVLC) SetPause(pause bool) error {
	return p.Player.SetPause(pause)
}

func (p *LibVLC) AudioTrackDescriptors() (TrackDescriptorList, error) {
	descriptors, err := p.Player.AudioTrackDescriptors()
	if err != nil {
		return nil, err
	}
	return newLibVLCDescriptorList(descriptors), nil
}

func (p *LibVLC) AudioTrackID() (int32, error) {
	id, err := p.Player.AudioTrackID()
	return int32(id), err
}

func (p *LibVLC) SetAudioTrack(id int32) error {
	return p.Player.SetAudioTrack(int(id))
}

func (p *LibVLC) SubtitleTrackDescriptors() (TrackDescriptorList, error) {
	descriptors, err := p.Player.SubtitleTrackDescriptors()
	if err != nil {
		return nil, err
	}
	return newLibVLCDescriptorList(descriptors), nil
}

func (p *LibVLC) SubtitleTrackID() (int32, error) {
	id, err := p.Player.SubtitleTrackID()
	return int32(id), err
}

func (p *LibVLC) SetSubtitleTrack(id int32) error {
	return p.Player.SetSubtitleTrack(int(id))
}

func (p *LibVLC) Release() error {
	err := multierror.Append(
		p.Player.Release(),
		vlc.Release(),
	).ErrorOrNil()
	atomic.AddInt64(&libVLCPlayerCounter, -1)
	return err
}

// libVLCDescriptorList walks descriptors that libvlc-go has already copied
// out of the native list (and released it).
type libVLCDescriptorList struct {
	descriptors []*vlc.MediaTrackDescriptor
	idx         int
}

func newLibVLCDescriptorList(descriptors []*vlc.MediaTrackDescriptor) *libVLCDescriptorList {
	return &libVLCDescriptorList{
		descriptors: descriptors,
		idx:         -1,
	}
}

func (l *libVLCDescriptorList) Next() bool {
	for l.idx+1 < len(l.descriptors) {
		l.idx++
		if l.descriptors[l.idx] != nil {
			return true
		}
	}
	return false
}

func (l *libVLCDescriptorList) Current() (int32, string, bool) {
	d := l.descriptors[l.idx]
	return int32(d.ID), d.Description, d.Description != ""
}

func (l *libVLCDescriptorList) Release() {
	l.descriptors = nil
	l.idx = -1
}
