package embedded

import (
	"context"
)

// NativeFactory constructs the native engine instance together with a
// player bound to it. On failure nothing may be left allocated.
type NativeFactory func(ctx context.Context) (NativePlayer, error)

type NativeMedia interface {
	Release() error
}

// NativePlayer is the native media player handle. Implementations are not
// required to be safe for concurrent use: Engine serializes every call.
type NativePlayer interface {
	NewMedia(link string) (NativeMedia, error)
	SetMedia(media NativeMedia) error

	SetNSObject(view uintptr) error
	SetXWindow(window uint32) error
	SetHWND(hwnd uintptr) error

	Play() error
	Stop() error
	IsPlaying() bool
	SetPause(pause bool) error

	AudioTrackDescriptors() (TrackDescriptorList, error)
	AudioTrackID() (int32, error)
	SetAudioTrack(id int32) error

	SubtitleTrackDescriptors() (TrackDescriptorList, error)
	SubtitleTrackID() (int32, error)
	SetSubtitleTrack(id int32) error

	// Release releases the player and the engine instance it belongs to.
	Release() error
}
