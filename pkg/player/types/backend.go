package types

type Backend string

const (
	BackendUndefined  = Backend("")
	BackendLibVLC     = Backend("libvlc")
	BackendVLCProcess = Backend("vlc-process")
)
