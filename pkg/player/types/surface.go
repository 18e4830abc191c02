package types

import (
	"fmt"
)

// SurfaceHandle is a platform-specific reference to a window or a view
// owned by the host. The set of implementations is closed: only the types
// of this package implement it.
type SurfaceHandle interface {
	fmt.Stringer
	isSurfaceHandle()
}

// AppKitHandle is a macOS NSView pointer.
type AppKitHandle struct {
	NSView uintptr
}

// UIKitHandle is an iOS UIView pointer.
type UIKitHandle struct {
	UIView uintptr
}

// XlibHandle is an X11 window ID; zero means the window is not realized yet.
type XlibHandle struct {
	Window  uint64
	Display uintptr
}

// Win32Handle is a Windows HWND.
type Win32Handle struct {
	HWND      uintptr
	HInstance uintptr
}

type XcbHandle struct {
	Window     uint32
	Connection uintptr
}

type WaylandHandle struct {
	Surface uintptr
	Display uintptr
}

type AndroidNDKHandle struct {
	ANativeWindow uintptr
}

type WebHandle struct {
	ID uint32
}

func (AppKitHandle) isSurfaceHandle()     {}
func (UIKitHandle) isSurfaceHandle()      {}
func (XlibHandle) isSurfaceHandle()       {}
func (Win32Handle) isSurfaceHandle()      {}
func (XcbHandle) isSurfaceHandle()        {}
func (WaylandHandle) isSurfaceHandle()    {}
func (AndroidNDKHandle) isSurfaceHandle() {}
func (WebHandle) isSurfaceHandle()        {}

func (h AppKitHandle) String() string     { return fmt.Sprintf("appkit:%#x", h.NSView) }
func (h UIKitHandle) String() string      { return fmt.Sprintf("uikit:%#x", h.UIView) }
func (h XlibHandle) String() string       { return fmt.Sprintf("xlib:%#x", h.Window) }
func (h Win32Handle) String() string      { return fmt.Sprintf("win32:%#x", h.HWND) }
func (h XcbHandle) String() string        { return fmt.Sprintf("xcb:%#x", h.Window) }
func (h WaylandHandle) String() string    { return fmt.Sprintf("wayland:%#x", h.Surface) }
func (h AndroidNDKHandle) String() string { return fmt.Sprintf("android:%#x", h.ANativeWindow) }
func (h WebHandle) String() string        { return fmt.Sprintf("web:%d", h.ID) }
