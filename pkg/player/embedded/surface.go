package embedded

import (
	"fmt"

	"github.com/xaionaro-go/elixirclient/pkg/player/types"
)

func bindSurface(p NativePlayer, surface types.SurfaceHandle) error {
	switch h := surface.(type) {
	case types.AppKitHandle:
		return p.SetNSObject(h.NSView)
	case types.UIKitHandle:
		return p.SetNSObject(h.UIView)
	case types.XlibHandle:
		if h.Window == 0 {
			return fmt.Errorf("%w: the X11 window is not realized yet", types.ErrSurfaceUnavailable)
		}
		return p.SetXWindow(uint32(h.Window))
	case types.Win32Handle:
		return p.SetHWND(h.HWND)
	case types.XcbHandle, types.WaylandHandle, types.AndroidNDKHandle, types.WebHandle:
		return fmt.Errorf("%w: %T", types.ErrUnsupportedPlatform, surface)
	case nil:
		return fmt.Errorf("%w: no surface handle", types.ErrUnsupportedPlatform)
	default:
		return fmt.Errorf("%w: unexpected surface handle type %T", types.ErrUnsupportedPlatform, surface)
	}
}
