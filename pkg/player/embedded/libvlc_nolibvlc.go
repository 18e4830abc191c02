//go:build !with_libvlc
// +build !with_libvlc

package embedded

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/elixirclient/pkg/player/types"
)

const SupportedLibVLC = false

func NewLibVLCFactory(args ...string) NativeFactory {
	return func(ctx context.Context) (NativePlayer, error) {
		return nil, fmt.Errorf("%w: compiled without libVLC support (build tag 'with_libvlc')", types.ErrInit)
	}
}
