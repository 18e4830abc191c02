package player

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/elixirclient/pkg/player/embedded"
	"github.com/xaionaro-go/elixirclient/pkg/player/process"
	"github.com/xaionaro-go/elixirclient/pkg/player/types"
	"github.com/xaionaro-go/xsync"
)

// Manager holds the process-wide slot of the embedded engine.
//
// The engine is constructed lazily on first use. A failed construction is
// never memoized: every access retries it, so a transiently missing libVLC
// becomes usable without restarting the client.
type Manager struct {
	Config  types.Config
	Factory embedded.NativeFactory

	Locker xsync.Mutex
	Engine *embedded.Engine
}

func NewManager(
	factory embedded.NativeFactory,
	opts ...types.Option,
) *Manager {
	cfg := types.Options(opts).Config()
	if factory == nil {
		factory = embedded.NewLibVLCFactory(cfg.LibVLCArgs...)
	}
	return &Manager{
		Config:  cfg,
		Factory: factory,
	}
}

// Ensure constructs the engine if there is none and calls fn with it.
// The engine is nil if it could not be constructed. fn is called while the
// slot is locked, so construction and use never overlap.
func (m *Manager) Ensure(
	ctx context.Context,
	fn func(ctx context.Context, engine *embedded.Engine) error,
) error {
	return xsync.DoR1(ctx, &m.Locker, func() error {
		m.ensureLocked(ctx)
		return fn(ctx, m.Engine)
	})
}

func (m *Manager) ensureLocked(ctx context.Context) {
	if m.Engine != nil {
		return
	}
	engine, err := embedded.New(ctx, m.Factory)
	if err != nil {
		logger.Debugf(ctx, "the embedded player is not available: %v", err)
		return
	}
	logger.Infof(ctx, "initialized the embedded player")
	m.Engine = engine
}

func (m *Manager) IsAvailable(ctx context.Context) bool {
	var isAvailable bool
	err := m.Ensure(ctx, func(ctx context.Context, engine *embedded.Engine) error {
		isAvailable = engine != nil
		return nil
	})
	return err == nil && isAvailable
}

// NewExternalPlayer returns a process player configured the same way as
// this manager.
func (m *Manager) NewExternalPlayer() *process.Player {
	return process.New(
		types.OptionExternalBinaries(m.Config.ExternalBinaries),
		types.OptionExternalExtraArgs(m.Config.ExternalExtraArgs),
	)
}

func (m *Manager) SupportedBackends(ctx context.Context) []types.Backend {
	var result []types.Backend
	if m.IsAvailable(ctx) {
		result = append(result, types.BackendLibVLC)
	}
	if m.NewExternalPlayer().IsAvailable() {
		result = append(result, types.BackendVLCProcess)
	}
	return result
}

// Close releases the engine (if any). The next Ensure constructs a new one.
func (m *Manager) Close(ctx context.Context) error {
	return xsync.DoR1(ctx, &m.Locker, func() error {
		if m.Engine == nil {
			return nil
		}
		engine := m.Engine
		m.Engine = nil
		return engine.Close(ctx)
	})
}
