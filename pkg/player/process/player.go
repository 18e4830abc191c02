package process

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/elixirclient/pkg/player/types"
	"github.com/xaionaro-go/xsync"
)

var DefaultBinaryNames = []string{"vlc", "cvlc"}

const (
	FlagPlayAndExit      = "--play-and-exit"
	FlagNoVideoTitleShow = "--no-video-title-show"
)

// Player supervises at most one external player process.
type Player struct {
	Locker    xsync.Mutex
	Binaries  []string
	ExtraArgs []string
	LookPath  func(file string) (string, error)
	Start     Starter
	Process   Process
}

func New(opts ...types.Option) *Player {
	cfg := types.Options(opts).Config()
	binaries := cfg.ExternalBinaries
	if len(binaries) == 0 {
		binaries = DefaultBinaryNames
	}
	return &Player{
		Binaries:  binaries,
		ExtraArgs: cfg.ExternalExtraArgs,
		LookPath:  exec.LookPath,
		Start:     StartExec,
	}
}

// LocateBinary returns the path of the first of Binaries found in PATH.
func (p *Player) LocateBinary() (string, error) {
	for _, name := range p.Binaries {
		if path, err := p.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", types.ErrBinaryNotFound, p.Binaries)
}

func (p *Player) IsAvailable() bool {
	_, err := p.LocateBinary()
	return err == nil
}

func (p *Player) Args(link string) []string {
	args := make([]string, 0, len(p.ExtraArgs)+3)
	args = append(args, FlagPlayAndExit, FlagNoVideoTitleShow)
	args = append(args, p.ExtraArgs...)
	return append(args, link)
}

// Play starts a new player process for the link, killing the previous
// one (if any) first.
func (p *Player) Play(
	ctx context.Context,
	link string,
) (_err error) {
	logger.Debugf(ctx, "Play(ctx, '%s')", link)
	defer func() { logger.Debugf(ctx, "/Play(ctx, '%s'): %v", link, _err) }()

	bin, err := p.LocateBinary()
	if err != nil {
		return err
	}

	return xsync.DoR1(ctx, &p.Locker, func() error {
		p.killLocked(ctx)

		proc, err := p.Start(ctx, bin, p.Args(link))
		if err != nil {
			return err
		}
		p.Process = proc
		return nil
	})
}

// Stop kills the tracked process (if any). Killing is best-effort.
func (p *Player) Stop(ctx context.Context) error {
	logger.Debugf(ctx, "Stop")
	p.Locker.Do(ctx, func() {
		p.killLocked(ctx)
	})
	return nil
}

func (p *Player) Close(ctx context.Context) error {
	return p.Stop(ctx)
}

func (p *Player) killLocked(ctx context.Context) {
	if p.Process == nil {
		return
	}
	proc := p.Process
	p.Process = nil
	if err := proc.Kill(); err != nil {
		logger.Debugf(ctx, "unable to kill the player process %d: %v", proc.Pid(), err)
	}
}
