package process

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	child_process_manager "github.com/AgustinSRG/go-child-process-manager"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

// Process is a spawned external player.
type Process interface {
	Pid() int
	Kill() error
}

// Starter spawns the executable at path with args, detached from the
// standard streams of the current process.
type Starter func(ctx context.Context, path string, args []string) (Process, error)

type execProcess struct {
	Cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.Cmd.Process.Pid
}

func (p *execProcess) Kill() error {
	return p.Cmd.Process.Kill()
}

// StartExec is the default Starter. The spawned process is registered in
// the child process manager (so it dies together with us) and is reaped in
// background once it exits.
func StartExec(
	ctx context.Context,
	path string,
	args []string,
) (Process, error) {
	cmd := exec.Command(path, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil

	err := child_process_manager.ConfigureCommand(cmd)
	if err != nil {
		logger.Errorf(ctx, "unable to configure the command so that the process will die automatically: %v", err)
	}

	logger.Debugf(ctx, "starting '%s' with arguments %v", path, args)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("unable to start '%s': %w", path, err)
	}

	err = child_process_manager.AddChildProcess(cmd.Process)
	if err != nil {
		if runtime.GOOS == "windows" {
			logger.Debugf(ctx, "unable to register the command to be auto-killed: %v", err)
		} else {
			logger.Errorf(ctx, "unable to register the command to be auto-killed: %v", err)
		}
	}

	pid := cmd.Process.Pid
	observability.GoSafe(context.WithoutCancel(ctx), func(ctx context.Context) {
		err := cmd.Wait()
		logger.Debugf(ctx, "the player process %d exited: %v", pid, err)
		if err == nil {
			return
		}
		if _, ok := err.(*exec.ExitError); ok {
			return
		}
		errmon.ObserveErrorCtx(ctx, err)
	})

	return &execProcess{Cmd: cmd}, nil
}
