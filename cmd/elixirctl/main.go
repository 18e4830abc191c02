package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	child_process_manager "github.com/AgustinSRG/go-child-process-manager"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/xaionaro-go/elixirclient/cmd/elixirctl/commands"
	"github.com/xaionaro-go/elixirclient/pkg/observability"
)

func main() {
	err := child_process_manager.InitializeChildProcessManager()
	if err != nil {
		panic(err)
	}
	defer child_process_manager.DisposeChildProcessManager()

	observability.LogLevelFilter.SetLevel(commands.LoggerLevel)
	l := xlogrus.New(xlogrus.DefaultLogrusLogger()).
		WithLevel(logger.LevelTrace).
		WithPreHooks(&observability.LogLevelFilter)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancelFn()

	err = commands.Root.ExecuteContext(ctx)
	if err != nil {
		logger.Error(ctx, err)
		belt.Flush(ctx)
		os.Exit(1)
	}
}
