package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tubestats/tubestats/internal/api"
	"github.com/tubestats/tubestats/internal/app"
	"github.com/tubestats/tubestats/internal/config"
	"github.com/tubestats/tubestats/internal/logger"
)

// runtime is everything a command needs once configuration is loaded.
type runtime struct {
	cfg     *config.Config
	log     zerolog.Logger
	svc     api.Service
	cleanup func()
}

// factory builds the runtime. Tests swap it for one returning a mock service.
type factory func(ctx context.Context) (*runtime, error)

func defaultFactory(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFormat, "tubestats")
	analyzer, cleanup, err := app.NewAnalyzer(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, log: log, svc: analyzer, cleanup: cleanup}, nil
}

// newRootCmd creates the tubestats command tree.
func newRootCmd(build factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tubestats",
		Short:         "YouTube channel statistics",
		Long:          `Resolve YouTube channels, fetch their uploads and report on views, ratings and upload gaps.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newResolveCmd(build))
	cmd.AddCommand(newChannelCmd(build))
	cmd.AddCommand(newReportCmd(build))
	cmd.AddCommand(newServeCmd(build))
	return cmd
}

// withRuntime builds the runtime for one command run and releases it afterwards.
func withRuntime(cmd *cobra.Command, build factory, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := build(ctx)
	if err != nil {
		return err
	}
	if rt.cleanup != nil {
		defer rt.cleanup()
	}
	return fn(ctx, rt)
}
