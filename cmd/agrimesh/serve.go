package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hupe1980/agrimesh/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	logger.Info("agrimesh.starting", "version", version, "planner", cfg.Agent.Planner, "llm", cfg.LLM.Provider)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.mesh, a.mesh, func(o *server.Options) {
		o.Artifacts = a.artifacts
		o.PublicURL = cfg.Server.PublicURL
		o.MaxUploadBytes = cfg.Server.MaxUploadBytes
		o.Version = version
		o.Logger = logger.WithComponent("server")
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr()); err != nil {
			errCh <- err
		}
	}()

	if cfg.Server.GRPCPort > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ServeGRPC(ctx, cfg.Server.GRPCPort); err != nil {
				errCh <- err
			}
		}()
	}

	srv.SetReady(true)
	logger.Info("agrimesh.ready", "addr", cfg.Server.Addr(), "grpc_port", cfg.Server.GRPCPort, "tools", len(a.mesh.Registry().All()))

	select {
	case <-ctx.Done():
		logger.Info("agrimesh.shutdown", "reason", "signal")
	case err = <-errCh:
		logger.Error("agrimesh.shutdown", "reason", "listener failed", "error", err.Error())
	}

	srv.SetReady(false)
	cancel()
	wg.Wait()
	logger.Info("agrimesh.stopped")
	return err
}
