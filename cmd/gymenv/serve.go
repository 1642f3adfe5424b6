package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/config"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/grpc/envserver"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/monitoring"
)

type serveOptions struct {
	host             string
	port             int
	maxEnvs          int
	idleTimeout      time.Duration
	enableReflection bool
	watchConfig      bool
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve environments over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "The server host (empty to use config default)")
	f.IntVar(&opts.port, "port", -1, "The server port (-1 to use config default)")
	f.IntVar(&opts.maxEnvs, "max-envs", -1, "Maximum live environments (-1 to use config default)")
	f.DurationVar(&opts.idleTimeout, "idle-timeout", envserver.DefaultIdleTimeout, "Close environments idle for longer than this")
	f.BoolVar(&opts.enableReflection, "enable-reflection", false, "Enable gRPC reflection for debugging")
	f.BoolVar(&opts.watchConfig, "watch-config", false, "Reload the log level when the config file changes")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg := config.Get()
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != -1 {
		cfg.Server.Port = opts.port
	}
	if opts.maxEnvs != -1 {
		cfg.Server.MaxEnvs = opts.maxEnvs
	}

	logger := log.Logger
	logger.Info().
		Str("addr", cfg.Server.Addr()).
		Int("max_envs", cfg.Server.MaxEnvs).
		Dur("idle_timeout", opts.idleTimeout).
		Msg("Starting gRPC env server")

	sinks, err := openSinks(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing episode sinks")
		}
	}()

	if opts.watchConfig && config.ConfigFilePath() != "" {
		config.WatchConfig(func(c *config.Config) {
			zerolog.SetGlobalLevel(parseLevel(c.Logging.Level))
			logger.Info().Str("level", c.Logging.Level).Msg("Config reloaded")
		}, func(err error) {
			logger.Warn().Err(err).Msg("Ignoring invalid config change")
		})
	}

	lis, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Addr(), err)
	}

	manager := envserver.NewManager(envserver.ManagerConfig{
		MaxEnvs:     cfg.Server.MaxEnvs,
		IdleTimeout: opts.idleTimeout,
		Bus:         sinks.bus,
		LogEpisodes: cfg.Wrappers.Step.Log,
		Logger:      logger,
	})
	defer manager.CloseAll()

	grpcServer := grpc.NewServer(envserver.ServerOptions(logger)...)
	envserver.RegisterEnvServiceServer(grpcServer, envserver.NewServer(manager, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(envserver.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if opts.enableReflection {
		reflection.Register(grpcServer)
		logger.Info().Msg("gRPC reflection enabled")
	}

	ctx, stop := signal.NotifyContext(ctxOrBackground(ctx), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", lis.Addr().String()).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		manager.RunSweeper(gctx, envserver.DefaultSweepInterval)
		return nil
	})

	monitor := monitoring.New(logger)
	monitor.Register("live_envs", manager.Count)
	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down")

		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(envserver.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		// give in-flight calls time to complete
		if delay := time.Duration(cfg.Server.GracefulShutdownDelay) * time.Second; delay > 0 {
			time.Sleep(delay)
		}
		grpcServer.GracefulStop()
		return nil
	})

	err = g.Wait()
	logger.Info().Int("open_envs", manager.Count()).Msg("Server shutdown complete")
	return err
}
