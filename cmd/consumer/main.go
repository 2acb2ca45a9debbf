package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Lutefd/log-pipeline/internal/broker"
	"github.com/Lutefd/log-pipeline/internal/cache"
	"github.com/Lutefd/log-pipeline/internal/cli"
	"github.com/Lutefd/log-pipeline/internal/commons"
	"github.com/Lutefd/log-pipeline/internal/consumer"
	"github.com/Lutefd/log-pipeline/internal/logger"
	"github.com/Lutefd/log-pipeline/internal/metrics"
	"github.com/Lutefd/log-pipeline/internal/repository"
	"github.com/Lutefd/log-pipeline/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type dependencies struct {
	open         consumer.SourceOpener
	metrics      *metrics.Metrics
	cache        cache.SnapshotCache
	alertRepo    repository.AlertRepository
	partitionMgr PartitionManager
}

type PartitionManager interface {
	Start(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags cli.Flags
	cmd := &cobra.Command{
		Use:          "consumer",
		Short:        "Consume and classify application log records from Kafka",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := cli.ResolveConfig(cmd, &flags)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			deps, err := initDependencies(config)
			if err != nil {
				logger.Errorf("Failed to initialize dependencies: %v", err)
				return err
			}

			if err := runConsumer(ctx, config, deps); err != nil {
				logger.Errorf("Consumer failed: %v", err)
				return err
			}
			return nil
		},
	}
	cli.AddCommonFlags(cmd, &flags)
	cli.AddConsumerFlags(cmd, &flags)
	return cmd
}

// initDependencies wires the broker source and, when configured, the Redis
// snapshot cache and the Postgres alert store.
func initDependencies(config commons.Config) (*dependencies, error) {
	deps := &dependencies{
		open: func(ctx context.Context) (broker.Source, error) {
			return broker.NewKafkaSource(ctx, config.BootstrapServers, config.Topic, config.GroupID)
		},
		metrics: metrics.New(),
	}

	if config.RedisAddr != "" {
		redisCache, err := cache.NewRedisSnapshotCache(config.RedisAddr, config.RedisPass)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		deps.cache = redisCache
	}

	if config.PostgresConn != "" {
		alertRepo, err := repository.NewPostgresAlertRepository(config.PostgresConn, nil)
		if err != nil {
			if deps.cache != nil {
				deps.cache.Close()
			}
			return nil, fmt.Errorf("failed to initialize alert repository: %w", err)
		}
		deps.alertRepo = alertRepo
		deps.partitionMgr = logger.NewPartitionManager(alertRepo)
	}

	return deps, nil
}

func runConsumer(ctx context.Context, config commons.Config, deps *dependencies) error {
	if deps.cache != nil {
		defer func() {
			if err := deps.cache.Close(); err != nil {
				logger.Errorf("Error closing cache: %v", err)
			}
		}()
	}

	if deps.alertRepo != nil {
		if err := deps.partitionMgr.Start(ctx); err != nil {
			deps.alertRepo.Close()
			return fmt.Errorf("failed to start partition manager: %w", err)
		}
		logger.InitLogger(deps.alertRepo)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), commons.ShutdownTimeout)
			defer cancel()
			if err := logger.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("Error closing alert repository: %v", err)
			}
		}()
	}

	var opts []consumer.Option
	if deps.cache != nil {
		opts = append(opts, consumer.WithSnapshotCache(deps.cache, cache.SnapshotKey(config.GroupID)))
	}
	c := consumer.New(consumer.NewDispatcher(consumer.LoggerSink, deps.metrics), deps.metrics, opts...)

	if err := c.Subscribe(ctx, deps.open); err != nil {
		return err
	}
	logger.Infof("Subscribed to %s on %s as %s", config.Topic, strings.Join(config.BootstrapServers, ","), config.GroupID)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	serverDone := make(chan struct{})
	if config.OpsPort != 0 {
		srv := server.NewServer(config.OpsPort, server.Dependencies{
			Ready:    c.Ready,
			Snapshot: func() any { return c.Snapshot() },
			Metrics:  deps.metrics,
			Alerts:   deps.alertRepo,
			Cache:    deps.cache,
		})
		go func() {
			defer close(serverDone)
			if err := srv.Start(runCtx); err != nil {
				logger.Errorf("ops server stopped: %v", err)
			}
		}()
	} else {
		close(serverDone)
	}

	err := c.Run(ctx)
	stop()
	<-serverDone
	return err
}
