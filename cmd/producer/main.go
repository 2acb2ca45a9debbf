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
	"github.com/Lutefd/log-pipeline/internal/cli"
	"github.com/Lutefd/log-pipeline/internal/commons"
	"github.com/Lutefd/log-pipeline/internal/logger"
	"github.com/Lutefd/log-pipeline/internal/metrics"
	"github.com/Lutefd/log-pipeline/internal/producer"
	"github.com/Lutefd/log-pipeline/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type dependencies struct {
	publisher broker.Publisher
	generator *producer.Generator
	metrics   *metrics.Metrics
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
		Use:          "producer",
		Short:        "Publish generated application log records to Kafka",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := cli.ResolveConfig(cmd, &flags)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			deps, err := initDependencies(ctx, config)
			if err != nil {
				logger.Errorf("Failed to initialize dependencies: %v", err)
				return err
			}

			_, err = runProducer(ctx, config, deps)
			return err
		},
	}
	cli.AddCommonFlags(cmd, &flags)
	cli.AddProducerFlags(cmd, &flags)
	return cmd
}

func initDependencies(ctx context.Context, config commons.Config) (*dependencies, error) {
	publisher, err := broker.NewKafkaPublisher(ctx, config.BootstrapServers, config.Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize publisher: %w", err)
	}

	return &dependencies{
		publisher: publisher,
		generator: producer.NewGenerator(),
		metrics:   metrics.New(),
	}, nil
}

func runProducer(ctx context.Context, config commons.Config, deps *dependencies) (producer.RunResult, error) {
	p := producer.New(deps.publisher, deps.generator, deps.metrics)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	serverDone := make(chan struct{})
	if config.OpsPort != 0 {
		srv := server.NewServer(config.OpsPort, server.Dependencies{
			Snapshot: func() any { return p.Snapshot() },
			Metrics:  deps.metrics,
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

	logger.Infof("Producer started: topic=%s servers=%s interval=%s count=%d",
		config.Topic, strings.Join(config.BootstrapServers, ","), config.Interval, config.Count)

	result, err := p.Run(ctx, config.Interval, config.Count)
	stop()
	<-serverDone
	return result, err
}
