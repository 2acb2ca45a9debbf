// Package cli binds the command-line flags shared by the producer and
// consumer commands on top of the file and environment configuration.
package cli

import (
	"fmt"
	"strings"

	"github.com/Lutefd/log-pipeline/internal/commons"
	"github.com/spf13/cobra"
)

type Flags struct {
	ConfigPath       string
	BootstrapServers string
	Topic            string
	GroupID          string
	Interval         float64
	Count            int
	OpsPort          uint16
}

func AddCommonFlags(cmd *cobra.Command, f *Flags) {
	cmd.Flags().StringVar(&f.ConfigPath, "config", "", "YAML configuration file (defaults to $"+commons.ConfigFileEnv+")")
	cmd.Flags().StringVar(&f.BootstrapServers, "bootstrap-servers", commons.DefaultBootstrapServers, "Comma-separated list of Kafka brokers (host:port)")
	cmd.Flags().StringVar(&f.Topic, "topic", commons.DefaultTopic, "Kafka topic")
	cmd.Flags().Uint16Var(&f.OpsPort, "ops-port", 0, "Port for the /healthz, /stats and /metrics server (0 disables it)")
}

func AddProducerFlags(cmd *cobra.Command, f *Flags) {
	cmd.Flags().Float64Var(&f.Interval, "interval", commons.DefaultInterval.Seconds(), "Seconds between records")
	cmd.Flags().IntVar(&f.Count, "count", 0, "Number of records to publish (0 runs until interrupted)")
}

func AddConsumerFlags(cmd *cobra.Command, f *Flags) {
	cmd.Flags().StringVar(&f.GroupID, "group-id", commons.DefaultGroupID, "Consumer group id")
}

// ResolveConfig loads defaults, the config file and the environment, then
// applies every flag set explicitly on the command line and validates the
// result.
func ResolveConfig(cmd *cobra.Command, f *Flags) (commons.Config, error) {
	config, err := commons.LoadConfig(f.ConfigPath)
	if err != nil {
		return commons.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("bootstrap-servers") {
		config.BootstrapServers = commons.SplitServers(f.BootstrapServers)
	}
	if changed("topic") {
		config.Topic = strings.TrimSpace(f.Topic)
	}
	if changed("group-id") {
		config.GroupID = strings.TrimSpace(f.GroupID)
	}
	if changed("interval") {
		if f.Interval <= 0 {
			return commons.Config{}, fmt.Errorf("invalid --interval: must be positive, got %v", f.Interval)
		}
		config.Interval = commons.SecondsToDuration(f.Interval)
	}
	if changed("count") {
		config.Count = f.Count
	}
	if changed("ops-port") {
		config.OpsPort = f.OpsPort
	}

	if err := config.Validate(); err != nil {
		return commons.Config{}, err
	}
	return config, nil
}
