package commons

import "time"

const (
	DefaultBootstrapServers = "localhost:9092"
	DefaultTopic            = "application-logs"
	DefaultGroupID          = "log-consumer-group"
	DefaultInterval         = time.Second
	ConfigFileEnv           = "LOG_PIPELINE_CONFIG"

	ProducerRecordRetries = 3
	ProducerLinger        = 10 * time.Millisecond
	ProducerFlushTimeout  = 10 * time.Second

	ConsumerAutoCommitInterval = time.Second
	ConsumerPollTimeout        = time.Second
	ConsumerReportEvery        = 10
	LargePaymentThreshold      = 500.0

	BrokerPingTimeout    = 10 * time.Second
	ShutdownTimeout      = 30 * time.Second
	SnapshotExpiration   = 1 * time.Hour
	AllowedStatsRPS      = 10
	ServerIdleTimeout    = time.Minute
	ServerReadTimeout    = 10 * time.Second
	ServerWriteTimeout   = 30 * time.Second
	ServerShutdownPeriod = 10 * time.Second
)
