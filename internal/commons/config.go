package commons

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BootstrapServers []string      `yaml:"bootstrap_servers"`
	Topic            string        `yaml:"topic"`
	GroupID          string        `yaml:"group_id"`
	Interval         time.Duration `yaml:"interval"`
	Count            int           `yaml:"count"`
	OpsPort          uint16        `yaml:"ops_port"`
	RedisAddr        string        `yaml:"redis_addr"`
	RedisPass        string        `yaml:"redis_password"`
	PostgresConn     string        `yaml:"postgres_conn"`
}

const (
	decimalBase = 10
	bitSize     = 16
)

func DefaultConfig() Config {
	return Config{
		BootstrapServers: SplitServers(DefaultBootstrapServers),
		Topic:            DefaultTopic,
		GroupID:          DefaultGroupID,
		Interval:         DefaultInterval,
	}
}

// LoadConfig layers an optional YAML file and the environment over the
// defaults. An empty path falls back to LOG_PIPELINE_CONFIG.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	var errors []string

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := LoadConfigFile(path, &config); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if servers := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); servers != "" {
		config.BootstrapServers = SplitServers(servers)
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		config.Topic = topic
	}
	if groupID := os.Getenv("KAFKA_GROUP_ID"); groupID != "" {
		config.GroupID = groupID
	}

	if interval := os.Getenv("PRODUCER_INTERVAL"); interval != "" {
		seconds, err := strconv.ParseFloat(interval, 64)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid PRODUCER_INTERVAL: %s", err))
		} else {
			config.Interval = SecondsToDuration(seconds)
		}
	}

	if count := os.Getenv("PRODUCER_COUNT"); count != "" {
		parsedCount, err := strconv.Atoi(count)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid PRODUCER_COUNT: %s", err))
		} else {
			config.Count = parsedCount
		}
	}

	if opsPort := os.Getenv("OPS_PORT"); opsPort != "" {
		parsedPort, err := strconv.ParseUint(opsPort, decimalBase, bitSize)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid OPS_PORT: %s", err))
		} else {
			config.OpsPort = uint16(parsedPort)
		}
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.RedisAddr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		config.RedisPass = pass
	}
	if conn := os.Getenv("POSTGRES_CONN"); conn != "" {
		config.PostgresConn = conn
	}

	if len(errors) > 0 {
		return Config{}, reportErrors(errors)
	}
	return config, nil
}

func LoadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errors []string

	if len(c.BootstrapServers) == 0 {
		errors = append(errors, "bootstrap servers are not set")
	}
	for _, server := range c.BootstrapServers {
		if !strings.Contains(server, ":") {
			errors = append(errors, fmt.Sprintf("bootstrap server %q is not host:port", server))
		}
	}
	if c.Topic == "" {
		errors = append(errors, "topic is not set")
	}
	if c.GroupID == "" {
		errors = append(errors, "group id is not set")
	}
	if c.Interval <= 0 {
		errors = append(errors, fmt.Sprintf("interval must be positive, got %s", c.Interval))
	}
	if c.Count < 0 {
		errors = append(errors, fmt.Sprintf("count must not be negative, got %d", c.Count))
	}

	if len(errors) > 0 {
		return reportErrors(errors)
	}
	return nil
}

func SplitServers(list string) []string {
	var servers []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	return servers
}

func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func reportErrors(errors []string) error {
	for _, err := range errors {
		fmt.Println("Configuration Error:", err)
	}
	return fmt.Errorf("configuration errors occurred: %s", strings.Join(errors, "; "))
}
