package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Lutefd/log-pipeline/internal/commons"
	"github.com/Lutefd/log-pipeline/internal/repository"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

const upcomingPartitions = 3

type dependencies struct {
	loadConfig func(path string) (commons.Config, error)
	openDB     func(driverName, dataSourceName string) (*sql.DB, error)
	timeNow    func() time.Time
	loadEnv    func(...string) error
}

var defaultDeps = dependencies{
	loadConfig: commons.LoadConfig,
	openDB:     sql.Open,
	timeNow:    time.Now,
	loadEnv:    godotenv.Load,
}

func main() {
	if err := newRootCmd(defaultDeps).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(deps dependencies) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Create the alerts table and its upcoming monthly partitions",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), deps, configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file (defaults to $"+commons.ConfigFileEnv+")")
	return cmd
}

func run(ctx context.Context, deps dependencies, configPath string) error {
	if err := deps.loadEnv(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	config, err := deps.loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if config.PostgresConn == "" {
		return errors.New("POSTGRES_CONN is not set")
	}

	db, err := deps.openDB("postgres", config.PostgresConn)
	if err != nil {
		return fmt.Errorf("error opening database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("error connecting to the database: %w", err)
	}

	repo, err := repository.NewPostgresAlertRepository("", db)
	if err != nil {
		return err
	}
	if err := migrate(ctx, repo, deps.timeNow()); err != nil {
		return fmt.Errorf("error migrating alerts: %w", err)
	}

	fmt.Println("Alerts table migrated successfully!")
	return nil
}

func migrate(ctx context.Context, repo *repository.PostgresAlertRepository, now time.Time) error {
	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < upcomingPartitions; i++ {
		if err := repo.CreatePartition(ctx, month.AddDate(0, i, 0)); err != nil {
			return err
		}
	}
	return nil
}
