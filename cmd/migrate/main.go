package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/RiveraMg/MiaBot/internal/config"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/postgres"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var timeout time.Duration

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the ledger schema migrations",
	Long: `migrate runs the embedded goose migrations against the database
configured in config.yaml or the MIABOT_POSTGRES_* environment variables.`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), postgres.MigrateUp)
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), postgres.MigrateDown)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), postgres.MigrateStatus)
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Time allowed for the whole run")
	rootCmd.AddCommand(upCmd, downCmd, statusCmd)
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	log.Infow("connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)

	db, err := sql.Open("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := fn(ctx, db); err != nil {
		log.Errorw("migration failed", "error", err)
		return err
	}

	log.Info("migration completed successfully")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
