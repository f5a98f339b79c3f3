package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"feedback-go/internal/app"
	"feedback-go/internal/config"
	"feedback-go/internal/database"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := app.LoadDotEnv(""); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the config path and reads the config with env overrides.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := app.LoadConfig(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a FeedbackApp. The caller must defer app.Close().
func newApp() (*app.FeedbackApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewFeedbackApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "feedback",
	Short:        "Feedback inbox server",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Serve(ctx)
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Instance ID:  %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Listen Addr:  %s\n", cfg.Server.ListenAddr)
		fmt.Printf("Database:     %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Auto Migrate: %t\n", cfg.Database.AutoMigrate)
		fmt.Printf("Expiry:       default %dh, max %dh\n", cfg.Inbox.DefaultExpiresInHours, cfg.Inbox.MaxExpiresInHours)
		fmt.Printf("Metrics:      %t %s\n", cfg.Metrics.Enabled, cfg.Metrics.Path)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database schema",
}

// openSQLite opens the configured SQLite database without checking its schema.
func openSQLite() (*database.SQLiteDatabase, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	db, ok := store.(*database.SQLiteDatabase)
	if !ok {
		store.Close()
		return nil, fmt.Errorf("database type %q has no schema", cfg.Database.Type)
	}
	return db, nil
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSQLite()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.MigrateUp(); err != nil {
			return err
		}
		st, err := db.MigrationStatus()
		if err != nil {
			return err
		}
		fmt.Printf("Database %s migrated: %s\n", db.Path(), st)
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSQLite()
		if err != nil {
			return err
		}
		defer db.Close()

		st, err := db.MigrationStatus()
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", db.Path(), st)
		return nil
	},
}

var dbSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the current schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSQLite()
		if err != nil {
			return err
		}
		defer db.Close()

		schema, err := db.Schema()
		if err != nil {
			return err
		}
		fmt.Print(schema)
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbSchemaCmd)

	// root commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(inboxCmd)
}
