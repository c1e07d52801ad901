package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sm8ta/webike_component_microservice/docs"
	"github.com/sm8ta/webike_component_microservice/internal/app"
	"github.com/sm8ta/webike_component_microservice/internal/config"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// @title Component Microservice API
// @version 1.0
// @description API для учета компонентов байка и их износа

// @host localhost:8082
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	rootCmd = &cobra.Command{
		Use:   "components",
		Short: "Bike component lifecycle and wear tracking service",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// distances and prices go out as JSON numbers
			decimal.MarshalJSONWithoutQuotes = true
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP and gRPC servers",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Loading environment
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	docs.SwaggerInfo.Version = cfg.App.Version

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create app
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	// Blocks until a signal arrives, then shuts down gracefully
	return application.Run(ctx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	db, err := app.OpenDB(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := app.Migrate(db, cfg.DB.MigrationsDir); err != nil {
		return err
	}
	log.Printf("Migrations applied from %s", cfg.DB.MigrationsDir)
	return nil
}
