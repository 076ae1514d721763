package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrMartinM/webcon-import/pkg/config"
	"github.com/MrMartinM/webcon-import/pkg/importer"
	"github.com/MrMartinM/webcon-import/pkg/ledger"
	"github.com/MrMartinM/webcon-import/pkg/logger"
	"github.com/MrMartinM/webcon-import/pkg/source"
	"github.com/MrMartinM/webcon-import/pkg/webcon"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "webcon_import_config.json", "Path to configuration file")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	dryRun := flag.Bool("dry-run", false, "Build payloads without calling the API or writing the ledger")
	help := flag.Bool("help", false, "Display help information")
	flag.Parse()

	// Display help if requested
	if *help {
		displayUsage()
		os.Exit(0)
	}

	// Create logger
	log := logger.New()
	log.SetLevel(*logLevel)

	// Credentials may live in a .env file next to the binary
	_ = godotenv.Load()

	// Load configuration
	log.Info("Loading configuration...")
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Info("Received interrupt signal. Shutting down...")
		cancel()
	}()

	// Read the source workbook
	reader := source.NewReader(cfg.Source, log)
	set, err := reader.Read()
	if err != nil {
		log.Fatalf("Failed to read source workbook: %v", err)
	}

	// Create the API client
	client := webcon.NewClient(webcon.Config{
		BaseURL:      cfg.API.BaseURL,
		ClientID:     cfg.API.ClientID,
		ClientSecret: cfg.API.ClientSecret,
		DatabaseID:   cfg.API.DatabaseID,
		Path:         cfg.API.Path,
		Mode:         cfg.API.Mode,
		Timeout:      time.Duration(cfg.API.ResponseTimeout) * time.Second,
		Retry: webcon.RetryPolicy{
			MaxRetries: *cfg.RetryConfig.MaxRetries,
			BaseDelay:  time.Duration(cfg.RetryConfig.BaseDelaySeconds * float64(time.Second)),
		},
	}, log)

	// Create the importer
	statusLedger := ledger.New(cfg.LedgerPath, log)
	imp := importer.New(client, statusLedger, importer.LogObserver{Log: log}, importer.Options{
		WorkflowGuid:       cfg.API.WorkflowGuid,
		FormTypeGuid:       cfg.API.FormTypeGuid,
		BusinessEntityGuid: cfg.API.BusinessEntityGuid,
		ItemListGuid:       cfg.Source.ItemListGuid,
		ItemListName:       cfg.Source.ItemListName,
		DryRun:             *dryRun,
	}, log)

	// Start the import
	startTime := time.Now()
	log.Infof("Starting import of %d rows", len(set.Rows))

	summary, err := imp.Run(ctx, set)
	if err != nil {
		// Check if the error is due to context cancellation (Ctrl+C)
		if errors.Is(err, context.Canceled) {
			log.Info("Import stopped due to user interrupt (Ctrl+C)")
		} else {
			log.Fatalf("Error during import: %v", err)
		}
	}

	// Log completion
	duration := time.Since(startTime)
	log.Infof("Import finished in %.2f seconds: %d processed, %d succeeded, %d failed, %d skipped",
		duration.Seconds(), summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
}

// displayUsage displays usage information
func displayUsage() {
	fmt.Println("\nWorkflow Engine Row Import Tool")
	fmt.Println("===============================")
	fmt.Println("Usage: import [options]")
	fmt.Println("Options:")
	fmt.Println("  -config string")
	fmt.Println("        Path to configuration file (default \"webcon_import_config.json\")")
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: debug, info, warn, error (default \"info\")")
	fmt.Println("  -dry-run")
	fmt.Println("        Build payloads without calling the API or writing the ledger")
	fmt.Println("  -help")
	fmt.Println("        Display this help information")
	fmt.Println("Examples:")
	fmt.Println("  import")
	fmt.Println("  import -config=custom_config.json -log-level=debug")
	fmt.Println("  import -dry-run")
}
