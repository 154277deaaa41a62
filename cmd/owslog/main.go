package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orchardws/owslog/config"
	"github.com/orchardws/owslog/core"
	"github.com/orchardws/owslog/schema"
	"github.com/orchardws/owslog/transport"
)

var rootCmd = &cobra.Command{
	Use:   "owslog",
	Short: "owslog - OWS1 structured log shipper",
	Long: `owslog formats log records as OWS1 JSON and ships them to a remote
collection endpoint. This utility sends test records through a configured
pipeline and validates configuration files.`,
}

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Send one record through the configured pipeline",
	Long:  "Send a single log record to the configured endpoint, useful for verifying a collection endpoint end to end",
	RunE:  runEmit,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the owslog configuration and display the loaded settings",
	RunE:  validateConfig,
}

var (
	configFilePath string
	emitLevel      string
	emitMessage    string
	emitExtras     []string
	emitStderr     bool
)

func main() {
	emitCmd.Flags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")
	emitCmd.Flags().StringVarP(&emitLevel, "level", "l", "INFO", "Record severity level")
	emitCmd.Flags().StringVarP(&emitMessage, "message", "m", "owslog test record", "Record message")
	emitCmd.Flags().StringArrayVarP(&emitExtras, "extra", "e", nil, "Extra payload field as key=value (repeatable)")
	emitCmd.Flags().BoolVar(&emitStderr, "stderr", false, "Write the payload to stderr instead of the endpoint")
	validateCmd.Flags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(emitCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runEmit sends one record through a freshly configured pipeline
func runEmit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// The CLI wants the send to finish before exiting.
	cfg.Delivery.Mode = "sync"

	level, err := schema.ParseLevel(emitLevel)
	if err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}

	extras, err := parseExtras(emitExtras)
	if err != nil {
		return err
	}

	diag, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize diagnostics: %w", err)
	}
	defer diag.Sync()

	opts := []core.Option{core.WithDiagnostics(diag)}
	if emitStderr {
		opts = append(opts, core.WithSink(transport.NewConsoleSink(nil)))
	}

	logger, err := core.Setup(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	defer logger.Close()

	logger.Log(level, emitMessage, extras)
	fmt.Printf("Sent %s record to %s\n", level, cfg.Endpoint)
	return nil
}

// validateConfig validates the owslog configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		fmt.Printf("❌ Configuration loading failed: %v\n", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("✅ Configuration is valid")
	fmt.Printf("Endpoint: %s\n", cfg.Endpoint)
	fmt.Printf("Environment: %s\n", cfg.Environment)
	fmt.Printf("Logger Name: %s\n", cfg.LoggerName)
	fmt.Printf("Minimum Level: %s\n", cfg.MinLevel())
	fmt.Printf("Service: %s %s\n", cfg.ServiceName, cfg.ServiceVersion)
	fmt.Printf("Delivery Mode: %s\n", cfg.Delivery.Mode)
	fmt.Printf("Delivery Timeout: %s\n", cfg.Delivery.Timeout)
	if cfg.Delivery.RatePerSecond > 0 {
		fmt.Printf("Rate Cap: %.1f records/s (burst %d)\n", cfg.Delivery.RatePerSecond, cfg.Delivery.RateBurst)
	}
	return nil
}

// parseExtras converts repeated key=value flags into payload fields
func parseExtras(raw []string) (core.Fields, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	extras := make(core.Fields, len(raw))
	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid extra %q, expected key=value", pair)
		}
		extras[key] = value
	}
	return extras, nil
}
