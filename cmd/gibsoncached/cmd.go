package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gibsoncached/gibsoncached/internal/config"
	"github.com/gibsoncached/gibsoncached/internal/engine"
	"github.com/gibsoncached/gibsoncached/internal/metrics"
	"github.com/gibsoncached/gibsoncached/internal/server"
)

var buildVersion = "dev" // set during build with -ldflags

var rootCmd = &cobra.Command{
	Use:   "gibsoncached",
	Short: "gibsoncached - in-memory key/value cache server",
	Long: `gibsoncached is a single-threaded-core, in-memory key/value cache
server speaking a compact binary protocol.

Features:
- GET/SET/DEL plus TTL, advisory LOCK/UNLOCK, and INC/DEC with numeric
  promotion
- Bulk prefix operations: MGET/MSET/MDEL/MTTL/MINC/MDEC/MLOCK/MUNLOCK/
  COUNT/KEYS
- Transparent value compression above a configurable size threshold
- STATS counters, also exposed over HTTP as Prometheus metrics`,
	Version: buildVersion,
	RunE:    runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configureLogging(cfg)

	log.Info().
		Str("version", buildVersion).
		Str("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)).
		Str("max_memory", cfg.MaxMemory).
		Msg("starting gibsoncached")

	eng := engine.New(cfg)
	srv := server.New(cfg.Host, cfg.Port, eng)

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()
	if cfg.MetricsAddr != "" {
		reg, promReg := metrics.NewRegistry()
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.MetricsAddr, reg, promReg, eng); err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case <-sigChan:
		log.Info().Msg("shutting down")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	srv.Stop()
	log.Info().Msg("gibsoncached stopped")
	return nil
}

func configureLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Println("gibsoncached configuration:")
		fmt.Println(strings.Repeat("=", 31))
		fmt.Printf("Host: %s\n", cfg.Host)
		fmt.Printf("Port: %d\n", cfg.Port)
		fmt.Printf("Max Key Size: %d\n", cfg.MaxKeySize)
		fmt.Printf("Max Value Size: %d\n", cfg.MaxValueSize)
		fmt.Printf("Max Item TTL: %d\n", cfg.MaxItemTTL)
		fmt.Printf("Compression Threshold: %d\n", cfg.CompressionThreshold)
		fmt.Printf("Max Memory: %s\n", cfg.MaxMemory)
		fmt.Printf("Max Clients: %d\n", cfg.MaxClients)
		fmt.Printf("Timeout: %v\n", cfg.Timeout)
		fmt.Printf("Log Level: %s\n", cfg.LogLevel)
		fmt.Printf("Log Format: %s\n", cfg.LogFormat)
		fmt.Printf("Metrics Address: %s\n", cfg.MetricsAddr)
		fmt.Printf("TCP Keep-Alive: %t\n", cfg.TCPKeepAlive)
		fmt.Printf("Read Timeout: %v\n", cfg.ReadTimeout)
		fmt.Printf("Write Timeout: %v\n", cfg.WriteTimeout)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gibsoncached %s\n", buildVersion)
		fmt.Printf("Built with Go %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("host", "H", "localhost", "Host to bind to")
	rootCmd.PersistentFlags().IntP("port", "p", 10128, "Port to listen on")
	rootCmd.PersistentFlags().Int("max-key-size", 250, "Maximum key size in bytes")
	rootCmd.PersistentFlags().Int("max-value-size", 16*1024*1024, "Maximum value size in bytes")
	rootCmd.PersistentFlags().Int64("max-item-ttl", 60*60*24*365, "Maximum TTL in seconds")
	rootCmd.PersistentFlags().Int("compression-threshold", 60, "Compress values larger than this many bytes")
	rootCmd.PersistentFlags().String("max-memory", "1GB", "Maximum memory to use (e.g., 512MB, 2GB)")
	rootCmd.PersistentFlags().Int("max-clients", 10000, "Maximum number of clients")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Client timeout")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("metrics-addr", ":9090", "Prometheus metrics listen address (empty disables)")
	rootCmd.PersistentFlags().Bool("tcp-keepalive", true, "Enable TCP keep-alive")
	rootCmd.PersistentFlags().Duration("read-timeout", 30*time.Second, "Read timeout")
	rootCmd.PersistentFlags().Duration("write-timeout", 30*time.Second, "Write timeout")

	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("max_key_size", rootCmd.PersistentFlags().Lookup("max-key-size"))
	viper.BindPFlag("max_value_size", rootCmd.PersistentFlags().Lookup("max-value-size"))
	viper.BindPFlag("max_item_ttl", rootCmd.PersistentFlags().Lookup("max-item-ttl"))
	viper.BindPFlag("compression_threshold", rootCmd.PersistentFlags().Lookup("compression-threshold"))
	viper.BindPFlag("max_memory", rootCmd.PersistentFlags().Lookup("max-memory"))
	viper.BindPFlag("max_clients", rootCmd.PersistentFlags().Lookup("max-clients"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("metrics_addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
	viper.BindPFlag("tcp_keepalive", rootCmd.PersistentFlags().Lookup("tcp-keepalive"))
	viper.BindPFlag("read_timeout", rootCmd.PersistentFlags().Lookup("read-timeout"))
	viper.BindPFlag("write_timeout", rootCmd.PersistentFlags().Lookup("write-timeout"))

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute is the CLI's main entry point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
