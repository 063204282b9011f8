package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	serverrun "github.com/kittclouds/tenwords/internal/cmd/server"
	cfgpkg "github.com/kittclouds/tenwords/internal/config"
	"github.com/kittclouds/tenwords/internal/logging"
	"github.com/kittclouds/tenwords/internal/seed"
	"github.com/kittclouds/tenwords/pkg/rotation"
)

// Version info
const Version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "tenwords",
		Short:         "Serve vocabulary words in fair rotation",
		Long:          "tenwords hands out batches of the least served words from a SQLite or Postgres word table.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", os.Getenv("TENWORDS_CONFIG"), "Config file (.json or .yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text|json")

	// serve
	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the HTTP server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serverrun.Run(ctx, serverrun.Options{Config: cfg, Logger: logger})
		},
	}
	rootCmd.AddCommand(serveCmd)

	// seed
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load words from a .csv, .tsv or .json file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			s, err := serverrun.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := seed.LoadFile(cmd.Context(), s, file)
			if err != nil {
				return fmt.Errorf("seed %s: %w", file, err)
			}
			logger.Info("seeded words", slog.String("file", file), slog.Int("inserted", n))
			return nil
		},
	}
	seedCmd.Flags().StringP("file", "f", "", "Word list file")
	rootCmd.AddCommand(seedCmd)

	// pick
	pickCmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick a batch of words and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("count")
			if n == 0 {
				n = cfg.Rotation.BatchSize
			}
			s, err := serverrun.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			picker := rotation.New(s, rotation.WithLogger(logging.Component(logger, "rotation")))
			resp, err := picker.Words(cmd.Context(), n)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	pickCmd.Flags().IntP("count", "n", 0, "Batch size (default: rotation.batchSize from config)")
	rootCmd.AddCommand(pickCmd)

	// export
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write all words as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			s, err := serverrun.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			data, err := s.Export(cmd.Context())
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(out, data, 0644)
		},
	}
	exportCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads config (file, then env, then flags) and builds the process
// logger. Logs go to stderr so pick/export output stays clean.
func setup(cmd *cobra.Command) (cfgpkg.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	cfgpkg.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfgpkg.Config{}, nil, err
	}
	logging.RedirectStdLog(logger)
	return cfg, logger, nil
}
