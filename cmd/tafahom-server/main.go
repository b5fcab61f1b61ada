package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tafahom/internal/config"
	"tafahom/internal/llm"
	"tafahom/internal/logging"
	"tafahom/internal/prompts"
	"tafahom/internal/store/filestore"
	"tafahom/internal/webui"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tafahom-server",
		Short:         "Serveur HTTP TAFAHOM: portail et agent derrière une API JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServer,
	}

	rootCmd.Flags().String("host", "", "Listen host (default from config)")
	rootCmd.Flags().IntP("port", "p", 0, "Listen port (default from config)")
	rootCmd.Flags().String("data-dir", "", "Directory for session files")
	rootCmd.Flags().Bool("debug", false, "Verbose request logging")
	return rootCmd
}

func runServer(cmd *cobra.Command, args []string) error {
	logger := logging.NewComponentLogger("Main")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Server.Host = v
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Server.Port = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetBool("debug"); v {
		cfg.Server.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	loader, err := prompts.NewLoader()
	if err != nil {
		return err
	}
	client := llm.NewClient(cfg.Model, llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	files := filestore.New(cfg.DataDir)

	server := webui.NewServer(cfg.Server, client, loader, files, files)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	logger.Info("tafahom-server listening on %s:%d, data dir %s", cfg.Server.Host, cfg.Server.Port, cfg.DataDir)
	fmt.Printf("tafahom-server listening on %s:%d\n", cfg.Server.Host, cfg.Server.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("received %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
