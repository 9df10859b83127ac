package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/bench"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/config"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/httpapi"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/logstream"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/manager"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/registry"
)

const shutdownTimeout = 15 * time.Second

type serveOptions struct {
	addr        string
	staticDir   string
	autostart   bool
	corsOrigins string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the playground HTTP server",
		Example: "  vllm-playground serve\n" +
			"  vllm-playground serve -c playground.yaml --addr :8080 --autostart",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			applyServeFlags(cmd, opts, &cfg)
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address, e.g. :7860")
	cmd.Flags().StringVar(&opts.staticDir, "static-dir", "", "Directory with index.html and static assets")
	cmd.Flags().BoolVar(&opts.autostart, "autostart", false, "Start the vLLM server with the configured server settings")
	cmd.Flags().StringVar(&opts.corsOrigins, "cors-origins", "", "Comma separated allowed origins; enables CORS")
	return cmd
}

func applyServeFlags(cmd *cobra.Command, opts *serveOptions, cfg *config.Config) {
	if cmd.Flags().Changed("addr") {
		cfg.Addr = opts.addr
	}
	if cmd.Flags().Changed("static-dir") {
		cfg.StaticDir = opts.staticDir
	}
	if cmd.Flags().Changed("autostart") {
		cfg.Autostart = opts.autostart
	}
	if cmd.Flags().Changed("cors-origins") {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = splitCSV(opts.corsOrigins)
	}
}

func component(l zerolog.Logger, name string) *zerolog.Logger {
	c := l.With().Str("component", name).Logger()
	return &c
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := newLogger(cfg, os.Stderr)

	hub := logstream.New(component(logger, "logstream"))
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Entrypoint:   cfg.EntrypointArgv(),
		StopTimeout:  cfg.StopTimeout(),
		ProxyTimeout: cfg.ProxyTimeout(),
		AutoCPU:      cfg.AutoCPU(),
		StatePath:    cfg.StatePath,
		Sink:         hub,
		Logger:       component(logger, "manager"),
	})

	var recorder bench.Recorder
	if cfg.BenchmarkResultsFile != "" {
		jr, err := bench.NewJSONLRecorder(cfg.BenchmarkResultsFile)
		if err != nil {
			return fmt.Errorf("open benchmark results file: %w", err)
		}
		defer jr.Close()
		recorder = jr
	}
	runner := bench.New(bench.Config{
		Server:         mgr,
		Sink:           hub,
		Logger:         component(logger, "bench"),
		RequestTimeout: cfg.BenchmarkRequestTimeout(),
		Recorder:       recorder,
	})

	httpapi.SetLogger(*component(logger, "http"))
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetStaticDir(cfg.StaticDir)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr, registry.NewLister(cfg.ModelsDir), runner, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr).Strs("entrypoint", cfg.EntrypointArgv()).Msg("vllm-playground listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		runner.Close()
		err := srv.Shutdown(sctx)
		if merr := mgr.Shutdown(sctx); merr != nil {
			logger.Error().Err(merr).Msg("stop vLLM server")
		}
		hub.Close()
		return err
	})

	if cfg.Autostart {
		if resp, err := mgr.Start(cfg.Server); err != nil {
			logger.Error().Err(err).Msg("autostart failed")
		} else {
			logger.Info().Int("pid", resp.PID).Str("model", cfg.Server.Model).Msg("autostarted vLLM server")
		}
	}

	return g.Wait()
}
