package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Rabeel-Ashraf/vllm-playground/internal/config"
	"github.com/Rabeel-Ashraf/vllm-playground/internal/manager"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "vllm-playground",
		Short:         "Web playground that runs, chats with and benchmarks a local vLLM server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml, .json, .toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: json|console (overrides config)")

	root.AddCommand(newServeCmd(opts), newCommandCmd(opts), newDoctorCmd(opts), newVersionCmd())
	return root
}

// loadConfig returns the file config overlaid on defaults, with the
// persistent flags applied.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	return cfg, nil
}

// newLogger builds the root logger: JSON by default, human readable with
// log_format=console.
func newLogger(cfg config.Config, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if strings.EqualFold(cfg.LogFormat, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", "vllm-playground").Logger()
}

func newCommandCmd(opts *rootOptions) *cobra.Command {
	var (
		model string
		host  string
		port  int
		cpu   bool
	)
	cmd := &cobra.Command{
		Use:   "command",
		Short: "Print the environment and command line a start would use",
		Example: "  vllm-playground command --model facebook/opt-125m --cpu\n" +
			"  vllm-playground command -c playground.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			srv := cfg.Server
			if cmd.Flags().Changed("model") {
				srv.Model = model
			}
			if cmd.Flags().Changed("host") {
				srv.Host = host
			}
			if cmd.Flags().Changed("port") {
				srv.Port = port
			}
			if cmd.Flags().Changed("cpu") {
				srv.UseCPU = cpu
			}
			l := manager.BuildLaunch(cfg.EntrypointArgv(), srv, runtime.GOOS, cfg.AutoCPUDetect)
			out := cmd.OutOrStdout()
			for _, e := range l.Env {
				fmt.Fprintln(out, e)
			}
			fmt.Fprintln(out, l.CommandLine())
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model name or path")
	cmd.Flags().StringVar(&host, "host", "", "vLLM bind host")
	cmd.Flags().IntVar(&port, "port", 0, "vLLM port")
	cmd.Flags().BoolVar(&cpu, "cpu", false, "Force CPU mode")
	return cmd
}

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the vLLM entrypoint can be launched",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			m := manager.NewWithConfig(manager.ManagerConfig{
				Entrypoint: cfg.EntrypointArgv(),
				AutoCPU:    cfg.AutoCPU(),
			})
			report := m.SanityCheck()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.ExecutableFound {
				return fmt.Errorf("entrypoint %q not found", report.Entrypoint)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vllm-playground %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

// splitCSV splits a comma separated flag value, dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
