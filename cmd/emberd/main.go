// Command emberd runs the event-driven HTTP/1.1 origin server: it loads
// the YAML configuration, opens one listener per distinct listen address,
// and drives every connection from a single reactor loop until SIGINT or
// SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/emberd/pkg/emberd/config"
	"github.com/yourusername/emberd/pkg/emberd/metrics"
	"github.com/yourusername/emberd/pkg/emberd/reactor"
	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/server"
	"github.com/yourusername/emberd/pkg/emberd/socket"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

const defaultConfigPath = "emberd.yaml"

var log = logrus.New()

func main() {
	var (
		logLevel    string
		metricsPath string
	)

	root := &cobra.Command{
		Use:   "emberd [config-file]",
		Short: "Event-driven HTTP/1.1 origin server with CGI, uploads and virtual hosts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			log.SetLevel(level)
			return run(cmd.Context(), path, metricsPath, cmd.Flags().Changed("log-level"))
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.Flags().StringVar(&metricsPath, "metrics-path", "", "serve Prometheus metrics on this request path (empty disables)")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("emberd exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, metricsPath string, levelFromFlag bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if metricsPath == "" {
		metricsPath = cfg.MetricsPath
	}
	if !levelFromFlag && cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("config: invalid log_level %q: %w", cfg.LogLevel, err)
		}
		log.SetLevel(level)
	}

	sets := config.BuildServerSets(cfg)
	rtr := router.New(sets)
	mtr := metrics.NewServer()
	handler := server.NewHandler(rtr, mtr, log)
	handler.MetricsPath = metricsPath

	tuning := socket.DefaultConfig()
	loop, err := reactor.NewLoop(handler, reactor.Config{
		Limits:   wire.Limits{MaxBodyBytes: maxBodySize(cfg)},
		Tuning:   tuning,
		OnAccept: mtr.ConnectionAccepted,
	}, log)
	if err != nil {
		return fmt.Errorf("create reactor: %w", err)
	}

	for _, set := range sets {
		ln, err := reactor.NewListener(set.Listen, tuning)
		if err != nil {
			return err
		}
		if err := loop.AddListener(ln); err != nil {
			return fmt.Errorf("register listener %q: %w", set.Listen, err)
		}
		log.WithField("addr", set.Listen).Info("listening")
	}

	err = loop.Run(ctx)
	if err == context.Canceled {
		log.Info("shutdown complete")
		return nil
	}
	return err
}

// maxBodySize returns the largest client_max_body_size any server or
// location declares, so the parser's hard limit never rejects a body the
// router would have accepted. Per-location enforcement stays with the
// router's body-size gate.
func maxBodySize(cfg *config.File) int64 {
	max := int64(0)
	for _, s := range cfg.Servers {
		if int64(s.ClientMaxBodySize) > max {
			max = int64(s.ClientMaxBodySize)
		}
		for _, loc := range s.Locations {
			if int64(loc.ClientMaxBodySize) > max {
				max = int64(loc.ClientMaxBodySize)
			}
		}
	}
	return max
}
