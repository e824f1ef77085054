package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/fxsml/knative-http-core/cloudevents"
	"github.com/fxsml/knative-http-core/config"
	"github.com/fxsml/knative-http-core/dispatcher"
	"github.com/fxsml/knative-http-core/env"
	"github.com/fxsml/knative-http-core/message"
	"github.com/fxsml/knative-http-core/producer"
	"github.com/fxsml/knative-http-core/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dispatcher HTTP server",
	Long: `serve loads the environment file and process configuration, attaches
every declared source ServiceDefinition to the consumer registry, and runs
the dispatcher's HTTP server until interrupted.

Without a routing engine attached, every source echoes its decoded
CloudEvent back to its own sink of the same name, if one is declared;
this makes serve useful standalone for smoke-testing an environment file.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	if cfg.EnvironmentFile == "" {
		return errors.New("environment_file must be set in configuration")
	}
	f, err := os.Open(cfg.EnvironmentFile)
	if err != nil {
		return fmt.Errorf("opening environment file: %w", err)
	}
	defer f.Close()

	environment, err := env.Load(f)
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}

	version := cloudevents.Version(cfg.Version)
	msgLogger := message.NewSlogLogger(logger)

	reg := registry.New()
	prod := producer.New(producer.Config{
		Version: version,
		TLS:     cfg.TLS,
		Logger:  msgLogger,
		Metrics: producer.NewMetrics(prometheus.DefaultRegisterer),
	})
	prod.SetComponentOverrides(cfg.Overrides)

	for _, source := range environment.FindSourcesByKind(env.KindEndpoint) {
		attachEchoConsumer(reg, environment, source, cfg.BasePath, prod, msgLogger)
	}
	for _, source := range environment.FindSourcesByKind(env.KindChannel) {
		attachEchoConsumer(reg, environment, source, cfg.BasePath, prod, msgLogger)
	}
	for _, source := range environment.FindSourcesByKind(env.KindEvent) {
		attachEchoConsumer(reg, environment, source, cfg.BasePath, prod, msgLogger)
	}

	// Consumers were attached under cfg.BasePath, so their effective
	// paths already include it; the dispatcher matches the full request
	// path against them.
	disp := dispatcher.New(reg, dispatcher.Config{
		Version: version,
		Logger:  msgLogger,
		Metrics: dispatcher.NewMetrics(prometheus.DefaultRegisterer),
	})

	mux := http.NewServeMux()
	mux.Handle("/", disp)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	logger.Info("knative-http-core stopped")
	return nil
}

// attachEchoConsumer registers source as a consumer whose receiver
// forwards the decoded message to the sink of the same name and kind, if
// one is declared. It is the serve command's default routing engine,
// standing in for whatever business logic a real deployment attaches.
func attachEchoConsumer(reg *registry.Registry, environment *env.Environment, source *env.ServiceDefinition, basePath string, prod *producer.Producer, logger message.Logger) {
	sinkKind, sinkName := source.Kind, source.Name

	receiver := func(ctx context.Context, msg *message.Message) (*message.Message, error) {
		sink := environment.FindSink(sinkKind, sinkName)
		if sink == nil || sink.Host == "" {
			logger.Debug("no sink to echo to", "kind", sinkKind, "name", sinkName)
			return nil, nil
		}
		reply, err := prod.Send(ctx, sink, nil, msg)
		if err != nil {
			logger.Warn("echo forward failed", "kind", sinkKind, "name", sinkName, "error", err)
			return nil, err
		}
		return reply, nil
	}

	reg.Attach(source, basePath, false, receiver)
}
