package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	artifactruntime "github.com/wippyai/artifact-runtime"
	"github.com/wippyai/artifact-runtime/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Deploy the root and keep it in sync with descriptor changes",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :2112)")
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "quiet period before applying changes")
	_ = viper.BindPFlag("metrics-addr", watchCmd.Flags().Lookup("metrics-addr"))
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt := newRuntime(func(c *artifactruntime.Config) { c.Registerer = reg })
	defer rt.Close(context.Background())

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	for _, e := range multierr.Errors(rt.DeployAll(ctx)) {
		logger.Warn("deployment failed", zap.Error(e))
	}
	printArtifacts(cmd.OutOrStdout(), rt)

	debounce, _ := cmd.Flags().GetDuration("debounce")
	wc := watch.DefaultConfig(cfg.Root)
	wc.DebounceDur = debounce
	wc.Logger = logger.Named("watch")
	w, err := watch.New(wc)
	if err != nil {
		return err
	}
	defer w.Stop()
	changes, err := w.Start()
	if err != nil {
		return err
	}

	logger.Info("watching descriptors", zap.String("root", cfg.Root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-changes:
			applyBatch(ctx, rt, batch)
		}
	}
}

// applyBatch applies changed descriptors, domains before applications.
func applyBatch(ctx context.Context, rt *artifactruntime.Runtime, batch []string) {
	for _, name := range orderBatch(batch) {
		if err := rt.Apply(ctx, name); err != nil {
			logger.Warn("apply failed", zap.String("file", name), zap.Error(err))
			continue
		}
		logger.Info("applied", zap.String("file", name))
	}
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
