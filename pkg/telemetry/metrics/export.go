package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Export writes the registry to every configured sink. Each sink is tried
// even when an earlier one fails; the first error is returned.
func (c *Collector) Export(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	var firstErr error
	if c.config.TextfilePath != "" {
		if err := c.WriteTextfile(c.config.TextfilePath); err != nil {
			firstErr = err
		}
	}
	if c.config.PushGatewayURL != "" {
		if err := c.Push(ctx, c.config.PushGatewayURL, c.config.JobName); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteTextfile writes the registry in the Prometheus text format for the
// node exporter textfile collector. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %q: %w", path, err)
	}

	slog.Default().With("component", "telemetry.metrics").Debug("metrics written", "path", path)
	return nil
}

// Push replaces the metrics of job on a Prometheus Pushgateway.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	err := push.New(url, job).
		Gatherer(c.registry).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}

	slog.Default().With("component", "telemetry.metrics").Debug("metrics pushed", "url", url, "job", job)
	return nil
}
