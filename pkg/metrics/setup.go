package metrics

import (
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/raywall/xrest/pkg/config"
)

// NoopProvider é um placeholder para quando métricas estão desabilitadas.
type NoopProvider struct{}

func (n *NoopProvider) Count(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Gauge(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Histogram(name string, value float64, tags []string) error { return nil }

// DatadogProvider adapta a lib oficial do Datadog para nossa interface.
type DatadogProvider struct {
	client statsd.ClientInterface
}

// NewDatadogProvider envolve um cliente statsd existente.
func NewDatadogProvider(client statsd.ClientInterface) *DatadogProvider {
	return &DatadogProvider{client: client}
}

func (d *DatadogProvider) Count(name string, value float64, tags []string) error {
	return d.client.Count(name, int64(value), tags, 1)
}

func (d *DatadogProvider) Gauge(name string, value float64, tags []string) error {
	return d.client.Gauge(name, value, tags, 1)
}

func (d *DatadogProvider) Histogram(name string, value float64, tags []string) error {
	return d.client.Histogram(name, value, tags, 1)
}

// Close envia as métricas pendentes e fecha o cliente.
func (d *DatadogProvider) Close() error {
	return d.client.Close()
}

// Setup inicializa o provedor correto baseado nas settings.
func Setup(cfg config.MetricsConf) (Provider, error) {
	if !cfg.Datadog.Enabled {
		return &NoopProvider{}, nil
	}

	opts := []statsd.Option{
		statsd.WithNamespace(cfg.Datadog.Namespace),
	}

	client, err := statsd.New(cfg.Datadog.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("metrics: connecting to datadog statsd: %w", err)
	}

	return NewDatadogProvider(client), nil
}
