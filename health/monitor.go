package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/metrics"
)

// Monitor probes every configured storage provider for reachability.
type Monitor struct {
	factory interfaces.ConnectorFactory
	timeout time.Duration
	log     *slog.Logger
}

// NewMonitor creates a monitor over the factory's connectors. Each probe
// is bounded by timeout; zero means 10 seconds.
func NewMonitor(factory interfaces.ConnectorFactory, timeout time.Duration, log *slog.Logger) *Monitor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{factory: factory, timeout: timeout, log: log}
}

// CheckStorageHealth probes all providers concurrently and returns one
// entry per configured connector. A probe failure yields a false entry,
// never a missing one.
func (m *Monitor) CheckStorageHealth(ctx context.Context) map[interfaces.ProviderType]bool {
	connectors := m.factory.Connectors()
	results := make(map[interfaces.ProviderType]bool, len(connectors))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, connector := range connectors {
		wg.Add(1)
		go func(c interfaces.ProviderConnector) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			ok := c.Probe(probeCtx)
			if !ok {
				metrics.ProbeFailuresTotal.WithLabelValues(string(c.Type())).Inc()
				m.log.Warn("Storage provider unreachable", slog.String("provider", c.Name()))
			}
			mu.Lock()
			results[c.Type()] = ok
			mu.Unlock()
		}(connector)
	}
	wg.Wait()
	return results
}
