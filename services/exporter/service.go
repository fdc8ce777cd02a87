package exporter

import (
	"context"
	"net/http"
	"time"

	"sbmodem-exporter/lib/scrapers/sb8200"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service ties the snapshot store, the refresh daemon and the
// prometheus registry together. Scrapes of /metrics and refreshes of
// the modem never wait on each other; the store in the middle is the
// only point of contact.
type Service struct {
	store    *SnapshotStore
	daemon   *RefreshDaemon
	registry *prometheus.Registry
}

func NewService(client *sb8200.Client, interval time.Duration) (*Service, error) {
	store := NewSnapshotStore()
	daemon := NewRefreshDaemon(client, store, interval)

	registry := prometheus.NewRegistry()
	for _, collector := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newSnapshotCollector(store),
		daemon,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return &Service{
		store:    store,
		daemon:   daemon,
		registry: registry,
	}, nil
}

// Start launches the refresh daemon; it runs until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.daemon.Start(ctx)
}

// Handler serves the metrics endpoint. It answers from the moment the
// process is up; before the first successful refresh the modem series
// are simply absent.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func (s *Service) Store() *SnapshotStore {
	return s.store
}
