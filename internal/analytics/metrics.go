package analytics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink counts events in a private registry that can be written out
// for the node exporter textfile collector.
type MetricsSink struct {
	registry  *prometheus.Registry
	events    *prometheus.CounterVec
	lastEvent *prometheus.GaugeVec
}

func NewMetricsSink() *MetricsSink {
	registry := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxclone",
		Name:      "events_total",
		Help:      "Conversion events by name and model.",
	}, []string{"event", "model"})

	lastEvent := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "voxclone",
		Name:      "last_event_timestamp_seconds",
		Help:      "Unix time of the most recent event by name.",
	}, []string{"event"})

	registry.MustRegister(events, lastEvent)

	return &MetricsSink{registry: registry, events: events, lastEvent: lastEvent}
}

func (s *MetricsSink) Capture(event Event) error {
	if strings.TrimSpace(event.Name) == "" {
		return errors.New("event name is required")
	}

	s.events.WithLabelValues(event.Name, event.Model).Inc()
	if event.At.IsZero() {
		s.lastEvent.WithLabelValues(event.Name).SetToCurrentTime()
	} else {
		s.lastEvent.WithLabelValues(event.Name).Set(float64(event.At.UnixNano()) / 1e9)
	}
	return nil
}

// WriteTextfile writes the collected metrics to path in the Prometheus text
// format.
func (s *MetricsSink) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
