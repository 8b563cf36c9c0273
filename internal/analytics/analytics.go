// Package analytics records conversion telemetry. Sinks are best effort:
// callers log a Capture error and carry on.
package analytics

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	EventInfer   = "Infer Audio"
	EventSuccess = "Cloned Audio Success"
	EventFailure = "Cloned Audio Failure"
)

type Event struct {
	Name      string
	RequestID string
	Model     string
	Params    map[string]any
	At        time.Time
}

type Sink interface {
	Capture(event Event) error
}

type nopSink struct{}

func (nopSink) Capture(Event) error { return nil }

// Nop returns a sink that drops every event.
func Nop() Sink {
	return nopSink{}
}

// LogSink writes events as structured log entries.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Capture(event Event) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fields := []zap.Field{
		zap.String("event", event.Name),
		zap.String("request_id", event.RequestID),
		zap.String("model", event.Model),
		zap.Any("params", event.Params),
	}
	if !event.At.IsZero() {
		fields = append(fields, zap.Time("at", event.At))
	}
	logger.Debug("analytics event", fields...)
	return nil
}

type multiSink []Sink

// Multi fans an event out to every sink and joins their errors.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}

func (m multiSink) Capture(event Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Capture(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
