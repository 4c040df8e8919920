// Package publish delivers telemetry records to their consumers.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/lcalzada-xor/ridmap/internal/core/domain"
	"github.com/lcalzada-xor/ridmap/internal/core/ports"
	"github.com/lcalzada-xor/ridmap/internal/telemetry"
)

// Named is implemented by publishers that label their metrics.
type Named interface {
	Name() string
}

// LogPublisher writes every record as a structured log line.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("component", "publisher")}
}

func (p *LogPublisher) Name() string { return "log" }

func (p *LogPublisher) Publish(ctx context.Context, rec domain.TelemetryRecord) error {
	attrs := []any{
		"id", rec.ID,
		"source", rec.SourceMAC,
		"rssi", rec.Radio.Signal,
		"channel", rec.Radio.Channel,
		"messages", rec.Messages,
	}
	if rec.HasIdentity() {
		attrs = append(attrs, "uas_id", rec.UASID, "ua_type", rec.UAType)
	}
	if rec.HasPosition {
		attrs = append(attrs, "lat", rec.Latitude, "lng", rec.Longitude)
	}
	if rec.Operator != nil {
		attrs = append(attrs, "operator_lat", rec.Operator.Latitude, "operator_lng", rec.Operator.Longitude)
	}
	p.logger.InfoContext(ctx, "remote id record", attrs...)
	return nil
}

// ConsolePublisher prints every record as a table.
type ConsolePublisher struct {
	mu      sync.Mutex
	printer *Printer
}

func NewConsolePublisher(w io.Writer) *ConsolePublisher {
	return &ConsolePublisher{printer: NewPrinter(w)}
}

func (p *ConsolePublisher) Name() string { return "console" }

func (p *ConsolePublisher) Publish(_ context.Context, rec domain.TelemetryRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printer.PrintRecord(rec)
	return nil
}

// JSONPublisher writes one JSON document per line.
type JSONPublisher struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONPublisher(w io.Writer) *JSONPublisher {
	return &JSONPublisher{enc: json.NewEncoder(w)}
}

func (p *JSONPublisher) Name() string { return "json" }

func (p *JSONPublisher) Publish(_ context.Context, rec domain.TelemetryRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	return nil
}

// Multi hands each record to every publisher and joins their errors.
type Multi struct {
	publishers []ports.Publisher
}

func NewMulti(publishers ...ports.Publisher) *Multi {
	return &Multi{publishers: publishers}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Publish(ctx context.Context, rec domain.TelemetryRecord) error {
	var errs []error
	for _, p := range m.publishers {
		name := nameOf(p)
		if err := p.Publish(ctx, rec); err != nil {
			telemetry.RecordsPublished.WithLabelValues(name, "error").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		telemetry.RecordsPublished.WithLabelValues(name, "ok").Inc()
	}
	return errors.Join(errs...)
}

func nameOf(p ports.Publisher) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}
