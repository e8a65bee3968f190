package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultTelemetrySize = 256
	defaultReason        = "unspecified"
)

// BroadcastRecord describes one broadcast.
type BroadcastRecord struct {
	Clients int       `json:"clients"`
	Bytes   int       `json:"bytes"`
	Reason  string    `json:"reason"`
	Version int64     `json:"version"`
	At      time.Time `json:"at"`
}

// Telemetry keeps the most recent broadcast records and mirrors them into
// OpenTelemetry instruments.
type Telemetry struct {
	broadcasts metric.Int64Counter
	bytes      metric.Int64Histogram

	mu    sync.Mutex
	ring  []BroadcastRecord
	next  int
	count int
}

func NewTelemetry(meter metric.Meter, size int) (*Telemetry, error) {
	if meter == nil {
		meter = otel.Meter("tabletop/room")
	}
	if size <= 0 {
		size = DefaultTelemetrySize
	}
	broadcasts, err := meter.Int64Counter("tabletop.broadcasts",
		metric.WithDescription("Room snapshots broadcast to clients"))
	if err != nil {
		return nil, fmt.Errorf("create broadcast counter: %w", err)
	}
	bytes, err := meter.Int64Histogram("tabletop.broadcast.bytes",
		metric.WithDescription("Encoded snapshot size"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("create broadcast size histogram: %w", err)
	}
	return &Telemetry{
		broadcasts: broadcasts,
		bytes:      bytes,
		ring:       make([]BroadcastRecord, size),
	}, nil
}

// Record stores rec, defaulting an empty reason.
func (t *Telemetry) Record(rec BroadcastRecord) {
	if rec.Reason == "" {
		rec.Reason = defaultReason
	}
	attrs := metric.WithAttributes(attribute.String("reason", rec.Reason))
	t.broadcasts.Add(context.Background(), 1, attrs)
	t.bytes.Record(context.Background(), int64(rec.Bytes), attrs)

	t.mu.Lock()
	t.ring[t.next] = rec
	t.next = (t.next + 1) % len(t.ring)
	if t.count < len(t.ring) {
		t.count++
	}
	t.mu.Unlock()
}

// Recent returns the stored records, oldest first.
func (t *Telemetry) Recent() []BroadcastRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]BroadcastRecord, 0, t.count)
	start := (t.next - t.count + len(t.ring)) % len(t.ring)
	for i := 0; i < t.count; i++ {
		out = append(out, t.ring[(start+i)%len(t.ring)])
	}
	return out
}
