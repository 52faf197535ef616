// Package metrics counts export outcomes and mirrors them to OpenTelemetry.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"imgexport/internal/export"
)

const (
	ExportsTotal        = "exports_total"
	EntriesOmittedTotal = "export_entries_omitted_total"
)

// Registry keeps labelled counters in memory for /v1/metrics and forwards
// every increment to the global OTel meter provider.
type Registry struct {
	mu       sync.RWMutex
	values   map[string]*atomic.Int64
	meter    metric.Meter
	counters map[string]metric.Int64Counter
}

var _ export.Recorder = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		values:   make(map[string]*atomic.Int64),
		meter:    otel.GetMeterProvider().Meter("imgexport"),
		counters: make(map[string]metric.Int64Counter),
	}
}

// RecordExport counts a finished job by operation and final state.
func (r *Registry) RecordExport(ctx context.Context, op export.Op, state export.State) {
	r.Add(ctx, ExportsTotal, map[string]string{"op": string(op), "outcome": string(state)}, 1)
}

// RecordOmitted counts archive entries dropped from a batch.
func (r *Registry) RecordOmitted(ctx context.Context, op export.Op, n int) {
	if n <= 0 {
		return
	}
	r.Add(ctx, EntriesOmittedTotal, map[string]string{"op": string(op)}, int64(n))
}

// Add increments the counter name{labels} by n.
func (r *Registry) Add(ctx context.Context, name string, labels map[string]string, n int64) {
	r.value(seriesKey(name, labels)).Add(n)
	if c := r.counter(name); c != nil {
		attrs := make([]attribute.KeyValue, 0, len(labels))
		for k, v := range labels {
			attrs = append(attrs, attribute.String(k, v))
		}
		c.Add(ctx, n, metric.WithAttributes(attrs...))
	}
}

// Value returns the current count of name{labels}.
func (r *Registry) Value(name string, labels map[string]string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v := r.values[seriesKey(name, labels)]; v != nil {
		return v.Load()
	}
	return 0
}

// Snapshot copies every series.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int64, len(r.values))
	for k, v := range r.values {
		out[k] = v.Load()
	}
	return out
}

// ServeHTTP renders the counters as text lines, or JSON with ?format=json.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	snap := r.Snapshot()
	if req.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
		return
	}
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, k := range keys {
		fmt.Fprintf(w, "%s %d\n", k, snap[k])
	}
}

func (r *Registry) value(key string) *atomic.Int64 {
	r.mu.RLock()
	v := r.values[key]
	r.mu.RUnlock()
	if v != nil {
		return v
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v = r.values[key]; v == nil {
		v = new(atomic.Int64)
		r.values[key] = v
	}
	return v
}

func (r *Registry) counter(name string) metric.Int64Counter {
	r.mu.RLock()
	c := r.counters[name]
	r.mu.RUnlock()
	if c != nil {
		return c
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c = r.counters[name]; c == nil {
		var err error
		if c, err = r.meter.Int64Counter(name); err != nil {
			return nil
		}
		r.counters[name] = c
	}
	return c
}

// seriesKey renders name{k=v,...} with sorted label keys.
func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + labels[k]
	}
	return name + "{" + strings.Join(pairs, ",") + "}"
}
