package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openlearn/courseware-server/pkg/cache"
	"github.com/openlearn/courseware-server/pkg/metrics"
)

// Tracker emits analytics events to downstream consumers.
type Tracker interface {
	Emit(ctx context.Context, name string, payload map[string]any) error
}

// StreamTracker publishes events onto a Redis stream. When Redis is not
// configured, events are written to the log instead so local environments
// still surface them.
type StreamTracker struct {
	cache     cache.Client
	logger    *slog.Logger
	stream    string
	maxLength int64
}

func NewStreamTracker(cacheClient cache.Client, logger *slog.Logger, stream string, maxLength int64) *StreamTracker {
	return &StreamTracker{
		cache:     cacheClient,
		logger:    logger,
		stream:    stream,
		maxLength: maxLength,
	}
}

func (t *StreamTracker) Emit(ctx context.Context, name string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", name, err)
	}

	metrics.CountAnalyticsEvent(name)

	values := map[string]any{
		"event":     name,
		"payload":   string(data),
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := t.cache.StreamAdd(ctx, t.stream, t.maxLength, values); err != nil {
		if errors.Is(err, cache.ErrDisabled) {
			t.logger.Info("analytics event", "event", name, "payload", string(data))
			return nil
		}
		return fmt.Errorf("publishing event %s: %w", name, err)
	}

	t.logger.Debug("analytics event emitted", "event", name, "stream", t.stream)
	return nil
}

// NopTracker discards events. Used in tests.
type NopTracker struct{}

func (NopTracker) Emit(context.Context, string, map[string]any) error { return nil }

// RecordingTracker captures emitted events for assertions in tests.
type RecordingTracker struct {
	Events []RecordedEvent
}

type RecordedEvent struct {
	Name    string
	Payload map[string]any
}

func (t *RecordingTracker) Emit(_ context.Context, name string, payload map[string]any) error {
	t.Events = append(t.Events, RecordedEvent{Name: name, Payload: payload})
	return nil
}
