package qsd

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) RecordCreated(ctx context.Context, record *Record) error { return nil }
func (n *NoopEventSink) RecordUpdated(ctx context.Context, record *Record) error { return nil }
func (n *NoopEventSink) RecordDeleted(ctx context.Context, record *Record) error { return nil }

// LogEventSink writes record changes to a structured logger.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink logging to logger, or slog.Default() when nil.
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (l *LogEventSink) RecordCreated(ctx context.Context, record *Record) error {
	l.logger.InfoContext(ctx, "Record created", "record_id", record.ID, "url", record.URL, "author_id", record.AuthorID)
	return nil
}

func (l *LogEventSink) RecordUpdated(ctx context.Context, record *Record) error {
	l.logger.InfoContext(ctx, "Record updated", "record_id", record.ID, "url", record.URL, "author_id", record.AuthorID)
	return nil
}

func (l *LogEventSink) RecordDeleted(ctx context.Context, record *Record) error {
	l.logger.InfoContext(ctx, "Record deleted", "record_id", record.ID, "url", record.URL)
	return nil
}

// NoopCache never stores anything; every lookup is a miss.
type NoopCache struct{}

// NewNoopCache creates a cache that disables caching
func NewNoopCache() Cache {
	return NoopCache{}
}

func (NoopCache) Get(context.Context, string) (Page, bool, error) { return Page{}, false, nil }
func (NoopCache) Snapshot(context.Context, string) (uint64, error) { return 0, nil }
func (NoopCache) SetWithGen(context.Context, string, Page, uint64) error { return nil }
func (NoopCache) Invalidate(context.Context, ...string) error { return nil }
