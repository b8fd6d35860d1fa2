// Package tracer provides a lightweight tracing abstraction for certificate runs.
//
// Services depend on the Tracer interface only; OTelTracer adapts it to
// OpenTelemetry and NoopTracer keeps tests free of exporters.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording err when non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span; the returned context carries it to child operations.
	//
	// Example:
	//   ctx, span := t.Start(ctx, tracer.SpanArchive,
	//       tracer.String(tracer.AttrProfile, "workshop"),
	//       tracer.Int(tracer.AttrRecordCount, len(records)),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Fingerprint hashes a registrant value (name, email) so spans can be
// correlated without carrying the value itself.
func Fingerprint(value string) string {
	if value == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanGenerate = "certificate.generate"
	SpanArchive  = "certificate.archive"
	SpanRender   = "certificate.render"
)

// Attribute keys.
const (
	AttrProfile     = "profile"
	AttrBatchIndex  = "batch.index"
	AttrRecordCount = "records.count"
	AttrDocument    = "document"
	AttrNameHash    = "registrant.name_hash"
	AttrArchive     = "archive.name"
	AttrShared      = "singleflight.shared"
)

// Event names.
const (
	EventDocumentWritten = "document.written"
	EventBodyOverflow    = "body.overflow"
)
