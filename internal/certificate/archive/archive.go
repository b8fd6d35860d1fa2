// Package archive renders batches of registration records and packs the
// resulting documents into a ZIP archive.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"certdesk/internal/certificate/profile"
	"certdesk/internal/certificate/render"
	"certdesk/internal/platform/tracer"
	"certdesk/internal/sentinel"
	"certdesk/pkg/domain"
)

// ErrBatchingUnsupported is returned by Batch for profiles without batches.
var ErrBatchingUnsupported = fmt.Errorf("%w: profile does not support batches", sentinel.ErrUnsupported)

const (
	KindFull  = "full"
	KindBatch = "batch"
)

// Renderer turns one record into a document.
type Renderer interface {
	Render(ctx context.Context, rec domain.Record, p profile.Profile) (*render.Document, error)
}

// Metrics records archive activity.
type Metrics interface {
	IncrementArchivesGenerated(profile, kind string)
	ObserveArchiveSize(profile string, size int)
}

// Result describes a written archive.
type Result struct {
	// Name is the archive file name offered for download.
	Name string
	// Path is where the archive was written on the output filesystem.
	Path string
	// Documents lists the archive entries in first-appearance order.
	Documents []string
	// Rendered counts rendered records, including ones whose document
	// name collided with an earlier record.
	Rendered int
	Data     []byte
}

type Archiver struct {
	renderer   Renderer
	fs         afero.Fs
	outputDir  string
	archiveDir string
	logger     *slog.Logger
	tracer     tracer.Tracer
	metrics    Metrics
	now        func() time.Time
}

type Option func(*Archiver)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) {
		a.logger = logger
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(a *Archiver) {
		a.tracer = t
	}
}

func WithMetrics(m Metrics) Option {
	return func(a *Archiver) {
		a.metrics = m
	}
}

// WithClock sets the clock used for archive entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) {
		a.now = now
	}
}

// New creates an archiver writing documents to outputDir and archives to
// archiveDir on fsys.
func New(renderer Renderer, fsys afero.Fs, outputDir, archiveDir string, opts ...Option) *Archiver {
	a := &Archiver{
		renderer:   renderer,
		fs:         fsys,
		outputDir:  outputDir,
		archiveDir: archiveDir,
		logger:     slog.Default(),
		tracer:     tracer.NewNoop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Archive renders every record in order and writes p.ArchiveName.
// Returns sentinel.ErrNoData when records is empty.
func (a *Archiver) Archive(ctx context.Context, records []domain.Record, p profile.Profile) (*Result, error) {
	if len(records) == 0 {
		return nil, sentinel.ErrNoData
	}
	return a.run(ctx, records, p, p.ArchiveName, KindFull, -1)
}

// Batch renders records [index*size, index*size+size) and writes the
// numbered batch archive. Returns sentinel.ErrNoData when the batch selects
// nothing and ErrBatchingUnsupported for profiles without batches.
func (a *Archiver) Batch(ctx context.Context, records []domain.Record, p profile.Profile, index int) (*Result, error) {
	if !p.Batched() {
		return nil, ErrBatchingUnsupported
	}
	start, end, ok := p.BatchBounds(index, len(records))
	if !ok {
		return nil, sentinel.ErrNoData
	}
	return a.run(ctx, records[start:end], p, p.BatchArchiveName(index), KindBatch, index)
}

func (a *Archiver) run(ctx context.Context, records []domain.Record, p profile.Profile, archiveName, kind string, index int) (result *Result, err error) {
	ctx, span := a.tracer.Start(ctx, tracer.SpanArchive,
		tracer.String(tracer.AttrProfile, p.Name.String()),
		tracer.String(tracer.AttrArchive, archiveName),
		tracer.Int(tracer.AttrRecordCount, len(records)),
		tracer.Int(tracer.AttrBatchIndex, index),
	)
	defer func() { span.End(err) }()

	for _, dir := range []string{a.outputDir, a.archiveDir} {
		if err := a.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	entries := newEntrySet(len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := a.renderer.Render(ctx, rec, p)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(a.outputDir, doc.Name)
		if err := afero.WriteFile(a.fs, path, doc.Data, 0o644); err != nil {
			return nil, fmt.Errorf("writing document %s: %w", path, err)
		}
		if entries.put(doc.Name, doc.Data) {
			a.logger.WarnContext(ctx, "document name collision, later record overwrites",
				"profile", p.Name.String(),
				"document", doc.Name,
			)
		}
		span.AddEvent(tracer.EventDocumentWritten, tracer.String(tracer.AttrDocument, doc.Name))
	}

	data, err := entries.zip(a.now())
	if err != nil {
		return nil, err
	}
	path := filepath.Join(a.archiveDir, archiveName)
	if err := writeAtomic(a.fs, path, data); err != nil {
		return nil, err
	}

	if a.metrics != nil {
		a.metrics.IncrementArchivesGenerated(p.Name.String(), kind)
		a.metrics.ObserveArchiveSize(p.Name.String(), len(data))
	}
	a.logger.InfoContext(ctx, "archive written",
		"profile", p.Name.String(),
		"archive", path,
		"documents", len(entries.order),
		"records", len(records),
		"bytes", len(data),
	)

	return &Result{
		Name:      archiveName,
		Path:      path,
		Documents: entries.order,
		Rendered:  len(records),
		Data:      data,
	}, nil
}

// entrySet keeps one entry per name, in first-appearance order, holding the
// latest bytes written under that name.
type entrySet struct {
	order []string
	data  map[string][]byte
}

func newEntrySet(n int) *entrySet {
	return &entrySet{order: make([]string, 0, n), data: make(map[string][]byte, n)}
}

// put stores data under name and reports whether name was already present.
func (e *entrySet) put(name string, data []byte) bool {
	_, exists := e.data[name]
	if !exists {
		e.order = append(e.order, name)
	}
	e.data[name] = data
	return exists
}

func (e *entrySet) zip(modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range e.order {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("adding %s to archive: %w", name, err)
		}
		if _, err := w.Write(e.data[name]); err != nil {
			return nil, fmt.Errorf("adding %s to archive: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data to a temporary sibling of path, then renames it
// over path.
func writeAtomic(fsys afero.Fs, path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(fsys, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing archive %s: %w", path, err)
	}
	if err := fsys.Rename(tmp, path); err != nil {
		return errors.Join(fmt.Errorf("publishing archive %s: %w", path, err), fsys.Remove(tmp))
	}
	return nil
}
