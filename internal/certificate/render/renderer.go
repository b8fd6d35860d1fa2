// Package render draws a registration record onto a certificate page: the
// profile background as a full-page backdrop, the name centered on a fixed
// baseline and the body phrase as a justified paragraph inside a frame.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"certdesk/internal/certificate/profile"
	"certdesk/internal/platform/tracer"
	"certdesk/pkg/domain"
	dErrors "certdesk/pkg/domain-errors"
)

// ResourceSource supplies background and font bytes by resource name.
type ResourceSource interface {
	Bytes(name string) ([]byte, error)
}

// Metrics records renderer activity.
type Metrics interface {
	IncrementDocumentsRendered(profile string)
	AddBodyLinesDropped(profile string, n int)
}

// Document is one rendered certificate.
type Document struct {
	Name         string
	Data         []byte
	DroppedLines int
}

type Renderer struct {
	resources ResourceSource
	logger    *slog.Logger
	tracer    tracer.Tracer
	metrics   Metrics
	now       func() time.Time
	compress  bool
}

type Option func(*Renderer)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Renderer) {
		r.tracer = t
	}
}

func WithMetrics(m Metrics) Option {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// WithClock sets the clock used for the document creation date.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// WithCompression toggles content stream compression. Compression is on by
// default.
func WithCompression(enabled bool) Option {
	return func(r *Renderer) {
		r.compress = enabled
	}
}

func New(resources ResourceSource, opts ...Option) *Renderer {
	r := &Renderer{
		resources: resources,
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
		now:       time.Now,
		compress:  true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the PDF for rec under profile p. A missing or
// undecodable background or font yields CodeResourceUnavailable.
func (r *Renderer) Render(ctx context.Context, rec domain.Record, p profile.Profile) (doc *Document, err error) {
	name := p.DocumentName(rec)
	_, span := r.tracer.Start(ctx, tracer.SpanRender,
		tracer.String(tracer.AttrProfile, p.Name.String()),
		tracer.String(tracer.AttrDocument, name),
		tracer.String(tracer.AttrNameHash, tracer.Fingerprint(rec.Name)),
	)
	defer func() { span.End(err) }()

	body, err := ParseBody(p.Body.Template)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "invalid body template")
	}
	runs, err := body.Runs(rec)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fill body template")
	}

	background, err := r.resources.Bytes(p.Background)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(r.now())
	pdf.SetCatalogSort(true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(rec.Name, true)

	f, err := r.loadFace(pdf, p.Fonts)
	if err != nil {
		return nil, err
	}

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	imgOpts := fpdf.ImageOptions{ImageType: imageType(p.Background)}
	pdf.RegisterImageOptionsReader(p.Background, imgOpts, bytes.NewReader(background))
	if pdf.Err() {
		return nil, dErrors.Wrap(pdf.Error(), dErrors.CodeResourceUnavailable,
			fmt.Sprintf("background %s could not be decoded", p.Background))
	}
	pdf.ImageOptions(p.Background, 0, 0, pageW, pageH, false, imgOpts, 0, "")

	f.use(pdf, true, p.NameStyle.Size)
	nameW := f.width(pdf, rec.Name)
	pdf.Text(pageW/2-nameW/2, pageH-p.NameStyle.Baseline, f.translate(rec.Name))

	measure := func(text string, bold bool) float64 {
		f.use(pdf, bold, p.Body.Size)
		return f.width(pdf, text)
	}
	para := Layout(runs, p.Body, measure)
	for _, line := range para.Lines {
		for _, item := range line.Items {
			f.use(pdf, item.Bold, p.Body.Size)
			pdf.Text(item.X, pageH-line.Baseline, f.translate(item.Text))
		}
	}
	if para.Dropped > 0 {
		r.logger.WarnContext(ctx, "body text overflows frame",
			"profile", p.Name.String(),
			"document", name,
			"dropped_lines", para.Dropped,
		)
		span.AddEvent(tracer.EventBodyOverflow, tracer.Int("dropped_lines", para.Dropped))
		if r.metrics != nil {
			r.metrics.AddBodyLinesDropped(p.Name.String(), para.Dropped)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write document")
	}
	if r.metrics != nil {
		r.metrics.IncrementDocumentsRendered(p.Name.String())
	}

	return &Document{Name: name, Data: buf.Bytes(), DroppedLines: para.Dropped}, nil
}

// face is the regular/bold font pair registered in one document.
type face struct {
	family    string
	translate func(string) string
}

func (f face) use(pdf *fpdf.Fpdf, bold bool, size float64) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont(f.family, style, size)
}

func (f face) width(pdf *fpdf.Fpdf, text string) float64 {
	return pdf.GetStringWidth(f.translate(text))
}

// loadFace registers the profile fonts. Without TTF resources the family is
// a PDF core font and text is translated to its single-byte encoding.
func (r *Renderer) loadFace(pdf *fpdf.Fpdf, fonts profile.Fonts) (face, error) {
	if !fonts.Embedded() {
		return face{family: fonts.Family, translate: pdf.UnicodeTranslatorFromDescriptor("")}, nil
	}

	regular, err := r.resources.Bytes(fonts.Regular)
	if err != nil {
		return face{}, err
	}
	bold := regular
	if fonts.Bold != "" {
		if bold, err = r.resources.Bytes(fonts.Bold); err != nil {
			return face{}, err
		}
	}

	if err := addFont(pdf, fonts.Family, "", regular); err != nil {
		return face{}, dErrors.Wrap(err, dErrors.CodeResourceUnavailable,
			fmt.Sprintf("font %s could not be loaded", fonts.Regular))
	}
	if err := addFont(pdf, fonts.Family, "B", bold); err != nil {
		return face{}, dErrors.Wrap(err, dErrors.CodeResourceUnavailable,
			fmt.Sprintf("font %s could not be loaded", fonts.Bold))
	}
	return face{family: fonts.Family, translate: func(s string) string { return s }}, nil
}

// addFont registers a TTF face. The TTF parser panics on some malformed
// inputs, so panics are reported as errors.
func addFont(pdf *fpdf.Fpdf, family, style string, data []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parsing font: %v", rec)
		}
	}()
	pdf.AddUTF8FontFromBytes(family, style, data)
	if pdf.Err() {
		return pdf.Error()
	}
	return nil
}

func imageType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "jpeg" {
		return "jpg"
	}
	return ext
}
