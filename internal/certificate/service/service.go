// Package service generates certificate archives for a profile, either for
// every stored record or for one batch.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RecordSource,Archiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"certdesk/internal/certificate/archive"
	"certdesk/internal/certificate/metrics"
	"certdesk/internal/certificate/profile"
	"certdesk/internal/platform/tracer"
	"certdesk/internal/sentinel"
	"certdesk/pkg/domain"
	dErrors "certdesk/pkg/domain-errors"
	"certdesk/pkg/requestcontext"
)

// MessageNoMoreCertificates answers a batch request past the last record.
const MessageNoMoreCertificates = "No more certificates to generate."

// RecordSource lists the registrations of a profile in store order.
type RecordSource interface {
	List(ctx context.Context, profile domain.ProfileName) ([]domain.Record, error)
}

// Archiver renders records and writes archives.
// Error Contract:
// - Archive and Batch return sentinel.ErrNoData when nothing is selected
// - Batch returns archive.ErrBatchingUnsupported for unbatched profiles
// - Render failures are returned as domain errors
type Archiver interface {
	Archive(ctx context.Context, records []domain.Record, p profile.Profile) (*archive.Result, error)
	Batch(ctx context.Context, records []domain.Record, p profile.Profile, index int) (*archive.Result, error)
}

// Request selects what to generate. A nil Batch means every record.
type Request struct {
	Profile domain.ProfileName
	Batch   *int
}

// Outcome is either a written archive or, when there was nothing to
// generate, the message to show instead.
type Outcome struct {
	Archive *archive.Result
	Message string
}

// Empty reports whether no archive was produced.
func (o *Outcome) Empty() bool {
	return o.Archive == nil
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// Service coordinates record loading and archiving. Identical concurrent
// requests share one run so two callers never write the same archive at
// the same time.
type Service struct {
	profiles *profile.Set
	records  RecordSource
	archiver Archiver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	group    singleflight.Group
}

func New(profiles *profile.Set, records RecordSource, archiver Archiver, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		profiles: profiles,
		records:  records,
		archiver: archiver,
		logger:   logger,
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Generate produces the archive selected by req. Every call regenerates
// every document from scratch.
func (s *Service) Generate(ctx context.Context, req Request) (*Outcome, error) {
	p, err := s.profiles.Lookup(req.Profile)
	if err != nil {
		return nil, err
	}
	if req.Batch != nil {
		if !p.Batched() {
			return nil, dErrors.New(dErrors.CodeUnsupported,
				fmt.Sprintf("profile %s does not support batches", p.Name))
		}
		if *req.Batch < 0 {
			return nil, dErrors.New(dErrors.CodeBadRequest, "batch index must not be negative")
		}
	}

	key := p.Name.String() + "/all"
	if req.Batch != nil {
		key = p.Name.String() + "/" + strconv.Itoa(*req.Batch)
	}

	// The shared run outlives any single caller; each caller stops waiting
	// when its own context ends.
	start := time.Now()
	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.generate(runCtx, p, req.Batch)
	})

	var (
		v      any
		shared bool
	)
	select {
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "stopped waiting for certificate generation",
			"profile", p.Name.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", ctx.Err(),
		)
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "certificate generation was interrupted")
	case res := <-ch:
		v, err, shared = res.Val, res.Err, res.Shared
	}
	if shared && s.metrics != nil {
		s.metrics.IncrementCoalesced(p.Name.String())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementGenerationFailures(p.Name.String())
		}
		s.logger.ErrorContext(ctx, "certificate generation failed",
			"profile", p.Name.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}

	outcome := v.(*Outcome)
	if s.metrics != nil {
		if outcome.Empty() {
			s.metrics.IncrementNoData(p.Name.String())
		} else {
			s.metrics.ObserveGeneration(p.Name.String(), time.Since(start))
		}
	}
	return outcome, nil
}

func (s *Service) generate(ctx context.Context, p profile.Profile, batch *int) (outcome *Outcome, err error) {
	attrs := []tracer.Attribute{tracer.String(tracer.AttrProfile, p.Name.String())}
	if batch != nil {
		attrs = append(attrs, tracer.Int(tracer.AttrBatchIndex, *batch))
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanGenerate, attrs...)
	defer func() { span.End(err) }()

	records, err := s.records.List(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.Int(tracer.AttrRecordCount, len(records)))
	if len(records) == 0 {
		return &Outcome{Message: p.NoDataMessage}, nil
	}

	var res *archive.Result
	if batch != nil {
		res, err = s.archiver.Batch(ctx, records, p, *batch)
	} else {
		res, err = s.archiver.Archive(ctx, records, p)
	}
	switch {
	case err == nil:
		return &Outcome{Archive: res}, nil
	case errors.Is(err, sentinel.ErrNoData):
		if batch != nil {
			return &Outcome{Message: MessageNoMoreCertificates}, nil
		}
		return &Outcome{Message: p.NoDataMessage}, nil
	case errors.Is(err, archive.ErrBatchingUnsupported):
		return nil, dErrors.Wrap(err, dErrors.CodeUnsupported,
			fmt.Sprintf("profile %s does not support batches", p.Name))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "certificate generation was interrupted")
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return nil, err
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "certificate generation failed")
}
