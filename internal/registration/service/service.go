// Package service stores registrations and lists them per profile.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"certdesk/internal/registration/metrics"
	"certdesk/pkg/domain"
	dErrors "certdesk/pkg/domain-errors"
	"certdesk/pkg/platform/privacy"
	"certdesk/pkg/requestcontext"
)

// Store defines the persistence interface for registration records.
// Error Contract:
// - Load returns an empty slice when nothing has been stored
// - Append returns nil on success or a wrapped infrastructure error
type Store interface {
	Load(ctx context.Context) ([]domain.Record, error)
	Append(ctx context.Context, rec domain.Record) error
}

type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithStore registers the store backing a profile.
func WithStore(profile domain.ProfileName, st Store) Option {
	return func(s *Service) {
		s.stores[profile] = st
	}
}

// Service appends registrations to the store of their profile.
type Service struct {
	stores  map[domain.ProfileName]Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		stores: make(map[domain.ProfileName]Store),
		logger: logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Submit appends rec to the profile's store. The record is stored as given:
// empty fields are kept.
func (s *Service) Submit(ctx context.Context, profile domain.ProfileName, rec domain.Record) (*domain.Record, error) {
	st, err := s.store(profile)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = st.Append(ctx, rec)
	s.observe("append", start)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementSubmissionFailures(profile.String())
		}
		s.logger.ErrorContext(ctx, "failed to store registration",
			"profile", profile.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store registration")
	}

	if s.metrics != nil {
		s.metrics.IncrementSubmissions(profile.String())
	}
	s.logger.InfoContext(ctx, "registration stored",
		"profile", profile.String(),
		"request_id", requestcontext.RequestID(ctx),
		"client_ip", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
		"device", requestcontext.Device(ctx),
	)
	return &rec, nil
}

// List returns the profile's records in insertion order.
func (s *Service) List(ctx context.Context, profile domain.ProfileName) ([]domain.Record, error) {
	st, err := s.store(profile)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := st.Load(ctx)
	s.observe("load", start)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load registrations",
			"profile", profile.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrations")
	}
	if records == nil {
		records = []domain.Record{}
	}
	if s.metrics != nil {
		s.metrics.SetStoredRecords(profile.String(), len(records))
	}
	return records, nil
}

func (s *Service) store(profile domain.ProfileName) (Store, error) {
	st, ok := s.stores[profile]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown profile %q", profile))
	}
	return st, nil
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation(op, time.Since(start))
	}
}
