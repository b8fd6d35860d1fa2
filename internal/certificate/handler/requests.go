package handler

import (
	"strings"

	"certdesk/internal/certificate/service"
	"certdesk/pkg/domain"
	"certdesk/pkg/validation"
)

// GenerateQuery holds the query parameters of /generate.
type GenerateQuery struct {
	Profile string `validate:"omitempty,oneof=conference workshop"`
	Batch   string `validate:"omitempty,numeric,max=9"`
}

func (q *GenerateQuery) Sanitize() {
	q.Profile = strings.ToLower(strings.TrimSpace(q.Profile))
	q.Batch = strings.TrimSpace(q.Batch)
}

func (q *GenerateQuery) Validate() error {
	return validation.Validate(q)
}

// Request converts the query into a service request.
func (q *GenerateQuery) Request() (service.Request, error) {
	req := service.Request{Profile: domain.ProfileConference}
	if q.Profile != "" {
		req.Profile = domain.ProfileName(q.Profile)
	}
	if q.Batch != "" {
		batch, err := parseBatch(q.Batch)
		if err != nil {
			return service.Request{}, err
		}
		req.Batch = &batch
	}
	return req, nil
}
