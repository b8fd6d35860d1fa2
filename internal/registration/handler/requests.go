package handler

import (
	"strings"

	"certdesk/pkg/domain"
	"certdesk/pkg/validation"
)

// SubmitRequest is the registration payload, accepted as a form or JSON.
// Field content is not validated beyond length limits; empty values are
// stored as given.
type SubmitRequest struct {
	Name       string `json:"name" validate:"max=256"`
	College    string `json:"college" validate:"max=512"`
	PaperTitle string `json:"paper_title" validate:"max=1024"`
	Email      string `json:"email" validate:"max=320"`
	Profile    string `json:"profile" validate:"omitempty,oneof=conference workshop"`
}

func (r *SubmitRequest) Sanitize() {
	r.Profile = strings.ToLower(strings.TrimSpace(r.Profile))
}

func (r *SubmitRequest) Validate() error {
	return validation.Validate(r)
}

// ProfileName returns the selected profile, conference when unset.
func (r *SubmitRequest) ProfileName() domain.ProfileName {
	if r.Profile == "" {
		return domain.ProfileConference
	}
	return domain.ProfileName(r.Profile)
}

func (r *SubmitRequest) Record() domain.Record {
	return domain.Record{
		Name:       r.Name,
		College:    r.College,
		PaperTitle: r.PaperTitle,
		Email:      r.Email,
	}
}
