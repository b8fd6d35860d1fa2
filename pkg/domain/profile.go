package domain

import (
	"fmt"
	"strings"

	dErrors "certdesk/pkg/domain-errors"
)

// ProfileName identifies a certificate variant.
type ProfileName string

const (
	ProfileConference ProfileName = "conference"
	ProfileWorkshop   ProfileName = "workshop"
)

// ProfileNames lists every known profile in a stable order.
var ProfileNames = []ProfileName{ProfileConference, ProfileWorkshop}

func (p ProfileName) String() string {
	return string(p)
}

func (p ProfileName) IsValid() bool {
	switch p {
	case ProfileConference, ProfileWorkshop:
		return true
	default:
		return false
	}
}

// ParseProfileName parses a profile from user input. Empty input selects
// the conference profile.
func ParseProfileName(s string) (ProfileName, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ProfileConference, nil
	}
	p := ProfileName(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown profile %q", s))
	}
	return p, nil
}
