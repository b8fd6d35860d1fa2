package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"certdesk/pkg/domain"
)

const (
	boldOpen  = "<b>"
	boldClose = "</b>"
)

var markerStripper = strings.NewReplacer(boldOpen, "", boldClose, "")

// Run is a stretch of body text drawn in one face.
type Run struct {
	Text string
	Bold bool
}

type segment struct {
	bold bool
	tmpl *template.Template
}

// BodyTemplate is a phrase template split into regular and bold segments.
// Each segment is executed on its own, so substituted values can never
// open or close emphasis.
type BodyTemplate struct {
	segments []segment
}

// ParseBody splits src at <b> and </b> markers and compiles each segment.
// A stray </b> is ignored and an unclosed <b> runs to the end of the text.
func ParseBody(src string) (*BodyTemplate, error) {
	var segments []segment
	bold := false
	for i := 0; src != ""; i++ {
		marker := boldOpen
		if bold {
			marker = boldClose
		}
		text, rest, found := strings.Cut(src, marker)
		text = markerStripper.Replace(text)
		if text != "" {
			t, err := template.New(fmt.Sprintf("segment-%d", i)).Option("missingkey=zero").Parse(text)
			if err != nil {
				return nil, fmt.Errorf("parsing body template: %w", err)
			}
			segments = append(segments, segment{bold: bold, tmpl: t})
		}
		if !found {
			break
		}
		bold = !bold
		src = rest
	}
	return &BodyTemplate{segments: segments}, nil
}

// Runs substitutes rec into the template.
func (b *BodyTemplate) Runs(rec domain.Record) ([]Run, error) {
	runs := make([]Run, 0, len(b.segments))
	var buf bytes.Buffer
	for _, seg := range b.segments {
		buf.Reset()
		if err := seg.tmpl.Execute(&buf, rec); err != nil {
			return nil, fmt.Errorf("executing body template: %w", err)
		}
		runs = append(runs, Run{Text: buf.String(), Bold: seg.bold})
	}
	return runs, nil
}
