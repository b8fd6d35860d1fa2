// Package profile defines the certificate variants as explicit configuration
// records. Geometry is expressed in PDF points with a bottom-left origin on
// an A4 page.
package profile

import (
	"fmt"
	"path/filepath"

	"certdesk/pkg/domain"
	dErrors "certdesk/pkg/domain-errors"
)

// A4 page dimensions in points.
const (
	PageWidth  = 595.28
	PageHeight = 841.89
)

// DefaultBatchSize is the number of records per workshop batch.
const DefaultBatchSize = 10

// Frame is the rectangle the body paragraph is laid out in.
type Frame struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Padding float64 `yaml:"padding"`
}

// Inner returns the usable width and height once padding is removed.
func (f Frame) Inner() (width, height float64) {
	return f.Width - 2*f.Padding, f.Height - 2*f.Padding
}

// Fonts names the font family and the TTF files used for the regular and
// bold faces, relative to the resource root. When Regular is empty the
// family is treated as a built-in PDF core font.
type Fonts struct {
	Family  string `yaml:"family"`
	Regular string `yaml:"regular,omitempty"`
	Bold    string `yaml:"bold,omitempty"`
}

// Embedded reports whether the fonts are loaded from TTF resources.
func (f Fonts) Embedded() bool {
	return f.Regular != ""
}

// NameStyle positions the registrant name.
type NameStyle struct {
	Size     float64 `yaml:"size"`
	Baseline float64 `yaml:"baseline"`
}

// Body describes the justified paragraph. Template uses text/template
// placeholders ({{.College}}, {{.PaperTitle}}) and <b>...</b> emphasis.
type Body struct {
	Template string  `yaml:"template"`
	Size     float64 `yaml:"size"`
	Leading  float64 `yaml:"leading"`
	Frame    Frame   `yaml:"frame"`
}

// Profile is the full configuration of one certificate variant.
type Profile struct {
	Name          domain.ProfileName `yaml:"name"`
	Background    string             `yaml:"background"`
	Fonts         Fonts              `yaml:"fonts"`
	NameStyle     NameStyle          `yaml:"name_style"`
	Body          Body               `yaml:"body"`
	FileSuffix    string             `yaml:"file_suffix"`
	ArchiveName   string             `yaml:"archive_name"`
	StoreFile     string             `yaml:"store_file"`
	BatchSize     int                `yaml:"batch_size,omitempty"`
	NoDataMessage string             `yaml:"no_data_message"`
}

// Batched reports whether the profile supports batched generation.
func (p Profile) Batched() bool {
	return p.BatchSize > 0
}

// DocumentName is the file name of the PDF generated for rec.
func (p Profile) DocumentName(rec domain.Record) string {
	return rec.SafeName() + p.FileSuffix + ".pdf"
}

// BatchArchiveName is the archive name for the zero-based batch index.
// Batch 0 is published as "..._1.zip".
func (p Profile) BatchArchiveName(index int) string {
	ext := filepath.Ext(p.ArchiveName)
	base := p.ArchiveName[:len(p.ArchiveName)-len(ext)]
	return fmt.Sprintf("%s_%d%s", base, index+1, ext)
}

// BatchBounds returns the [start, end) slice of a batch over total records.
// ok is false when the batch selects nothing.
func (p Profile) BatchBounds(index, total int) (start, end int, ok bool) {
	if !p.Batched() || index < 0 || total <= 0 || index > (total-1)/p.BatchSize {
		return 0, 0, false
	}
	start = index * p.BatchSize
	if start >= total {
		return 0, 0, false
	}
	end = min(start+p.BatchSize, total)
	return start, end, true
}

// Resources lists the resource paths the profile needs at render time.
func (p Profile) Resources() []string {
	paths := []string{p.Background}
	if p.Fonts.Embedded() {
		paths = append(paths, p.Fonts.Regular)
		if p.Fonts.Bold != "" {
			paths = append(paths, p.Fonts.Bold)
		}
	}
	return paths
}

const (
	fontFamily  = "CasusPro"
	fontRegular = "fonts/CasusPro.ttf"
	fontBold    = "fonts/CasusPro-Bold.ttf"

	bodyFrameX     = 85
	bodyFrameInset = 180
	bodyFrameH     = 210
	bodyPadding    = 6
	bodySize       = 13
)

const conferenceTemplate = `of <b>{{.College}}</b> has presented a paper titled as <b>{{.PaperTitle}}</b> and it is selected as the Best Paper in the
<b>INTERNATIONAL CONFERENCE ON "VIKSIT BHARAT 2047: INTEGRATING BUSINESS, TECHNOLOGY AND COMPUTATIONAL MATHEMATICS FOR SUSTAINABLE FUTURE"</b>
organised by <b>DEPARTMENT OF COMPUTER APPLICATIONS</b> From<b> 05/02/2026  To  06/02/2026</b>`

const workshopTemplate = `of <b>{{.College}}</b> has participated in the
<b>ONE DAY WORKSHOP ON PROBLEM SOLVING AND PROGRAMMING USING PYTHON</b>
organised by <b>DEPARTMENT OF COMPUTER APPLICATIONS</b> on <b>07/01/2026</b>.`

// Conference returns the best-paper conference certificate profile.
func Conference() Profile {
	return Profile{
		Name:       domain.ProfileConference,
		Background: "certificate_template.jpg",
		Fonts:      Fonts{Family: fontFamily, Regular: fontRegular, Bold: fontBold},
		NameStyle:  NameStyle{Size: 22, Baseline: 400},
		Body: Body{
			Template: conferenceTemplate,
			Size:     bodySize,
			Leading:  23,
			Frame: Frame{
				X:       bodyFrameX,
				Y:       170,
				Width:   PageWidth - bodyFrameInset,
				Height:  bodyFrameH,
				Padding: bodyPadding,
			},
		},
		FileSuffix:    "",
		ArchiveName:   "certificates.zip",
		StoreFile:     "students.json",
		NoDataMessage: "No student data found.",
	}
}

// Workshop returns the workshop participation certificate profile.
func Workshop() Profile {
	return Profile{
		Name:       domain.ProfileWorkshop,
		Background: "certificate_template_workshop.jpg",
		Fonts:      Fonts{Family: fontFamily, Regular: fontRegular, Bold: fontBold},
		NameStyle:  NameStyle{Size: 22, Baseline: 400},
		Body: Body{
			Template: workshopTemplate,
			Size:     bodySize,
			Leading:  30,
			Frame: Frame{
				X:       bodyFrameX,
				Y:       160,
				Width:   PageWidth - bodyFrameInset,
				Height:  bodyFrameH,
				Padding: bodyPadding,
			},
		},
		FileSuffix:    "_workshop",
		ArchiveName:   "workshop_certificates.zip",
		StoreFile:     "workshop.json",
		BatchSize:     DefaultBatchSize,
		NoDataMessage: "No workshop data found.",
	}
}

// Set is the enumerated collection of profiles the service runs with.
type Set struct {
	profiles map[domain.ProfileName]Profile
}

// NewSet builds a profile set. Later profiles replace earlier ones with the
// same name.
func NewSet(profiles ...Profile) *Set {
	s := &Set{profiles: make(map[domain.ProfileName]Profile, len(profiles))}
	for _, p := range profiles {
		s.profiles[p.Name] = p
	}
	return s
}

// Default returns the conference and workshop profiles.
func Default() *Set {
	return NewSet(Conference(), Workshop())
}

// Lookup returns the profile registered under name.
func (s *Set) Lookup(name domain.ProfileName) (Profile, error) {
	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown profile %q", name))
	}
	return p, nil
}

// All returns the profiles in the canonical profile order.
func (s *Set) All() []Profile {
	out := make([]Profile, 0, len(s.profiles))
	for _, name := range domain.ProfileNames {
		if p, ok := s.profiles[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
