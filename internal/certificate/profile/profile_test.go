package profile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdesk/pkg/domain"
	dErrors "certdesk/pkg/domain-errors"
)

func TestDocumentName(t *testing.T) {
	rec := domain.Record{Name: "Jane Q Doe"}

	assert.Equal(t, "Jane_Q_Doe.pdf", Conference().DocumentName(rec))
	assert.Equal(t, "Jane_Q_Doe_workshop.pdf", Workshop().DocumentName(rec))
}

func TestBatchArchiveName(t *testing.T) {
	w := Workshop()

	assert.Equal(t, "workshop_certificates_1.zip", w.BatchArchiveName(0))
	assert.Equal(t, "workshop_certificates_3.zip", w.BatchArchiveName(2))
}

func TestBatchBounds(t *testing.T) {
	w := Workshop()

	tests := []struct {
		name      string
		index     int
		total     int
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"first full batch", 0, 25, 0, 10, true},
		{"middle batch", 1, 25, 10, 20, true},
		{"partial last batch", 2, 25, 20, 25, true},
		{"past the end", 3, 25, 0, 0, false},
		{"exact multiple has no extra batch", 1, 10, 0, 0, false},
		{"negative index", -1, 25, 0, 0, false},
		{"no records", 0, 0, 0, 0, false},
		{"index whose offset overflows", math.MaxInt/10 + 1, 3, 0, 0, false},
		{"largest index", math.MaxInt, 25, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := w.BatchBounds(tt.index, tt.total)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}

	t.Run("conference does not batch", func(t *testing.T) {
		_, _, ok := Conference().BatchBounds(0, 25)
		assert.False(t, ok)
	})
}

func TestProfilesDiffer(t *testing.T) {
	c, w := Conference(), Workshop()

	assert.False(t, c.Batched())
	assert.True(t, w.Batched())
	assert.Equal(t, 170.0, c.Body.Frame.Y)
	assert.Equal(t, 160.0, w.Body.Frame.Y)
	assert.Equal(t, 23.0, c.Body.Leading)
	assert.Equal(t, 30.0, w.Body.Leading)
	assert.Contains(t, c.Body.Template, "{{.PaperTitle}}")
	assert.NotContains(t, w.Body.Template, "PaperTitle")

	inner, _ := c.Body.Frame.Inner()
	assert.InDelta(t, PageWidth-180-12, inner, 0.001)
}

func TestResources(t *testing.T) {
	assert.Equal(t,
		[]string{"certificate_template_workshop.jpg", "fonts/CasusPro.ttf", "fonts/CasusPro-Bold.ttf"},
		Workshop().Resources())

	p := Conference()
	p.Fonts = Fonts{Family: "Helvetica"}
	assert.Equal(t, []string{"certificate_template.jpg"}, p.Resources())
}

func TestSetLookup(t *testing.T) {
	set := Default()

	p, err := set.Lookup(domain.ProfileWorkshop)
	require.NoError(t, err)
	assert.Equal(t, "workshop_certificates.zip", p.ArchiveName)

	_, err = set.Lookup("webinar")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	names := make([]domain.ProfileName, 0)
	for _, p := range set.All() {
		names = append(names, p.Name)
	}
	assert.Equal(t, domain.ProfileNames, names)
}
