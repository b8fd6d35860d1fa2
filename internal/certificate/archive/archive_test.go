package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"certdesk/internal/certificate/profile"
	"certdesk/internal/certificate/render"
	"certdesk/internal/sentinel"
	"certdesk/pkg/domain"
	dErrors "certdesk/pkg/domain-errors"
)

// stubRenderer produces "name|college" documents and can fail on a name.
type stubRenderer struct {
	failOn string
	calls  []string
}

func (r *stubRenderer) Render(_ context.Context, rec domain.Record, p profile.Profile) (*render.Document, error) {
	r.calls = append(r.calls, rec.Name)
	if r.failOn != "" && rec.Name == r.failOn {
		return nil, dErrors.New(dErrors.CodeResourceUnavailable, "background missing")
	}
	return &render.Document{
		Name: p.DocumentName(rec),
		Data: []byte(rec.Name + "|" + rec.College),
	}, nil
}

type stubMetrics struct {
	archives map[string]int
}

func (m *stubMetrics) IncrementArchivesGenerated(profile, kind string) {
	m.archives[profile+"/"+kind]++
}
func (m *stubMetrics) ObserveArchiveSize(string, int) {}

func records(n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.Record{Name: fmt.Sprintf("Person %02d", i), College: "MIT"}
	}
	return out
}

func readZip(data []byte) (map[string]string, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, err
	}
	content := make(map[string]string, len(zr.File))
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, nil, err
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, nil, err
		}
		content[f.Name] = string(b)
		names = append(names, f.Name)
	}
	return content, names, nil
}

type ArchiverSuite struct {
	suite.Suite
	fs       afero.Fs
	renderer *stubRenderer
	metrics  *stubMetrics
	archiver *Archiver
}

func TestArchiverSuite(t *testing.T) {
	suite.Run(t, new(ArchiverSuite))
}

func (s *ArchiverSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.renderer = &stubRenderer{}
	s.metrics = &stubMetrics{archives: map[string]int{}}
	s.archiver = New(s.renderer, s.fs, "/out/certificates", "/out",
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC) }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *ArchiverSuite) TestArchive() {
	recs := []domain.Record{
		{Name: "Asha Rao", College: "MIT"},
		{Name: "Ravi", College: "IIT"},
	}

	res, err := s.archiver.Archive(context.Background(), recs, profile.Conference())
	s.Require().NoError(err)

	s.Run("result describes the archive", func() {
		s.Equal("certificates.zip", res.Name)
		s.Equal("/out/certificates.zip", res.Path)
		s.Equal([]string{"Asha_Rao.pdf", "Ravi.pdf"}, res.Documents)
		s.Equal(2, res.Rendered)
	})

	s.Run("archive holds one entry per record", func() {
		content, names, err := readZip(res.Data)
		s.Require().NoError(err)
		s.Equal([]string{"Asha_Rao.pdf", "Ravi.pdf"}, names)
		s.Equal("Asha Rao|MIT", content["Asha_Rao.pdf"])
	})

	s.Run("documents and archive are on disk", func() {
		data, err := afero.ReadFile(s.fs, "/out/certificates/Ravi.pdf")
		s.Require().NoError(err)
		s.Equal("Ravi|IIT", string(data))

		onDisk, err := afero.ReadFile(s.fs, "/out/certificates.zip")
		s.Require().NoError(err)
		s.Equal(res.Data, onDisk)

		exists, err := afero.Exists(s.fs, "/out/certificates.zip.tmp")
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("metrics", func() {
		s.Equal(1, s.metrics.archives["conference/full"])
	})
}

func (s *ArchiverSuite) TestWorkshopSuffix() {
	res, err := s.archiver.Archive(context.Background(), []domain.Record{{Name: "Ravi K"}}, profile.Workshop())
	s.Require().NoError(err)

	s.Equal("workshop_certificates.zip", res.Name)
	s.Equal([]string{"Ravi_K_workshop.pdf"}, res.Documents)
}

func (s *ArchiverSuite) TestEmptyInput() {
	_, err := s.archiver.Archive(context.Background(), nil, profile.Conference())
	s.ErrorIs(err, sentinel.ErrNoData)

	exists, _ := afero.Exists(s.fs, "/out/certificates.zip")
	s.False(exists)
}

func (s *ArchiverSuite) TestNameCollisionKeepsLastRecord() {
	recs := []domain.Record{
		{Name: "A B", College: "first"},
		{Name: "A B", College: "second"},
	}

	res, err := s.archiver.Archive(context.Background(), recs, profile.Conference())
	s.Require().NoError(err)

	content, names, err := readZip(res.Data)
	s.Require().NoError(err)
	s.Equal([]string{"A_B.pdf"}, names)
	s.Equal("A B|second", content["A_B.pdf"])
	s.Equal(2, res.Rendered)

	data, err := afero.ReadFile(s.fs, "/out/certificates/A_B.pdf")
	s.Require().NoError(err)
	s.Equal("A B|second", string(data))
}

func (s *ArchiverSuite) TestBatch() {
	recs := records(25)
	w := profile.Workshop()

	s.Run("first batch", func() {
		res, err := s.archiver.Batch(context.Background(), recs, w, 0)
		s.Require().NoError(err)
		s.Equal("workshop_certificates_1.zip", res.Name)
		s.Len(res.Documents, 10)
		s.Equal("Person_00_workshop.pdf", res.Documents[0])
		s.Equal("Person_09_workshop.pdf", res.Documents[9])
	})

	s.Run("partial last batch", func() {
		res, err := s.archiver.Batch(context.Background(), recs, w, 2)
		s.Require().NoError(err)
		s.Equal("workshop_certificates_3.zip", res.Name)
		s.Equal([]string{
			"Person_20_workshop.pdf", "Person_21_workshop.pdf", "Person_22_workshop.pdf",
			"Person_23_workshop.pdf", "Person_24_workshop.pdf",
		}, res.Documents)
		s.Equal(2, s.metrics.archives["workshop/batch"])
	})

	s.Run("out of range", func() {
		_, err := s.archiver.Batch(context.Background(), recs, w, 3)
		s.ErrorIs(err, sentinel.ErrNoData)
		exists, _ := afero.Exists(s.fs, "/out/workshop_certificates_4.zip")
		s.False(exists)
	})

	s.Run("index far past the end", func() {
		var err error
		s.NotPanics(func() {
			_, err = s.archiver.Batch(context.Background(), records(3), w, math.MaxInt/10+1)
		})
		s.ErrorIs(err, sentinel.ErrNoData)
	})

	s.Run("negative index", func() {
		_, err := s.archiver.Batch(context.Background(), recs, w, -1)
		s.ErrorIs(err, sentinel.ErrNoData)
	})

	s.Run("conference does not batch", func() {
		_, err := s.archiver.Batch(context.Background(), recs, profile.Conference(), 0)
		s.ErrorIs(err, ErrBatchingUnsupported)
		s.ErrorIs(err, sentinel.ErrUnsupported)
	})
}

func (s *ArchiverSuite) TestRenderFailureAbortsBatch() {
	s.renderer.failOn = "Person 02"

	_, err := s.archiver.Archive(context.Background(), records(5), profile.Conference())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeResourceUnavailable))

	s.Equal([]string{"Person 00", "Person 01", "Person 02"}, s.renderer.calls)

	s.Run("earlier documents stay on disk", func() {
		exists, _ := afero.Exists(s.fs, "/out/certificates/Person_01.pdf")
		s.True(exists)
	})
	s.Run("no archive written", func() {
		exists, _ := afero.Exists(s.fs, "/out/certificates.zip")
		s.False(exists)
	})
}

func (s *ArchiverSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.archiver.Archive(ctx, records(3), profile.Conference())
	s.True(errors.Is(err, context.Canceled))
	s.Empty(s.renderer.calls)
}

func (s *ArchiverSuite) TestRegeneratesFromScratch() {
	recs := records(2)
	first, err := s.archiver.Archive(context.Background(), recs, profile.Conference())
	s.Require().NoError(err)

	recs = append(recs, domain.Record{Name: "Late Comer"})
	second, err := s.archiver.Archive(context.Background(), recs, profile.Conference())
	s.Require().NoError(err)

	s.Len(first.Documents, 2)
	s.Len(second.Documents, 3)
	s.Len(s.renderer.calls, 5)

	onDisk, err := afero.ReadFile(s.fs, "/out/certificates.zip")
	s.Require().NoError(err)
	_, names, err := readZip(onDisk)
	s.Require().NoError(err)
	s.Len(names, 3)
}
