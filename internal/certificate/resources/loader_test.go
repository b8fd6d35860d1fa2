package resources

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "certdesk/pkg/domain-errors"
)

type countingObserver struct {
	hits, misses int
}

func (c *countingObserver) IncrementResourceCacheHit()  { c.hits++ }
func (c *countingObserver) IncrementResourceCacheMiss() { c.misses++ }

type LoaderSuite struct {
	suite.Suite
	fs       afero.Fs
	observer *countingObserver
	loader   *Loader
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.observer = &countingObserver{}
	s.loader = NewLoader(s.fs, "/static", WithObserver(s.observer), WithCacheTTL(time.Minute))
	s.Require().NoError(afero.WriteFile(s.fs, "/static/certificate_template.jpg", []byte("jpeg"), 0o644))
	s.Require().NoError(afero.WriteFile(s.fs, "/static/fonts/CasusPro.ttf", []byte("ttf"), 0o644))
}

func (s *LoaderSuite) TestBytes() {
	s.Run("reads then serves from cache", func() {
		data, err := s.loader.Bytes("certificate_template.jpg")
		s.Require().NoError(err)
		s.Equal([]byte("jpeg"), data)

		data, err = s.loader.Bytes("certificate_template.jpg")
		s.Require().NoError(err)
		s.Equal([]byte("jpeg"), data)

		s.Equal(1, s.observer.misses)
		s.Equal(1, s.observer.hits)
	})

	s.Run("slash separated names resolve under the root", func() {
		data, err := s.loader.Bytes("fonts/CasusPro.ttf")
		s.Require().NoError(err)
		s.Equal([]byte("ttf"), data)
	})

	s.Run("missing resource is unavailable", func() {
		_, err := s.loader.Bytes("certificate_template_workshop.jpg")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeResourceUnavailable))
		s.Contains(err.Error(), "certificate_template_workshop.jpg")
	})

	s.Run("empty resource is unavailable", func() {
		s.Require().NoError(afero.WriteFile(s.fs, "/static/empty.jpg", nil, 0o644))
		_, err := s.loader.Bytes("empty.jpg")
		s.True(dErrors.HasCode(err, dErrors.CodeResourceUnavailable))
	})
}

func (s *LoaderSuite) TestInvalidate() {
	_, err := s.loader.Bytes("certificate_template.jpg")
	s.Require().NoError(err)

	s.Require().NoError(afero.WriteFile(s.fs, "/static/certificate_template.jpg", []byte("replaced"), 0o644))

	s.Run("stale until invalidated", func() {
		data, err := s.loader.Bytes("certificate_template.jpg")
		s.Require().NoError(err)
		s.Equal([]byte("jpeg"), data)
	})

	s.Run("fresh after invalidate", func() {
		s.loader.Invalidate("certificate_template.jpg")
		data, err := s.loader.Bytes("certificate_template.jpg")
		s.Require().NoError(err)
		s.Equal([]byte("replaced"), data)
	})

	s.Run("flush drops everything", func() {
		s.Require().NoError(afero.WriteFile(s.fs, "/static/certificate_template.jpg", []byte("again"), 0o644))
		s.loader.Flush()
		data, err := s.loader.Bytes("certificate_template.jpg")
		s.Require().NoError(err)
		s.Equal([]byte("again"), data)
	})
}

func (s *LoaderSuite) TestCheck() {
	s.Run("all present", func() {
		s.NoError(s.loader.Check(context.Background(), "certificate_template.jpg", "fonts/CasusPro.ttf"))
	})

	s.Run("reports every missing resource", func() {
		err := s.loader.Check(context.Background(), "a.jpg", "certificate_template.jpg", "fonts/b.ttf")
		s.Require().Error(err)
		s.Contains(err.Error(), "a.jpg")
		s.Contains(err.Error(), "fonts/b.ttf")
	})

	s.Run("directory is not a resource", func() {
		s.Error(s.loader.Check(context.Background(), "fonts"))
	})
}

func TestLoaderWithoutObserver(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "bg.jpg", []byte("x"), 0o644))

	l := NewLoader(fsys, ".", WithCacheTTL(0))
	data, err := l.Bytes("bg.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}
