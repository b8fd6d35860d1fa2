package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"certdesk/pkg/domain"
	"certdesk/pkg/testutil"
)

type JSONFileStoreSuite struct {
	suite.Suite
	fs    afero.Fs
	logs  *bytes.Buffer
	store *JSONFileStore
	ctx   context.Context
}

func TestJSONFileStoreSuite(t *testing.T) {
	suite.Run(t, new(JSONFileStoreSuite))
}

func (s *JSONFileStoreSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.logs = &bytes.Buffer{}
	s.store = NewJSONFileStore(s.fs, "/data/students.json", slog.New(slog.NewJSONHandler(s.logs, nil)))
	s.ctx = context.Background()
}

func (s *JSONFileStoreSuite) TestLoad() {
	s.Run("missing file is empty", func() {
		records, err := s.store.Load(s.ctx)
		s.Require().NoError(err)
		s.NotNil(records)
		s.Empty(records)
	})

	s.Run("malformed file is empty and logged", func() {
		s.Require().NoError(afero.WriteFile(s.fs, "/data/students.json", []byte("{not json"), 0o644))
		records, err := s.store.Load(s.ctx)
		s.Require().NoError(err)
		s.Empty(records)
		s.Contains(s.logs.String(), "store file is malformed")
	})

	s.Run("null document is empty", func() {
		s.Require().NoError(afero.WriteFile(s.fs, "/data/students.json", []byte("null"), 0o644))
		records, err := s.store.Load(s.ctx)
		s.Require().NoError(err)
		s.NotNil(records)
		s.Empty(records)
	})

	s.Run("reads records written by other tools", func() {
		doc := `[{"name": "Asha", "college": "MIT", "paper_title": null, "email": "a@x"}]`
		s.Require().NoError(afero.WriteFile(s.fs, "/data/students.json", []byte(doc), 0o644))
		records, err := s.store.Load(s.ctx)
		s.Require().NoError(err)
		s.Equal([]domain.Record{{Name: "Asha", College: "MIT", Email: "a@x"}}, records)
	})
}

func (s *JSONFileStoreSuite) TestAppend() {
	first := domain.Record{Name: "Asha Rao", College: "MIT", PaperTitle: "AI Ethics", Email: "a@x"}
	second := domain.Record{Name: "", College: "", Email: ""}

	s.Require().NoError(s.store.Append(s.ctx, first))
	s.Require().NoError(s.store.Append(s.ctx, second))

	s.Run("records keep insertion order and empty fields", func() {
		records, err := s.store.Load(s.ctx)
		s.Require().NoError(err)
		s.Equal([]domain.Record{first, second}, records)
	})

	s.Run("file is pretty printed with four space indent", func() {
		data, err := afero.ReadFile(s.fs, "/data/students.json")
		s.Require().NoError(err)
		s.Contains(string(data), "[\n    {\n        \"name\": \"Asha Rao\",")
		s.Contains(string(data), `"paper_title": "AI Ethics"`)
	})

	s.Run("no temp file left behind", func() {
		exists, err := afero.Exists(s.fs, "/data/students.json.tmp")
		s.Require().NoError(err)
		s.False(exists)
	})
}

func (s *JSONFileStoreSuite) TestAppendOverMalformedFileStartsFresh() {
	s.Require().NoError(afero.WriteFile(s.fs, "/data/students.json", []byte("garbage"), 0o644))

	s.Require().NoError(s.store.Append(s.ctx, domain.Record{Name: "Ravi"}))

	records, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal([]domain.Record{{Name: "Ravi"}}, records)
}

func (s *JSONFileStoreSuite) TestConcurrentAppendsAreNotLost() {
	const n = 50
	result := testutil.RunConcurrentCtx(s.ctx, n, func(ctx context.Context, i int) error {
		return s.store.Append(ctx, domain.Record{Name: fmt.Sprintf("p%d", i)})
	})
	s.Equal(int32(n), result.Successes)

	records, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	s.Len(records, n)
}

func (s *JSONFileStoreSuite) TestReadOnlyFilesystemFailsAppend() {
	ro := NewJSONFileStore(afero.NewReadOnlyFs(s.fs), "/data/students.json", slog.Default())

	s.Error(ro.Append(s.ctx, domain.Record{Name: "x"}))
}

func TestInMemoryStore(t *testing.T) {
	st := NewInMemoryStore(domain.Record{Name: "a"})
	ctx := context.Background()

	if err := st.Append(ctx, domain.Record{Name: "b"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	records, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 || records[0].Name != "a" || records[1].Name != "b" {
		t.Fatalf("unexpected records %+v", records)
	}

	records[0].Name = "mutated"
	again, _ := st.Load(ctx)
	if again[0].Name != "a" {
		t.Fatalf("Load must return a copy")
	}
}
