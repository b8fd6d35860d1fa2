package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"certdesk/internal/bootstrap"
	"certdesk/internal/certificate/profile"
	"certdesk/pkg/domain"
)

var dirFlags = []string{
	"--data-dir", "/data",
	"--output-dir", "/out",
	"--archive-dir", "/archives",
	"--resources-dir", "/res",
	"--log-level", "error",
}

func testProfiles() *profile.Set {
	conference := profile.Conference()
	conference.Fonts = profile.Fonts{Family: "Helvetica"}
	workshop := profile.Workshop()
	workshop.Fonts = profile.Fonts{Family: "Helvetica"}
	return profile.NewSet(conference, workshop)
}

func newTestFs(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2)), nil))
	for _, p := range testProfiles().All() {
		require.NoError(t, afero.WriteFile(fs, "/res/"+p.Background, buf.Bytes(), 0o644))
	}
	return fs
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, bootstrap.WithFs(fs), bootstrap.WithProfiles(testProfiles()))
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, dirFlags...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSubmitAndList(t *testing.T) {
	fs := newTestFs(t)

	out, err := run(t, fs, "submit", "--name", "Asha Rao", "--college", "MIT", "--paper-title", "Graphs")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Asha Rao"`)

	out, err = run(t, fs, "list")
	require.NoError(t, err)
	var records []domain.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Equal(t, []domain.Record{{Name: "Asha Rao", College: "MIT", PaperTitle: "Graphs"}}, records)

	out, err = run(t, fs, "list", "--profile", "workshop")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestUnknownProfileFails(t *testing.T) {
	_, err := run(t, newTestFs(t), "list", "--profile", "gala")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	fs := newTestFs(t)

	out, err := run(t, fs, "generate")
	require.NoError(t, err)
	assert.Equal(t, "No student data found.\n", out)

	for _, name := range []string{"Asha Rao", "Ben Okafor"} {
		_, err = run(t, fs, "submit", "--profile", "workshop", "--name", name)
		require.NoError(t, err)
	}

	out, err = run(t, fs, "generate", "--profile", "workshop", "--batch", "0")
	require.NoError(t, err)
	assert.Equal(t, "/archives/workshop_certificates_1.zip (2 certificates)\n", out)

	data, err := afero.ReadFile(fs, "/archives/workshop_certificates_1.zip")
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "Asha_Rao_workshop.pdf", zr.File[0].Name)

	out, err = run(t, fs, "generate", "--profile", "workshop", "--batch", "1")
	require.NoError(t, err)
	assert.Equal(t, "No more certificates to generate.\n", out)

	_, err = run(t, fs, "generate", "--batch", "0")
	assert.Error(t, err)
}

func TestProfilesPrintsYAML(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"profiles"})
	require.NoError(t, cmd.Execute())

	var profiles []profile.Profile
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &profiles))
	require.Len(t, profiles, 2)
	assert.Equal(t, domain.ProfileConference, profiles[0].Name)
	assert.Equal(t, "workshop_certificates.zip", profiles[1].ArchiveName)
	assert.True(t, strings.Contains(out.String(), "<b>"))
}
