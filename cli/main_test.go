package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/engine"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errb bytes.Buffer
	code = run(args, &out, &errb)
	return code, out.String(), errb.String()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRunUsage(t *testing.T) {
	code, out, _ := runCLI(t)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage:")

	code, _, errOut := runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)

	code, _, _ = runCLI(t, "view", "--no-such-flag")
	assert.Equal(t, 2, code)
}

func TestRunBadConfig(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "surgery.yaml", []byte("output:\n  format: xml\n"))
	code, _, errOut := runCLI(t, "formats", "--config", cfg)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "configuration validation failed")
}

func TestRunFormatsJSON(t *testing.T) {
	code, out, _ := runCLI(t, "formats", "--json")
	require.Equal(t, 0, code)

	var caps []core.FormatInfo
	require.NoError(t, json.Unmarshal([]byte(out), &caps))
	assert.Len(t, caps, len(core.Formats))
}

func TestRunFormatsTable(t *testing.T) {
	code, out, _ := runCLI(t, "formats")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "FORMAT")
	assert.Contains(t, out, "partial")
}

func TestRunClean(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "photo.jpg", cameraJPEG())

	code, out, _ := runCLI(t, "clean", "--json", src)
	require.Equal(t, 0, code)

	var summary struct {
		Output   string   `json:"output"`
		Dropped  []string `json:"dropped"`
		Complete bool     `json:"complete"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, filepath.Join(dir, "photo_clean.jpg"), summary.Output)
	assert.Equal(t, []string{"APP1"}, summary.Dropped)
	assert.True(t, summary.Complete)

	cleaned, err := os.ReadFile(summary.Output)
	require.NoError(t, err)
	meta, gps := engine.Extract(cleaned)
	assert.Empty(t, meta)
	assert.Nil(t, gps)

	// A second run refuses to overwrite.
	code, _, _ = runCLI(t, "clean", src)
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t, "clean", "--overwrite", src)
	assert.Equal(t, 0, code)
}

func TestRunCleanExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "drawing.svg", []byte("<svg>\n<dc:creator>me</dc:creator>\n</svg>"))
	dst := filepath.Join(dir, "out.svg")

	code, out, _ := runCLI(t, "clean", "-o", dst, src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "1 unit(s) removed")

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "<svg>\n</svg>", string(got))
}

func TestRunCleanErrors(t *testing.T) {
	dir := t.TempDir()
	code, _, _ := runCLI(t, "clean")
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t, "clean", filepath.Join(dir, "missing.jpg"))
	assert.Equal(t, 1, code)

	src := writeFile(t, dir, "notes.txt", []byte("plain text"))
	code, _, errOut := runCLI(t, "clean", src)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unsupported format")
}

func TestRunView(t *testing.T) {
	src := writeFile(t, t.TempDir(), "photo.jpg", cameraJPEG())

	code, out, _ := runCLI(t, "view", src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Privacy risk: High")

	code, out, _ = runCLI(t, "view", "--json", src)
	require.Equal(t, 0, code)
	var r core.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "photo.jpg", r.Name)
	assert.Equal(t, "Canon", r.Metadata["Make"])
}

func TestRunViewEPUB(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range [][2]string{
		{"mimetype", "application/epub+zip"},
		{"content.opf", "<package><metadata><dc:creator>Jane Doe</dc:creator></metadata></package>"},
	} {
		w, err := zw.Create(p[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(p[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	src := writeFile(t, t.TempDir(), "book.epub", buf.Bytes())

	code, out, _ := runCLI(t, "view", "--json", src)
	require.Equal(t, 0, code)
	var r core.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, core.FmtEPUB, r.Format)
	assert.Equal(t, "Jane Doe", r.Metadata["Author"])

	code, _, errOut := runCLI(t, "clean", src)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unsupported format")
}

func TestRunExtract(t *testing.T) {
	src := writeFile(t, t.TempDir(), "photo.jpg", cameraJPEG())

	code, out, _ := runCLI(t, "extract", "--export", "csv", src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Make")
	assert.Contains(t, out, "Canon")

	code, out, _ = runCLI(t, "extract", src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "GPS: 1.5, 2.25")

	code, _, _ = runCLI(t, "extract", "--export", "xml", src)
	assert.Equal(t, 1, code)
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	a := writeFile(t, dir, "a.jpg", cameraJPEG())
	b := writeFile(t, dir, "b.jpg", cameraJPEG())

	code, stdout, _ := runCLI(t, "batch", "--out", out, a, b)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "duplicate files")
	assert.FileExists(t, filepath.Join(out, "a_clean.jpg"))
	assert.FileExists(t, filepath.Join(out, "b_clean.jpg"))

	bad := writeFile(t, dir, "bad.png", []byte("not a png"))
	code, _, errOut := runCLI(t, "batch", "--out", filepath.Join(dir, "out2"), a, bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "1 of 2 file(s) failed")
}

func TestRunZip(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range map[string][]byte{
		"photos/one.jpg": cameraJPEG(),
		"readme.txt":     []byte("hello"),
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	src := writeFile(t, dir, "photos.zip", buf.Bytes())

	code, _, _ := runCLI(t, "zip", src)
	require.Equal(t, 0, code)

	cleaned, err := os.ReadFile(filepath.Join(dir, "photos_clean", "one_clean.jpg"))
	require.NoError(t, err)
	meta, _ := engine.Extract(cleaned)
	assert.Empty(t, meta)
	assert.NoFileExists(t, filepath.Join(dir, "photos_clean", "readme_clean.txt"))
}
