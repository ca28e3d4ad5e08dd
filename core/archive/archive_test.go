package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		require.NoError(t, err)
		if name[len(name)-1] != '/' {
			_, err = f.Write([]byte("content of " + name))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractImages(t *testing.T) {
	data := buildZip(t,
		"photos/",
		"photos/a.JPG",
		"photos/.hidden.png",
		"__MACOSX/photos/._a.JPG",
		"notes.txt",
		"song.mp3",
		"scan.tif",
		"vector.svg",
		"report.pdf",
	)

	entries, err := ExtractImages(data, 0)
	require.NoError(t, err)

	var names, mimes []string
	for _, e := range entries {
		names = append(names, e.Name)
		mimes = append(mimes, e.MIME)
	}
	assert.Equal(t, []string{"photos/a.JPG", "scan.tif", "vector.svg", "report.pdf"}, names)
	assert.Equal(t, []string{"image/jpeg", "image/tiff", "image/svg+xml", "application/pdf"}, mimes)
	assert.Equal(t, []byte("content of photos/a.JPG"), entries[0].Data)
}

func TestExtractImagesEntryLimit(t *testing.T) {
	data := buildZip(t, "a.png", "b.png", "c.png", "skip.txt")

	entries, err := ExtractImages(data, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	_, err = ExtractImages(data, 2)
	assert.True(t, errors.Is(err, ErrTooManyEntries))
}

func TestExtractImagesRejectsNonZip(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("PK"), []byte("\x89PNG\r\n\x1a\n")} {
		_, err := ExtractImages(in, 0)
		assert.True(t, errors.Is(err, ErrNotZip))
	}
}

func TestMIMEFor(t *testing.T) {
	cases := map[string]string{
		"photo.jpeg": "image/jpeg",
		"raw.HEIC":   "image/heif",
		"next.avif":  "image/avif",
		"modern.jxl": "image/jxl",
		"pic.gif":    "image/gif",
		"a.webp":     "image/webp",
	}
	for name, want := range cases {
		got, ok := MIMEFor(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"README.md", "archive.zip", "song.flac", "noext"} {
		_, ok := MIMEFor(name)
		assert.False(t, ok, name)
	}
}

func TestContainerRead(t *testing.T) {
	c, err := OpenContainer(buildZip(t, "docProps/", "docProps/core.xml", "word/document.xml"))
	require.NoError(t, err)

	assert.True(t, c.Has("docProps/core.xml"))
	assert.False(t, c.Has("docProps/app.xml"))
	assert.Equal(t, []string{"docProps/", "docProps/core.xml", "word/document.xml"}, c.Names())

	b, err := c.Read("docProps/core.xml")
	require.NoError(t, err)
	assert.Equal(t, "content of docProps/core.xml", string(b))

	_, err = c.Read("docProps/app.xml")
	assert.True(t, errors.Is(err, ErrNoEntry))
	assert.Contains(t, err.Error(), "docProps/app.xml")

	_, err = OpenContainer([]byte("not a zip"))
	assert.True(t, errors.Is(err, ErrNotZip))
}

func TestMIMEForSkipsViewOnlyFormats(t *testing.T) {
	for _, name := range []string{"scan.bmp", "letter.docx", "book.epub"} {
		_, ok := MIMEFor(name)
		assert.False(t, ok, name)
	}
}
