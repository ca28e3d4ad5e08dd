// Package archive unpacks ZIP uploads into the individual files the
// cleaner understands.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/ankit-chaubey/metascrub/core"
)

// MaxEntrySize caps the decompressed size of a single entry.
const MaxEntrySize = 256 << 20

var (
	// ErrNotZip is returned when the input is not a readable ZIP archive.
	ErrNotZip = errors.New("invalid ZIP file")
	// ErrTooManyEntries is returned when an archive holds more matching
	// entries than the caller allows.
	ErrTooManyEntries = errors.New("too many entries in archive")
	// ErrNoEntry is returned by Container.Read for a missing part.
	ErrNoEntry = errors.New("no such entry")
)

// Entry is one extracted file.
type Entry struct {
	Name string
	MIME string
	Data []byte
}

// ExtractImages returns every image or document entry in the ZIP held in
// data, in archive order. Directories, macOS resource forks and dot-files
// are skipped. maxEntries <= 0 means no limit.
func ExtractImages(data []byte, maxEntries int) ([]Entry, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(ErrNotZip, err.Error())
	}

	var out []Entry
	for _, f := range r.File {
		if skipEntry(f) {
			continue
		}
		mime, ok := MIMEFor(f.Name)
		if !ok {
			continue
		}
		if maxEntries > 0 && len(out) == maxEntries {
			return nil, errors.Wrapf(ErrTooManyEntries, "limit is %d", maxEntries)
		}
		b, err := readEntry(f)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to extract %s", f.Name)
		}
		out = append(out, Entry{Name: f.Name, MIME: mime, Data: b})
	}
	return out, nil
}

func skipEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return true
	}
	if strings.HasPrefix(f.Name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(f.Name), ".")
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxEntrySize {
		return nil, errors.Errorf("entry exceeds %s", core.HumanSize(MaxEntrySize))
	}
	return b, nil
}

// ─── Containers ──────────────────────────────────────────────────────────────

// Container gives named access to the parts of a ZIP-based document
// (OOXML, ODF, EPUB).
type Container struct {
	r *zip.Reader
}

// OpenContainer opens the ZIP held in data.
func OpenContainer(data []byte) (*Container, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(ErrNotZip, err.Error())
	}
	return &Container{r: r}, nil
}

// Has reports whether the container holds a part named name.
func (c *Container) Has(name string) bool {
	_, ok := c.find(name)
	return ok
}

// Read returns the contents of the named part, under MaxEntrySize.
func (c *Container) Read(name string) ([]byte, error) {
	f, ok := c.find(name)
	if !ok {
		return nil, errors.Wrap(ErrNoEntry, name)
	}
	return readEntry(f)
}

// Names lists the container's parts in archive order.
func (c *Container) Names() []string {
	out := make([]string, 0, len(c.r.File))
	for _, f := range c.r.File {
		out = append(out, f.Name)
	}
	return out
}

func (c *Container) find(name string) (*zip.File, bool) {
	for _, f := range c.r.File {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// MIMEFor maps an entry name to its MIME type by extension. Only image
// and document formats are accepted.
func MIMEFor(name string) (string, bool) {
	id, err := core.FormatFromHint(path.Ext(strings.ToLower(name)))
	if err != nil {
		return "", false
	}
	switch core.MediaTypeFor(id) {
	case "image", "document":
		return core.MIMEFor(id), true
	}
	return "", false
}
