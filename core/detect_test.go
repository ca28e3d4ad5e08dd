package core

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	gifMagic  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	webpMagic = []byte("RIFF\x1a\x00\x00\x00WEBPVP8L\x0d\x00\x00\x00")
)

// apng is a PNG whose acTL chunk precedes IDAT, which the sniffer reports
// as the animated PNG subtype.
func apng() []byte {
	chunk := func(typ string, data []byte) []byte {
		b := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
		b = append(b, typ...)
		b = append(b, data...)
		return binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(b[4:]))
	}
	ihdr := []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}
	out := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	out = append(out, chunk("IHDR", ihdr)...)
	out = append(out, chunk("acTL", []byte{0, 0, 0, 1, 0, 0, 0, 0})...)
	out = append(out, chunk("IDAT", []byte{0x78, 0x9C, 0x63, 0, 0, 0, 0x01, 0, 0x01})...)
	return append(out, chunk("IEND", nil)...)
}

func TestDetermineMimeTypeOrder(t *testing.T) {
	cases := []struct {
		name, file, hint string
		data             []byte
		want             string
	}{
		{"hint wins over content", "a.png", "image/gif", pngMagic, "image/gif"},
		{"content wins over extension", "photo.pdf", "", jpegMagic, "image/jpeg"},
		{"png", "x", "", pngMagic, "image/png"},
		{"gif", "x", "", gifMagic, "image/gif"},
		{"webp", "x", "", webpMagic, "image/webp"},
		{"animated png", "anim.png", "", apng(), "image/png"},
		{"extension fallback", "Scan.TIF", "", []byte("II*\x00"), "image/tiff"},
		{"heic", "IMG_0001.HEIC", "", nil, "image/heif"},
		{"svg by extension only", "logo.svg", "", []byte("<svg/>"), "image/svg+xml"},
		{"pdf by extension", "doc.pdf", "", []byte("%PDF-1.4"), "application/pdf"},
		{"jxl", "a.jxl", "", nil, "image/jxl"},
		{"avif", "a.avif", "", nil, "image/avif"},
		{"nothing matches", "notes.txt", "", []byte("hello"), "application/octet-stream"},
		{"empty", "", "", nil, "application/octet-stream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetermineMimeType(tc.file, tc.hint, tc.data))
		})
	}
}

func TestIsSupportedMimeType(t *testing.T) {
	for _, m := range []string{
		"image/png", "image/jpeg", "image/gif", "image/webp", "application/pdf",
		"image/svg+xml", "image/tiff", "image/heif", "image/avif", "image/jxl",
	} {
		assert.True(t, IsSupportedMimeType(m), m)
	}
	for _, m := range []string{"", "application/octet-stream", "image/bmp", "audio/mpeg", "IMAGE/PNG"} {
		assert.False(t, IsSupportedMimeType(m), m)
	}
}

func TestFormatFromHint(t *testing.T) {
	cases := map[string]FormatID{
		"jpg": FmtJPEG, "jpeg": FmtJPEG, "JPG": FmtJPEG, ".png": FmtPNG,
		"webp": FmtWebP, "gif": FmtGIF, "tiff": FmtTIFF, "tif": FmtTIFF,
		"heif": FmtHEIF, "heic": FmtHEIF, "avif": FmtAVIF, "jxl": FmtJXL,
		"pdf": FmtPDF, "svg": FmtSVG, "mp3": FmtMP3, "flac": FmtFLAC, "wav": FmtWAV,
	}
	for hint, want := range cases {
		got, err := FormatFromHint(hint)
		require.NoError(t, err, hint)
		assert.Equal(t, want, got, hint)
	}

	for _, hint := range []string{"", "bmp", "docx", "ogg"} {
		id, err := FormatFromHint(hint)
		assert.Equal(t, FmtUnknown, id)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), hint)
	}
}

func TestFormatFromMIMERoundTrip(t *testing.T) {
	for _, id := range Formats {
		assert.Equal(t, id, FormatFromMIME(MIMEFor(id)), id)
	}
	assert.Equal(t, FmtHEIF, FormatFromMIME("image/heic"))
	assert.Equal(t, FmtUnknown, FormatFromMIME("text/plain"))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FmtJPEG, DetectFormat("misnamed.png", jpegMagic))
	assert.Equal(t, FmtPNG, DetectFormat("", pngMagic))
	assert.Equal(t, FmtPNG, DetectFormat("", apng()))
	assert.Equal(t, FmtFLAC, DetectFormat("track.flac", []byte("not really")))
	assert.Equal(t, FmtUnknown, DetectFormat("notes.txt", []byte("hello")))
}

func TestDetectViewOnlyFormats(t *testing.T) {
	assert.Equal(t, FmtBMP, DetectFormat("scan.bmp", []byte("BM\x46\x00\x00\x00\x00\x00\x00\x00\x36\x00\x00\x00\x28\x00\x00\x00")))
	assert.Equal(t, FmtODF, DetectFormat("minutes.ODS", []byte("PK\x03\x04")))
	assert.Equal(t, FmtEPUB, DetectFormat("book.epub", nil))
	assert.Equal(t, FmtXLSX, FormatFromMIME("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))

	for _, hint := range []string{"dib", "docm", "odt", "epub"} {
		_, err := FormatFromHint(hint)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), hint)
	}
	assert.False(t, IsSupportedMimeType("application/epub+zip"))
}

func TestMediaTypeFor(t *testing.T) {
	assert.Equal(t, "image", MediaTypeFor(FmtHEIF))
	assert.Equal(t, "document", MediaTypeFor(FmtSVG))
	assert.Equal(t, "audio", MediaTypeFor(FmtWAV))
	assert.Equal(t, "image", MediaTypeFor(FmtBMP))
	assert.Equal(t, "document", MediaTypeFor(FmtPPTX))
	assert.Equal(t, "unknown", MediaTypeFor(FmtUnknown))
}

func TestIsKnownExtension(t *testing.T) {
	assert.True(t, IsKnownExtension("a/b/c.JPEG"))
	assert.False(t, IsKnownExtension("a/b/c.txt"))
	assert.True(t, IsKnownExtension("report.DOCX"))
	assert.False(t, IsKnownExtension("Makefile"))
}
