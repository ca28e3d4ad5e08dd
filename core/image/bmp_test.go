package image

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/metascrub/core"
)

// bmpFile builds a 2x2 24-bit bitmap with a DIB header of dibSize bytes.
func bmpFile(dibSize int, height int32, tail []byte) []byte {
	le := binary.LittleEndian
	dib := make([]byte, dibSize)
	le.PutUint32(dib[0:], uint32(dibSize))
	le.PutUint32(dib[4:], 2)
	le.PutUint32(dib[8:], uint32(height))
	le.PutUint16(dib[12:], 1)
	le.PutUint16(dib[14:], 24)
	le.PutUint32(dib[24:], 2835) // 72 dpi
	le.PutUint32(dib[28:], 2835)

	pixels := make([]byte, 16)
	total := bmpFileHeaderSize + dibSize + len(tail) + len(pixels)

	out := []byte("BM")
	out = le.AppendUint32(out, uint32(total))
	out = append(out, 0, 0, 0, 0)
	out = le.AppendUint32(out, uint32(bmpFileHeaderSize+dibSize+len(tail)))
	out = append(out, dib...)
	out = append(out, tail...)
	return append(out, pixels...)
}

func TestViewBMPInfoHeader(t *testing.T) {
	data := bmpFile(40, -2, nil)

	m, err := New(core.FmtBMP, nil).View(data)
	require.NoError(t, err)

	got := fieldMap(m)
	assert.Equal(t, "BMP", m.Format)
	assert.Equal(t, "BITMAPINFOHEADER", got["DIBHeader"])
	assert.Equal(t, "2 x 2", got["Dimensions"])
	assert.Equal(t, "top-down", got["RowOrder"])
	assert.Equal(t, "24", got["BitsPerPixel"])
	assert.Equal(t, "none", got["Compression"])
	assert.Equal(t, "72 x 72 dpi", got["Resolution"])
	assert.Equal(t, "70 bytes", got["FileSize"])
}

func TestViewBMPLinkedProfilePath(t *testing.T) {
	path := []byte(`C:\Users\jane\profiles\sRGB.icc` + "\x00")
	data := bmpFile(124, 2, path)

	dib := data[bmpFileHeaderSize:]
	binary.LittleEndian.PutUint32(dib[56:], lcsProfileLinked)
	binary.LittleEndian.PutUint32(dib[112:], 124)
	binary.LittleEndian.PutUint32(dib[116:], uint32(len(path)))

	m, err := New(core.FmtBMP, nil).View(data)
	require.NoError(t, err)

	got := fieldMap(m)
	assert.Equal(t, "BITMAPV5HEADER", got["DIBHeader"])
	assert.Equal(t, `C:\Users\jane\profiles\sRGB.icc`, got["ICCProfilePath"])
	assert.NotContains(t, got, "RowOrder")
}

func TestViewBMPCoreHeader(t *testing.T) {
	le := binary.LittleEndian
	dib := le.AppendUint32(nil, 12)
	dib = le.AppendUint16(dib, 640)
	dib = le.AppendUint16(dib, 480)
	dib = le.AppendUint16(dib, 1)
	dib = le.AppendUint16(dib, 8)
	data := append([]byte("BM\x1a\x00\x00\x00\x00\x00\x00\x00\x1a\x00\x00\x00"), dib...)

	m, err := New(core.FmtBMP, nil).View(data)
	require.NoError(t, err)
	got := fieldMap(m)
	assert.Equal(t, "640 x 480", got["Dimensions"])
	assert.Equal(t, "8", got["BitsPerPixel"])
}

func TestViewBMPErrors(t *testing.T) {
	h := New(core.FmtBMP, nil)

	_, err := h.View([]byte("GIF89a"))
	assert.True(t, errors.Is(err, core.ErrInvalidSignature))

	_, err = h.View([]byte("BM\x00\x00"))
	assert.True(t, errors.Is(err, core.ErrTruncated))

	_, err = h.View(bmpFile(40, 2, nil)[:30])
	assert.True(t, errors.Is(err, core.ErrTruncated))
}

func TestCleanBMPNotImplemented(t *testing.T) {
	_, err := New(core.FmtBMP, nil).Clean(bmpFile(40, 2, nil))
	assert.True(t, errors.Is(err, core.ErrNotImplemented))
	assert.False(t, New(core.FmtBMP, nil).Info().CanStrip)
}
