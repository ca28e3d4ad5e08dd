package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ankit-chaubey/metascrub/core"
)

// ─── BMP View ────────────────────────────────────────────────────────────────

const bmpFileHeaderSize = 14

var dibHeaderNames = map[uint32]string{
	12:  "BITMAPCOREHEADER",
	40:  "BITMAPINFOHEADER",
	52:  "BITMAPV2INFOHEADER",
	56:  "BITMAPV3INFOHEADER",
	108: "BITMAPV4HEADER",
	124: "BITMAPV5HEADER",
}

var bmpCompression = map[uint32]string{
	0: "none",
	1: "RLE8",
	2: "RLE4",
	3: "bitfields",
	4: "JPEG",
	5: "PNG",
}

// V5 colour-space types that point at an ICC profile.
const (
	lcsProfileLinked   = 0x4C494E4B // 'LINK'
	lcsProfileEmbedded = 0x4D424544 // 'MBED'
)

func viewBMP(data []byte, m *core.Metadata) (*core.Metadata, error) {
	if !bytes.HasPrefix(data, []byte("BM")) {
		return m, core.Invalid("BMP", "missing BM signature")
	}
	if len(data) < bmpFileHeaderSize+4 {
		return m, core.Truncated("BMP", len(data))
	}
	le := binary.LittleEndian
	dib := data[bmpFileHeaderSize:]
	size := le.Uint32(dib)
	if int64(size) > int64(len(dib)) || size < 12 {
		return m, core.Truncated("BMP", bmpFileHeaderSize)
	}

	const cat = "BMP Header"
	m.Add(cat, "FileSize", fmt.Sprintf("%d bytes", le.Uint32(data[2:6])))
	if name, ok := dibHeaderNames[size]; ok {
		m.Add(cat, "DIBHeader", name)
	} else {
		m.Add(cat, "DIBHeader", fmt.Sprintf("%d bytes", size))
	}

	if size == 12 {
		w, h := le.Uint16(dib[4:6]), le.Uint16(dib[6:8])
		m.Add(cat, "Dimensions", fmt.Sprintf("%d x %d", w, h))
		m.Add(cat, "BitsPerPixel", fmt.Sprint(le.Uint16(dib[10:12])))
		return m, nil
	}
	if size < 40 {
		return m, core.Truncated("BMP", bmpFileHeaderSize+int(size))
	}

	w := int32(le.Uint32(dib[4:8]))
	h := int32(le.Uint32(dib[8:12]))
	// A negative height marks a top-down bitmap.
	if h < 0 {
		m.Add(cat, "RowOrder", "top-down")
		h = -h
	}
	m.Add(cat, "Dimensions", fmt.Sprintf("%d x %d", w, h))
	m.Add(cat, "BitsPerPixel", fmt.Sprint(le.Uint16(dib[14:16])))
	if c, ok := bmpCompression[le.Uint32(dib[16:20])]; ok {
		m.Add(cat, "Compression", c)
	}
	if x, y := le.Uint32(dib[24:28]), le.Uint32(dib[28:32]); x != 0 || y != 0 {
		m.Add(cat, "Resolution", fmt.Sprintf("%.0f x %.0f dpi", ppmToDPI(x), ppmToDPI(y)))
	}

	if size >= 124 {
		viewBMPProfile(dib, m)
	}
	return m, nil
}

// viewBMPProfile reports a V5 ICC profile. A linked profile is a file
// path on the machine that wrote the bitmap.
func viewBMPProfile(dib []byte, m *core.Metadata) {
	le := binary.LittleEndian
	switch le.Uint32(dib[56:60]) {
	case lcsProfileEmbedded:
		m.Add("BMP Header", "ICCProfile", "embedded")
	case lcsProfileLinked:
		off, n := int64(le.Uint32(dib[112:116])), int64(le.Uint32(dib[116:120]))
		if off+n > int64(len(dib)) {
			return
		}
		path := bytes.TrimRight(dib[off:off+n], "\x00")
		m.Add("BMP Header", "ICCProfilePath", string(path))
	}
}

func ppmToDPI(ppm uint32) float64 {
	return math.Round(float64(ppm) * 0.0254)
}
