package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/exif"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Ancillary chunks that carry text, timestamps or colour-profile data.
var pngMetaChunks = map[string]bool{
	"tEXt": true,
	"zTXt": true,
	"iTXt": true,
	"tIME": true,
	"pHYs": true,
	"gAMA": true,
	"cHRM": true,
	"sRGB": true,
	"iCCP": true,
}

// ─── PNG Clean ───────────────────────────────────────────────────────────────

// cleanPNG copies every chunk except pngMetaChunks. Critical and unknown
// chunks are kept byte for byte, CRC included. A chunk whose declared
// length overruns the buffer ends the walk.
func cleanPNG(data []byte, obs core.Observer) ([]byte, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], pngSignature) {
		return nil, core.Invalid("PNG", "bad signature")
	}

	out := make([]byte, 0, len(data))
	out = append(out, data[:8]...)

	i := 8
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		total := 12 + length
		if i+total > len(data) {
			break
		}
		if pngMetaChunks[typ] {
			obs.SegmentDropped(core.FmtPNG, typ)
		} else {
			out = append(out, data[i:i+total]...)
		}
		i += total
	}
	return out, nil
}

// ─── PNG View ────────────────────────────────────────────────────────────────

type pngChunk struct {
	typ  string
	data []byte
}

// readPNGChunks lists chunks up to IEND. Chunk data aliases the input.
func readPNGChunks(data []byte) ([]pngChunk, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], pngSignature) {
		return nil, core.Invalid("PNG", "bad signature")
	}
	var chunks []pngChunk
	i := 8
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		end := i + 8 + length
		if end+4 > len(data) {
			break
		}
		chunks = append(chunks, pngChunk{typ: typ, data: data[i+8 : end]})
		if typ == "IEND" {
			break
		}
		i = end + 4
	}
	return chunks, nil
}

func viewPNG(data []byte, m *core.Metadata) (*core.Metadata, error) {
	chunks, err := readPNGChunks(data)
	if err != nil {
		return m, err
	}

	for _, c := range chunks {
		switch c.typ {
		case "IHDR":
			if len(c.data) >= 8 {
				w := binary.BigEndian.Uint32(c.data[0:4])
				h := binary.BigEndian.Uint32(c.data[4:8])
				m.Add("PNG", "Dimensions", fmt.Sprintf("%d x %d", w, h))
			}
		case "tEXt":
			// keyword\0value
			if null := bytes.IndexByte(c.data, 0); null > 0 {
				m.Add("PNG tEXt", string(c.data[:null]), string(c.data[null+1:]))
			}
		case "zTXt":
			// keyword\0method\0compressed
			if null := bytes.IndexByte(c.data, 0); null > 0 && null+2 <= len(c.data) {
				if text, ok := inflate(c.data[null+2:]); ok {
					m.Add("PNG zTXt", string(c.data[:null]), text)
				}
			}
		case "iTXt":
			key, val, ok := parseITXt(c.data)
			if ok {
				m.Add("PNG iTXt", key, val)
			}
		case "eXIf":
			fields, _ := exif.Extract(c.data)
			m.Fields = append(m.Fields, exif.Fields(fields, "EXIF")...)
		case "tIME":
			if len(c.data) == 7 {
				year := binary.BigEndian.Uint16(c.data[0:2])
				m.Add("PNG tIME", "LastModified",
					fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, c.data[2], c.data[3], c.data[4], c.data[5], c.data[6]))
			}
		case "iCCP":
			if null := bytes.IndexByte(c.data, 0); null > 0 {
				m.Add("PNG", "ICCProfile", string(c.data[:null]))
			}
		case "pHYs":
			if len(c.data) == 9 && c.data[8] == 1 {
				x := binary.BigEndian.Uint32(c.data[0:4])
				y := binary.BigEndian.Uint32(c.data[4:8])
				m.Add("PNG", "PixelsPerMeter", fmt.Sprintf("%d x %d", x, y))
			}
		}
	}
	return m, nil
}

// parseITXt splits keyword\0flag method\0language\0translated\0text.
func parseITXt(data []byte) (key, val string, ok bool) {
	null := bytes.IndexByte(data, 0)
	if null <= 0 || null+3 > len(data) {
		return "", "", false
	}
	key = string(data[:null])
	compressed := data[null+1] == 1
	rest := data[null+3:]
	for i := 0; i < 2; i++ {
		n := bytes.IndexByte(rest, 0)
		if n < 0 {
			return "", "", false
		}
		rest = rest[n+1:]
	}
	if compressed {
		text, ok := inflate(rest)
		return key, text, ok
	}
	return key, string(rest), true
}

func inflate(b []byte) (string, bool) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return "", false
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, 1<<20))
	if err != nil {
		return "", false
	}
	return string(out), true
}
