package image

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/exif"
	"github.com/ankit-chaubey/metascrub/core/xmp"
)

var webpMetaChunks = map[string]bool{
	"EXIF": true,
	"XMP ": true,
	"ICCP": true,
}

// ─── WebP Clean ──────────────────────────────────────────────────────────────

// cleanWebP drops EXIF, XMP and ICCP chunks and rewrites the RIFF size.
// Image, animation and unknown chunks are kept with their pad byte.
func cleanWebP(data []byte, obs core.Observer) ([]byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, core.Invalid("WebP", "missing RIFF/WEBP header")
	}

	out := make([]byte, 0, len(data))
	out = append(out, data[:12]...)

	i := 12
	for i+8 <= len(data) {
		tag := string(data[i : i+4])
		size := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		total := 8 + size + size&1
		if i+total > len(data) {
			break
		}
		if webpMetaChunks[tag] {
			obs.SegmentDropped(core.FmtWebP, strings.TrimSpace(tag))
		} else {
			out = append(out, data[i:i+total]...)
		}
		i += total
	}

	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out, nil
}

// ─── WebP View ───────────────────────────────────────────────────────────────

func viewWebP(data []byte, m *core.Metadata) (*core.Metadata, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return m, core.Invalid("WebP", "missing RIFF/WEBP header")
	}

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if offset+chunkSize > len(data) {
			break
		}
		chunkData := data[offset : offset+chunkSize]

		switch chunkID {
		case "EXIF":
			fields, _ := exif.Extract(chunkData)
			m.Fields = append(m.Fields, exif.Fields(fields, "EXIF")...)
		case "XMP ":
			if utf8.Valid(chunkData) {
				xmp.ParseInto(chunkData, m, "XMP")
			}
		case "ICCP":
			m.Add("WebP", "ICCProfile", "present")
		case "VP8 ", "VP8L", "VP8X":
			m.Add("WebP", "Encoding", strings.TrimSpace(chunkID))
			if chunkID == "VP8X" && len(chunkData) >= 10 {
				w := 1 + (uint32(chunkData[4]) | uint32(chunkData[5])<<8 | uint32(chunkData[6])<<16)
				h := 1 + (uint32(chunkData[7]) | uint32(chunkData[8])<<8 | uint32(chunkData[9])<<16)
				m.Add("WebP", "Dimensions", fmt.Sprintf("%d x %d", w, h))
			}
		case "ANIM":
			m.Add("WebP", "Animated", "yes")
		}

		offset += chunkSize + chunkSize%2
	}
	return m, nil
}
