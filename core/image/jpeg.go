package image

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/exif"
	"github.com/ankit-chaubey/metascrub/core/xmp"
)

// ─── JPEG Clean ──────────────────────────────────────────────────────────────

// cleanJPEG drops every APPn segment (0xE0-0xEF) before the first SOS.
// Scan data and everything after it is copied unchanged.
func cleanJPEG(data []byte, obs core.Observer) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, core.Invalid("JPEG", "missing SOI marker")
	}

	out := make([]byte, 0, len(data))
	out = append(out, 0xFF, 0xD8)

	i := 2
	for i < len(data)-1 {
		if data[i] != 0xFF {
			return append(out, data[i:]...), nil
		}
		marker := data[i+1]

		if marker == 0xDA { // SOS
			return append(out, data[i:]...), nil
		}

		if marker >= 0xE0 && marker <= 0xEF {
			if i+3 >= len(data) {
				return nil, core.Truncated("JPEG", i)
			}
			length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
			if length < 2 {
				return nil, core.Invalid("JPEG", fmt.Sprintf("segment length %d at offset %d", length, i))
			}
			obs.SegmentDropped(core.FmtJPEG, fmt.Sprintf("APP%d", marker-0xE0))
			i += 2 + length
			continue
		}

		if i+3 >= len(data) {
			return append(out, data[i:]...), nil
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if length < 2 || i+2+length > len(data) {
			return append(out, data[i:]...), nil
		}
		out = append(out, data[i:i+2+length]...)
		i += 2 + length
	}

	// A single byte left over after the last segment.
	if i < len(data) {
		out = append(out, data[i:]...)
	}
	return out, nil
}

// ─── JPEG View ───────────────────────────────────────────────────────────────

var (
	xmpPrefix  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	iptcPrefix = []byte("Photoshop 3.0\x00")
)

func viewJPEG(data []byte, m *core.Metadata) (*core.Metadata, error) {
	segs, err := jpegSegments(data)
	if err != nil {
		return m, err
	}

	fields, _ := exif.Extract(data)
	m.Fields = append(m.Fields, exif.Fields(fields, "EXIF")...)

	for _, seg := range segs {
		switch {
		case seg.marker == 0xE1 && bytes.HasPrefix(seg.data, xmpPrefix):
			xmp.ParseInto(seg.data[len(xmpPrefix):], m, "XMP")
		case seg.marker == 0xED && bytes.HasPrefix(seg.data, iptcPrefix):
			parseIPTCInto(seg.data[len(iptcPrefix):], m)
		case seg.marker == 0xFE:
			m.Add("JPEG", "Comment", string(bytes.TrimRight(seg.data, "\x00")))
		case seg.marker == 0xE2 && bytes.HasPrefix(seg.data, []byte("ICC_PROFILE\x00")):
			m.Add("JPEG", "ICCProfile", "present")
		case seg.marker >= 0xC0 && seg.marker <= 0xC2 && len(seg.data) >= 5:
			h := binary.BigEndian.Uint16(seg.data[1:3])
			w := binary.BigEndian.Uint16(seg.data[3:5])
			m.Add("JPEG", "Dimensions", fmt.Sprintf("%d x %d", w, h))
		}
	}
	return m, nil
}

type jpegSegment struct {
	marker byte
	data   []byte
}

// jpegSegments lists the marker segments up to the first SOS. Segment
// data aliases the input.
func jpegSegments(data []byte) ([]jpegSegment, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, core.Invalid("JPEG", "missing SOI marker")
	}
	var segs []jpegSegment

	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			break
		}
		marker := data[i+1]
		if marker == 0xFF {
			i++
			continue
		}
		if marker == 0xDA || marker == 0xD9 {
			break
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD8) {
			i += 2
			continue
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2:i+4])) - 2
		if segLen < 0 || i+4+segLen > len(data) {
			break
		}
		segs = append(segs, jpegSegment{marker: marker, data: data[i+4 : i+4+segLen]})
		i += 4 + segLen
	}
	return segs, nil
}
