package image

import (
	"encoding/binary"
	"fmt"

	"github.com/ankit-chaubey/metascrub/core"
)

func validGIF(data []byte) bool {
	if len(data) < 6 || string(data[0:3]) != "GIF" {
		return false
	}
	v := string(data[3:6])
	return v == "87a" || v == "89a"
}

// gifTableSize returns the size in bytes of the global colour table
// declared by the logical screen descriptor, or 0.
func gifTableSize(data []byte) int {
	if len(data) < 13 || data[10]&0x80 == 0 {
		return 0
	}
	return (2 << (data[10] & 0x07)) * 3
}

// skipSubBlocks returns the offset just past the sub-block chain that
// starts at i. The result may exceed len(data) on truncated input.
func skipSubBlocks(data []byte, i int) int {
	for i < len(data) {
		size := int(data[i])
		i++
		if size == 0 {
			break
		}
		i += size
	}
	return i
}

// ─── GIF Clean ───────────────────────────────────────────────────────────────

// cleanGIF removes comment (0x21 0xFE) and application (0x21 0xFF)
// extensions that appear before the first image descriptor. Everything
// from the first image descriptor or trailer onward is copied as-is.
func cleanGIF(data []byte, obs core.Observer) ([]byte, error) {
	if !validGIF(data) {
		return nil, core.Invalid("GIF", "missing GIF87a/GIF89a signature")
	}

	out := make([]byte, 0, len(data))
	i := 0

	// Header and logical screen descriptor.
	if len(data) >= 13 {
		out = append(out, data[:13]...)
		i = 13
		if n := gifTableSize(data); n > 0 && i+n <= len(data) {
			out = append(out, data[i:i+n]...)
			i += n
		}
	}

	for i < len(data) {
		switch data[i] {
		case 0x21:
			if i+1 >= len(data) {
				return out, nil
			}
			switch label := data[i+1]; label {
			case 0xFF:
				obs.SegmentDropped(core.FmtGIF, "application")
				i = skipSubBlocks(data, i+2)
			case 0xFE:
				obs.SegmentDropped(core.FmtGIF, "comment")
				i = skipSubBlocks(data, i+2)
			default:
				start := i
				i = min(skipSubBlocks(data, i+2), len(data))
				out = append(out, data[start:i]...)
			}
		case 0x2C, 0x3B:
			return append(out, data[i:]...), nil
		default:
			out = append(out, data[i])
			i++
		}
	}
	return out, nil
}

// ─── GIF View ────────────────────────────────────────────────────────────────

func viewGIF(data []byte, m *core.Metadata) (*core.Metadata, error) {
	if !validGIF(data) {
		return m, core.Invalid("GIF", "missing GIF87a/GIF89a signature")
	}
	m.Add("GIF Header", "Version", string(data[0:6]))
	if len(data) >= 10 {
		w := binary.LittleEndian.Uint16(data[6:8])
		h := binary.LittleEndian.Uint16(data[8:10])
		m.Add("GIF Header", "Dimensions", fmt.Sprintf("%d x %d", w, h))
	}
	if len(data) < 13 {
		return m, nil
	}

	i := 13 + gifTableSize(data)
	comments, frames := 0, 0
	for i < len(data) {
		switch data[i] {
		case 0x3B:
			i = len(data)
		case 0x21:
			if i+1 >= len(data) {
				i = len(data)
				break
			}
			label := data[i+1]
			start := i + 2
			if label == 0xFF && start < len(data) && int(data[start]) == 11 && start+12 <= len(data) {
				m.Add("GIF Application", "Application", string(data[start+1:start+12]))
			}
			if label == 0xFE {
				if c := gifSubBlockData(data, start); len(c) > 0 {
					comments++
					m.Add("GIF Comment", fmt.Sprintf("Comment_%d", comments), string(c))
				}
			}
			i = skipSubBlocks(data, start)
		case 0x2C:
			frames++
			// Image descriptor (10 bytes) and optional local colour table.
			if i+10 > len(data) {
				i = len(data)
				break
			}
			packed := data[i+9]
			i += 10
			if packed&0x80 != 0 {
				i += (2 << (packed & 0x07)) * 3
			}
			// LZW minimum code size, then image sub-blocks.
			i = skipSubBlocks(data, i+1)
		default:
			i++
		}
	}
	if frames > 1 {
		m.Add("GIF Header", "Frames", fmt.Sprintf("%d", frames))
	}
	return m, nil
}

func gifSubBlockData(data []byte, i int) []byte {
	var b []byte
	for i < len(data) {
		size := int(data[i])
		i++
		if size == 0 || i+size > len(data) {
			break
		}
		b = append(b, data[i:i+size]...)
		i += size
	}
	return b
}
