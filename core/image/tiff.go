package image

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/exif"
)

// ─── TIFF / HEIF Clean ───────────────────────────────────────────────────────
//
// TIFF-structured metadata is scrubbed in place: identifying tag values
// are overwritten with zero bytes and the GPS directory is emptied. No
// offsets move, so strip and tile pointers stay valid. Both functions own
// the buffer they are given and return it.

const (
	tagExifIFD = 0x8769
	tagGPSIFD  = 0x8825
)

var ifd0Scrub = map[uint16]string{
	0x010E: "ImageDescription",
	0x010F: "Make",
	0x0110: "Model",
	0x0131: "Software",
	0x0132: "DateTime",
	0x013B: "Artist",
	0x013C: "HostComputer",
	0x8298: "Copyright",
	0x02BC: "XMP",
	0x83BB: "IPTC",
	0x8649: "Photoshop",
}

var exifScrub = map[uint16]string{
	0x9003: "DateTimeOriginal",
	0x9004: "DateTimeDigitized",
	0x927C: "MakerNote",
	0x9286: "UserComment",
	0xA420: "ImageUniqueID",
	0xA430: "CameraOwnerName",
	0xA431: "BodySerialNumber",
	0xA434: "LensModel",
	0xA435: "LensSerialNumber",
}

var tiffTypeSize = map[tiff.DataType]uint64{
	tiff.DTByte:      1,
	tiff.DTAscii:     1,
	tiff.DTShort:     2,
	tiff.DTLong:      4,
	tiff.DTRational:  8,
	tiff.DTSByte:     1,
	tiff.DTUndefined: 1,
	tiff.DTSShort:    2,
	tiff.DTSLong:     4,
	tiff.DTSRational: 8,
	tiff.DTFloat:     4,
	tiff.DTDouble:    8,
}

func cleanTIFF(buf []byte, obs core.Observer) ([]byte, error) {
	if !exif.IsTIFF(buf) || len(buf) < 8 {
		return nil, core.Invalid("TIFF", "missing byte-order mark")
	}
	scrubTIFF(buf, core.FmtTIFF, obs)
	return buf, nil
}

// cleanHEIF scrubs the first EXIF block found in the file. Files without
// one are returned unchanged.
func cleanHEIF(buf []byte, obs core.Observer) ([]byte, error) {
	off := exif.FindTIFF(buf)
	if off < 0 || len(buf)-off < 8 {
		return buf, nil
	}
	scrubTIFF(buf[off:], core.FmtHEIF, obs)
	return buf, nil
}

type ifdEntry struct {
	tag *tiff.Tag
	pos int // value position
	len int
}

type tiffScrubber struct {
	buf    []byte
	order  binary.ByteOrder
	format core.FormatID
	obs    core.Observer
	seen   map[int]bool
}

// scrubTIFF zeroes identifying values in the TIFF block t. t must start
// with a byte-order mark. Malformed directories and entries are skipped.
func scrubTIFF(t []byte, format core.FormatID, obs core.Observer) {
	s := &tiffScrubber{
		buf:    t,
		order:  binary.LittleEndian,
		format: format,
		obs:    obs,
		seen:   make(map[int]bool),
	}
	if t[0] == 'M' {
		s.order = binary.BigEndian
	}
	s.scrubIFD(int(s.order.Uint32(t[4:8])), ifd0Scrub)
}

func (s *tiffScrubber) scrubIFD(off int, scrub map[uint16]string) {
	for _, e := range s.entries(off) {
		switch e.tag.Id {
		case tagExifIFD:
			if p, ok := s.pointer(e); ok {
				s.scrubIFD(p, exifScrub)
			}
		case tagGPSIFD:
			if p, ok := s.pointer(e); ok {
				s.clearGPS(p)
			}
		default:
			if name, ok := scrub[e.tag.Id]; ok && s.zero(e.pos, e.len) {
				s.obs.SegmentDropped(s.format, name)
			}
		}
	}
}

// clearGPS zeroes every out-of-line GPS value and then the directory
// itself, leaving an IFD with no entries and no successor.
func (s *tiffScrubber) clearGPS(off int) {
	if off < 8 || off+2 > len(s.buf) || s.seen[off] {
		return
	}
	n := int(s.order.Uint16(s.buf[off:]))
	changed := false
	for _, e := range s.entries(off) {
		if e.len > 4 && s.zero(e.pos, e.len) {
			changed = true
		}
	}
	end := min(off+2+12*n+4, len(s.buf))
	if s.zero(off, end-off) {
		changed = true
	}
	if changed {
		s.obs.SegmentDropped(s.format, "GPS")
	}
}

// entries decodes the directory at off. Each directory is visited once.
func (s *tiffScrubber) entries(off int) []ifdEntry {
	if off < 8 || off+2 > len(s.buf) || s.seen[off] {
		return nil
	}
	s.seen[off] = true

	n := int(s.order.Uint16(s.buf[off:]))
	r := bytes.NewReader(s.buf)
	var out []ifdEntry
	for i := 0; i < n; i++ {
		p := off + 2 + 12*i
		if p+12 > len(s.buf) {
			break
		}
		if _, err := r.Seek(int64(p), io.SeekStart); err != nil {
			break
		}
		// Value errors are tolerated; only the entry header is needed.
		tag, _ := tiff.DecodeTag(r, s.order)
		if tag == nil {
			continue
		}
		size := tiffTypeSize[tag.Type] * uint64(tag.Count)
		if size == 0 {
			continue
		}
		pos := uint64(p + 8)
		if size > 4 {
			pos = uint64(s.order.Uint32(s.buf[p+8 : p+12]))
		}
		if pos+size > uint64(len(s.buf)) {
			continue
		}
		out = append(out, ifdEntry{tag: tag, pos: int(pos), len: int(size)})
	}
	return out
}

func (s *tiffScrubber) pointer(e ifdEntry) (int, bool) {
	if e.len != 4 {
		return 0, false
	}
	return int(s.order.Uint32(s.buf[e.pos:])), true
}

// zero clears n bytes at pos and reports whether any were non-zero.
func (s *tiffScrubber) zero(pos, n int) bool {
	b := s.buf[pos : pos+n]
	if allZero(b) {
		return false
	}
	clear(b)
	return true
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
