// Package exiftest builds small little-endian TIFF/EXIF blocks and
// container fixtures for tests.
package exiftest

import (
	"encoding/binary"
	"hash/crc32"
)

// TIFF field types.
const (
	TypeByte      uint16 = 1
	TypeASCII     uint16 = 2
	TypeShort     uint16 = 3
	TypeLong      uint16 = 4
	TypeRational  uint16 = 5
	TypeUndefined uint16 = 7
)

var le = binary.LittleEndian

// Entry is one IFD entry with its encoded value.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value []byte
}

// ASCII returns a NUL-terminated string entry.
func ASCII(tag uint16, s string) Entry {
	v := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(v)), Value: v}
}

// Short returns a single SHORT entry.
func Short(tag, v uint16) Entry {
	b := make([]byte, 2)
	le.PutUint16(b, v)
	return Entry{Tag: tag, Type: TypeShort, Count: 1, Value: b}
}

// Long returns a single LONG entry.
func Long(tag uint16, v uint32) Entry {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return Entry{Tag: tag, Type: TypeLong, Count: 1, Value: b}
}

// Rationals returns a RATIONAL array entry from numerator/denominator pairs.
func Rationals(tag uint16, vals ...[2]uint32) Entry {
	b := make([]byte, 8*len(vals))
	for i, v := range vals {
		le.PutUint32(b[8*i:], v[0])
		le.PutUint32(b[8*i+4:], v[1])
	}
	return Entry{Tag: tag, Type: TypeRational, Count: uint32(len(vals)), Value: b}
}

// Builder lays out IFD0 and optional Exif and GPS sub-IFDs.
type Builder struct {
	IFD0 []Entry
	Exif []Entry
	GPS  []Entry
}

// GPS returns GPS sub-IFD entries for a DMS position and its refs.
func GPS(latRef string, lat [3][2]uint32, lonRef string, lon [3][2]uint32) []Entry {
	return []Entry{
		ASCII(0x0001, latRef),
		Rationals(0x0002, lat[0], lat[1], lat[2]),
		ASCII(0x0003, lonRef),
		Rationals(0x0004, lon[0], lon[1], lon[2]),
	}
}

// TIFF encodes the block. IFDs come first, out-of-line values after.
func (b Builder) TIFF() []byte {
	ifd0 := append([]Entry(nil), b.IFD0...)
	if len(b.Exif) > 0 {
		ifd0 = append(ifd0, Long(0x8769, 0))
	}
	if len(b.GPS) > 0 {
		ifd0 = append(ifd0, Long(0x8825, 0))
	}

	offsets := []int{8}
	off := 8 + ifdSize(len(ifd0))
	exifOff, gpsOff := 0, 0
	if len(b.Exif) > 0 {
		exifOff = off
		offsets = append(offsets, off)
		off += ifdSize(len(b.Exif))
	}
	if len(b.GPS) > 0 {
		gpsOff = off
		offsets = append(offsets, off)
		off += ifdSize(len(b.GPS))
	}
	for i := range ifd0 {
		switch ifd0[i].Tag {
		case 0x8769:
			ifd0[i] = Long(0x8769, uint32(exifOff))
		case 0x8825:
			ifd0[i] = Long(0x8825, uint32(gpsOff))
		}
	}
	dirs := [][]Entry{ifd0}
	if len(b.Exif) > 0 {
		dirs = append(dirs, b.Exif)
	}
	if len(b.GPS) > 0 {
		dirs = append(dirs, b.GPS)
	}

	buf := make([]byte, off)
	copy(buf, "II*\x00")
	le.PutUint32(buf[4:], 8)
	var data []byte
	for d, entries := range dirs {
		p := offsets[d]
		le.PutUint16(buf[p:], uint16(len(entries)))
		p += 2
		for _, e := range entries {
			le.PutUint16(buf[p:], e.Tag)
			le.PutUint16(buf[p+2:], e.Type)
			le.PutUint32(buf[p+4:], e.Count)
			if len(e.Value) <= 4 {
				copy(buf[p+8:p+12], e.Value)
			} else {
				le.PutUint32(buf[p+8:], uint32(off+len(data)))
				data = append(data, e.Value...)
				if len(data)%2 == 1 {
					data = append(data, 0)
				}
			}
			p += 12
		}
		le.PutUint32(buf[p:], 0)
	}
	return append(buf, data...)
}

func ifdSize(n int) int { return 2 + 12*n + 4 }

// APP1 returns the TIFF block behind the "Exif\0\0" header.
func (b Builder) APP1() []byte {
	return append([]byte("Exif\x00\x00"), b.TIFF()...)
}

// JPEG wraps an EXIF block in SOI, APP1, a small SOS and EOI.
func JPEG(app1 []byte) []byte {
	out := []byte{0xFF, 0xD8}
	out = append(out, Segment(0xE1, app1)...)
	out = append(out, 0xFF, 0xDA, 0x00, 0x04, 0x01, 0x02, 0xFF, 0xD9)
	return out
}

// Segment encodes a JPEG marker segment.
func Segment(marker byte, payload []byte) []byte {
	n := len(payload) + 2
	return append([]byte{0xFF, marker, byte(n >> 8), byte(n)}, payload...)
}

// PNGSignature is the 8-byte PNG file signature.
var PNGSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Chunk encodes a PNG chunk with a valid CRC.
func Chunk(typ string, data []byte) []byte {
	out := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], typ)
	out = append(out, data...)
	crc := crc32.ChecksumIEEE(out[4:])
	return binary.BigEndian.AppendUint32(out, crc)
}

// PNG builds a minimal PNG from the given extra chunks, placed between
// IHDR and IDAT.
func PNG(extra ...[]byte) []byte {
	out := append([]byte(nil), PNGSignature...)
	out = append(out, Chunk("IHDR", []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0})...)
	for _, c := range extra {
		out = append(out, c...)
	}
	out = append(out, Chunk("IDAT", []byte{0x78, 0x9C, 0x63, 0x60, 0x00, 0x00})...)
	return append(out, Chunk("IEND", nil)...)
}

// RIFFChunk encodes a RIFF sub-chunk with its pad byte.
func RIFFChunk(tag string, data []byte) []byte {
	out := make([]byte, 8, 9+len(data))
	copy(out, tag)
	le.PutUint32(out[4:], uint32(len(data)))
	out = append(out, data...)
	if len(data)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

// WebP builds a RIFF/WEBP file from the given chunks with a correct
// size field.
func WebP(chunks ...[]byte) []byte {
	out := []byte("RIFF\x00\x00\x00\x00WEBP")
	for _, c := range chunks {
		out = append(out, c...)
	}
	le.PutUint32(out[4:], uint32(len(out)-8))
	return out
}
