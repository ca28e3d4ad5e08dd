package exif

import (
	"bytes"
	"encoding/binary"
)

var (
	exifHeader = []byte("Exif\x00\x00")
	tiffLE     = []byte("II*\x00")
	tiffBE     = []byte("MM\x00*")
	pngSig     = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
)

// IsTIFF reports whether b starts with a TIFF byte-order mark.
func IsTIFF(b []byte) bool {
	return bytes.HasPrefix(b, tiffLE) || bytes.HasPrefix(b, tiffBE)
}

// Locate returns the EXIF payload of data in a form exif.Decode accepts
// (a raw TIFF block, optionally behind "Exif\0\0"), or nil.
func Locate(data []byte) []byte {
	switch {
	case IsTIFF(data):
		return data
	case bytes.HasPrefix(data, exifHeader) && IsTIFF(data[len(exifHeader):]):
		return data
	case len(data) >= 4 && data[0] == 0xFF && data[1] == 0xD8:
		return jpegAPP1(data)
	case bytes.HasPrefix(data, pngSig):
		return pngEXIf(data)
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return webpEXIF(data)
	}
	if off := FindTIFF(data); off >= 0 {
		return data[off:]
	}
	return nil
}

// FindTIFF searches a box-structured container (HEIF, AVIF, JPEG XL) for
// an EXIF block and returns the offset of its TIFF header, or -1. The
// block is either "Exif\0\0" followed by TIFF, or an "Exif" box tag, a
// 4-byte header offset and TIFF.
func FindTIFF(data []byte) int {
	from := 0
	for {
		i := bytes.Index(data[from:], []byte("Exif"))
		if i < 0 {
			return -1
		}
		i += from
		if p := i + len(exifHeader); bytes.HasPrefix(data[i:], exifHeader) && IsTIFF(data[p:]) {
			return p
		}
		if p := i + 8; p <= len(data) && IsTIFF(data[p:]) {
			return p
		}
		from = i + 4
	}
}

// jpegAPP1 returns the first APP1 segment payload carrying EXIF.
func jpegAPP1(data []byte) []byte {
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF: // fill byte
			i++
			continue
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD8):
			i += 2
			continue
		case marker == 0xDA || marker == 0xD9:
			return nil
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		end := i + 2 + length
		if length < 2 || end > len(data) {
			return nil
		}
		seg := data[i+4 : end]
		if marker == 0xE1 && bytes.HasPrefix(seg, exifHeader) {
			return seg
		}
		i = end
	}
	return nil
}

func pngEXIf(data []byte) []byte {
	off := len(pngSig)
	for off+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		typ := string(data[off+4 : off+8])
		end := off + 12 + length
		if length < 0 || end > len(data) {
			return nil
		}
		if typ == "eXIf" {
			return data[off+8 : off+8+length]
		}
		if typ == "IEND" {
			return nil
		}
		off = end
	}
	return nil
}

func webpEXIF(data []byte) []byte {
	off := 12
	for off+8 <= len(data) {
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		end := off + 8 + size
		if size < 0 || end > len(data) {
			return nil
		}
		if string(data[off:off+4]) == "EXIF" {
			return data[off+8 : end]
		}
		off = end + size&1
	}
	return nil
}
