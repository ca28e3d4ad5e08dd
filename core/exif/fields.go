package exif

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Fields goexif does not name but the privacy report cares about.
const (
	HostComputer     exif.FieldName = "HostComputer"
	CameraOwnerName  exif.FieldName = "CameraOwnerName"
	BodySerialNumber exif.FieldName = "BodySerialNumber"
	LensSerialNumber exif.FieldName = "LensSerialNumber"
)

var extraIFD0Fields = map[uint16]exif.FieldName{
	0x013C: HostComputer,
}

var extraExifFields = map[uint16]exif.FieldName{
	0xA430: CameraOwnerName,
	0xA431: BodySerialNumber,
	0xA435: LensSerialNumber,
}

func init() {
	exif.RegisterParsers(identityParser{})
}

// identityParser loads owner and serial-number tags that the stock
// parser skips.
type identityParser struct{}

func (identityParser) Parse(x *exif.Exif) error {
	if x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		return nil
	}
	x.LoadTags(x.Tiff.Dirs[0], extraIFD0Fields, false)

	ptr, err := x.Get(exif.ExifIFDPointer)
	if err != nil {
		return nil
	}
	off, err := ptr.Int64(0)
	if err != nil {
		return nil
	}
	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(off, 0); err != nil {
		return nil
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return nil
	}
	x.LoadTags(dir, extraExifFields, false)
	return nil
}
