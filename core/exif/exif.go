// Package exif decodes the EXIF/TIFF tag table embedded in an image
// container into a flat key/value map and derives the GPS position.
package exif

import (
	"bytes"
	"strings"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// structural fields are IFD plumbing, not metadata.
var structural = map[exif.FieldName]bool{
	exif.ExifIFDPointer:             true,
	exif.GPSInfoIFDPointer:          true,
	exif.InteroperabilityIFDPointer: true,
}

// Extract decodes the EXIF block of data. It never fails: a buffer with no
// EXIF block, or one that cannot be parsed, yields an empty map and a nil
// coordinate. The coordinate is non-nil when at least one axis was found;
// the missing axis is then reported as 0.
func Extract(data []byte) (m core.MetadataMap, gps *core.GPSCoordinate) {
	m = core.MetadataMap{}
	defer func() {
		if r := recover(); r != nil {
			m, gps = core.MetadataMap{}, nil
		}
	}()

	payload := Locate(data)
	if payload == nil {
		return m, nil
	}
	x, err := exif.Decode(bytes.NewReader(payload))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return m, nil
	}

	w := &walker{fields: m}
	x.Walk(w)
	return m, w.coordinate()
}

// Fields returns the decoded map as display fields, sorted by key.
func Fields(m core.MetadataMap, category string) []core.MetaField {
	out := make([]core.MetaField, 0, len(m))
	for _, k := range core.SortedKeys(m) {
		out = append(out, core.MetaField{Key: k, Value: m[k], Category: category})
	}
	return out
}

type walker struct {
	fields core.MetadataMap

	lat, lon       float64
	hasLat, hasLon bool
	latRef, lonRef string
}

func (w *walker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if structural[name] {
		return nil
	}
	w.fields[string(name)] = displayValue(tag)

	// Refs are only recorded here; Walk order is random, so signs are
	// applied in coordinate().
	switch name {
	case exif.GPSLatitude:
		w.lat, w.hasLat = decimalDegrees(tag)
	case exif.GPSLongitude:
		w.lon, w.hasLon = decimalDegrees(tag)
	case exif.GPSLatitudeRef:
		w.latRef = refValue(tag)
	case exif.GPSLongitudeRef:
		w.lonRef = refValue(tag)
	}
	return nil
}

func (w *walker) coordinate() *core.GPSCoordinate {
	if !w.hasLat && !w.hasLon {
		return nil
	}
	c := &core.GPSCoordinate{}
	if w.hasLat {
		c.Latitude = w.lat
	}
	if w.hasLon {
		c.Longitude = w.lon
	}
	// Only the first byte of a reference counts, and only in upper case.
	if strings.HasPrefix(w.latRef, "S") {
		c.Latitude = -c.Latitude
	}
	if strings.HasPrefix(w.lonRef, "W") {
		c.Longitude = -c.Longitude
	}
	return c
}

// decimalDegrees converts a degrees/minutes/seconds rational triple.
// Anything that is not at least three rationals with non-zero
// denominators yields no value.
func decimalDegrees(tag *tiff.Tag) (float64, bool) {
	if tag.Format() != tiff.RatVal || tag.Count < 3 {
		return 0, false
	}
	var parts [3]float64
	for i := range parts {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		parts[i] = float64(num) / float64(den)
	}
	return parts[0] + parts[1]/60 + parts[2]/3600, true
}

func refValue(tag *tiff.Tag) string {
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

func displayValue(tag *tiff.Tag) string {
	if tag.Format() == tiff.StringVal {
		s, _ := tag.StringVal()
		return strings.TrimSpace(s)
	}
	val := tag.String()
	// Remove surrounding quotes from string values
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}
	return val
}
