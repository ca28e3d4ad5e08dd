package core

import (
	"sort"
	"strings"
)

// Sensitivity ranks how much a field reveals about the person behind a file.
type Sensitivity int

const (
	SensNone Sensitivity = iota
	SensLow
	SensMedium
	SensHigh
)

func (s Sensitivity) String() string {
	switch s {
	case SensLow:
		return "low"
	case SensMedium:
		return "medium"
	case SensHigh:
		return "high"
	default:
		return "none"
	}
}

// TagInfo is the display entry for a metadata key.
type TagInfo struct {
	Label       string
	Category    string
	Sensitivity Sensitivity
}

const (
	CatCamera   = "Camera"
	CatSettings = "Settings"
	CatTime     = "Time"
	CatLocation = "Location"
	CatAuthor   = "Author"
	CatSoftware = "Software"
	CatImage    = "Image"
	CatOther    = "Other"
)

var tagDictionary = map[string]TagInfo{
	"Make":                 {"Camera make", CatCamera, SensLow},
	"Model":                {"Camera model", CatCamera, SensLow},
	"LensMake":             {"Lens make", CatCamera, SensLow},
	"LensModel":            {"Lens model", CatCamera, SensLow},
	"BodySerialNumber":     {"Body serial number", CatCamera, SensHigh},
	"InternalSerialNumber": {"Internal serial number", CatCamera, SensHigh},
	"LensSerialNumber":     {"Lens serial number", CatCamera, SensHigh},
	"ImageUniqueID":        {"Image unique ID", CatCamera, SensMedium},
	"MakerNote":            {"Maker note", CatCamera, SensMedium},

	"FNumber":           {"F-number", CatSettings, SensNone},
	"ExposureTime":      {"Exposure time", CatSettings, SensNone},
	"ISOSpeedRatings":   {"ISO speed", CatSettings, SensNone},
	"FocalLength":       {"Focal length", CatSettings, SensNone},
	"ExposureBiasValue": {"Exposure bias", CatSettings, SensNone},
	"ExposureMode":      {"Exposure mode", CatSettings, SensNone},
	"ExposureProgram":   {"Exposure program", CatSettings, SensNone},
	"MeteringMode":      {"Metering mode", CatSettings, SensNone},
	"Flash":             {"Flash", CatSettings, SensNone},
	"WhiteBalance":      {"White balance", CatSettings, SensNone},
	"SceneCaptureType":  {"Scene capture type", CatSettings, SensNone},

	"DateTime":           {"Date/time modified", CatTime, SensMedium},
	"DateTimeOriginal":   {"Date/time taken", CatTime, SensMedium},
	"DateTimeDigitized":  {"Date/time digitized", CatTime, SensMedium},
	"SubSecTimeOriginal": {"Sub-second time taken", CatTime, SensLow},
	"GPSDateStamp":       {"GPS date", CatTime, SensMedium},
	"GPSTimeStamp":       {"GPS time", CatTime, SensMedium},

	"GPSLatitude":     {"Latitude", CatLocation, SensHigh},
	"GPSLatitudeRef":  {"Latitude reference", CatLocation, SensHigh},
	"GPSLongitude":    {"Longitude", CatLocation, SensHigh},
	"GPSLongitudeRef": {"Longitude reference", CatLocation, SensHigh},
	"GPSAltitude":     {"Altitude", CatLocation, SensHigh},
	"GPSAltitudeRef":  {"Altitude reference", CatLocation, SensMedium},
	"GPSImgDirection": {"Image direction", CatLocation, SensMedium},
	"GPSSpeed":        {"Speed", CatLocation, SensMedium},

	"Artist":           {"Artist", CatAuthor, SensHigh},
	"Copyright":        {"Copyright", CatAuthor, SensHigh},
	"OwnerName":        {"Owner name", CatAuthor, SensHigh},
	"CameraOwnerName":  {"Camera owner name", CatAuthor, SensHigh},
	"UserComment":      {"User comment", CatAuthor, SensMedium},
	"ImageDescription": {"Description", CatAuthor, SensMedium},

	"Software":           {"Software", CatSoftware, SensLow},
	"HostComputer":       {"Host computer", CatSoftware, SensMedium},
	"ProcessingSoftware": {"Processing software", CatSoftware, SensLow},

	"Orientation":      {"Orientation", CatImage, SensNone},
	"XResolution":      {"Horizontal resolution", CatImage, SensNone},
	"YResolution":      {"Vertical resolution", CatImage, SensNone},
	"ResolutionUnit":   {"Resolution unit", CatImage, SensNone},
	"PixelXDimension":  {"Width", CatImage, SensNone},
	"PixelYDimension":  {"Height", CatImage, SensNone},
	"ImageWidth":       {"Width", CatImage, SensNone},
	"ImageLength":      {"Height", CatImage, SensNone},
	"ColorSpace":       {"Color space", CatImage, SensNone},
	"YCbCrPositioning": {"YCbCr positioning", CatImage, SensNone},
}

// LookupTag returns the dictionary entry for key. Unknown keys get their
// own name as label, category Other, and GPS-prefixed keys are treated as
// location data.
func LookupTag(key string) TagInfo {
	if info, ok := tagDictionary[key]; ok {
		return info
	}
	if strings.HasPrefix(key, "GPS") {
		return TagInfo{Label: key, Category: CatLocation, Sensitivity: SensMedium}
	}
	return TagInfo{Label: key, Category: CatOther, Sensitivity: SensNone}
}

// SensitiveKeys returns the keys of m whose sensitivity is at least
// medium, sorted.
func SensitiveKeys(m MetadataMap) []string {
	var out []string
	for k := range m {
		if LookupTag(k).Sensitivity >= SensMedium {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m MetadataMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
