package core

// RiskLevel buckets a privacy score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// PrivacyRisk is the result of AssessRisk.
type PrivacyRisk struct {
	Level             RiskLevel `json:"level"`
	Score             int       `json:"score"`
	Warnings          []string  `json:"warnings,omitempty"`
	SensitiveFields   []string  `json:"sensitive_fields,omitempty"`
	ConsistencyIssues []string  `json:"consistency_issues,omitempty"`
}

type riskRule struct {
	points  int
	field   string
	warning string
	// match reports whether the rule fires for the present keys.
	match func(has func(string) bool) bool
}

func anyOf(keys ...string) func(func(string) bool) bool {
	return func(has func(string) bool) bool {
		for _, k := range keys {
			if has(k) {
				return true
			}
		}
		return false
	}
}

func allOf(keys ...string) func(func(string) bool) bool {
	return func(has func(string) bool) bool {
		for _, k := range keys {
			if !has(k) {
				return false
			}
		}
		return true
	}
}

var riskRules = []riskRule{
	{25, "Camera Serial Number",
		"Camera serial number can identify specific device and link photos to owner",
		anyOf("BodySerialNumber", "InternalSerialNumber")},
	{25, "Owner/Artist Name",
		"Owner or artist name directly identifies the photographer",
		anyOf("Artist", "Copyright", "OwnerName", "CameraOwnerName")},
	{10, "Software",
		"Software information may reveal editing tools and workflow",
		anyOf("Software")},
	{15, "Timestamps",
		"Timestamps reveal when and potentially where photo was taken",
		anyOf("DateTimeOriginal", "DateTime")},
	{10, "Camera Make/Model",
		"Camera make and model combined with other metadata can identify photographer",
		allOf("Make", "Model")},
	{5, "Lens Information",
		"Lens information may help identify photographer's equipment",
		anyOf("LensModel", "LensMake")},
}

// AssessRisk scores a decoded metadata map. Keys with empty values count
// as absent. hasDims reports whether pixel dimensions are known.
func AssessRisk(meta MetadataMap, gps *GPSCoordinate, hasDims bool) PrivacyRisk {
	has := func(k string) bool { return meta[k] != "" }

	var r PrivacyRisk
	if gps != nil {
		r.Score += 40
		r.Warnings = append(r.Warnings, "GPS coordinates reveal exact location where photo was taken")
		r.SensitiveFields = append(r.SensitiveFields, "GPS Location")
	}
	for _, rule := range riskRules {
		if rule.match(has) {
			r.Score += rule.points
			r.Warnings = append(r.Warnings, rule.warning)
			r.SensitiveFields = append(r.SensitiveFields, rule.field)
		}
	}

	if gps != nil && (!has("GPSLatitudeRef") || !has("GPSLongitudeRef")) {
		r.ConsistencyIssues = append(r.ConsistencyIssues,
			"GPS coordinates present but reference fields (N/S/E/W) may be missing or incomplete")
	}
	if has("DateTime") && has("DateTimeOriginal") && meta["DateTime"] != meta["DateTimeOriginal"] {
		r.ConsistencyIssues = append(r.ConsistencyIssues,
			"DateTime and DateTimeOriginal differ - image may have been modified after capture")
	}
	if has("Orientation") && !hasDims {
		r.ConsistencyIssues = append(r.ConsistencyIssues,
			"Orientation metadata present but image dimensions missing")
	}
	if has("Software") && !has("DateTime") && !has("DateTimeOriginal") {
		r.ConsistencyIssues = append(r.ConsistencyIssues,
			"Software information present but timestamps missing - metadata may be incomplete")
	}

	switch {
	case r.Score >= 60:
		r.Level = RiskCritical
	case r.Score >= 40:
		r.Level = RiskHigh
	case r.Score >= 20:
		r.Level = RiskMedium
	default:
		r.Level = RiskLow
	}
	return r
}
