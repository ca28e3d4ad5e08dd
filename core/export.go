package core

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// ExportCSV renders a report as "Property,Value" rows. Metadata keys are
// sorted so the output is deterministic.
func ExportCSV(r *Report) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Property", "Value"})
	w.Write([]string{"Filename", r.Name})
	w.Write([]string{"File Size", r.HumanSize})
	if r.GPS != nil {
		w.Write([]string{"GPS Latitude", formatFloat(r.GPS.Latitude)})
		w.Write([]string{"GPS Longitude", formatFloat(r.GPS.Longitude)})
	}
	for _, k := range SortedKeys(r.Metadata) {
		w.Write([]string{k, r.Metadata[k]})
	}
	w.Flush()
	return buf.String()
}

// ExportTXT renders a plain-text report.
func ExportTXT(r *Report) string {
	var b strings.Builder
	b.WriteString("FILE METADATA REPORT\n")
	b.WriteString("====================\n\n")

	b.WriteString("FILE INFORMATION\n")
	b.WriteString("----------------\n")
	fmt.Fprintf(&b, "Filename: %s\n", r.Name)
	fmt.Fprintf(&b, "File Size: %s\n", r.HumanSize)
	if r.SHA256 != "" {
		fmt.Fprintf(&b, "SHA-256: %s\n", r.SHA256)
	}
	b.WriteByte('\n')

	if r.GPS != nil {
		b.WriteString("GPS LOCATION\n")
		b.WriteString("------------\n")
		fmt.Fprintf(&b, "Latitude: %s\n", formatFloat(r.GPS.Latitude))
		fmt.Fprintf(&b, "Longitude: %s\n", formatFloat(r.GPS.Longitude))
		for _, l := range MapLinks(*r.GPS) {
			fmt.Fprintf(&b, "%s: %s\n", l.Name, l.URL)
		}
		b.WriteByte('\n')
	}

	b.WriteString("METADATA\n")
	b.WriteString("--------\n")
	if len(r.Metadata) == 0 {
		b.WriteString("No metadata found in this file\n")
		return b.String()
	}
	for _, k := range SortedKeys(r.Metadata) {
		fmt.Fprintf(&b, "%s: %s\n", k, r.Metadata[k])
	}
	return b.String()
}

// ExportJSON renders the exportable subset of a report.
func ExportJSON(r *Report) ([]byte, error) {
	out := struct {
		Name     string         `json:"name,omitempty"`
		Size     int            `json:"size,omitempty"`
		Metadata MetadataMap    `json:"metadata,omitempty"`
		GPS      *GPSCoordinate `json:"gps,omitempty"`
		SHA256   string         `json:"sha256,omitempty"`
	}{r.Name, r.Size, r.Metadata, r.GPS, r.SHA256}
	return json.MarshalIndent(out, "", "  ")
}

// FilterReport returns a copy of r restricted to the selected metadata
// keys. includeBasic keeps name, size and hash; includeGPS keeps the
// coordinate.
func FilterReport(r *Report, keys map[string]bool, includeBasic, includeGPS bool) *Report {
	out := &Report{Format: r.Format, MIME: r.MIME, Risk: r.Risk, Metadata: MetadataMap{}}
	for k, v := range r.Metadata {
		if keys == nil || keys[k] {
			out.Metadata[k] = v
		}
	}
	if includeBasic {
		out.Name, out.Size, out.HumanSize, out.SHA256 = r.Name, r.Size, r.HumanSize, r.SHA256
	}
	if includeGPS {
		out.GPS = r.GPS
	}
	return out
}
