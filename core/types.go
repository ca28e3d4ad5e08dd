// Package core defines the shared types, interfaces, and format registry
// for metascrub.
package core

// MetaField represents a single metadata key-value pair.
type MetaField struct {
	Key      string // Canonical field name (e.g. "Make", "Artist", "Title")
	Value    string // String representation of the value
	Category string // Category label (e.g. "EXIF", "ID3", "XMP")
	Raw      string // Raw / hex representation if different from Value
}

// Metadata holds all metadata a handler could read from a single buffer.
type Metadata struct {
	Name   string
	Format string // Human-readable format name (e.g. "JPEG", "MP3", "PDF")
	Fields []MetaField
}

// Add appends a field, skipping empty values.
func (m *Metadata) Add(category, key, value string) {
	if value == "" {
		return
	}
	m.Fields = append(m.Fields, MetaField{Key: key, Value: value, Category: category})
}

// Summary returns a short string of key fields for quick display.
func (m *Metadata) Summary() string {
	for _, f := range m.Fields {
		if f.Key == "Title" || f.Key == "Make" || f.Key == "Artist" {
			return f.Key + ": " + f.Value
		}
	}
	return m.Format
}

// MetadataMap maps a tag name to its display string.
type MetadataMap map[string]string

// GPSCoordinate is a position in decimal degrees. Negative latitude is
// south, negative longitude is west.
type GPSCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FormatInfo describes what a format handler supports.
type FormatInfo struct {
	Name       string   `json:"name"`       // "JPEG"
	Extensions []string `json:"extensions"` // [".jpg", ".jpeg"]
	MediaType  string   `json:"media_type"` // "image" | "audio" | "document"
	MIMETypes  []string `json:"mime_types"`
	CanView    bool     `json:"can_view"`
	CanStrip   bool     `json:"can_strip"`
	// StripsAll is false when Clean leaves some metadata behind.
	StripsAll bool   `json:"strips_all"`
	Notes     string `json:"notes,omitempty"` // Any caveats or notes
}

// Handler is the interface every format family implements.
type Handler interface {
	// View reads and returns all discoverable metadata from data.
	View(data []byte) (*Metadata, error)
	// Clean returns a new buffer with metadata units removed. data is
	// never modified.
	Clean(data []byte) ([]byte, error)
	// Info returns format capabilities.
	Info() FormatInfo
}

// Observer receives one event per metadata unit a walker drops.
type Observer interface {
	SegmentDropped(format FormatID, unit string)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) SegmentDropped(FormatID, string) {}

// ObserverOrNop returns o, or a NopObserver when o is nil.
func ObserverOrNop(o Observer) Observer {
	if o == nil {
		return NopObserver{}
	}
	return o
}

// CountingObserver tallies dropped units and forwards to Next if set.
type CountingObserver struct {
	Next  Observer
	Units []string
}

func (c *CountingObserver) SegmentDropped(format FormatID, unit string) {
	c.Units = append(c.Units, unit)
	if c.Next != nil {
		c.Next.SegmentDropped(format, unit)
	}
}
