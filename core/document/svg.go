package document

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/xmp"
)

// ─── SVG Clean ───────────────────────────────────────────────────────────────

// A line is dropped when its lowercased text contains any of these.
var svgMetaMarkers = []string{
	"<metadata",
	"</metadata>",
	"xmlns:dc=",
	"xmlns:cc=",
	"xmlns:rdf=",
	"<rdf:",
	"</rdf:",
	"<dc:",
	"<cc:",
}

// cleanSVG filters the document line by line. Lines end at "\n" with an
// optional preceding "\r"; kept lines are rejoined with "\n" and no
// trailing newline. Invalid UTF-8 is replaced with U+FFFD.
func cleanSVG(data []byte, obs core.Observer) ([]byte, error) {
	text := bytes.ToValidUTF8(data, []byte("\uFFFD"))
	if !bytes.Contains(text, []byte("<svg")) {
		return nil, core.Invalid("SVG", "no <svg element")
	}

	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), len(text)+1)

	var kept []string
	for sc.Scan() {
		line := sc.Text()
		if marker := svgMetaMarker(line); marker != "" {
			obs.SegmentDropped(core.FmtSVG, marker)
			continue
		}
		kept = append(kept, line)
	}
	if err := sc.Err(); err != nil {
		return nil, core.Invalid("SVG", err.Error())
	}
	return []byte(strings.Join(kept, "\n")), nil
}

func svgMetaMarker(line string) string {
	lower := strings.ToLower(line)
	for _, m := range svgMetaMarkers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}

// ─── SVG View ────────────────────────────────────────────────────────────────

var svgMetadataRe = regexp.MustCompile(`(?is)<metadata[^>]*>(.*?)</metadata>`)

func viewSVG(data []byte, m *core.Metadata) (*core.Metadata, error) {
	if !bytes.Contains(data, []byte("<svg")) {
		return m, core.Invalid("SVG", "no <svg element")
	}

	type svgMeta struct {
		Title   string `xml:"title"`
		Desc    string `xml:"desc"`
		Width   string `xml:"width,attr"`
		Height  string `xml:"height,attr"`
		ViewBox string `xml:"viewBox,attr"`
		Version string `xml:"version,attr"`
	}
	var svg svgMeta
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	_ = dec.Decode(&svg)

	m.Add("SVG", "Title", strings.TrimSpace(svg.Title))
	m.Add("SVG", "Description", strings.TrimSpace(svg.Desc))
	m.Add("SVG", "Width", svg.Width)
	m.Add("SVG", "Height", svg.Height)
	m.Add("SVG", "ViewBox", svg.ViewBox)
	m.Add("SVG", "Version", svg.Version)

	if match := svgMetadataRe.FindSubmatch(data); match != nil {
		xmp.ParseInto(match[1], m, "SVG Metadata")
	}
	if tool := inkscapeVersion(data); tool != "" {
		m.Add("SVG", "Generator", tool)
	}
	return m, nil
}

var inkscapeRe = regexp.MustCompile(`inkscape:version="([^"]+)"`)

func inkscapeVersion(data []byte) string {
	if match := inkscapeRe.FindSubmatch(data); match != nil {
		return "Inkscape " + string(match[1])
	}
	return ""
}
