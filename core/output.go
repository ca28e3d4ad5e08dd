package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Report is everything Inspect learns about one buffer.
type Report struct {
	Name      string         `json:"name"`
	Size      int            `json:"size"`
	HumanSize string         `json:"human_size"`
	MIME      string         `json:"mime"`
	Format    FormatID       `json:"format"`
	SHA256    string         `json:"sha256,omitempty"`
	Metadata  MetadataMap    `json:"metadata,omitempty"`
	GPS       *GPSCoordinate `json:"gps,omitempty"`
	FuzzedGPS *GPSCoordinate `json:"gps_fuzzed,omitempty"`
	Precision string         `json:"gps_precision,omitempty"`
	Risk      PrivacyRisk    `json:"risk"`
	View      *Metadata      `json:"-"`
}

// Printer handles all display output for the CLI.
type Printer struct {
	JSON   bool
	Writer io.Writer

	heading *color.Color
	key     *color.Color
	ok      *color.Color
	warn    *color.Color
	bad     *color.Color
}

// NewPrinter creates a Printer writing to stdout. colorMode is one of
// "auto", "always" or "never".
func NewPrinter(jsonMode bool, colorMode string) *Printer {
	return NewPrinterTo(os.Stdout, jsonMode, UseColor(colorMode, os.Stdout))
}

// NewPrinterTo creates a Printer writing to w.
func NewPrinterTo(w io.Writer, jsonMode, colored bool) *Printer {
	p := &Printer{
		JSON:    jsonMode,
		Writer:  w,
		heading: color.New(color.FgCyan, color.Bold),
		key:     color.New(color.FgWhite),
		ok:      color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.heading, p.key, p.ok, p.warn, p.bad} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// UseColor resolves a color mode for w. "auto" enables color only when
// w is a terminal.
func UseColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintMetadata renders a Metadata struct to the configured output.
func (p *Printer) PrintMetadata(m *Metadata) {
	if p.JSON {
		p.printJSON(m)
		return
	}
	p.printText(m)
}

func (p *Printer) printText(m *Metadata) {
	fmt.Fprintf(p.Writer, "File  : %s\n", m.Name)
	fmt.Fprintf(p.Writer, "Format: %s\n", m.Format)
	if len(m.Fields) == 0 {
		fmt.Fprintln(p.Writer, "(no metadata found)")
		return
	}
	fmt.Fprintln(p.Writer)

	// Group by category
	groups := make(map[string][]MetaField)
	order := []string{}
	seen := map[string]bool{}
	for _, f := range m.Fields {
		if !seen[f.Category] {
			seen[f.Category] = true
			order = append(order, f.Category)
		}
		groups[f.Category] = append(groups[f.Category], f)
	}

	for _, cat := range order {
		fmt.Fprintln(p.Writer, p.heading.Sprintf("── %s ──", cat))
		for _, f := range groups[cat] {
			fmt.Fprintf(p.Writer, "  %s %s\n", p.key.Sprintf("%-30s", f.Key+":"), f.Value)
		}
		fmt.Fprintln(p.Writer)
	}
}

func (p *Printer) printJSON(m *Metadata) {
	type jsonField struct {
		Key      string `json:"key"`
		Value    string `json:"value"`
		Category string `json:"category"`
	}
	type jsonOutput struct {
		Name   string      `json:"file"`
		Format string      `json:"format"`
		Fields []jsonField `json:"fields"`
	}

	out := jsonOutput{
		Name:   m.Name,
		Format: m.Format,
	}
	for _, f := range m.Fields {
		out.Fields = append(out.Fields, jsonField{
			Key:      f.Key,
			Value:    f.Value,
			Category: f.Category,
		})
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(p.Writer, string(b))
}

// PrintReport renders an Inspect report: view fields, GPS and risk.
func (p *Printer) PrintReport(r *Report) {
	if p.JSON {
		b, _ := json.MarshalIndent(r, "", "  ")
		fmt.Fprintln(p.Writer, string(b))
		return
	}
	if r.View != nil {
		p.printText(r.View)
	} else {
		fmt.Fprintf(p.Writer, "File  : %s\n", r.Name)
		fmt.Fprintf(p.Writer, "Format: %s\n\n", r.Format)
	}
	fmt.Fprintf(p.Writer, "Size  : %s\n", r.HumanSize)
	fmt.Fprintf(p.Writer, "MIME  : %s\n", r.MIME)
	if r.SHA256 != "" {
		fmt.Fprintf(p.Writer, "SHA256: %s\n", r.SHA256)
	}
	if r.GPS != nil {
		fmt.Fprintln(p.Writer)
		fmt.Fprintln(p.Writer, p.heading.Sprint("── GPS ──"))
		fmt.Fprintf(p.Writer, "  %-30s %v, %v\n", "Coordinates:", r.GPS.Latitude, r.GPS.Longitude)
		if r.FuzzedGPS != nil && *r.FuzzedGPS != *r.GPS {
			fmt.Fprintf(p.Writer, "  %-30s %v, %v\n", "Shared as ("+r.Precision+"):", r.FuzzedGPS.Latitude, r.FuzzedGPS.Longitude)
		}
		for _, l := range MapLinks(*r.GPS) {
			fmt.Fprintf(p.Writer, "  %-30s %s\n", l.Name+":", l.URL)
		}
	}
	fmt.Fprintln(p.Writer)
	fmt.Fprintf(p.Writer, "Privacy risk: %s (score %d)\n", p.riskColor(r.Risk.Level).Sprint(r.Risk.Level), r.Risk.Score)
	for _, w := range r.Risk.Warnings {
		fmt.Fprintln(p.Writer, "  ! "+w)
	}
	for _, c := range r.Risk.ConsistencyIssues {
		fmt.Fprintln(p.Writer, "  ? "+c)
	}
}

func (p *Printer) riskColor(l RiskLevel) *color.Color {
	switch l {
	case RiskCritical, RiskHigh:
		return p.bad
	case RiskMedium:
		return p.warn
	default:
		return p.ok
	}
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	if p.JSON {
		return
	}
	fmt.Fprintln(p.Writer, p.ok.Sprint("✓ ")+msg)
}

// PrintWarning prints a warning line (suppressed in JSON mode).
func (p *Printer) PrintWarning(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, p.warn.Sprint("! ")+msg)
	}
}

// PrintInfo prints an info line (suppressed in JSON mode).
func (p *Printer) PrintInfo(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, msg)
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}

// HumanSize renders a byte count with a 1024 base.
func HumanSize(n int64) string {
	const unit = 1024
	switch {
	case n < unit:
		return fmt.Sprintf("%d B", n)
	case n < unit*unit:
		return fmt.Sprintf("%.1f KB", float64(n)/unit)
	case n < unit*unit*unit:
		return fmt.Sprintf("%.1f MB", float64(n)/(unit*unit))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(unit*unit*unit))
	}
}

// ResolveOutPath returns dst if non-empty, otherwise src with suffix
// inserted before the extension.
func ResolveOutPath(src, dst, suffix string) string {
	if dst != "" {
		return dst
	}
	dot := strings.LastIndex(src, ".")
	if dot <= strings.LastIndexAny(src, `/\`) {
		return src + suffix
	}
	return src[:dot] + suffix + src[dot:]
}
