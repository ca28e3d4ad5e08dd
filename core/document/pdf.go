package document

import (
	"bytes"
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/xmp"
)

// ─── PDF View ────────────────────────────────────────────────────────────────

// pdfInfoFields are the standard Info dict keys, in display order.
var pdfInfoFields = []string{
	"Title", "Author", "Subject", "Keywords",
	"Creator", "Producer", "CreationDate", "ModDate", "Trapped",
}

func viewPDF(data []byte, m *core.Metadata) (*core.Metadata, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return m, core.Invalid("PDF", "missing %PDF- header")
	}
	if len(data) >= 8 {
		m.Add("PDF Header", "PDFVersion", string(data[5:8]))
	}

	info, pages, ok := readPDFInfo(data)
	if !ok {
		info = scanPDFInfo(data)
	}
	for _, k := range pdfInfoFields {
		m.Add("PDF Info", k, info[k])
		delete(info, k)
	}
	extra := make([]string, 0, len(info))
	for k := range info {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		m.Add("PDF Info", k, info[k])
	}
	if pages > 0 {
		m.Add("PDF Header", "Pages", strconv.Itoa(pages))
	}

	if packet := xmp.Find(data); packet != nil {
		xmp.ParseInto(packet, m, "PDF XMP")
	}
	return m, nil
}

// readPDFInfo reads the trailer's Info dictionary through the
// cross-reference table. ok is false when the file cannot be opened
// that way.
func readPDFInfo(data []byte) (info map[string]string, pages int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			info, pages, ok = nil, 0, false
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, false
	}
	info = map[string]string{}
	dict := r.Trailer().Key("Info")
	if dict.Kind() == pdf.Dict {
		for _, k := range dict.Keys() {
			v := dict.Key(k)
			switch v.Kind() {
			case pdf.String:
				info[k] = strings.TrimSpace(v.Text())
			case pdf.Name:
				info[k] = v.Name()
			case pdf.Integer:
				info[k] = strconv.FormatInt(v.Int64(), 10)
			case pdf.Bool:
				info[k] = strconv.FormatBool(v.Bool())
			}
		}
	}
	return info, r.NumPage(), true
}

// ─── Fallback scanner ────────────────────────────────────────────────────────

// A heuristic scanner for files whose cross-reference table is damaged.
// It matches /Key (literal) and /Key <hex> pairs anywhere in the file.
var (
	pdfLiteralRe = regexp.MustCompile(`/(\w+)\s*\(((?:[^()\\]|\\.)*)\)`)
	pdfHexRe     = regexp.MustCompile(`/(\w+)\s*<([0-9A-Fa-f\s]+)>`)
)

func scanPDFInfo(data []byte) map[string]string {
	wanted := map[string]bool{}
	for _, f := range pdfInfoFields {
		wanted[f] = true
	}

	result := map[string]string{}
	for _, match := range pdfLiteralRe.FindAllSubmatch(data, -1) {
		if key := string(match[1]); wanted[key] {
			result[key] = decodePDFString(string(match[2]))
		}
	}
	for _, match := range pdfHexRe.FindAllSubmatch(data, -1) {
		key := string(match[1])
		if !wanted[key] {
			continue
		}
		if _, exists := result[key]; exists {
			continue
		}
		h := strings.Join(strings.Fields(string(match[2])), "")
		if b, err := hex.DecodeString(h); err == nil {
			result[key] = decodeTextBytes(b)
		}
	}
	return result
}

var pdfEscapes = strings.NewReplacer(
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\\`, "\\",
	`\(`, "(",
	`\)`, ")",
)

func decodePDFString(s string) string {
	return decodeTextBytes([]byte(pdfEscapes.Replace(s)))
}

// decodeTextBytes handles the UTF-16BE form of PDF text strings.
func decodeTextBytes(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err == nil {
			return strings.TrimRight(string(out), "\x00")
		}
	}
	return string(b)
}
