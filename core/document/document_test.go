package document

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/metascrub/core"
)

func fieldMap(m *core.Metadata) map[string]string {
	out := map[string]string{}
	for _, f := range m.Fields {
		out[f.Key] = f.Value
	}
	return out
}

// ─── SVG ─────────────────────────────────────────────────────────────────────

const inkscapeSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"
   xmlns:dc="http://purl.org/dc/elements/1.1/"
   xmlns:cc="http://creativecommons.org/ns#"
   xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <title>Logo</title>
  <Metadata id="m1">
    <rdf:RDF>
      <cc:Work>
        <dc:creator>Jane Doe</dc:creator>
      </cc:Work>
    </rdf:RDF>
  </Metadata>
  <rect width="10" height="10"/>
</svg>
`

func TestCleanSVGDropsMetadataLines(t *testing.T) {
	obs := &core.CountingObserver{}

	out, err := New(core.FmtSVG, obs).Clean([]byte(inkscapeSVG))
	require.NoError(t, err)

	want := strings.Join([]string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"`,
		`  <title>Logo</title>`,
		`      </cc:Work>`,
		`  <rect width="10" height="10"/>`,
		`</svg>`,
	}, "\n")
	assert.Equal(t, want, string(out))
	assert.Len(t, obs.Units, 9)
	assert.Equal(t, "xmlns:dc=", obs.Units[0])
}

func TestCleanSVGNormalisesLineEndings(t *testing.T) {
	in := "<svg>\r\n<dc:title>x</dc:title>\r\n<g/>\r\n</svg>\r\n"

	out, err := New(core.FmtSVG, nil).Clean([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, "<svg>\n<g/>\n</svg>", string(out))
}

func TestCleanSVGIsIdempotent(t *testing.T) {
	h := New(core.FmtSVG, nil)
	once, err := h.Clean([]byte(inkscapeSVG))
	require.NoError(t, err)
	twice, err := h.Clean(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestCleanSVGRejectsNonSVG(t *testing.T) {
	for _, in := range []string{"", "<html></html>", "<SVG></SVG>"} {
		_, err := New(core.FmtSVG, nil).Clean([]byte(in))
		assert.True(t, errors.Is(err, core.ErrInvalidSignature), in)
	}
}

func TestCleanSVGReplacesInvalidUTF8(t *testing.T) {
	out, err := New(core.FmtSVG, nil).Clean([]byte("<svg>\xff</svg>"))
	require.NoError(t, err)
	assert.Equal(t, "<svg>\uFFFD</svg>", string(out))
}

func TestViewSVG(t *testing.T) {
	m, err := New(core.FmtSVG, nil).View([]byte(inkscapeSVG))
	require.NoError(t, err)

	got := fieldMap(m)
	assert.Equal(t, "Logo", got["Title"])
	assert.Equal(t, "10", got["Width"])
	assert.Equal(t, "Jane Doe", got["xmp:creator"])
}

// ─── PDF ─────────────────────────────────────────────────────────────────────

// buildPDF writes a small PDF with a correct cross-reference table.
func buildPDF(info string) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 10 10] >>",
		info,
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func TestCleanPDFPassesThrough(t *testing.T) {
	data := buildPDF("<< /Title (Report) >>")

	out, err := New(core.FmtPDF, nil).Clean(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	out[0] = 'X'
	assert.Equal(t, byte('%'), data[0])
}

func TestCleanPDFRejectsBadHeader(t *testing.T) {
	for _, in := range []string{"", "%PDF", "PDF-1.4", " %PDF-1.4"} {
		_, err := New(core.FmtPDF, nil).Clean([]byte(in))
		assert.True(t, errors.Is(err, core.ErrInvalidSignature), in)
	}
}

func TestViewPDF(t *testing.T) {
	data := buildPDF("<< /Title (Quarterly \\(draft\\)) /Author <FEFF004A0061006E0065> /Producer (Writer) /Custom (x) >>")

	m, err := New(core.FmtPDF, nil).View(data)
	require.NoError(t, err)

	got := fieldMap(m)
	assert.Equal(t, "1.4", got["PDFVersion"])
	assert.Equal(t, "Quarterly (draft)", got["Title"])
	assert.Equal(t, "Jane", got["Author"])
	assert.Equal(t, "Writer", got["Producer"])
}

func TestViewPDFDamagedXrefFallsBack(t *testing.T) {
	data := []byte("%PDF-1.7\n1 0 obj << /Title (Broken) /Author <FEFF004A006F> >> endobj\ntrailer garbage")

	m, err := New(core.FmtPDF, nil).View(data)
	require.NoError(t, err)

	got := fieldMap(m)
	assert.Equal(t, "1.7", got["PDFVersion"])
	assert.Equal(t, "Broken", got["Title"])
	assert.Equal(t, "Jo", got["Author"])
}

func TestViewPDFReadsXMP(t *testing.T) {
	data := append(buildPDF("<< >>"), []byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">`+
		`<rdf:Description xmlns:pdf="http://ns.adobe.com/pdf/1.3/"><pdf:Producer>Ghostscript</pdf:Producer></rdf:Description></rdf:RDF></x:xmpmeta>`)...)

	m, err := New(core.FmtPDF, nil).View(data)
	require.NoError(t, err)
	assert.Equal(t, "Ghostscript", fieldMap(m)["xmp:Producer"])
}

func TestDecodePDFString(t *testing.T) {
	assert.Equal(t, "a(b)\\c", decodePDFString(`a\(b\)\\c`))
	assert.Equal(t, "Jé", decodeTextBytes([]byte{0xFE, 0xFF, 0x00, 0x4A, 0x00, 0xE9}))
	assert.Equal(t, "plain", decodeTextBytes([]byte("plain")))
}

func TestUnsupportedDocumentFormat(t *testing.T) {
	_, err := New(core.FmtJPEG, nil).Clean([]byte("x"))
	assert.True(t, errors.Is(err, core.ErrUnsupportedFormat))
}
