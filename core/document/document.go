// Package document handles metadata for document formats. SVG and PDF
// can be cleaned; the ZIP-based office and e-book formats (OOXML, ODF,
// EPUB) are view only.
package document

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ankit-chaubey/metascrub/core"
)

// Handler implements core.Handler for document formats.
type Handler struct {
	format core.FormatID
	obs    core.Observer
}

// New returns a document Handler for the given format.
func New(id core.FormatID, obs core.Observer) *Handler {
	return &Handler{format: id, obs: core.ObserverOrNop(obs)}
}

func (h *Handler) Info() core.FormatInfo {
	return formatInfo[h.format]
}

var formatInfo = map[core.FormatID]core.FormatInfo{
	core.FmtSVG: {
		Name:       "SVG",
		Extensions: []string{".svg"},
		MediaType:  "document",
		MIMETypes:  []string{"image/svg+xml"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  false,
		Notes:      "Line-based: lines carrying <metadata>, RDF, Dublin Core or Creative Commons markup are removed.",
	},
	core.FmtPDF: {
		Name:       "PDF",
		Extensions: []string{".pdf"},
		MediaType:  "document",
		MIMETypes:  []string{"application/pdf"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  false,
		Notes:      "Header is validated but the file is returned unchanged. The Info dictionary and XMP stream are kept.",
	},
	core.FmtDOCX: {
		Name:       "DOCX",
		Extensions: []string{".docx", ".docm"},
		MediaType:  "document",
		MIMETypes:  []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		CanView:    true,
		Notes:      "View only. Reads docProps/core.xml and docProps/app.xml.",
	},
	core.FmtXLSX: {
		Name:       "XLSX",
		Extensions: []string{".xlsx", ".xlsm"},
		MediaType:  "document",
		MIMETypes:  []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		CanView:    true,
		Notes:      "View only. Reads docProps/core.xml and docProps/app.xml.",
	},
	core.FmtPPTX: {
		Name:       "PPTX",
		Extensions: []string{".pptx", ".pptm"},
		MediaType:  "document",
		MIMETypes:  []string{"application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		CanView:    true,
		Notes:      "View only. Reads docProps/core.xml and docProps/app.xml.",
	},
	core.FmtODF: {
		Name:       "ODT/ODS/ODP",
		Extensions: []string{".odt", ".ods", ".odp"},
		MediaType:  "document",
		MIMETypes: []string{
			"application/vnd.oasis.opendocument.text",
			"application/vnd.oasis.opendocument.spreadsheet",
			"application/vnd.oasis.opendocument.presentation",
		},
		CanView: true,
		Notes:   "View only. Reads meta.xml, including user-defined fields and document statistics.",
	},
	core.FmtEPUB: {
		Name:       "EPUB",
		Extensions: []string{".epub"},
		MediaType:  "document",
		MIMETypes:  []string{"application/epub+zip"},
		CanView:    true,
		Notes:      "View only. Reads Dublin Core fields from the OPF package document.",
	},
}

// ──────────────────────────────────────────────────────────────────────────────
// View
// ──────────────────────────────────────────────────────────────────────────────

func (h *Handler) View(data []byte) (*core.Metadata, error) {
	m := &core.Metadata{Format: formatInfo[h.format].Name}

	switch h.format {
	case core.FmtSVG:
		return viewSVG(data, m)
	case core.FmtPDF:
		return viewPDF(data, m)
	case core.FmtDOCX, core.FmtXLSX, core.FmtPPTX:
		return viewOPC(data, m)
	case core.FmtODF:
		return viewODF(data, m)
	case core.FmtEPUB:
		return viewEPUB(data, m)
	default:
		return m, errors.Wrapf(core.ErrUnsupportedFormat, "document format %q", h.format)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Clean
// ──────────────────────────────────────────────────────────────────────────────

func (h *Handler) Clean(data []byte) ([]byte, error) {
	switch h.format {
	case core.FmtSVG:
		return cleanSVG(data, h.obs)
	case core.FmtPDF:
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			return nil, core.Invalid("PDF", "missing %PDF- header")
		}
		return bytes.Clone(data), nil
	case core.FmtDOCX, core.FmtXLSX, core.FmtPPTX, core.FmtODF, core.FmtEPUB:
		return nil, errors.Wrapf(core.ErrNotImplemented, "%s metadata cleaning", formatInfo[h.format].Name)
	default:
		return nil, errors.Wrapf(core.ErrUnsupportedFormat, "document format %q", h.format)
	}
}
