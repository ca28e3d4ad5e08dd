// Package image handles metadata for raster image formats:
// JPEG, PNG, GIF, WebP, TIFF, HEIF/HEIC, AVIF, JPEG XL and BMP.
package image

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/exif"
)

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// Handler implements core.Handler for all image formats.
type Handler struct {
	format core.FormatID
	obs    core.Observer
}

// New returns a Handler for the given format. A nil observer discards
// events.
func New(id core.FormatID, obs core.Observer) *Handler {
	return &Handler{format: id, obs: core.ObserverOrNop(obs)}
}

func (h *Handler) Info() core.FormatInfo {
	return formatInfo[h.format]
}

var formatInfo = map[core.FormatID]core.FormatInfo{
	core.FmtJPEG: {
		Name:       "JPEG",
		Extensions: []string{".jpg", ".jpeg"},
		MediaType:  "image",
		MIMETypes:  []string{"image/jpeg"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  true,
		Notes:      "EXIF, XMP, IPTC, ICC and every other APPn segment are removed.",
	},
	core.FmtPNG: {
		Name:       "PNG",
		Extensions: []string{".png"},
		MediaType:  "image",
		MIMETypes:  []string{"image/png"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  false,
		Notes:      "tEXt, zTXt, iTXt, tIME and colour-profile chunks are removed. eXIf and unknown chunks are kept.",
	},
	core.FmtGIF: {
		Name:       "GIF",
		Extensions: []string{".gif"},
		MediaType:  "image",
		MIMETypes:  []string{"image/gif"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  true,
		Notes:      "Comment and application extensions are removed.",
	},
	core.FmtWebP: {
		Name:       "WebP",
		Extensions: []string{".webp"},
		MediaType:  "image",
		MIMETypes:  []string{"image/webp"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  true,
		Notes:      "EXIF, XMP and ICCP chunks are removed; the RIFF size is rewritten.",
	},
	core.FmtTIFF: {
		Name:       "TIFF",
		Extensions: []string{".tiff", ".tif"},
		MediaType:  "image",
		MIMETypes:  []string{"image/tiff"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  false,
		Notes:      "Identifying tag values are zeroed in place and the GPS directory is emptied. Layout is unchanged.",
	},
	core.FmtHEIF: {
		Name:       "HEIC/HEIF",
		Extensions: []string{".heic", ".heif"},
		MediaType:  "image",
		MIMETypes:  []string{"image/heif", "image/heic"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  false,
		Notes:      "The embedded EXIF block is scrubbed in place. XMP items are left untouched.",
	},
	core.FmtAVIF: {
		Name:       "AVIF",
		Extensions: []string{".avif"},
		MediaType:  "image",
		MIMETypes:  []string{"image/avif"},
		CanView:    true,
		CanStrip:   false,
		Notes:      "View only. Cleaning is not implemented.",
	},
	core.FmtJXL: {
		Name:       "JPEG XL",
		Extensions: []string{".jxl"},
		MediaType:  "image",
		MIMETypes:  []string{"image/jxl"},
		CanView:    true,
		CanStrip:   false,
		Notes:      "View only. Cleaning is not implemented.",
	},
	core.FmtBMP: {
		Name:       "BMP",
		Extensions: []string{".bmp", ".dib"},
		MediaType:  "image",
		MIMETypes:  []string{"image/bmp"},
		CanView:    true,
		CanStrip:   false,
		Notes:      "View only. Header fields and V5 colour-profile links are reported.",
	},
}

// ──────────────────────────────────────────────────────────────────────────────
// View
// ──────────────────────────────────────────────────────────────────────────────

func (h *Handler) View(data []byte) (*core.Metadata, error) {
	m := &core.Metadata{Format: formatInfo[h.format].Name}

	switch h.format {
	case core.FmtJPEG:
		return viewJPEG(data, m)
	case core.FmtPNG:
		return viewPNG(data, m)
	case core.FmtGIF:
		return viewGIF(data, m)
	case core.FmtWebP:
		return viewWebP(data, m)
	case core.FmtTIFF:
		return viewEXIFOnly(data, m)
	case core.FmtHEIF, core.FmtAVIF, core.FmtJXL:
		viewBrand(data, m)
		return viewEXIFOnly(data, m)
	case core.FmtBMP:
		return viewBMP(data, m)
	default:
		return m, errors.Wrapf(core.ErrUnsupportedFormat, "image format %q", h.format)
	}
}

func viewEXIFOnly(data []byte, m *core.Metadata) (*core.Metadata, error) {
	fields, _ := exif.Extract(data)
	m.Fields = append(m.Fields, exif.Fields(fields, "EXIF")...)
	return m, nil
}

// viewBrand records the ISOBMFF major brand.
func viewBrand(data []byte, m *core.Metadata) {
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		m.Add("Container", "Brand", string(bytes.TrimSpace(data[8:12])))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Clean
// ──────────────────────────────────────────────────────────────────────────────

// Clean returns a copy of data with metadata removed. data is never
// modified.
func (h *Handler) Clean(data []byte) ([]byte, error) {
	switch h.format {
	case core.FmtJPEG:
		return cleanJPEG(data, h.obs)
	case core.FmtPNG:
		return cleanPNG(data, h.obs)
	case core.FmtWebP:
		return cleanWebP(data, h.obs)
	case core.FmtGIF:
		return cleanGIF(data, h.obs)
	case core.FmtTIFF:
		return cleanTIFF(bytes.Clone(data), h.obs)
	case core.FmtHEIF:
		return cleanHEIF(bytes.Clone(data), h.obs)
	case core.FmtAVIF:
		return nil, errors.Wrap(core.ErrNotImplemented, "AVIF metadata cleaning")
	case core.FmtJXL:
		return nil, errors.Wrap(core.ErrNotImplemented, "JPEG XL metadata cleaning")
	case core.FmtBMP:
		return nil, errors.Wrap(core.ErrNotImplemented, "BMP metadata cleaning")
	default:
		return nil, errors.Wrapf(core.ErrUnsupportedFormat, "image format %q", h.format)
	}
}
