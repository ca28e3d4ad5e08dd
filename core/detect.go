package core

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// FormatID enumerates every recognised format.
type FormatID string

const (
	FmtJPEG FormatID = "jpeg"
	FmtPNG  FormatID = "png"
	FmtWebP FormatID = "webp"
	FmtGIF  FormatID = "gif"
	FmtTIFF FormatID = "tiff"
	FmtHEIF FormatID = "heif"
	FmtAVIF FormatID = "avif"
	FmtJXL  FormatID = "jxl"
	FmtSVG  FormatID = "svg"
	FmtPDF  FormatID = "pdf"

	// View-only formats. No clean hint maps to them.
	FmtBMP  FormatID = "bmp"
	FmtDOCX FormatID = "docx"
	FmtXLSX FormatID = "xlsx"
	FmtPPTX FormatID = "pptx"
	FmtODF  FormatID = "odf"
	FmtEPUB FormatID = "epub"

	FmtMP3  FormatID = "mp3"
	FmtFLAC FormatID = "flac"
	FmtWAV  FormatID = "wav"

	FmtUnknown FormatID = "unknown"
)

// Formats lists every FormatID a handler exists for, in display order.
var Formats = []FormatID{
	FmtJPEG, FmtPNG, FmtWebP, FmtGIF, FmtTIFF, FmtHEIF, FmtAVIF, FmtJXL, FmtBMP,
	FmtSVG, FmtPDF, FmtDOCX, FmtXLSX, FmtPPTX, FmtODF, FmtEPUB,
	FmtMP3, FmtFLAC, FmtWAV,
}

const octetStream = "application/octet-stream"

// hintMap maps clean() format tokens to format IDs.
var hintMap = map[string]FormatID{
	"jpg":  FmtJPEG,
	"jpeg": FmtJPEG,
	"png":  FmtPNG,
	"webp": FmtWebP,
	"gif":  FmtGIF,
	"tiff": FmtTIFF,
	"tif":  FmtTIFF,
	"heif": FmtHEIF,
	"heic": FmtHEIF,
	"avif": FmtAVIF,
	"jxl":  FmtJXL,
	"pdf":  FmtPDF,
	"svg":  FmtSVG,

	"mp3":  FmtMP3,
	"flac": FmtFLAC,
	"wav":  FmtWAV,
}

// viewOnlyExt names the extensions of formats that can be inspected but
// not cleaned. DetectFormat falls back to it; FormatFromHint does not.
var viewOnlyExt = map[string]FormatID{
	"bmp":  FmtBMP,
	"dib":  FmtBMP,
	"docx": FmtDOCX,
	"docm": FmtDOCX,
	"xlsx": FmtXLSX,
	"xlsm": FmtXLSX,
	"pptx": FmtPPTX,
	"pptm": FmtPPTX,
	"odt":  FmtODF,
	"ods":  FmtODF,
	"odp":  FmtODF,
	"epub": FmtEPUB,
}

// viewOnlyMIME maps the MIME types of view-only formats. They are kept
// off the upload allow-list.
var viewOnlyMIME = map[string]FormatID{
	"image/bmp":   FmtBMP,
	"image/x-bmp": FmtBMP,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   FmtDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         FmtXLSX,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FmtPPTX,

	"application/vnd.oasis.opendocument.text":         FmtODF,
	"application/vnd.oasis.opendocument.spreadsheet":  FmtODF,
	"application/vnd.oasis.opendocument.presentation": FmtODF,

	"application/epub+zip": FmtEPUB,
}

// extMIME is the extension fallback used by DetermineMimeType. It only
// covers formats without a sniffable signature.
var extMIME = []struct {
	ext  string
	mime string
}{
	{".pdf", "application/pdf"},
	{".svg", "image/svg+xml"},
	{".tiff", "image/tiff"},
	{".tif", "image/tiff"},
	{".heif", "image/heif"},
	{".heic", "image/heif"},
	{".avif", "image/avif"},
	{".jxl", "image/jxl"},
}

// supportedMIME is the upload allow-list.
var supportedMIME = map[string]FormatID{
	"image/png":       FmtPNG,
	"image/jpeg":      FmtJPEG,
	"image/gif":       FmtGIF,
	"image/webp":      FmtWebP,
	"application/pdf": FmtPDF,
	"image/svg+xml":   FmtSVG,
	"image/tiff":      FmtTIFF,
	"image/heif":      FmtHEIF,
	"image/avif":      FmtAVIF,
	"image/jxl":       FmtJXL,
}

// sniffable are the signatures trusted over the file name.
var sniffable = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// DetermineMimeType guesses the MIME type of a buffer. A non-empty hint
// always wins, then the content signature, then the file extension.
func DetermineMimeType(name, hint string, data []byte) string {
	if hint != "" {
		return hint
	}
	if mime := sniff(data); mime != "" {
		return mime
	}
	lower := strings.ToLower(name)
	for _, e := range extMIME {
		if strings.HasSuffix(lower, e.ext) {
			return e.mime
		}
	}
	return octetStream
}

func sniff(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	// Subtypes such as APNG report the trusted type as a parent.
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		for _, s := range sniffable {
			if m.Is(s) {
				return s
			}
		}
	}
	return ""
}

// IsSupportedMimeType reports whether mime is on the upload allow-list.
func IsSupportedMimeType(mime string) bool {
	_, ok := supportedMIME[mime]
	return ok
}

// FormatFromHint maps a lowercase extension-like token to a FormatID.
func FormatFromHint(hint string) (FormatID, error) {
	id, ok := hintMap[strings.ToLower(strings.TrimPrefix(hint, "."))]
	if !ok {
		return FmtUnknown, errors.Wrapf(ErrUnsupportedFormat, "%q", hint)
	}
	return id, nil
}

// FormatFromMIME maps a supported MIME type to a FormatID.
func FormatFromMIME(mime string) FormatID {
	if id, ok := supportedMIME[mime]; ok {
		return id
	}
	switch mime {
	case "image/heic":
		return FmtHEIF
	case "audio/mpeg":
		return FmtMP3
	case "audio/flac", "audio/x-flac":
		return FmtFLAC
	case "audio/wav", "audio/x-wav":
		return FmtWAV
	}
	if id, ok := viewOnlyMIME[mime]; ok {
		return id
	}
	return FmtUnknown
}

// DetectFormat returns the FormatID for a named buffer, first by content
// and falling back to the extension. Unlike DetermineMimeType it trusts
// every signature the sniffer knows.
func DetectFormat(name string, data []byte) FormatID {
	if len(data) > 0 {
		m := mimetype.Detect(data)
		for ; m != nil; m = m.Parent() {
			if id := FormatFromMIME(m.String()); id != FmtUnknown {
				return id
			}
		}
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if id, ok := hintMap[ext]; ok {
		return id
	}
	if id, ok := viewOnlyExt[ext]; ok {
		return id
	}
	return FmtUnknown
}

// MIMEFor returns the canonical MIME type of a format.
func MIMEFor(id FormatID) string {
	for mime, f := range supportedMIME {
		if f == id {
			return mime
		}
	}
	switch id {
	case FmtMP3:
		return "audio/mpeg"
	case FmtFLAC:
		return "audio/flac"
	case FmtWAV:
		return "audio/wav"
	case FmtBMP:
		return "image/bmp"
	case FmtDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FmtXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FmtPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case FmtODF:
		return "application/vnd.oasis.opendocument.text"
	case FmtEPUB:
		return "application/epub+zip"
	}
	return octetStream
}

// MediaTypeFor returns the broad media category for a format.
func MediaTypeFor(id FormatID) string {
	switch id {
	case FmtJPEG, FmtPNG, FmtGIF, FmtWebP, FmtTIFF, FmtHEIF, FmtAVIF, FmtJXL, FmtBMP:
		return "image"
	case FmtSVG, FmtPDF, FmtDOCX, FmtXLSX, FmtPPTX, FmtODF, FmtEPUB:
		return "document"
	case FmtMP3, FmtFLAC, FmtWAV:
		return "audio"
	default:
		return "unknown"
	}
}

// IsKnownExtension reports whether the file name carries an extension a
// handler exists for.
func IsKnownExtension(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if _, ok := hintMap[ext]; ok {
		return true
	}
	_, ok := viewOnlyExt[ext]
	return ok
}
