package core

import "github.com/pkg/errors"

var (
	// ErrUnsupportedFormat is returned for hint tokens and MIME types no
	// handler accepts.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNotImplemented marks formats that are recognised but cannot be
	// cleaned yet. Callers must not treat the input as cleaned.
	ErrNotImplemented = errors.New("not implemented")
	// ErrInvalidSignature is returned when the file signature does not
	// match the requested format.
	ErrInvalidSignature = errors.New("bad file signature")
	// ErrTruncated is returned when a mandatory header field is cut off.
	ErrTruncated = errors.New("unexpected end of data")
)

// Invalid wraps ErrInvalidSignature with a description of the expected
// structure, e.g. Invalid("JPEG", "missing SOI marker").
func Invalid(format, detail string) error {
	return errors.Wrapf(ErrInvalidSignature, "invalid %s: %s", format, detail)
}

// Truncated wraps ErrTruncated for a cut-off mandatory field at offset.
func Truncated(format string, offset int) error {
	return errors.Wrapf(ErrTruncated, "truncated %s at offset %d", format, offset)
}
