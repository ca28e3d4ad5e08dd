// Package engine exposes the clean, extract, inspect and batch entry
// points on top of the per-family handlers.
package engine

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/audio"
	"github.com/ankit-chaubey/metascrub/core/document"
	"github.com/ankit-chaubey/metascrub/core/exif"
	"github.com/ankit-chaubey/metascrub/core/image"
	"github.com/ankit-chaubey/metascrub/core/platform"
)

// Options configures a Cleaner. The zero value is usable.
type Options struct {
	// Observer receives one event per dropped metadata unit.
	Observer core.Observer
	// Platform supplies hashing and data-URL encoding. Defaults to
	// platform.Native.
	Platform platform.Capabilities
	// Precision is applied to GPS positions in Inspect reports. The zero
	// value is region level; use core.PrecisionExact to keep full
	// precision.
	Precision core.Precision
}

// Cleaner runs the handlers with a fixed observer and platform.
type Cleaner struct {
	obs       core.Observer
	plat      platform.Capabilities
	precision core.Precision
}

// New builds a Cleaner from opts.
func New(opts Options) *Cleaner {
	return &Cleaner{
		obs:       core.ObserverOrNop(opts.Observer),
		plat:      platform.OrNative(opts.Platform),
		precision: opts.Precision,
	}
}

var defaultCleaner = New(Options{Precision: core.PrecisionExact})

// Clean strips metadata from data. hint is a lowercase extension-like
// token such as "jpg" or "png".
func Clean(data []byte, hint string) ([]byte, error) {
	res, err := defaultCleaner.Clean(data, hint)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Extract decodes the embedded EXIF block of data. It never fails.
func Extract(data []byte) (core.MetadataMap, *core.GPSCoordinate) {
	return exif.Extract(data)
}

// HandlerFor returns the handler for a format.
func HandlerFor(id core.FormatID, obs core.Observer) (core.Handler, error) {
	switch id {
	case core.FmtJPEG, core.FmtPNG, core.FmtWebP, core.FmtGIF,
		core.FmtTIFF, core.FmtHEIF, core.FmtAVIF, core.FmtJXL, core.FmtBMP:
		return image.New(id, obs), nil
	case core.FmtSVG, core.FmtPDF, core.FmtDOCX, core.FmtXLSX,
		core.FmtPPTX, core.FmtODF, core.FmtEPUB:
		return document.New(id, obs), nil
	case core.FmtMP3, core.FmtFLAC, core.FmtWAV:
		return audio.New(id, obs), nil
	default:
		return nil, errors.Wrapf(core.ErrUnsupportedFormat, "%q", id)
	}
}

// Capabilities returns the FormatInfo of every known format, in
// core.Formats order.
func Capabilities() []core.FormatInfo {
	out := make([]core.FormatInfo, 0, len(core.Formats))
	for _, id := range core.Formats {
		h, err := HandlerFor(id, nil)
		if err != nil {
			continue
		}
		out = append(out, h.Info())
	}
	return out
}

// ─── Clean ───────────────────────────────────────────────────────────────────

// Result is the outcome of a successful Clean.
type Result struct {
	Format core.FormatID
	Data   []byte
	// Dropped lists the metadata units removed, in stream order.
	Dropped []string
	// Complete is false when the format keeps some metadata after
	// cleaning. Note then says what is left.
	Complete bool
	Note     string
}

// Clean strips metadata from data, reporting every dropped unit to the
// Cleaner's observer.
func (c *Cleaner) Clean(data []byte, hint string) (*Result, error) {
	id, err := core.FormatFromHint(hint)
	if err != nil {
		return nil, err
	}
	counter := &core.CountingObserver{Next: c.obs}
	h, err := HandlerFor(id, counter)
	if err != nil {
		return nil, err
	}

	out, err := h.Clean(data)
	if err != nil {
		return nil, err
	}

	info := h.Info()
	res := &Result{
		Format:   id,
		Data:     out,
		Dropped:  counter.Units,
		Complete: info.StripsAll,
	}
	if !res.Complete {
		res.Note = info.Notes
	}
	return res, nil
}

// ─── Inspect ─────────────────────────────────────────────────────────────────

// dimensionKeys mark a map that knows the pixel size.
var dimensionKeys = []string{
	"PixelXDimension", "PixelYDimension", "ImageWidth", "ImageLength", "Dimensions",
}

// Inspect builds a full report for a named buffer. mime may be empty, in
// which case it is derived from the content and name.
func (c *Cleaner) Inspect(name, mime string, data []byte) (*core.Report, error) {
	mime = core.DetermineMimeType(name, mime, data)
	id := core.FormatFromMIME(mime)
	if id == core.FmtUnknown {
		id = core.DetectFormat(name, data)
	}
	if id == core.FmtUnknown {
		return nil, errors.Wrapf(core.ErrUnsupportedFormat, "%s (%s)", name, mime)
	}
	if mime == "application/octet-stream" {
		mime = core.MIMEFor(id)
	}

	meta, gps := Extract(data)
	r := &core.Report{
		Name:      name,
		Size:      len(data),
		HumanSize: core.HumanSize(int64(len(data))),
		MIME:      mime,
		Format:    id,
		SHA256:    c.plat.Hash(data),
		Metadata:  meta,
		GPS:       gps,
	}

	h, _ := HandlerFor(id, nil)
	if view, err := h.View(data); err == nil {
		r.View = view
		for _, f := range view.Fields {
			if _, ok := meta[f.Key]; !ok {
				meta[f.Key] = f.Value
			}
		}
	}

	if gps != nil && c.precision != core.PrecisionExact {
		fuzzed := core.Fuzz(*gps, c.precision)
		r.FuzzedGPS = &fuzzed
		r.Precision = c.precision.Description()
	}
	r.Risk = core.AssessRisk(meta, gps, hasDimensions(meta))
	return r, nil
}

func hasDimensions(m core.MetadataMap) bool {
	for _, k := range dimensionKeys {
		if m[k] != "" {
			return true
		}
	}
	return false
}

// ─── Batch ───────────────────────────────────────────────────────────────────

// Item is one input of a batch.
type Item struct {
	Name string
	// Hint overrides the format derived from Name and Data.
	Hint string
	Data []byte
}

// BatchResult is the outcome for one Item.
type BatchResult struct {
	Name   string
	SHA256 string
	// DuplicateOf names the first earlier item with identical bytes.
	DuplicateOf string
	Result      *Result
	Err         error
}

// Batch cleans items one after another. A failing item does not stop the
// batch. progress, if set, is called after each item.
func (c *Cleaner) Batch(items []Item, progress func(done, total int)) []BatchResult {
	results := make([]BatchResult, 0, len(items))
	seen := make(map[string]string, len(items))

	for i, it := range items {
		br := BatchResult{Name: it.Name, SHA256: c.plat.Hash(it.Data)}
		if first, ok := seen[br.SHA256]; ok {
			br.DuplicateOf = first
		} else {
			seen[br.SHA256] = it.Name
		}

		hint := it.Hint
		if hint == "" {
			hint = string(core.DetectFormat(it.Name, it.Data))
		}
		br.Result, br.Err = c.Clean(it.Data, hint)
		if br.Err != nil {
			br.Err = errors.Wrap(br.Err, it.Name)
		}

		results = append(results, br)
		if progress != nil {
			progress(i+1, len(items))
		}
	}
	return results
}

// Duplicates groups the names of byte-identical items by hash. Only
// groups with more than one member are returned.
func Duplicates(results []BatchResult) map[string][]string {
	groups := map[string][]string{}
	for _, r := range results {
		groups[r.SHA256] = append(groups[r.SHA256], r.Name)
	}
	for h, names := range groups {
		if len(names) < 2 {
			delete(groups, h)
		}
	}
	return groups
}

// CleanName returns the conventional output name for a cleaned file.
func CleanName(name, suffix string) string {
	if suffix == "" {
		suffix = "_clean"
	}
	return core.ResolveOutPath(strings.TrimSpace(name), "", suffix)
}
