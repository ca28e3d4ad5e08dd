package document

import (
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/archive"
)

// ─── XML leaves ──────────────────────────────────────────────────────────────

// xmlLeaf is one element with its attributes and trimmed direct text.
type xmlLeaf struct {
	name string
	attr []xml.Attr
	text string
}

func (l xmlLeaf) attrValue(local string) string {
	for _, a := range l.attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// xmlLeaves walks data and calls fn as each element closes. Namespaces
// are ignored; elements are matched by local name.
func xmlLeaves(data []byte, fn func(xmlLeaf)) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(label string, r io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, err
		}
		return enc.NewDecoder().Reader(r), nil
	}

	type open struct {
		start xml.StartElement
		text  strings.Builder
	}
	var stack []*open
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, &open{start: t.Copy()})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			fn(xmlLeaf{
				name: top.start.Name.Local,
				attr: top.start.Attr,
				text: strings.TrimSpace(top.text.String()),
			})
		}
	}
}

// addLeaves reads part from c and adds every element named in keys.
// A missing part adds nothing.
func addLeaves(c *archive.Container, part, category string, keys map[string]string, m *core.Metadata) error {
	data, err := c.Read(part)
	if errors.Is(err, archive.ErrNoEntry) {
		return nil
	}
	if err != nil {
		return err
	}
	err = xmlLeaves(data, func(l xmlLeaf) {
		if key, ok := keys[l.name]; ok {
			m.Add(category, key, l.text)
		}
	})
	return errors.Wrapf(err, "parse %s", part)
}

func openContainer(format string, data []byte) (*archive.Container, error) {
	c, err := archive.OpenContainer(data)
	if err != nil {
		return nil, core.Invalid(format, "not a ZIP container")
	}
	return c, nil
}

// ─── OOXML ───────────────────────────────────────────────────────────────────

var opcCoreKeys = map[string]string{
	"title":          "Title",
	"subject":        "Subject",
	"creator":        "Author",
	"keywords":       "Keywords",
	"description":    "Description",
	"lastModifiedBy": "LastModifiedBy",
	"revision":       "Revision",
	"created":        "Created",
	"modified":       "Modified",
	"lastPrinted":    "LastPrinted",
	"category":       "Category",
	"contentStatus":  "ContentStatus",
}

var opcAppKeys = map[string]string{
	"Application": "Application",
	"Company":     "Company",
	"AppVersion":  "AppVersion",
	"Manager":     "Manager",
	"Template":    "Template",
	"TotalTime":   "TotalEditTime",
	"Pages":       "Pages",
	"Words":       "Words",
	"Characters":  "Characters",
	"Paragraphs":  "Paragraphs",
	"Slides":      "Slides",
}

// viewOPC reads the core and extended properties of a DOCX, XLSX or PPTX
// package.
func viewOPC(data []byte, m *core.Metadata) (*core.Metadata, error) {
	c, err := openContainer(m.Format, data)
	if err != nil {
		return m, err
	}
	if !c.Has("[Content_Types].xml") {
		return m, core.Invalid(m.Format, "missing [Content_Types].xml")
	}
	if err := addLeaves(c, "docProps/core.xml", "Core Properties", opcCoreKeys, m); err != nil {
		return m, err
	}
	return m, addLeaves(c, "docProps/app.xml", "App Properties", opcAppKeys, m)
}

// ─── ODF ─────────────────────────────────────────────────────────────────────

var odfMetaKeys = map[string]string{
	"title":            "Title",
	"description":      "Description",
	"subject":          "Subject",
	"keyword":          "Keywords",
	"initial-creator":  "Author",
	"creator":          "LastModifiedBy",
	"creation-date":    "Created",
	"date":             "Modified",
	"generator":        "Application",
	"editing-cycles":   "Revision",
	"editing-duration": "TotalEditTime",
	"print-date":       "LastPrinted",
	"printed-by":       "PrintedBy",
	"language":         "Language",
}

var odfStatistics = map[string]string{
	"page-count":      "Pages",
	"word-count":      "Words",
	"character-count": "Characters",
	"paragraph-count": "Paragraphs",
	"table-count":     "Tables",
	"image-count":     "Images",
}

func viewODF(data []byte, m *core.Metadata) (*core.Metadata, error) {
	c, err := openContainer(m.Format, data)
	if err != nil {
		return m, err
	}
	mt, err := c.Read("mimetype")
	if err != nil || !bytes.HasPrefix(mt, []byte("application/vnd.oasis.opendocument.")) {
		return m, core.Invalid(m.Format, "missing OpenDocument mimetype entry")
	}
	m.Add("ODF Metadata", "DocumentType", string(bytes.TrimSpace(mt)))

	meta, err := c.Read("meta.xml")
	if errors.Is(err, archive.ErrNoEntry) {
		return m, nil
	}
	if err != nil {
		return m, err
	}
	err = xmlLeaves(meta, func(l xmlLeaf) {
		switch l.name {
		case "user-defined":
			m.Add("ODF User Fields", l.attrValue("name"), l.text)
		case "template":
			m.Add("ODF Metadata", "Template", l.attrValue("href"))
		case "document-statistic":
			for _, a := range l.attr {
				if key, ok := odfStatistics[a.Name.Local]; ok {
					m.Add("ODF Metadata", key, a.Value)
				}
			}
		default:
			if key, ok := odfMetaKeys[l.name]; ok {
				m.Add("ODF Metadata", key, l.text)
			}
		}
	})
	return m, errors.Wrap(err, "parse meta.xml")
}

// ─── EPUB ────────────────────────────────────────────────────────────────────

var opfKeys = map[string]string{
	"title":       "Title",
	"creator":     "Author",
	"subject":     "Subject",
	"description": "Description",
	"publisher":   "Publisher",
	"contributor": "Contributor",
	"date":        "Date",
	"language":    "Language",
	"rights":      "Rights",
	"identifier":  "Identifier",
}

func viewEPUB(data []byte, m *core.Metadata) (*core.Metadata, error) {
	c, err := openContainer("EPUB", data)
	if err != nil {
		return m, err
	}
	opf, err := opfPath(c)
	if err != nil {
		return m, err
	}
	pkg, err := c.Read(opf)
	if err != nil {
		return m, err
	}

	const cat = "EPUB Metadata"
	m.Add(cat, "PackagePath", opf)
	err = xmlLeaves(pkg, func(l xmlLeaf) {
		if l.name == "meta" {
			if l.attrValue("property") == "dcterms:modified" {
				m.Add(cat, "Modified", l.text)
			}
			return
		}
		if key, ok := opfKeys[l.name]; ok {
			m.Add(cat, key, l.text)
		}
	})
	return m, errors.Wrapf(err, "parse %s", opf)
}

// opfPath finds the package document through META-INF/container.xml,
// falling back to the first .opf entry.
func opfPath(c *archive.Container) (string, error) {
	if data, err := c.Read("META-INF/container.xml"); err == nil {
		var full string
		_ = xmlLeaves(data, func(l xmlLeaf) {
			if full == "" && l.name == "rootfile" {
				full = l.attrValue("full-path")
			}
		})
		if full != "" && c.Has(full) {
			return full, nil
		}
	}
	for _, name := range c.Names() {
		if strings.EqualFold(path.Ext(name), ".opf") {
			return name, nil
		}
	}
	return "", core.Invalid("EPUB", "no OPF package document")
}
