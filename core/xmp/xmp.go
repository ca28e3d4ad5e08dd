// Package xmp reads Adobe XMP packets embedded in images and documents.
package xmp

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/ankit-chaubey/metascrub/core"
)

// ParseInto adds every non-empty element text and attribute of an XMP
// packet to m as an "xmp:" field under category. Text inside rdf:li
// items is reported under the enclosing property.
func ParseInto(data []byte, m *core.Metadata, category string) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var stack []string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			for _, attr := range t.Attr {
				if skipAttr[attr.Name.Local] || attr.Name.Space == "xmlns" {
					continue
				}
				m.Add(category, "xmp:"+attr.Name.Local, strings.TrimSpace(attr.Value))
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if key := property(stack); key != "" {
				m.Add(category, "xmp:"+key, strings.TrimSpace(string(t)))
			}
		}
	}
}

var skipAttr = map[string]bool{"xmlns": true, "about": true, "lang": true}

var containers = map[string]bool{
	"xmpmeta": true, "RDF": true, "Description": true,
	"Seq": true, "Bag": true, "Alt": true, "li": true,
}

func property(stack []string) string {
	for i := len(stack) - 1; i >= 0; i-- {
		if !containers[stack[i]] {
			return stack[i]
		}
	}
	return ""
}

// Find returns the first XMP packet in data, from "<?xpacket begin=" (or
// a bare "<x:xmpmeta") through its closing marker, or nil.
func Find(data []byte) []byte {
	start := bytes.Index(data, []byte("<?xpacket begin="))
	if start < 0 {
		start = bytes.Index(data, []byte("<x:xmpmeta"))
	}
	if start < 0 {
		return nil
	}
	end := bytes.Index(data[start:], []byte("<?xpacket end="))
	if end < 0 {
		end = bytes.Index(data[start:], []byte("</x:xmpmeta>"))
		if end < 0 {
			return nil
		}
		end += len("</x:xmpmeta>")
	} else {
		end += len("<?xpacket end=")
		if c := bytes.IndexByte(data[start+end:], '>'); c >= 0 {
			end += c + 1
		}
	}
	return data[start : start+end]
}
