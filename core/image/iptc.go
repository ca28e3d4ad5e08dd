package image

import (
	"bytes"
	"encoding/binary"

	"github.com/ankit-chaubey/metascrub/core"
)

// ─── IPTC ────────────────────────────────────────────────────────────────────

const psIPTCResource = 0x0404

// iptcTag is an IIM record:dataset pair.
type iptcTag struct {
	record, dataset byte
}

type iptcField struct {
	name, category string
}

func envelope(name string) iptcField    { return iptcField{name, "IPTC Envelope"} }
func application(name string) iptcField { return iptcField{name, "IPTC"} }

// Textual IIM datasets, in record:dataset notation. Binary datasets such
// as record versions are left out.
var iptcFields = map[iptcTag]iptcField{
	{1, 5}:  envelope("Destination"),
	{1, 30}: envelope("ServiceIdentifier"),
	{1, 40}: envelope("EnvelopeNumber"),
	{1, 50}: envelope("ProductID"),
	{1, 70}: envelope("DateSent"),
	{1, 80}: envelope("TimeSent"),

	{2, 5}:   application("ObjectName"),
	{2, 15}:  application("Category"),
	{2, 20}:  application("SupplementalCategory"),
	{2, 25}:  application("Keywords"),
	{2, 40}:  application("SpecialInstructions"),
	{2, 55}:  application("DateCreated"),
	{2, 60}:  application("TimeCreated"),
	{2, 62}:  application("DigitalCreationDate"),
	{2, 80}:  application("Byline"),
	{2, 85}:  application("BylineTitle"),
	{2, 90}:  application("City"),
	{2, 92}:  application("Sublocation"),
	{2, 95}:  application("Province"),
	{2, 100}: application("CountryCode"),
	{2, 101}: application("Country"),
	{2, 103}: application("OriginalTransmissionReference"),
	{2, 105}: application("Headline"),
	{2, 110}: application("Credit"),
	{2, 115}: application("Source"),
	{2, 116}: application("CopyrightNotice"),
	{2, 118}: application("Contact"),
	{2, 120}: application("Caption"),
	{2, 122}: application("CaptionWriter"),
}

type psResource struct {
	id   uint16
	data []byte
}

// photoshopResources splits an APP13 image resource section into its
// 8BIM entries. Parsing stops at the first malformed entry.
func photoshopResources(data []byte) []psResource {
	be := binary.BigEndian
	var out []psResource

	i := bytes.Index(data, []byte("8BIM"))
	for i >= 0 && i+12 <= len(data) && bytes.Equal(data[i:i+4], []byte("8BIM")) {
		id := be.Uint16(data[i+4:])
		// Pascal-string name, padded to an even length.
		name := 1 + int(data[i+6])
		name += name % 2
		p := i + 6 + name
		if p+4 > len(data) {
			break
		}
		n := int(be.Uint32(data[p:]))
		p += 4
		if n < 0 || n > len(data)-p {
			break
		}
		out = append(out, psResource{id: id, data: data[p : p+n]})
		i = p + n + n%2
	}
	return out
}

// parseIPTCInto decodes the IPTC-NAA resource of an APP13 payload.
func parseIPTCInto(data []byte, m *core.Metadata) {
	for _, r := range photoshopResources(data) {
		if r.id == psIPTCResource {
			parseIIM(r.data, m)
		}
	}
}

// parseIIM walks IIM datasets: 0x1C, record, dataset, then a 16-bit
// length. A length with the high bit set is an extended dataset whose
// low bits give the size of the real length field.
func parseIIM(data []byte, m *core.Metadata) {
	i := 0
	for i+5 <= len(data) && data[i] == 0x1C {
		tag := iptcTag{record: data[i+1], dataset: data[i+2]}
		n := int(binary.BigEndian.Uint16(data[i+3:]))
		i += 5

		if n&0x8000 != 0 {
			k := n & 0x7FFF
			if k > 4 || k > len(data)-i {
				return
			}
			n = 0
			for _, b := range data[i : i+k] {
				n = n<<8 | int(b)
			}
			i += k
		}
		if n > len(data)-i {
			return
		}

		if f, ok := iptcFields[tag]; ok {
			m.Add(f.category, f.name, string(bytes.TrimRight(data[i:i+n], "\x00")))
		}
		i += n
	}
}
