// Package audio handles metadata for audio formats:
// MP3 (ID3v1/v2), FLAC (Vorbis Comments, pictures) and WAV (LIST INFO, ID3).
package audio

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dhowden/tag"
	"github.com/pkg/errors"

	"github.com/ankit-chaubey/metascrub/core"
)

// Handler implements core.Handler for audio formats.
type Handler struct {
	format core.FormatID
	obs    core.Observer
}

// New returns an audio Handler for the given format.
func New(id core.FormatID, obs core.Observer) *Handler {
	return &Handler{format: id, obs: core.ObserverOrNop(obs)}
}

func (h *Handler) Info() core.FormatInfo {
	return formatInfo[h.format]
}

var formatInfo = map[core.FormatID]core.FormatInfo{
	core.FmtMP3: {
		Name:       "MP3",
		Extensions: []string{".mp3"},
		MediaType:  "audio",
		MIMETypes:  []string{"audio/mpeg"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  true,
		Notes:      "Leading ID3v2 and trailing ID3v1 tags are removed.",
	},
	core.FmtFLAC: {
		Name:       "FLAC",
		Extensions: []string{".flac"},
		MediaType:  "audio",
		MIMETypes:  []string{"audio/flac"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  true,
		Notes:      "Vorbis Comment and PICTURE metadata blocks.",
	},
	core.FmtWAV: {
		Name:       "WAV",
		Extensions: []string{".wav"},
		MediaType:  "audio",
		MIMETypes:  []string{"audio/wav"},
		CanView:    true,
		CanStrip:   true,
		StripsAll:  true,
		Notes:      "LIST INFO and ID3 chunks.",
	},
}

// ──────────────────────────────────────────────────────────────────────────────
// View
// ──────────────────────────────────────────────────────────────────────────────

func (h *Handler) View(data []byte) (*core.Metadata, error) {
	m := &core.Metadata{Format: formatInfo[h.format].Name}

	switch h.format {
	case core.FmtMP3, core.FmtFLAC:
		return viewWithDhowden(data, m)
	case core.FmtWAV:
		return viewWAV(data, m)
	default:
		return m, errors.Wrapf(core.ErrUnsupportedFormat, "audio format %q", h.format)
	}
}

// tagKeysShown are the raw tag names already reported as common fields.
var tagKeysShown = map[string]bool{
	"title": true, "artist": true, "album": true, "albumartist": true,
	"composer": true, "genre": true, "comment": true, "year": true,
	"date": true, "track": true, "tracknumber": true, "disc": true,
	"discnumber": true, "lyrics": true,
}

// viewWithDhowden uses the dhowden/tag library to read audio metadata.
// A file without tags is not an error.
func viewWithDhowden(data []byte, m *core.Metadata) (*core.Metadata, error) {
	t, err := tag.ReadFrom(bytes.NewReader(data))
	if errors.Is(err, tag.ErrNoTagsFound) {
		return m, nil
	}
	if err != nil {
		return m, errors.Wrap(err, "could not read tags")
	}

	cat := string(t.Format())
	if cat == "" {
		cat = "Audio Tags"
	}
	addFromTag(t, m, cat)

	for k, v := range t.Raw() {
		if v == nil || tagKeysShown[strings.ToLower(k)] {
			continue
		}
		var val string
		switch vt := v.(type) {
		case string:
			val = vt
		case []string:
			val = strings.Join(vt, "; ")
		case int:
			val = fmt.Sprintf("%d", vt)
		case *tag.Picture:
			val = fmt.Sprintf("%s, %s", vt.MIMEType, core.HumanSize(int64(len(vt.Data))))
		default:
			b, _ := json.Marshal(v)
			val = string(b)
		}
		if len(val) < 512 {
			m.Add(cat+" (raw)", k, val)
		}
	}
	return m, nil
}

func addFromTag(t tag.Metadata, m *core.Metadata, cat string) {
	m.Add(cat, "Title", t.Title())
	m.Add(cat, "Artist", t.Artist())
	m.Add(cat, "Album", t.Album())
	m.Add(cat, "AlbumArtist", t.AlbumArtist())
	m.Add(cat, "Composer", t.Composer())
	m.Add(cat, "Genre", t.Genre())
	m.Add(cat, "Comment", t.Comment())
	if t.Year() != 0 {
		m.Add(cat, "Year", fmt.Sprintf("%d", t.Year()))
	}
	if track, total := t.Track(); track != 0 {
		m.Add(cat, "TrackNumber", fraction(track, total))
	}
	if disc, total := t.Disc(); disc != 0 {
		m.Add(cat, "DiscNumber", fraction(disc, total))
	}
	m.Add(cat, "Lyrics", t.Lyrics())
	if p := t.Picture(); p != nil {
		m.Add(cat, "Picture", p.MIMEType)
	}
}

func fraction(n, total int) string {
	if total != 0 {
		return fmt.Sprintf("%d/%d", n, total)
	}
	return fmt.Sprintf("%d", n)
}

// ─── WAV ─────────────────────────────────────────────────────────────────────

// WAV INFO field IDs → human names
var infoChunkNames = map[string]string{
	"IARL": "ArchivalLocation",
	"IART": "Artist",
	"ICMS": "Commissioned",
	"ICMT": "Comment",
	"ICOP": "Copyright",
	"ICRD": "DateCreated",
	"ICRP": "Cropped",
	"IDIM": "Dimensions",
	"IDPI": "DotsPerInch",
	"IENG": "Engineer",
	"IGNR": "Genre",
	"IKEY": "Keywords",
	"ILGT": "Lightness",
	"IMED": "Medium",
	"INAM": "Title",
	"IPLT": "NumberOfColors",
	"IPRD": "Product",
	"ISBJ": "Subject",
	"ISFT": "Software",
	"ISHP": "Sharpness",
	"ISRC": "Source",
	"ISRF": "SourceForm",
	"ITCH": "Technician",
}

func validWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func viewWAV(data []byte, m *core.Metadata) (*core.Metadata, error) {
	if !validWAV(data) {
		return m, core.Invalid("WAV", "missing RIFF/WAVE header")
	}

	for _, c := range riffChunks(data) {
		switch c.id {
		case "fmt ":
			if len(c.data) >= 16 {
				channels := binary.LittleEndian.Uint16(c.data[2:4])
				sampleRate := binary.LittleEndian.Uint32(c.data[4:8])
				bitsPerSample := binary.LittleEndian.Uint16(c.data[14:16])
				m.Add("WAV Header", "SampleRate", fmt.Sprintf("%d Hz", sampleRate))
				m.Add("WAV Header", "Channels", fmt.Sprintf("%d", channels))
				m.Add("WAV Header", "BitsPerSample", fmt.Sprintf("%d", bitsPerSample))
			}
		case "LIST":
			if len(c.data) >= 4 && string(c.data[0:4]) == "INFO" {
				parseInfoList(c.data[4:], m)
			}
		case "id3 ", "ID3 ":
			if t, err := tag.ReadFrom(bytes.NewReader(c.data)); err == nil {
				addFromTag(t, m, "WAV ID3")
			}
		}
	}
	return m, nil
}

func parseInfoList(data []byte, m *core.Metadata) {
	pos := 0
	for pos+8 <= len(data) {
		infoID := string(data[pos : pos+4])
		infoSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8
		if infoSize > len(data)-pos {
			break
		}
		name := infoChunkNames[infoID]
		if name == "" {
			name = infoID
		}
		m.Add("WAV INFO", name, strings.TrimRight(string(data[pos:pos+infoSize]), "\x00"))
		pos += infoSize + infoSize%2
	}
}

type riffChunk struct {
	id   string
	data []byte
	raw  []byte // header, payload and pad byte
}

// riffChunks walks the sub-chunks after a 12-byte RIFF header and stops
// at the first chunk that overruns the buffer. Slices alias data.
func riffChunks(data []byte) []riffChunk {
	var chunks []riffChunk
	i := 12
	for i+8 <= len(data) {
		size := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		total := 8 + size + size&1
		if size > len(data)-i-8 {
			break
		}
		end := min(i+total, len(data))
		chunks = append(chunks, riffChunk{
			id:   string(data[i : i+4]),
			data: data[i+8 : i+8+size],
			raw:  data[i:end],
		})
		i = end
	}
	return chunks
}
