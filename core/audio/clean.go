package audio

import (
	"bytes"
	"encoding/binary"
	"sort"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/pkg/errors"

	"github.com/ankit-chaubey/metascrub/core"
)

// ──────────────────────────────────────────────────────────────────────────────
// Clean
// ──────────────────────────────────────────────────────────────────────────────

func (h *Handler) Clean(data []byte) ([]byte, error) {
	switch h.format {
	case core.FmtMP3:
		return cleanMP3(data, h.obs)
	case core.FmtFLAC:
		return cleanFLAC(data, h.obs)
	case core.FmtWAV:
		return cleanWAV(data, h.obs)
	default:
		return nil, errors.Wrapf(core.ErrUnsupportedFormat, "audio format %q", h.format)
	}
}

// ─── MP3 ─────────────────────────────────────────────────────────────────────

const (
	id3v2HeaderSize = 10
	id3v2FooterFlag = 0x10
	id3v1Size       = 128
)

// cleanMP3 removes every leading ID3v2 tag and a trailing ID3v1 block.
// The MPEG frames in between are copied untouched.
func cleanMP3(data []byte, obs core.Observer) ([]byte, error) {
	body := data
	for bytes.HasPrefix(body, []byte("ID3")) {
		n, err := id3v2TagSize(body)
		if err != nil {
			return nil, err
		}
		reportID3v2Frames(body[:n], obs)
		body = body[n:]
	}

	if len(body) >= id3v1Size && string(body[len(body)-id3v1Size:len(body)-id3v1Size+3]) == "TAG" {
		body = body[:len(body)-id3v1Size]
		obs.SegmentDropped(core.FmtMP3, "ID3v1")
	}

	if len(body) > 0 && !frameSync(body) {
		return nil, core.Invalid("MP3", "no MPEG frame sync after tags")
	}
	if len(body) == 0 && len(data) == 0 {
		return nil, core.Invalid("MP3", "empty input")
	}
	return bytes.Clone(body), nil
}

// id3v2TagSize returns the full length of the ID3v2 tag at the start of b:
// the 10-byte header, the syncsafe body size and an optional footer.
func id3v2TagSize(b []byte) (int, error) {
	if len(b) < id3v2HeaderSize {
		return 0, core.Truncated("MP3", len(b))
	}
	for _, s := range b[6:10] {
		if s&0x80 != 0 {
			return 0, core.Invalid("MP3", "ID3v2 size is not syncsafe")
		}
	}
	size := int(b[6])<<21 | int(b[7])<<14 | int(b[8])<<7 | int(b[9])
	total := id3v2HeaderSize + size
	if b[5]&id3v2FooterFlag != 0 {
		total += id3v2HeaderSize
	}
	if total > len(b) {
		return 0, core.Truncated("MP3", len(b))
	}
	return total, nil
}

func frameSync(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

// reportID3v2Frames emits one event per frame in the tag, in frame ID
// order. Tags the parser rejects are reported as a single unit.
func reportID3v2Frames(raw []byte, obs core.Observer) {
	t, err := id3v2.ParseReader(bytes.NewReader(raw), id3v2.Options{Parse: true})
	if err != nil {
		obs.SegmentDropped(core.FmtMP3, "ID3v2")
		return
	}
	frames := t.AllFrames()
	if len(frames) == 0 {
		obs.SegmentDropped(core.FmtMP3, "ID3v2")
		return
	}
	ids := make([]string, 0, len(frames))
	for id := range frames {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for range frames[id] {
			obs.SegmentDropped(core.FmtMP3, id)
		}
	}
}

// ─── FLAC ────────────────────────────────────────────────────────────────────

const (
	flacVorbisComment = 4
	flacPicture       = 6
)

var flacBlockNames = map[byte]string{
	flacVorbisComment: "VORBIS_COMMENT",
	flacPicture:       "PICTURE",
}

type flacBlock struct {
	blockType byte
	data      []byte
}

// parseFLACBlocks walks the metadata blocks after "fLaC" and returns them
// with the offset of the first audio frame. Block data aliases data.
func parseFLACBlocks(data []byte) ([]flacBlock, int, error) {
	var blocks []flacBlock
	i := 4 // skip "fLaC"
	for {
		if i+4 > len(data) {
			return nil, i, core.Truncated("FLAC", i)
		}
		header := binary.BigEndian.Uint32(data[i : i+4])
		isLast := header>>31 == 1
		blockType := byte((header >> 24) & 0x7F)
		length := int(header & 0xFFFFFF)
		i += 4
		if length > len(data)-i {
			return nil, i, core.Truncated("FLAC", i)
		}
		blocks = append(blocks, flacBlock{blockType: blockType, data: data[i : i+length]})
		i += length
		if isLast {
			return blocks, i, nil
		}
	}
}

// cleanFLAC drops VORBIS_COMMENT and PICTURE blocks and moves the
// last-block flag onto the final kept block.
func cleanFLAC(data []byte, obs core.Observer) ([]byte, error) {
	if len(data) < 4 || string(data[0:4]) != "fLaC" {
		return nil, core.Invalid("FLAC", "missing fLaC signature")
	}
	blocks, audioStart, err := parseFLACBlocks(data)
	if err != nil {
		return nil, err
	}

	kept := blocks[:0:0]
	for _, b := range blocks {
		if name, drop := flacBlockNames[b.blockType]; drop {
			obs.SegmentDropped(core.FmtFLAC, name)
			continue
		}
		kept = append(kept, b)
	}

	out := make([]byte, 0, len(data))
	out = append(out, "fLaC"...)
	for i, b := range kept {
		header := uint32(b.blockType)<<24 | uint32(len(b.data))
		if i == len(kept)-1 {
			header |= 1 << 31
		}
		out = binary.BigEndian.AppendUint32(out, header)
		out = append(out, b.data...)
	}
	return append(out, data[audioStart:]...), nil
}

// ─── WAV ─────────────────────────────────────────────────────────────────────

var wavMetaChunks = map[string]bool{
	"LIST": true,
	"id3 ": true,
	"ID3 ": true,
}

// cleanWAV drops LIST and ID3 chunks and rewrites the RIFF size. Anything
// after the last whole chunk is discarded.
func cleanWAV(data []byte, obs core.Observer) ([]byte, error) {
	if !validWAV(data) {
		return nil, core.Invalid("WAV", "missing RIFF/WAVE header")
	}

	out := make([]byte, 0, len(data))
	out = append(out, data[:12]...)
	for _, c := range riffChunks(data) {
		if wavMetaChunks[c.id] {
			obs.SegmentDropped(core.FmtWAV, strings.TrimSpace(c.id))
			continue
		}
		out = append(out, c.raw...)
	}

	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out, nil
}
