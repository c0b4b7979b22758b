package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
)

// Format identifies a transcript serialization format.
type Format string

const (
	// FormatSRT is the SubRip file format course authors upload.
	FormatSRT Format = "srt"
	// FormatSJSON is the time-indexed JSON format the player seeks with.
	FormatSJSON Format = "sjson"
	// FormatTXT is a plain-text rendering used for downloads.
	FormatTXT Format = "txt"
)

// MimeType returns the content type served for a format.
func (f Format) MimeType() string {
	switch f {
	case FormatSRT:
		return "application/x-subrip; charset=utf-8"
	case FormatSJSON:
		return "application/json"
	case FormatTXT:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat validates a format name from configuration or a request.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatSRT:
		return FormatSRT, nil
	case FormatSJSON:
		return FormatSJSON, nil
	case FormatTXT:
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("unknown transcript format %q", value)
	}
}

// SJSON is the structured-subtitle document: parallel arrays of start/end
// timestamps in milliseconds and cue text.
type SJSON struct {
	Start []int64  `json:"start"`
	End   []int64  `json:"end"`
	Text  []string `json:"text"`
}

// Scaled returns a copy with all timestamps multiplied by ratio. Used to
// derive transcript variants for non-1.0 playback speeds.
func (s SJSON) Scaled(ratio float64) SJSON {
	out := SJSON{
		Start: make([]int64, len(s.Start)),
		End:   make([]int64, len(s.End)),
		Text:  append([]string(nil), s.Text...),
	}
	for i, v := range s.Start {
		out.Start[i] = int64(float64(v) * ratio)
	}
	for i, v := range s.End {
		out.End[i] = int64(float64(v) * ratio)
	}
	return out
}

// Convert transcodes transcript content between formats. Converting to the
// same format returns the content unchanged. Failures are reported as a
// *GenerationError so handlers can map them to user-facing messages.
func Convert(content []byte, from, to Format) ([]byte, error) {
	if from == to {
		return content, nil
	}

	doc, err := decode(content, from)
	if err != nil {
		return nil, &GenerationError{Format: from, Err: err}
	}

	out, err := encode(doc, to)
	if err != nil {
		return nil, &GenerationError{Format: to, Err: err}
	}
	return out, nil
}

func decode(content []byte, from Format) (SJSON, error) {
	switch from {
	case FormatSRT:
		subs, err := astisub.ReadFromSRT(bytes.NewReader(content))
		if err != nil {
			return SJSON{}, err
		}
		return fromSubtitles(subs), nil
	case FormatSJSON:
		var doc SJSON
		if err := json.Unmarshal(content, &doc); err != nil {
			return SJSON{}, err
		}
		if len(doc.Start) != len(doc.End) || len(doc.Start) != len(doc.Text) {
			return SJSON{}, fmt.Errorf("sjson arrays have mismatched lengths")
		}
		return doc, nil
	default:
		return SJSON{}, fmt.Errorf("cannot decode from %q", from)
	}
}

func encode(doc SJSON, to Format) ([]byte, error) {
	switch to {
	case FormatSJSON:
		return json.Marshal(doc)
	case FormatSRT:
		if len(doc.Text) == 0 {
			return nil, fmt.Errorf("empty transcript")
		}
		var buf bytes.Buffer
		if err := toSubtitles(doc).WriteToSRT(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTXT:
		return []byte(strings.Join(doc.Text, "\n")), nil
	default:
		return nil, fmt.Errorf("cannot encode to %q", to)
	}
}

func fromSubtitles(subs *astisub.Subtitles) SJSON {
	doc := SJSON{
		Start: make([]int64, 0, len(subs.Items)),
		End:   make([]int64, 0, len(subs.Items)),
		Text:  make([]string, 0, len(subs.Items)),
	}

	for _, item := range subs.Items {
		lines := make([]string, 0, len(item.Lines))
		for _, line := range item.Lines {
			lines = append(lines, line.String())
		}
		doc.Start = append(doc.Start, item.StartAt.Milliseconds())
		doc.End = append(doc.End, item.EndAt.Milliseconds())
		doc.Text = append(doc.Text, strings.Join(lines, "\n"))
	}

	return doc
}

func toSubtitles(doc SJSON) *astisub.Subtitles {
	subs := astisub.NewSubtitles()

	for i := range doc.Text {
		item := &astisub.Item{
			StartAt: time.Duration(doc.Start[i]) * time.Millisecond,
			EndAt:   time.Duration(doc.End[i]) * time.Millisecond,
		}
		for _, line := range strings.Split(doc.Text[i], "\n") {
			item.Lines = append(item.Lines, astisub.Line{
				Items: []astisub.LineItem{{Text: line}},
			})
		}
		subs.Items = append(subs.Items, item)
	}

	return subs
}
