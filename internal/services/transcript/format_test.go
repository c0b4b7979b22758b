package transcript

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:00,270 --> 00:00:02,720
Hi, welcome to the course.

2
00:00:02,720 --> 00:00:05,430
Let's get started.
`

func TestConvertSRTToSJSON(t *testing.T) {
	out, err := Convert([]byte(sampleSRT), FormatSRT, FormatSJSON)
	require.NoError(t, err)

	var doc SJSON
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, []int64{270, 2720}, doc.Start)
	assert.Equal(t, []int64{2720, 5430}, doc.End)
	assert.Equal(t, []string{"Hi, welcome to the course.", "Let's get started."}, doc.Text)
}

func TestConvertSJSONToSRTRoundTrip(t *testing.T) {
	sjsonContent, err := Convert([]byte(sampleSRT), FormatSRT, FormatSJSON)
	require.NoError(t, err)

	srtContent, err := Convert(sjsonContent, FormatSJSON, FormatSRT)
	require.NoError(t, err)
	assert.Contains(t, string(srtContent), "Hi, welcome to the course.")
	assert.Contains(t, string(srtContent), "00:00:02,720")

	back, err := Convert(srtContent, FormatSRT, FormatSJSON)
	require.NoError(t, err)
	assert.JSONEq(t, string(sjsonContent), string(back))
}

func TestConvertSJSONToTXT(t *testing.T) {
	doc := SJSON{
		Start: []int64{0, 1000},
		End:   []int64{1000, 2000},
		Text:  []string{"first cue", "second cue"},
	}
	content, err := json.Marshal(doc)
	require.NoError(t, err)

	out, err := Convert(content, FormatSJSON, FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "first cue\nsecond cue", string(out))
}

func TestConvertSameFormatIsIdentity(t *testing.T) {
	out, err := Convert([]byte(sampleSRT), FormatSRT, FormatSRT)
	require.NoError(t, err)
	assert.Equal(t, sampleSRT, string(out))
}

func TestConvertInvalidSRT(t *testing.T) {
	_, err := Convert([]byte("not a subtitle file"), FormatSRT, FormatSJSON)
	require.Error(t, err)

	var genErr *GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestConvertMismatchedSJSON(t *testing.T) {
	content := []byte(`{"start":[0,1],"end":[1],"text":["a"]}`)
	_, err := Convert(content, FormatSJSON, FormatSRT)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched")
}

func TestScaled(t *testing.T) {
	doc := SJSON{
		Start: []int64{1000, 2000},
		End:   []int64{2000, 4000},
		Text:  []string{"a", "b"},
	}

	half := doc.Scaled(0.5)
	assert.Equal(t, []int64{500, 1000}, half.Start)
	assert.Equal(t, []int64{1000, 2000}, half.End)
	assert.Equal(t, doc.Text, half.Text)

	// Original untouched.
	assert.Equal(t, []int64{1000, 2000}, doc.Start)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" SRT ")
	require.NoError(t, err)
	assert.Equal(t, FormatSRT, f)

	_, err = ParseFormat("vtt")
	assert.Error(t, err)
}

func TestSubsFilename(t *testing.T) {
	assert.Equal(t, "subs_abc123.srt.sjson", SubsFilename("abc123", "en", "en"))
	assert.Equal(t, "subs_abc123.srt.sjson", SubsFilename("abc123", "", "en"))
	assert.Equal(t, "uk_subs_abc123.srt.sjson", SubsFilename("abc123", "uk", "en"))
	assert.True(t, strings.HasSuffix(SourceFilename("abc123", "uk"), ".srt"))
}
