package video

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadContext(t *testing.T, form url.Values) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/translation", strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c
}

func TestUploadFormFieldsRequiresAllKeys(t *testing.T) {
	complete := url.Values{
		"external_video_id": {"ext-1"},
		"language_code":     {"en"},
		"new_language_code": {"fr"},
	}

	for _, missing := range []string{"external_video_id", "language_code", "new_language_code"} {
		t.Run("missing "+missing, func(t *testing.T) {
			form := url.Values{}
			for key, values := range complete {
				if key != missing {
					form[key] = values
				}
			}

			_, _, _, err := uploadFormFields(newUploadContext(t, form))
			assert.ErrorIs(t, err, ErrMissingUploadFields)
		})
	}
}

func TestUploadFormFieldsAcceptsEmptyValues(t *testing.T) {
	// Keys must be present; external_video_id and language_code may carry
	// empty values for a first-time upload.
	form := url.Values{
		"external_video_id": {""},
		"language_code":     {""},
		"new_language_code": {"fr"},
	}

	externalID, currentLang, newLang, err := uploadFormFields(newUploadContext(t, form))
	require.NoError(t, err)
	assert.Empty(t, externalID)
	assert.Empty(t, currentLang)
	assert.Equal(t, "fr", newLang)
}

func TestUploadFormFieldsRejectsEmptyNewLanguage(t *testing.T) {
	form := url.Values{
		"external_video_id": {"ext-1"},
		"language_code":     {"en"},
		"new_language_code": {""},
	}

	_, _, _, err := uploadFormFields(newUploadContext(t, form))
	assert.ErrorIs(t, err, ErrMissingLanguage)
}

func TestDeleteTranscriptRequestValidate(t *testing.T) {
	assert.NoError(t, deleteTranscriptRequest{Lang: "en", ExternalVideoID: "ext-1"}.validate())
	assert.ErrorIs(t, deleteTranscriptRequest{ExternalVideoID: "ext-1"}.validate(), ErrMissingLanguage)
	assert.ErrorIs(t, deleteTranscriptRequest{Lang: "en"}.validate(), ErrMissingExternalID)
}

func TestIsDuplicateLanguage(t *testing.T) {
	vid := Video{SubsID: "main"}
	require.NoError(t, vid.SetTranscriptMap(map[string]string{"uk": "uk-sub", "de": "de-sub"}))

	// Adding a language that already has a transcript is a duplicate.
	assert.True(t, isDuplicateLanguage(vid, "", "uk", "en"))
	assert.True(t, isDuplicateLanguage(vid, "fr", "de", "en"))

	// Replacing a language with itself is fine.
	assert.False(t, isDuplicateLanguage(vid, "uk", "uk", "en"))

	// The default language counts as taken once a default reference exists.
	assert.True(t, isDuplicateLanguage(vid, "", "en", "en"))
	assert.False(t, isDuplicateLanguage(vid, "en", "en", "en"))
	assert.False(t, isDuplicateLanguage(Video{}, "", "en", "en"))

	// A brand new language is never a duplicate.
	assert.False(t, isDuplicateLanguage(vid, "", "fr", "en"))
}

func TestTranscriptMapHandlesMalformedColumn(t *testing.T) {
	vid := Video{Transcripts: []byte("not json")}
	assert.Empty(t, vid.TranscriptMap())

	vid = Video{}
	assert.Empty(t, vid.TranscriptMap())
}

func TestSpeedVariants(t *testing.T) {
	vid := Video{VariantIDs: []byte(`{"0.75":"v075","1.5":"v150","bogus":"x"}`)}

	variants := vid.SpeedVariants()
	assert.Equal(t, map[float64]string{0.75: "v075", 1.5: "v150"}, variants)
}
