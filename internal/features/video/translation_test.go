package video

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/courseware-server/internal/features/course"
	"github.com/openlearn/courseware-server/internal/services/transcript"
)

const testSRT = `1
00:00:01,000 --> 00:00:02,000
Hello there.
`

func newTranslationHandler(t *testing.T) (*Handler, *transcript.MemoryStore) {
	t.Helper()
	store := transcript.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := transcript.NewService(store, logger, "en", []float64{0.75, 1.0, 1.25, 1.5})
	return &Handler{logger: logger, transcripts: svc}, store
}

func testCourse() course.Course {
	return course.Course{
		CourseKey:       "course-v1:OpenLearn+CS101+2026",
		DefaultLanguage: "en",
		StaticAssetPath: "assets/CS101",
	}
}

func putSJSON(t *testing.T, store *transcript.MemoryStore, ns, filename string) {
	t.Helper()
	content, err := transcript.Convert([]byte(testSRT), transcript.FormatSRT, transcript.FormatSJSON)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), ns, filename, content))
}

func TestResolveTranslationExternalDefaultLanguage(t *testing.T) {
	h, store := newTranslationHandler(t)
	crs := testCourse()
	vid := Video{ExternalVideoID: "ext-1", SubsID: "sub1"}

	putSJSON(t, store, crs.CourseKey, transcript.SubsFilename("sub1", "en", "en"))

	content, filename, err := h.resolveTranslation(context.Background(), crs, vid, "en")
	require.NoError(t, err)
	assert.Equal(t, "subs_sub1.srt.sjson", filename)

	var doc transcript.SJSON
	require.NoError(t, json.Unmarshal(content, &doc))
	assert.Equal(t, []string{"Hello there."}, doc.Text)
}

func TestResolveTranslationExternalDefaultMissingAsset(t *testing.T) {
	h, _ := newTranslationHandler(t)
	vid := Video{ExternalVideoID: "ext-1", SubsID: "sub1"}

	// Stored asset is served verbatim for the default language; a miss is
	// not regenerated here.
	_, _, err := h.resolveTranslation(context.Background(), testCourse(), vid, "en")
	assert.ErrorIs(t, err, transcript.ErrNotFound)
}

func TestResolveTranslationExternalOtherLanguageGenerates(t *testing.T) {
	h, store := newTranslationHandler(t)
	crs := testCourse()
	ctx := context.Background()

	vid := Video{ExternalVideoID: "ext-1", SubsID: "sub1"}
	require.NoError(t, vid.SetTranscriptMap(map[string]string{"uk": "uk-sub"}))

	// Only the SRT source exists; resolution must generate, then retry.
	require.NoError(t, store.Put(ctx, crs.CourseKey, transcript.SourceFilename("uk-sub", "uk"), []byte(testSRT)))

	content, filename, err := h.resolveTranslation(ctx, crs, vid, "uk")
	require.NoError(t, err)
	assert.Equal(t, "uk_subs_uk-sub.srt.sjson", filename)
	assert.NotEmpty(t, content)
}

func TestResolveTranslationExternalUnknownLanguage(t *testing.T) {
	h, _ := newTranslationHandler(t)
	vid := Video{ExternalVideoID: "ext-1"}

	_, _, err := h.resolveTranslation(context.Background(), testCourse(), vid, "fr")
	assert.ErrorIs(t, err, transcript.ErrNotFound)
}

func TestResolveTranslationNoExternalDefaultSynthesizes(t *testing.T) {
	h, store := newTranslationHandler(t)
	crs := testCourse()
	ctx := context.Background()

	vid := Video{SubsID: "sub1"}
	require.NoError(t, store.Put(ctx, crs.CourseKey, transcript.SourceFilename("sub1", "en"), []byte(testSRT)))

	_, filename, err := h.resolveTranslation(ctx, crs, vid, "en")
	require.NoError(t, err)
	assert.Equal(t, "subs_sub1.srt.sjson", filename)
}

func TestResolveTranslationNoExternalNoSub(t *testing.T) {
	h, _ := newTranslationHandler(t)

	_, _, err := h.resolveTranslation(context.Background(), testCourse(), Video{}, "en")
	assert.ErrorIs(t, err, transcript.ErrNotFound)
}

func TestResolveTranslationNoExternalOtherLanguage(t *testing.T) {
	h, store := newTranslationHandler(t)
	crs := testCourse()
	ctx := context.Background()

	vid := Video{}
	require.NoError(t, vid.SetTranscriptMap(map[string]string{"uk": "uk-sub"}))
	require.NoError(t, store.Put(ctx, crs.CourseKey, transcript.SourceFilename("uk-sub", "uk"), []byte(testSRT)))

	_, _, err := h.resolveTranslation(ctx, crs, vid, "uk")
	assert.NoError(t, err)
}

func newFallbackContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/transcript/translation/en", nil)
	return c, w
}

func TestStaticFallbackRedirects(t *testing.T) {
	h, _ := newTranslationHandler(t)
	c, w := newFallbackContext(t)

	h.staticFallback(c, testCourse(), Video{SubsID: "sub1"}, "en")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/static/assets/CS101/subs_sub1.srt.sjson", w.Header().Get("Location"))
}

func TestStaticFallbackNotFoundCases(t *testing.T) {
	h, _ := newTranslationHandler(t)

	libraryCourse := testCourse()
	libraryCourse.Library = true

	noAssets := testCourse()
	noAssets.StaticAssetPath = ""

	tests := []struct {
		name     string
		crs      course.Course
		vid      Video
		language string
	}{
		{"library context", libraryCourse, Video{SubsID: "sub1"}, "en"},
		{"non-default language", testCourse(), Video{SubsID: "sub1"}, "uk"},
		{"no asset directory", noAssets, Video{SubsID: "sub1"}, "en"},
		{"no default reference", testCourse(), Video{}, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newFallbackContext(t)
			h.staticFallback(c, tt.crs, tt.vid, tt.language)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestTranscriptUnknownDispatchIsNotFound(t *testing.T) {
	h, _ := newTranslationHandler(t)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/transcript/bogus", nil)
	c.Params = gin.Params{{Key: "dispatch", Value: "/bogus"}}

	// An unrecognized dispatch is rejected before any course or video lookup.
	h.Transcript(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "unknown dispatch")
}

func TestSaveStateUnknownDispatchIsNotFound(t *testing.T) {
	h := &Handler{}

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/state/bogus", nil)
	c.Params = gin.Params{{Key: "dispatch", Value: "bogus"}}

	h.SaveState(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadUsesConfiguredDefaultFormat(t *testing.T) {
	h, store := newTranslationHandler(t)
	h.downloadFormat = transcript.FormatTXT
	crs := testCourse()
	ctx := context.Background()

	vid := Video{SubsID: "sub1"}
	require.NoError(t, store.Put(ctx, crs.CourseKey, transcript.SourceFilename("sub1", "en"), []byte(testSRT)))

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/transcript/download", nil)

	h.download(c, crs, vid)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "en_sub1.txt")
	assert.Equal(t, "Hello there.", strings.TrimSpace(w.Body.String()))
}

func TestSubsIDFor(t *testing.T) {
	vid := Video{SubsID: "main"}
	require.NoError(t, vid.SetTranscriptMap(map[string]string{"uk": "uk-sub"}))

	id, ok := subsIDFor(vid, "en", "en")
	assert.True(t, ok)
	assert.Equal(t, "main", id)

	id, ok = subsIDFor(vid, "uk", "en")
	assert.True(t, ok)
	assert.Equal(t, "uk-sub", id)

	_, ok = subsIDFor(vid, "fr", "en")
	assert.False(t, ok)
}
