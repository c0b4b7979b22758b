package video

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/courseware-server/internal/features/progress"
	"github.com/openlearn/courseware-server/internal/features/user"
	"github.com/openlearn/courseware-server/internal/middleware"
	"github.com/openlearn/courseware-server/internal/services/analytics"
	"github.com/openlearn/courseware-server/pkg/bunny"
	"github.com/openlearn/courseware-server/pkg/jobs"
	"github.com/openlearn/courseware-server/pkg/types"
)

type publishCall struct {
	userID     uuid.UUID
	courseKey  string
	unitID     string
	completion float64
}

type stubCompletionService struct {
	enabled    bool
	publishErr error
	calls      []publishCall
}

func (s *stubCompletionService) Enabled() bool { return s.enabled }

func (s *stubCompletionService) Publish(_ context.Context, userID uuid.UUID, courseKey, unitID string, completion float64) error {
	s.calls = append(s.calls, publishCall{userID, courseKey, unitID, completion})
	return s.publishErr
}

type stubEnqueuer struct {
	tasks []jobs.Task
	err   error
}

func (s *stubEnqueuer) Enqueue(task jobs.Task) error {
	s.tasks = append(s.tasks, task)
	return s.err
}

type stubSummaries struct{ summary progress.Summary }

func (s stubSummaries) Summary(context.Context, uuid.UUID, string) (progress.Summary, error) {
	return s.summary, nil
}

type stubUsers struct{}

func (stubUsers) Exists(context.Context, uuid.UUID) (bool, error) { return true, nil }

type stubEnrollments struct{}

func (stubEnrollments) Mode(context.Context, uuid.UUID, string) (types.EnrollmentMode, bool, error) {
	return "", false, nil
}

func testCalculator(logger *slog.Logger) *progress.Calculator {
	return progress.NewCalculator(stubSummaries{}, stubUsers{}, stubEnrollments{}, analytics.NopTracker{}, logger)
}

func newCompletionContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder, user.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/completion", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	usr := user.User{}
	usr.ID = uuid.New()
	middleware.SetUserInContext(c, usr)
	return c, w, usr
}

func TestPublishCompletionPublishesAndEnqueues(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := &stubCompletionService{enabled: true}
	queue := &stubEnqueuer{}
	h := &Handler{
		logger:     logger,
		completion: svc,
		calculator: testCalculator(logger),
		tasks:      queue,
	}

	c, w, usr := newCompletionContext(t, `{"completion": 0.5}`)
	crs := testCourse()
	vid := Video{}
	vid.ID = uuid.New()

	h.publishCompletion(c, usr, crs, vid)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"result":"ok"`)

	require.Len(t, svc.calls, 1)
	assert.Equal(t, usr.ID, svc.calls[0].userID)
	assert.Equal(t, crs.CourseKey, svc.calls[0].courseKey)
	assert.Equal(t, vid.ID.String(), svc.calls[0].unitID)
	assert.Equal(t, 0.5, svc.calls[0].completion)

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, "course_progress", queue.tasks[0].Name())
}

func TestPublishCompletionNilServiceIsServerError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Handler{logger: logger}

	c, w, usr := newCompletionContext(t, `{"completion": 0.5}`)
	h.publishCompletion(c, usr, testCourse(), Video{})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPublishCompletionDisabledServiceIsNotFound(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := &stubCompletionService{enabled: false}
	h := &Handler{logger: logger, completion: svc}

	c, w, usr := newCompletionContext(t, `{"completion": 0.5}`)
	h.publishCompletion(c, usr, testCourse(), Video{})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, svc.calls)
}

func TestPublishCompletionRejectsOutOfRangeBeforePublishing(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := &stubCompletionService{enabled: true}
	h := &Handler{logger: logger, completion: svc}

	c, w, usr := newCompletionContext(t, `{"completion": 1.5}`)
	h.publishCompletion(c, usr, testCourse(), Video{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.calls)
}

type stubPlatform struct {
	meta       *bunny.VideoMetadata
	getErr     error
	getCalls   []string
	createErr  error
	createGUID string
}

func (s *stubPlatform) CreateVideo(context.Context, string) (string, error) {
	return s.createGUID, s.createErr
}

func (s *stubPlatform) GetVideo(_ context.Context, videoID string) (*bunny.VideoMetadata, error) {
	s.getCalls = append(s.getCalls, videoID)
	return s.meta, s.getErr
}

func (s *stubPlatform) UpsertCaption(context.Context, string, string, string, []byte) error {
	return nil
}

func (s *stubPlatform) DeleteCaption(context.Context, string, string) error { return nil }

func newMetadataContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metadata", nil)
	return c, w
}

func TestVideoMetadataReturnsStreamRecord(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	platform := &stubPlatform{meta: &bunny.VideoMetadata{GUID: "ext-1", Title: "Intro", Length: 90}}
	h := &Handler{logger: logger, platform: platform}

	c, w := newMetadataContext(t)
	h.videoMetadata(c, Video{ExternalVideoID: "ext-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"guid":"ext-1"`)
	assert.Equal(t, []string{"ext-1"}, platform.getCalls)
}

func TestVideoMetadataWithoutExternalIDIsBadRequest(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	platform := &stubPlatform{}
	h := &Handler{logger: logger, platform: platform}

	c, w := newMetadataContext(t)
	h.videoMetadata(c, Video{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, platform.getCalls)
}

func TestVideoMetadataMissingRecordIsNotFound(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Handler{logger: logger, platform: &stubPlatform{getErr: bunny.ErrVideoMissing}}

	c, w := newMetadataContext(t)
	h.videoMetadata(c, Video{ExternalVideoID: "gone"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVideoMetadataWithoutPlatformIsNotFound(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Handler{logger: logger}

	c, w := newMetadataContext(t)
	h.videoMetadata(c, Video{ExternalVideoID: "ext-1"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
