package video

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/internal/features/course"
	"github.com/openlearn/courseware-server/internal/features/progress"
	"github.com/openlearn/courseware-server/internal/middleware"
	"github.com/openlearn/courseware-server/internal/services/transcript"
	"github.com/openlearn/courseware-server/internal/features/user"
	"github.com/openlearn/courseware-server/pkg/apperrors"
	"github.com/openlearn/courseware-server/pkg/bunny"
	"github.com/openlearn/courseware-server/pkg/jobs"
	"github.com/openlearn/courseware-server/pkg/request"
	"github.com/openlearn/courseware-server/pkg/response"
	"github.com/openlearn/courseware-server/pkg/validation"
)

const dispatchSaveUserState = "save_user_state"

// CompletionService records completion signals for course units. A nil
// service is a configuration error; a disabled one is an intentional
// feature-off state. Handlers distinguish the two.
type CompletionService interface {
	Enabled() bool
	Publish(ctx context.Context, userID uuid.UUID, courseKey, unitID string, completion float64) error
}

// VideoPlatform mirrors transcript state to the external video service.
type VideoPlatform interface {
	CreateVideo(ctx context.Context, title string) (string, error)
	GetVideo(ctx context.Context, videoID string) (*bunny.VideoMetadata, error)
	UpsertCaption(ctx context.Context, videoID, language, label string, content []byte) error
	DeleteCaption(ctx context.Context, videoID, language string) error
}

// TaskEnqueuer submits background tasks. Satisfied by *jobs.Dispatcher.
type TaskEnqueuer interface {
	Enqueue(task jobs.Task) error
}

// Handler serves the student and studio video endpoints.
type Handler struct {
	db             *gorm.DB
	logger         *slog.Logger
	transcripts    *transcript.Service
	completion     CompletionService
	platform       VideoPlatform
	calculator     *progress.Calculator
	tasks          TaskEnqueuer
	downloadFormat transcript.Format
}

func NewHandler(db *gorm.DB, logger *slog.Logger, transcripts *transcript.Service, completion CompletionService, platform VideoPlatform, calculator *progress.Calculator, tasks TaskEnqueuer, downloadFormat transcript.Format) *Handler {
	return &Handler{
		db:             db,
		logger:         logger,
		transcripts:    transcripts,
		completion:     completion,
		platform:       platform,
		calculator:     calculator,
		tasks:          tasks,
		downloadFormat: downloadFormat,
	}
}

// loadVideo resolves the course and video addressed by the request path.
func (h *Handler) loadVideo(c *gin.Context) (course.Course, Video, bool) {
	crs, err := course.GetByKey(h.db, c.Param("courseKey"))
	if err != nil {
		h.respondError(c, err)
		return course.Course{}, Video{}, false
	}

	videoID, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid video id", nil)
		return course.Course{}, Video{}, false
	}

	vid, err := Get(h.db, crs.CourseKey, videoID)
	if err != nil {
		h.respondError(c, err)
		return course.Course{}, Video{}, false
	}
	return crs, vid, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, course.ErrInvalidCourseKey):
		response.Error(c, http.StatusBadRequest, "invalid course key", nil)
	case errors.Is(err, course.ErrCourseNotFound):
		response.Error(c, http.StatusNotFound, "course not found", nil)
	case errors.Is(err, ErrVideoNotFound):
		response.Error(c, http.StatusNotFound, "video not found", nil)
	case errors.Is(err, transcript.ErrNotFound):
		response.Error(c, http.StatusNotFound, "transcript not found", nil)
	default:
		// Deferred to the error-handler middleware.
		_ = c.Error(apperrors.New("internal server error", http.StatusInternalServerError, apperrors.ErrInternal, err))
		c.Abort()
	}
}

// requestBody flattens a JSON object or form body into a single map so the
// state field table can treat both shapes uniformly.
func requestBody(c *gin.Context) (map[string]any, error) {
	if strings.Contains(c.ContentType(), "application/json") {
		body := map[string]any{}
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, err
		}
		return body, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	body := make(map[string]any, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			body[key] = values[0]
		}
	}
	return body, nil
}

// stateFieldOrder fixes the application order for recognized state fields.
// Partial application on a failing field is only meaningful when the order is
// stable across requests.
var stateFieldOrder = []string{
	"speed",
	"auto_advance",
	"saved_video_position",
	"transcript_language",
	"transcript_download_format",
	"stream_available",
	"preroll_last_view_date",
	"preroll_dismissed",
}

// stateFields maps accepted field names to their parse-and-apply functions.
// Fields absent from this table are ignored without error.
var stateFields = map[string]func(value any, st *State) error{
	"speed": func(value any, st *State) error {
		speed, err := request.ReadFloat(value)
		if err != nil || math.IsNaN(speed) || speed <= 0 {
			return ErrInvalidSpeed
		}
		st.Speed = speed
		return nil
	},
	"auto_advance": func(value any, st *State) error {
		enabled, err := request.ReadBool(value)
		if err != nil {
			return err
		}
		st.AutoAdvance = enabled
		return nil
	},
	"saved_video_position": func(value any, st *State) error {
		raw, err := request.ReadString(value)
		if err != nil {
			return err
		}
		seconds, err := request.ParseRelativeTime(raw)
		if err != nil {
			return err
		}
		st.PositionSeconds = seconds
		return nil
	},
	"transcript_language": func(value any, st *State) error {
		raw, err := request.ReadString(value)
		if err != nil {
			return err
		}
		lang, err := validation.NormalizeLanguageCode(raw)
		if err != nil {
			return err
		}
		st.TranscriptLanguage = lang
		return nil
	},
	"transcript_download_format": func(value any, st *State) error {
		raw, err := request.ReadString(value)
		if err != nil {
			return err
		}
		format, err := transcript.ParseFormat(raw)
		if err != nil {
			return err
		}
		st.DownloadFormat = string(format)
		return nil
	},
	"stream_available": func(value any, st *State) error {
		available, err := request.ReadBool(value)
		if err != nil {
			return err
		}
		st.StreamAvailable = available
		return nil
	},
	// The client-supplied value is untrusted; the view timestamp is always
	// the server's clock.
	"preroll_last_view_date": func(_ any, st *State) error {
		now := time.Now().UTC()
		st.PrerollLastViewed = &now
		return nil
	},
	"preroll_dismissed": func(value any, st *State) error {
		dismissed, err := request.ReadBool(value)
		if err != nil {
			return err
		}
		st.PrerollDismissed = dismissed
		return nil
	},
}

// applyStateFields applies recognized body fields to st in the fixed table
// order and returns the name of the first failing field. Fields after the
// failing one are left untouched; unrecognized names are ignored.
func applyStateFields(body map[string]any, st *State) (string, error) {
	for _, name := range stateFieldOrder {
		value, present := body[name]
		if !present {
			continue
		}
		if err := stateFields[name](value, st); err != nil {
			return name, err
		}
	}
	return "", nil
}

// SaveState handles POST state/:dispatch. Recognized fields are applied in
// the fixed table order; a failing field stops processing but already-applied
// fields keep their new values.
func (h *Handler) SaveState(c *gin.Context) {
	if c.Param("dispatch") != dispatchSaveUserState {
		response.Error(c, http.StatusNotFound, "unknown dispatch", nil)
		return
	}

	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "authentication required", nil)
		return
	}

	_, vid, ok := h.loadVideo(c)
	if !ok {
		return
	}

	body, err := requestBody(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "malformed request body", nil)
		return
	}

	st, err := GetOrCreateState(h.db, usr.ID, vid.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if name, err := applyStateFields(body, &st); err != nil {
		if saveErr := h.db.Save(&st).Error; saveErr != nil {
			h.logger.Error("failed to persist partial video state", "error", saveErr)
		}
		response.Error(c, http.StatusOK, "invalid value for "+name, err.Error())
		return
	}

	if err := h.db.Save(&st).Error; err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"saved": true}, "")
}

// UserState handles GET state.
func (h *Handler) UserState(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "authentication required", nil)
		return
	}

	_, vid, ok := h.loadVideo(c)
	if !ok {
		return
	}

	st, err := GetOrCreateState(h.db, usr.ID, vid.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"speed":                      st.Speed,
		"saved_video_position":       request.FormatRelativeTime(st.PositionSeconds),
		"transcript_language":        st.TranscriptLanguage,
		"transcript_download_format": st.DownloadFormat,
		"auto_advance":               st.AutoAdvance,
		"stream_available":           st.StreamAvailable,
		"preroll_dismissed":          st.PrerollDismissed,
	}, "")
}

// parseCompletion validates the completion value: required, numeric, in the
// closed interval [0, 1].
func parseCompletion(body map[string]any) (float64, error) {
	raw, present := body["completion"]
	if !present {
		return 0, ErrCompletionRequired
	}
	value, err := request.ReadFloat(raw)
	if err != nil || math.IsNaN(value) {
		return 0, ErrCompletionNotNumber
	}
	if value < 0 || value > 1 {
		return 0, ErrCompletionRange
	}
	return value, nil
}

// PublishCompletion handles POST completion. The completion value must be a
// number in [0, 1].
func (h *Handler) PublishCompletion(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "authentication required", nil)
		return
	}

	crs, vid, ok := h.loadVideo(c)
	if !ok {
		return
	}

	h.publishCompletion(c, usr, crs, vid)
}

func (h *Handler) publishCompletion(c *gin.Context, usr user.User, crs course.Course, vid Video) {
	body := map[string]any{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "malformed request body", nil)
		return
	}

	value, err := parseCompletion(body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if h.completion == nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "completion tracking is not configured", ErrTrackingUnavailable)
		return
	}
	if !h.completion.Enabled() {
		response.Error(c, http.StatusNotFound, ErrTrackingDisabled.Error(), nil)
		return
	}

	if err := h.completion.Publish(c.Request.Context(), usr.ID, crs.CourseKey, vid.ID.String(), value); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to publish completion", err)
		return
	}

	if h.calculator != nil && h.tasks != nil {
		if err := h.tasks.Enqueue(h.calculator.NewTask(usr.ID, crs.CourseKey)); err != nil {
			h.logger.Warn("progress recalculation not enqueued", "course_key", crs.CourseKey, "error", err)
		}
	}

	response.Success(c, http.StatusOK, gin.H{"result": "ok"}, "")
}

// Metadata handles GET metadata, proxying the stream record for the video's
// external id.
func (h *Handler) Metadata(c *gin.Context) {
	_, vid, ok := h.loadVideo(c)
	if !ok {
		return
	}

	h.videoMetadata(c, vid)
}

func (h *Handler) videoMetadata(c *gin.Context, vid Video) {
	if vid.ExternalVideoID == "" {
		response.Error(c, http.StatusBadRequest, "video has no external stream id", nil)
		return
	}
	if h.platform == nil {
		response.Error(c, http.StatusNotFound, "video metadata unavailable", nil)
		return
	}

	meta, err := h.platform.GetVideo(c.Request.Context(), vid.ExternalVideoID)
	if err != nil {
		if errors.Is(err, bunny.ErrVideoMissing) {
			response.Error(c, http.StatusNotFound, "video metadata unavailable", nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusBadGateway, "failed to fetch video metadata", err)
		return
	}

	response.Success(c, http.StatusOK, meta, "")
}
