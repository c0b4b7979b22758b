package video

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlearn/courseware-server/internal/services/transcript"
	"github.com/openlearn/courseware-server/pkg/response"
	"github.com/openlearn/courseware-server/pkg/validation"
)

// maxTranscriptSize caps uploaded SRT files at 5 MB.
const maxTranscriptSize = 5 << 20

// uploadFormFields extracts the studio upload form fields. The authoring
// client always sends all three keys; a form missing any of them is rejected
// before the video row is inspected further.
func uploadFormFields(c *gin.Context) (externalID, currentLang, newLang string, err error) {
	externalID, hasExternal := c.GetPostForm("external_video_id")
	currentLang, hasCurrent := c.GetPostForm("language_code")
	newLang, hasNew := c.GetPostForm("new_language_code")
	if !hasExternal || !hasCurrent || !hasNew {
		return "", "", "", ErrMissingUploadFields
	}
	if newLang == "" {
		return "", "", "", ErrMissingLanguage
	}
	return externalID, currentLang, newLang, nil
}

// isDuplicateLanguage reports whether newLang already has a transcript other
// than the one being replaced.
func isDuplicateLanguage(vid Video, currentLang, newLang, defaultLang string) bool {
	if newLang == currentLang {
		return false
	}
	if _, exists := vid.TranscriptMap()[newLang]; exists {
		return true
	}
	return newLang == defaultLang && vid.SubsID != ""
}

// UploadTranscript handles the studio POST translation endpoint. The
// transcript map and default reference are updated only after conversion and
// storage succeed, so a failed upload leaves no partial state.
func (h *Handler) UploadTranscript(c *gin.Context) {
	crs, vid, ok := h.loadVideo(c)
	if !ok {
		return
	}

	externalID, currentLang, newLangRaw, err := uploadFormFields(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	newLang, err := validation.NormalizeLanguageCode(newLangRaw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	// Duplicate languages are rejected before any storage or platform call.
	transcripts := vid.TranscriptMap()
	defaultLang := h.defaultLanguage(crs)
	if isDuplicateLanguage(vid, currentLang, newLang, defaultLang) {
		response.Error(c, http.StatusBadRequest, ErrDuplicateLanguage.Error(), nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, ErrMissingFile.Error(), nil)
		return
	}
	if fileHeader.Size > maxTranscriptSize {
		response.Error(c, http.StatusBadRequest, "transcript file is too large", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to read upload", err)
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to read upload", err)
		return
	}

	subsID := transcripts[currentLang]
	if subsID == "" && currentLang == defaultLang {
		subsID = vid.SubsID
	}
	if subsID == "" {
		subsID = uuid.NewString()
	}

	ctx := c.Request.Context()
	if crs.Library {
		err = h.transcripts.UploadSource(ctx, crs.CourseKey, subsID, newLang, content)
	} else {
		err = h.transcripts.Upload(ctx, crs.CourseKey, subsID, newLang, content, vid.SpeedVariants())
	}
	if err != nil {
		var genErr *transcript.GenerationError
		if errors.As(err, &genErr) {
			response.Error(c, http.StatusBadRequest, "could not decode the transcript file", genErr.Error())
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to store transcript", err)
		return
	}

	// A client-supplied external id takes precedence over minting a new one.
	if vid.ExternalVideoID == "" && externalID != "" {
		vid.ExternalVideoID = externalID
	}

	if !crs.Library && newLang == defaultLang {
		if vid.ExternalVideoID == "" && h.platform != nil {
			externalID, err := h.platform.CreateVideo(ctx, vid.DisplayName)
			if err != nil {
				h.logger.Warn("external video creation failed", "video_id", vid.ID, "error", err)
			} else {
				vid.ExternalVideoID = externalID
			}
		}
		vid.SubsID = subsID
	}
	if !crs.Library && vid.ExternalVideoID != "" && h.platform != nil {
		if err := h.platform.UpsertCaption(ctx, vid.ExternalVideoID, newLang, newLang, content); err != nil {
			h.logger.Warn("caption sync failed", "video_id", vid.ID, "language", newLang, "error", err)
		}
	}

	if currentLang != "" && currentLang != newLang {
		delete(transcripts, currentLang)
	}
	transcripts[newLang] = subsID
	if err := vid.SetTranscriptMap(transcripts); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to update transcripts", err)
		return
	}
	if err := h.db.Save(&vid).Error; err != nil {
		h.respondError(c, err)
		return
	}

	response.Created(c, gin.H{
		"language_code": newLang,
		"filename":      transcript.SourceFilename(subsID, newLang),
	}, "transcript uploaded")
}

type deleteTranscriptRequest struct {
	Lang            string `json:"lang"`
	ExternalVideoID string `json:"external_video_id"`
}

// validate enforces the delete body contract: both fields are required, for
// library and regular courses alike.
func (r deleteTranscriptRequest) validate() error {
	if r.Lang == "" {
		return ErrMissingLanguage
	}
	if r.ExternalVideoID == "" {
		return ErrMissingExternalID
	}
	return nil
}

// DeleteTranscript handles the studio DELETE translation endpoint.
func (h *Handler) DeleteTranscript(c *gin.Context) {
	crs, vid, ok := h.loadVideo(c)
	if !ok {
		return
	}

	var req deleteTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "malformed request body", nil)
		return
	}
	if err := req.validate(); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	defaultLang := h.defaultLanguage(crs)
	subsID, found := subsIDFor(vid, req.Lang, defaultLang)
	if !found {
		response.Error(c, http.StatusNotFound, "transcript not found", nil)
		return
	}

	ctx := c.Request.Context()
	if err := h.transcripts.Delete(ctx, crs.CourseKey, subsID, req.Lang, vid.SpeedVariants()); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete transcript", err)
		return
	}
	if !crs.Library && h.platform != nil && vid.ExternalVideoID != "" {
		if err := h.platform.DeleteCaption(ctx, vid.ExternalVideoID, req.Lang); err != nil {
			h.logger.Warn("caption removal failed", "video_id", vid.ID, "language", req.Lang, "error", err)
		}
	}

	transcripts := vid.TranscriptMap()
	delete(transcripts, req.Lang)

	if req.Lang == defaultLang {
		// Removing the default language clears the primary reference and
		// every legacy source-id variant.
		for _, sourceID := range vid.SourceIDs {
			if sourceID == "" {
				continue
			}
			if err := h.transcripts.Delete(ctx, crs.CourseKey, sourceID, req.Lang, nil); err != nil {
				h.logger.Warn("source variant cleanup failed", "source_id", sourceID, "error", err)
			}
		}
		vid.SubsID = ""
	}

	if err := vid.SetTranscriptMap(transcripts); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to update transcripts", err)
		return
	}
	if err := h.db.Save(&vid).Error; err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, nil, "transcript deleted")
}

// GetTranscript handles the studio GET translation endpoint, returning the
// SRT source as an attachment.
func (h *Handler) GetTranscript(c *gin.Context) {
	crs, vid, ok := h.loadVideo(c)
	if !ok {
		return
	}

	language := c.Query("language_code")
	if language == "" {
		response.Error(c, http.StatusBadRequest, ErrMissingLanguage.Error(), nil)
		return
	}

	defaultLang := h.defaultLanguage(crs)
	subsID, found := subsIDFor(vid, language, defaultLang)
	if !found {
		response.Error(c, http.StatusNotFound, "transcript not found", nil)
		return
	}

	content, err := h.transcripts.GetDownload(c.Request.Context(), crs.CourseKey, subsID, language, transcript.FormatSRT)
	if err != nil {
		response.Error(c, http.StatusNotFound, "transcript not found", nil)
		return
	}

	filename := fmt.Sprintf("%s_%s.srt", language, subsID)
	response.Attachment(c, content, filename, language, transcript.FormatSRT.MimeType(), true)
}
