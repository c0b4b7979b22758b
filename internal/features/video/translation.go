package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openlearn/courseware-server/internal/features/course"
	"github.com/openlearn/courseware-server/internal/middleware"
	"github.com/openlearn/courseware-server/internal/services/transcript"
	"github.com/openlearn/courseware-server/pkg/response"
)

func (h *Handler) defaultLanguage(crs course.Course) string {
	if crs.DefaultLanguage != "" {
		return crs.DefaultLanguage
	}
	return h.transcripts.DefaultLanguage()
}

// subsIDFor resolves the subtitle id serving a language, preferring the
// default reference for the default language.
func subsIDFor(vid Video, language, defaultLang string) (string, bool) {
	if language == defaultLang && vid.SubsID != "" {
		return vid.SubsID, true
	}
	id, ok := vid.TranscriptMap()[language]
	return id, ok && id != ""
}

// resolveTranslation implements the four-branch transcript lookup keyed on
// (external video id present, requested language vs default). It returns the
// structured transcript content and its asset filename, or
// transcript.ErrNotFound for any unmatched combination.
func (h *Handler) resolveTranslation(ctx context.Context, crs course.Course, vid Video, language string) ([]byte, string, error) {
	defaultLang := h.defaultLanguage(crs)
	ns := crs.CourseKey
	filename := ""

	var doc transcript.SJSON
	var err error

	switch {
	case vid.ExternalVideoID != "" && language == defaultLang:
		// Asset was written at upload time; serve it verbatim.
		subsID, ok := subsIDFor(vid, language, defaultLang)
		if !ok {
			return nil, "", transcript.ErrNotFound
		}
		filename = transcript.SubsFilename(subsID, language, defaultLang)
		doc, err = h.transcripts.GetSJSON(ctx, ns, subsID, language)

	case vid.ExternalVideoID != "" && language != defaultLang:
		subsID, ok := vid.TranscriptMap()[language]
		if !ok || subsID == "" {
			return nil, "", transcript.ErrNotFound
		}
		filename = transcript.SubsFilename(subsID, language, defaultLang)
		doc, err = h.transcripts.GetSJSON(ctx, ns, subsID, language)
		if errors.Is(err, transcript.ErrNotFound) {
			if genErr := h.transcripts.GenerateSJSONForAllSpeeds(ctx, ns, subsID, language, vid.SpeedVariants()); genErr != nil {
				return nil, "", genErr
			}
			doc, err = h.transcripts.GetSJSON(ctx, ns, subsID, language)
		}

	case vid.ExternalVideoID == "" && language == defaultLang:
		if vid.SubsID == "" {
			return nil, "", transcript.ErrNotFound
		}
		filename = transcript.SubsFilename(vid.SubsID, language, defaultLang)
		doc, err = h.transcripts.GetOrCreateSJSON(ctx, ns, vid.SubsID, language)

	case vid.ExternalVideoID == "" && language != defaultLang:
		subsID, ok := vid.TranscriptMap()[language]
		if !ok || subsID == "" {
			return nil, "", transcript.ErrNotFound
		}
		filename = transcript.SubsFilename(subsID, language, defaultLang)
		doc, err = h.transcripts.GetOrCreateSJSON(ctx, ns, subsID, language)
	}

	if err != nil {
		return nil, "", err
	}

	content, err := json.Marshal(doc)
	if err != nil {
		return nil, "", err
	}
	return content, filename, nil
}

// staticFallback redirects to the course's static transcript asset. Only
// regular courses with a configured asset directory qualify, and only for
// the default language.
func (h *Handler) staticFallback(c *gin.Context, crs course.Course, vid Video, language string) {
	defaultLang := h.defaultLanguage(crs)
	if crs.Library || language != defaultLang || crs.StaticAssetPath == "" || vid.SubsID == "" {
		response.Error(c, http.StatusNotFound, "transcript not found", nil)
		return
	}

	filename := transcript.SubsFilename(vid.SubsID, language, defaultLang)
	response.TemporaryRedirect(c, "/static/"+path.Join(crs.StaticAssetPath, filename))
}

// Transcript routes GET transcript/*dispatch requests to translation,
// download or available-translations handling.
func (h *Handler) Transcript(c *gin.Context) {
	dispatch := strings.Trim(c.Param("dispatch"), "/")
	tag, arg, _ := strings.Cut(dispatch, "/")

	switch tag {
	case "translation", "download", "available_translations":
	default:
		response.Error(c, http.StatusNotFound, "unknown dispatch", nil)
		return
	}

	crs, vid, ok := h.loadVideo(c)
	if !ok {
		return
	}

	switch tag {
	case "translation":
		h.translation(c, crs, vid, arg)
	case "download":
		h.download(c, crs, vid)
	case "available_translations":
		h.availableTranslations(c, crs, vid)
	}
}

func (h *Handler) translation(c *gin.Context, crs course.Course, vid Video, language string) {
	if _, authed := middleware.GetUserFromContext(c); !authed {
		response.Error(c, http.StatusForbidden, "authentication required", nil)
		return
	}
	if language == "" {
		response.Error(c, http.StatusBadRequest, "language is required", nil)
		return
	}

	defaultLang := h.defaultLanguage(crs)
	if language != defaultLang {
		if _, known := vid.TranscriptMap()[language]; !known {
			response.Error(c, http.StatusNotFound, "unknown transcript language", nil)
			return
		}
	}

	content, filename, err := h.resolveTranslation(c.Request.Context(), crs, vid, language)
	if err != nil {
		if language == defaultLang {
			h.staticFallback(c, crs, vid, language)
			return
		}
		response.Error(c, http.StatusNotFound, "transcript not found", nil)
		return
	}

	response.Attachment(c, content, filename, language, transcript.FormatSJSON.MimeType(), false)
}

func (h *Handler) download(c *gin.Context, crs course.Course, vid Video) {
	defaultLang := h.defaultLanguage(crs)

	language := c.Query("lang")
	format := transcript.Format(vid.DownloadFormat)
	if format == "" {
		format = h.downloadFormat
	}

	if usr, authed := middleware.GetUserFromContext(c); authed {
		st, err := GetOrCreateState(h.db, usr.ID, vid.ID)
		if err == nil {
			if language == "" && st.TranscriptLanguage != "" {
				language = st.TranscriptLanguage
			}
			if st.DownloadFormat != "" {
				format = transcript.Format(st.DownloadFormat)
			}
		}
	}
	if language == "" {
		language = defaultLang
	}
	if _, err := transcript.ParseFormat(string(format)); err != nil {
		format = transcript.FormatSRT
	}

	subsID, ok := subsIDFor(vid, language, defaultLang)
	if !ok {
		response.Error(c, http.StatusNotFound, "transcript not found", nil)
		return
	}

	content, err := h.transcripts.GetDownload(c.Request.Context(), crs.CourseKey, subsID, language, format)
	if err != nil {
		response.Error(c, http.StatusNotFound, "transcript not found", nil)
		return
	}

	filename := fmt.Sprintf("%s_%s.%s", language, subsID, format)
	response.Attachment(c, content, filename, language, format.MimeType(), true)
}

func (h *Handler) availableTranslations(c *gin.Context, crs course.Course, vid Video) {
	ctx := c.Request.Context()
	defaultLang := h.defaultLanguage(crs)

	languages := make([]string, 0, len(vid.TranscriptMap())+1)
	if vid.SubsID != "" && h.transcripts.Available(ctx, crs.CourseKey, vid.SubsID, defaultLang) {
		languages = append(languages, defaultLang)
	}
	for language, subsID := range vid.TranscriptMap() {
		if language == defaultLang || subsID == "" {
			continue
		}
		if h.transcripts.Available(ctx, crs.CourseKey, subsID, language) {
			languages = append(languages, language)
		}
	}

	if len(languages) == 0 {
		response.Error(c, http.StatusNotFound, "no translations available", nil)
		return
	}

	sort.Strings(languages)
	response.Success(c, http.StatusOK, languages, "")
}
