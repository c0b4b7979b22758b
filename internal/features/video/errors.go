package video

import "errors"

var (
	ErrVideoNotFound       = errors.New("video not found")
	ErrStateNotFound       = errors.New("video state not found")
	ErrUnknownDispatch     = errors.New("unknown dispatch")
	ErrInvalidSpeed        = errors.New("invalid speed value")
	ErrCompletionRequired  = errors.New("completion value is required")
	ErrCompletionNotNumber = errors.New("completion value must be a number")
	ErrCompletionRange     = errors.New("completion value must be between 0 and 1")
	ErrTrackingUnavailable = errors.New("completion tracking is not configured")
	ErrTrackingDisabled    = errors.New("completion tracking is disabled")
	ErrDuplicateLanguage   = errors.New("language already has a transcript")
	ErrMissingLanguage     = errors.New("language code is required")
	ErrMissingFile         = errors.New("transcript file is required")
	ErrMissingUploadFields = errors.New("external_video_id, language_code and new_language_code are required")
	ErrMissingExternalID   = errors.New("external video id is required")
)
