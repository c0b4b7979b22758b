package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Service answers transcript lookups and keeps derived formats in sync with
// the author-uploaded sources.
type Service struct {
	store           Store
	logger          *slog.Logger
	defaultLanguage string
	playbackSpeeds  []float64
}

func NewService(store Store, logger *slog.Logger, defaultLanguage string, playbackSpeeds []float64) *Service {
	return &Service{
		store:           store,
		logger:          logger,
		defaultLanguage: defaultLanguage,
		playbackSpeeds:  playbackSpeeds,
	}
}

// DefaultLanguage is the language transcripts resolve to when a request
// carries no language preference.
func (s *Service) DefaultLanguage() string {
	return s.defaultLanguage
}

// Get fetches a stored asset verbatim.
func (s *Service) Get(ctx context.Context, namespace, filename string) ([]byte, error) {
	return s.store.Get(ctx, namespace, filename)
}

// GetSJSON fetches the structured transcript named by subsID and language.
func (s *Service) GetSJSON(ctx context.Context, namespace, subsID, language string) (SJSON, error) {
	content, err := s.store.Get(ctx, namespace, SubsFilename(subsID, language, s.defaultLanguage))
	if err != nil {
		return SJSON{}, err
	}

	var doc SJSON
	if err := json.Unmarshal(content, &doc); err != nil {
		return SJSON{}, &GenerationError{Format: FormatSJSON, Err: err}
	}
	return doc, nil
}

// GetOrCreateSJSON returns the structured transcript for a language,
// regenerating it from the uploaded SRT source when the derived asset is
// missing. The regenerated asset is stored for subsequent requests.
func (s *Service) GetOrCreateSJSON(ctx context.Context, namespace, subsID, language string) (SJSON, error) {
	doc, err := s.GetSJSON(ctx, namespace, subsID, language)
	if err == nil {
		return doc, nil
	}
	if _, ok := err.(*GenerationError); ok {
		return SJSON{}, err
	}

	source, err := s.store.Get(ctx, namespace, SourceFilename(subsID, language))
	if err != nil {
		return SJSON{}, err
	}

	content, err := Convert(source, FormatSRT, FormatSJSON)
	if err != nil {
		return SJSON{}, err
	}

	filename := SubsFilename(subsID, language, s.defaultLanguage)
	if err := s.store.Put(ctx, namespace, filename, content); err != nil {
		s.logger.Warn("failed to persist regenerated transcript",
			"namespace", namespace, "filename", filename, "error", err)
	}

	if err := json.Unmarshal(content, &doc); err != nil {
		return SJSON{}, &GenerationError{Format: FormatSJSON, Err: err}
	}
	return doc, nil
}

// Available reports whether a transcript verifiably exists for the language,
// either as a derived structured asset or as an uploaded source.
func (s *Service) Available(ctx context.Context, namespace, subsID, language string) bool {
	if _, err := s.store.Get(ctx, namespace, SubsFilename(subsID, language, s.defaultLanguage)); err == nil {
		return true
	}
	if _, err := s.store.Get(ctx, namespace, SourceFilename(subsID, language)); err == nil {
		return true
	}
	return false
}

// Upload stores an author-provided SRT transcript and its derived
// structured form. For the default language it also writes a structured
// variant per playback speed, scaled so cue timings track the altered
// playback rate.
func (s *Service) Upload(ctx context.Context, namespace, subsID, language string, srtContent []byte, speedVariants map[float64]string) error {
	sjsonContent, err := Convert(srtContent, FormatSRT, FormatSJSON)
	if err != nil {
		return err
	}

	if err := s.store.Put(ctx, namespace, SourceFilename(subsID, language), srtContent); err != nil {
		return err
	}

	return s.writeSJSONVariants(ctx, namespace, subsID, language, sjsonContent, speedVariants)
}

// UploadSource stores an SRT transcript without deriving any structured
// assets. Library-hosted videos keep raw sources only.
func (s *Service) UploadSource(ctx context.Context, namespace, subsID, language string, srtContent []byte) error {
	if _, err := Convert(srtContent, FormatSRT, FormatSJSON); err != nil {
		return err
	}
	return s.store.Put(ctx, namespace, SourceFilename(subsID, language), srtContent)
}

// GenerateSJSONForAllSpeeds rebuilds the structured transcript and its
// per-speed variants from the stored SRT source.
func (s *Service) GenerateSJSONForAllSpeeds(ctx context.Context, namespace, subsID, language string, speedVariants map[float64]string) error {
	source, err := s.store.Get(ctx, namespace, SourceFilename(subsID, language))
	if err != nil {
		return err
	}

	sjsonContent, err := Convert(source, FormatSRT, FormatSJSON)
	if err != nil {
		return err
	}

	return s.writeSJSONVariants(ctx, namespace, subsID, language, sjsonContent, speedVariants)
}

func (s *Service) writeSJSONVariants(ctx context.Context, namespace, subsID, language string, sjsonContent []byte, speedVariants map[float64]string) error {
	if err := s.store.Put(ctx, namespace, SubsFilename(subsID, language, s.defaultLanguage), sjsonContent); err != nil {
		return err
	}

	if language != s.defaultLanguage || len(speedVariants) == 0 {
		return nil
	}

	var doc SJSON
	if err := json.Unmarshal(sjsonContent, &doc); err != nil {
		return &GenerationError{Format: FormatSJSON, Err: err}
	}

	for speed, variantID := range speedVariants {
		if speed == 1.0 || variantID == "" {
			continue
		}
		scaled, err := json.Marshal(doc.Scaled(1.0 / speed))
		if err != nil {
			return fmt.Errorf("marshaling speed variant: %w", err)
		}
		filename := SubsFilename(variantID, language, s.defaultLanguage)
		if err := s.store.Put(ctx, namespace, filename, scaled); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a language's source transcript and its structured form.
// When removing the default language, speed variants are cleaned up too.
func (s *Service) Delete(ctx context.Context, namespace, subsID, language string, speedVariants map[float64]string) error {
	if err := s.store.Delete(ctx, namespace, SourceFilename(subsID, language)); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, namespace, SubsFilename(subsID, language, s.defaultLanguage)); err != nil {
		return err
	}

	if language != s.defaultLanguage {
		return nil
	}
	for _, variantID := range speedVariants {
		if variantID == "" {
			continue
		}
		if err := s.store.Delete(ctx, namespace, SubsFilename(variantID, language, s.defaultLanguage)); err != nil {
			return err
		}
	}
	return nil
}

// GetDownload renders a stored transcript in the requested download format.
func (s *Service) GetDownload(ctx context.Context, namespace, subsID, language string, format Format) ([]byte, error) {
	doc, err := s.GetOrCreateSJSON(ctx, namespace, subsID, language)
	if err != nil {
		return nil, err
	}
	sjsonContent, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling transcript: %w", err)
	}
	return Convert(sjsonContent, FormatSJSON, format)
}
