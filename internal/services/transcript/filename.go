package transcript

import "fmt"

// SubsFilename returns the canonical asset name for a structured transcript.
// The default language carries no prefix so legacy assets keep resolving.
func SubsFilename(subsID, language, defaultLanguage string) string {
	if language == "" || language == defaultLanguage {
		return fmt.Sprintf("subs_%s.srt.sjson", subsID)
	}
	return fmt.Sprintf("%s_subs_%s.srt.sjson", language, subsID)
}

// SourceFilename returns the asset name an author-uploaded SRT file is
// stored under.
func SourceFilename(subsID, language string) string {
	return fmt.Sprintf("%s_%s.srt", language, subsID)
}
