package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCourseKey(t *testing.T) {
	key, err := NormalizeCourseKey("  course-v1:OpenLearn+CS101+2026 ")
	require.NoError(t, err)
	assert.Equal(t, "course-v1:OpenLearn+CS101+2026", key)

	key, err = NormalizeCourseKey("lib:OpenLearn:media")
	require.NoError(t, err)
	assert.Equal(t, "lib:OpenLearn:media", key)

	for _, invalid := range []string{
		"",
		"CS101",
		"course-v1:OpenLearn+CS101",
		"course-v2:OpenLearn+CS101+2026",
		"lib:OpenLearn",
	} {
		_, err := NormalizeCourseKey(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestIsLibraryKey(t *testing.T) {
	assert.True(t, IsLibraryKey("lib:OpenLearn:media"))
	assert.False(t, IsLibraryKey("course-v1:OpenLearn+CS101+2026"))
}

func TestNormalizeLanguageCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{" uk ", "uk"},
		{"PT-BR", "pt-BR"},
		{"zh-Hans", "zh-Hans"},
	}
	for _, tt := range tests {
		got, err := NormalizeLanguageCode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, invalid := range []string{"", "e", "english", "12", "en_US"} {
		_, err := NormalizeLanguageCode(invalid)
		assert.Error(t, err, invalid)
	}
}
