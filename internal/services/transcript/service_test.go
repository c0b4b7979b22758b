package transcript

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, logger, "en", []float64{0.75, 1.0, 1.25, 1.5}), store
}

const testNamespace = "course-v1:OpenLearn+CS101+2026"

func TestGetOrCreateSJSONRegeneratesFromSource(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testNamespace, SourceFilename("vid1", "uk"), []byte(sampleSRT)))

	doc, err := svc.GetOrCreateSJSON(ctx, testNamespace, "vid1", "uk")
	require.NoError(t, err)
	assert.Equal(t, []int64{270, 2720}, doc.Start)

	// The derived asset is persisted for the next request.
	_, err = store.Get(ctx, testNamespace, SubsFilename("vid1", "uk", "en"))
	assert.NoError(t, err)
}

func TestGetOrCreateSJSONMissingSource(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetOrCreateSJSON(context.Background(), testNamespace, "vid1", "uk")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadWritesSpeedVariants(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	variants := map[float64]string{1.0: "vid1", 1.5: "vid1_1_5"}
	require.NoError(t, svc.Upload(ctx, testNamespace, "vid1", "en", []byte(sampleSRT), variants))

	_, err := store.Get(ctx, testNamespace, SourceFilename("vid1", "en"))
	require.NoError(t, err)

	base, err := svc.GetSJSON(ctx, testNamespace, "vid1", "en")
	require.NoError(t, err)

	content, err := store.Get(ctx, testNamespace, SubsFilename("vid1_1_5", "en", "en"))
	require.NoError(t, err)

	var scaled SJSON
	require.NoError(t, json.Unmarshal(content, &scaled))
	assert.Equal(t, int64(float64(base.Start[1])/1.5), scaled.Start[1])
	assert.Equal(t, base.Text, scaled.Text)
}

func TestUploadNonDefaultLanguageSkipsVariants(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	variants := map[float64]string{1.5: "vid1_1_5"}
	require.NoError(t, svc.Upload(ctx, testNamespace, "vid1", "uk", []byte(sampleSRT), variants))

	_, err := store.Get(ctx, testNamespace, SubsFilename("vid1_1_5", "en", "en"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadRejectsInvalidSRTBeforeStoring(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	err := svc.Upload(ctx, testNamespace, "vid1", "en", []byte("garbage"), nil)
	require.Error(t, err)

	_, err = store.Get(ctx, testNamespace, SourceFilename("vid1", "en"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesVariantsForDefaultLanguage(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	variants := map[float64]string{1.5: "vid1_1_5"}
	require.NoError(t, svc.Upload(ctx, testNamespace, "vid1", "en", []byte(sampleSRT), variants))
	require.NoError(t, svc.Delete(ctx, testNamespace, "vid1", "en", variants))

	for _, name := range []string{
		SourceFilename("vid1", "en"),
		SubsFilename("vid1", "en", "en"),
		SubsFilename("vid1_1_5", "en", "en"),
	} {
		_, err := store.Get(ctx, testNamespace, name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestGetDownloadRendersSRT(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Upload(ctx, testNamespace, "vid1", "en", []byte(sampleSRT), nil))

	content, err := svc.GetDownload(ctx, testNamespace, "vid1", "en", FormatSRT)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Hi, welcome to the course.")

	txt, err := svc.GetDownload(ctx, testNamespace, "vid1", "en", FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "Hi, welcome to the course.\nLet's get started.", string(txt))
}
