package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/openlearn/courseware-server/pkg/bunny"
	"github.com/openlearn/courseware-server/pkg/cache"
)

// Store persists transcript assets. Keys are scoped by a namespace, which
// is the course or library key owning the asset.
type Store interface {
	Get(ctx context.Context, namespace, filename string) ([]byte, error)
	Put(ctx context.Context, namespace, filename string, content []byte) error
	Delete(ctx context.Context, namespace, filename string) error
}

const cacheTTL = time.Hour

// BunnyStore keeps transcript assets in Bunny storage with a Redis
// read-through cache in front of downloads.
type BunnyStore struct {
	storage *bunny.StorageClient
	cache   cache.Client
	logger  *slog.Logger
}

func NewBunnyStore(storage *bunny.StorageClient, cacheClient cache.Client, logger *slog.Logger) *BunnyStore {
	return &BunnyStore{
		storage: storage,
		cache:   cacheClient,
		logger:  logger,
	}
}

func assetPath(namespace, filename string) string {
	return path.Join("transcripts", namespace, filename)
}

func cacheKey(namespace, filename string) string {
	return "transcript:" + namespace + ":" + filename
}

func (s *BunnyStore) Get(ctx context.Context, namespace, filename string) ([]byte, error) {
	key := cacheKey(namespace, filename)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		return cached, nil
	}

	content, err := s.storage.DownloadFile(ctx, assetPath(namespace, filename))
	if err != nil {
		if errors.Is(err, bunny.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("downloading transcript %s/%s: %w", namespace, filename, err)
	}

	if err := s.cache.Set(ctx, key, content, cacheTTL); err != nil && !errors.Is(err, cache.ErrDisabled) {
		s.logger.Warn("failed to cache transcript", "key", key, "error", err)
	}
	return content, nil
}

func (s *BunnyStore) Put(ctx context.Context, namespace, filename string, content []byte) error {
	if err := s.storage.UploadBuffer(ctx, content, assetPath(namespace, filename), "application/octet-stream"); err != nil {
		return fmt.Errorf("uploading transcript %s/%s: %w", namespace, filename, err)
	}
	if err := s.cache.Set(ctx, cacheKey(namespace, filename), content, cacheTTL); err != nil && !errors.Is(err, cache.ErrDisabled) {
		s.logger.Warn("failed to cache transcript", "namespace", namespace, "filename", filename, "error", err)
	}
	return nil
}

func (s *BunnyStore) Delete(ctx context.Context, namespace, filename string) error {
	if err := s.storage.DeleteFile(ctx, assetPath(namespace, filename)); err != nil {
		return fmt.Errorf("deleting transcript %s/%s: %w", namespace, filename, err)
	}
	if err := s.cache.Delete(ctx, cacheKey(namespace, filename)); err != nil && !errors.Is(err, cache.ErrDisabled) {
		s.logger.Warn("failed to evict transcript cache", "namespace", namespace, "filename", filename, "error", err)
	}
	return nil
}

// MemoryStore is an in-process Store used by tests and local development
// when no storage zone is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assets: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, namespace, filename string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.assets[assetPath(namespace, filename)]
	if !ok {
		return nil, ErrNotFound
	}
	return content, nil
}

func (s *MemoryStore) Put(_ context.Context, namespace, filename string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[assetPath(namespace, filename)] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, namespace, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, assetPath(namespace, filename))
	return nil
}
