// Package storage uploads listing images to object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

// KeyPrefix namespaces every uploaded object.
const KeyPrefix = "wanderlust"

// ImageStore stores listing images and hands back their public location.
type ImageStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (domain.Image, error)
	Delete(ctx context.Context, filename string) error
}

// ObjectKey derives a unique storage key, keeping the original extension.
func ObjectKey(name string) string {
	ext := strings.ToLower(path.Ext(name))
	return KeyPrefix + "/" + domain.NewID() + ext
}

// MinioStore implements ImageStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
// publicBase is the URL prefix under which bucket objects are served.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool, publicBase string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	if publicBase == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}
	return &MinioStore{client: client, bucket: bucket, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Put uploads an image under a fresh key.
func (m *MinioStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (domain.Image, error) {
	key := ObjectKey(name)
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return domain.Image{}, fmt.Errorf("put object: %w", err)
	}
	return domain.Image{URL: m.publicBase + "/" + key, Filename: key}, nil
}

// Delete removes an object.
func (m *MinioStore) Delete(ctx context.Context, filename string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, filename, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// MemoryStore keeps images in-process.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryStore returns an empty in-memory image store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put reads the image fully and records it.
func (m *MemoryStore) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) (domain.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Image{}, fmt.Errorf("read image: %w", err)
	}
	key := ObjectKey(name)
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return domain.Image{URL: "memory://" + key, Filename: key}, nil
}

// Delete forgets an image.
func (m *MemoryStore) Delete(_ context.Context, filename string) error {
	m.mu.Lock()
	delete(m.objects, filename)
	m.mu.Unlock()
	return nil
}

// Has reports whether filename is stored.
func (m *MemoryStore) Has(filename string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[filename]
	return ok
}

// Keys lists the stored object keys in sorted order.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
