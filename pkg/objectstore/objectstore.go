package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Key prefixes for uploaded images. Objects under them are publicly readable.
const (
	PrefixCarousel = "carousel"
	PrefixProducts = "products"
)

type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Store interface {
	Put(ctx context.Context, prefix, filename, contentType string, r io.Reader, size int64) (Object, error)
	Remove(ctx context.Context, key string) error
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	UseSSL    bool

	// PublicPrefixes get an anonymous read-only policy; empty means the whole bucket.
	PublicPrefixes []string
}

type Minio struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	if err := client.SetBucketPolicy(ctx, cfg.Bucket, PublicReadPolicy(cfg.Bucket, cfg.PublicPrefixes...)); err != nil {
		return nil, fmt.Errorf("minio bucket policy: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &Minio{client: client, bucket: cfg.Bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (m *Minio) Put(ctx context.Context, prefix, filename, contentType string, r io.Reader, size int64) (Object, error) {
	key := ObjectKey(prefix, filename)
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return Object{}, fmt.Errorf("minio put %s: %w", key, err)
	}
	return Object{Key: key, URL: fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, key)}, nil
}

func (m *Minio) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// PublicReadPolicy is an S3 bucket policy that lets anonymous clients GET the
// objects under prefixes, so the URLs returned by Put load in a browser.
func PublicReadPolicy(bucket string, prefixes ...string) string {
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	resources := make([]string, len(prefixes))
	for i, p := range prefixes {
		p = strings.Trim(p, "/")
		if p != "" {
			p += "/"
		}
		resources[i] = "arn:aws:s3:::" + bucket + "/" + p + "*"
	}
	policy := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{{
			"Effect":    "Allow",
			"Principal": map[string]any{"AWS": []string{"*"}},
			"Action":    []string{"s3:GetObject"},
			"Resource":  resources,
		}},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}

// ObjectKey builds a collision free key that keeps the original extension.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+ext)
}

// Memory keeps objects in process, for tests.
type Memory struct {
	mu      sync.Mutex
	BaseURL string
	Objects map[string][]byte
}

func NewMemory(baseURL string) *Memory {
	return &Memory{BaseURL: strings.TrimRight(baseURL, "/"), Objects: map[string][]byte{}}
}

func (m *Memory) Put(_ context.Context, prefix, filename, _ string, r io.Reader, _ int64) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, err
	}
	key := ObjectKey(prefix, filename)
	m.mu.Lock()
	m.Objects[key] = data
	m.mu.Unlock()
	return Object{Key: key, URL: m.BaseURL + "/" + key}, nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.Objects, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[key]
	return ok
}
