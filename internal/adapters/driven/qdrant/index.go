// Package qdrant implements the VectorIndex port against the Qdrant
// HTTP API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// payloadRecordID keeps the pipeline's record id recoverable: Qdrant
// point ids must be UUIDs or integers, so the original id moves into
// the payload.
const payloadRecordID = "record_id"

// Index implements driven.VectorIndex using Qdrant.
type Index struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

// Config holds Qdrant connection configuration.
type Config struct {
	// BaseURL is the Qdrant endpoint (e.g., http://localhost:6333)
	BaseURL string

	// APIKey is optional; empty for unauthenticated deployments.
	APIKey string

	// Collection is the target collection name.
	Collection string

	// VectorSize is the embedding dimension, used when the collection
	// has to be created.
	VectorSize int

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(baseURL, collection string, vectorSize int) Config {
	return Config{
		BaseURL:    baseURL,
		Collection: collection,
		VectorSize: vectorSize,
		Timeout:    30 * time.Second,
	}
}

// NewIndex creates a Qdrant-backed vector index, creating the
// collection with cosine distance if it does not exist.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("qdrant base URL is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	ix := &Index{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}

	if err := ix.ensureCollection(context.Background(), cfg.VectorSize); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	return ix, nil
}

// qdrantPoint is a point in Qdrant's upsert format.
type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type qdrantUpsertRequest struct {
	Points []qdrantPoint `json:"points"`
}

type qdrantResponse struct {
	Status any `json:"status"`
}

// Upsert writes a batch of vector records to the collection.
func (ix *Index) Upsert(ctx context.Context, records []*domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]qdrantPoint, 0, len(records))
	for _, r := range records {
		payload := make(map[string]any, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload[payloadRecordID] = r.ID

		points = append(points, qdrantPoint{
			ID:      pointID(r.ID),
			Vector:  r.Values,
			Payload: payload,
		})
	}

	body, err := json.Marshal(qdrantUpsertRequest{Points: points})
	if err != nil {
		return fmt.Errorf("failed to marshal upsert request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", ix.baseURL, ix.collection)
	resp, err := ix.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant upsert failed: %s - %s", resp.Status, string(respBody))
	}
	return nil
}

// HealthCheck verifies the Qdrant instance is reachable.
func (ix *Index) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/collections/%s", ix.baseURL, ix.collection)
	resp, err := ix.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant unhealthy: %s", resp.Status)
	}
	return nil
}

// Close releases HTTP client resources.
func (ix *Index) Close() error {
	ix.httpClient.CloseIdleConnections()
	return nil
}

// ensureCollection creates the collection if it does not exist.
func (ix *Index) ensureCollection(ctx context.Context, vectorSize int) error {
	url := fmt.Sprintf("%s/collections/%s", ix.baseURL, ix.collection)

	resp, err := ix.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	if vectorSize <= 0 {
		return fmt.Errorf("collection %s does not exist and no vector size configured", ix.collection)
	}

	createReq := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	body, err := json.Marshal(createReq)
	if err != nil {
		return err
	}

	resp, err = ix.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to create collection: %s - %s", resp.Status, string(respBody))
	}
	return nil
}

func (ix *Index) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ix.apiKey != "" {
		req.Header.Set("api-key", ix.apiKey)
	}

	return ix.httpClient.Do(req)
}

// pointID derives a deterministic UUID from a record id, so upserting
// the same record twice overwrites rather than duplicates.
func pointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(recordID)).String()
}
