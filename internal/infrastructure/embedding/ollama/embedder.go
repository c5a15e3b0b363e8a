package ollama

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultCacheLimit = 32

// Embedder builds vectors through an Ollama embedding endpoint and compares
// texts by cosine similarity. The domain anchor text is compared on every
// pipeline attempt, so its vector is cached after the first embedding and
// must survive the one-shot coverage prefix comparisons that share the cache.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client

	cacheMu    sync.Mutex
	cache      map[string]*cachedVector
	cacheLimit int
}

type cachedVector struct {
	vector []float32
	hits   int
}

func New(baseURL, model string) *Embedder {
	return &Embedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		cache:      make(map[string]*cachedVector),
		cacheLimit: defaultCacheLimit,
	}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (e *Embedder) Similarity(ctx context.Context, a, b string) (float64, error) {
	if a == "" || b == "" {
		return 0, nil
	}

	vecA, err := e.EmbedQuery(ctx, a)
	if err != nil {
		return 0, err
	}
	vecB, err := e.embedCached(ctx, b)
	if err != nil {
		return 0, err
	}
	return cosine(vecA, vecB), nil
}

// embedCached returns the vector for text, reusing prior embeddings of the
// same text. When the cache is full the least-hit entry is evicted, so the
// repeatedly compared anchor outlives single-use coverage prefixes.
func (e *Embedder) embedCached(ctx context.Context, text string) ([]float32, error) {
	e.cacheMu.Lock()
	if entry, ok := e.cache[text]; ok {
		entry.hits++
		vector := entry.vector
		e.cacheMu.Unlock()
		return vector, nil
	}
	e.cacheMu.Unlock()

	vector, err := e.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cacheMu.Lock()
	if _, ok := e.cache[text]; !ok {
		if len(e.cache) >= e.cacheLimit {
			e.evictColdestLocked()
		}
		e.cache[text] = &cachedVector{vector: vector, hits: 1}
	}
	e.cacheMu.Unlock()
	return vector, nil
}

func (e *Embedder) evictColdestLocked() {
	var coldKey string
	coldHits := -1
	for key, entry := range e.cache {
		if coldHits == -1 || entry.hits < coldHits {
			coldKey = key
			coldHits = entry.hits
		}
	}
	if coldHits != -1 {
		delete(e.cache, coldKey)
	}
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.model,
		"input": texts,
	}
	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.postJSON(ctx, "/api/embed", request, &response); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
