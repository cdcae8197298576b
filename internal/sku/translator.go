package sku

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Translator resolves a catalog key to the real product key. Resolve
// never fails hard: implementations fall back to the catalog key itself
// when the lookup cannot be served.
type Translator interface {
	Resolve(ctx context.Context, catalogKey string) string
}

// NoopTranslator returns the catalog key unchanged. Used when no
// translator service is configured.
type NoopTranslator struct{}

func (NoopTranslator) Resolve(_ context.Context, catalogKey string) string {
	return catalogKey
}

// HTTPTranslator queries the external translation service with
// GET {baseURL}/{catalogKey}, expecting {"sku": "..."}. Any failure
// (network, non-200, bad body, empty result) falls back to the catalog
// key so a run is never blocked on the lookup.
type HTTPTranslator struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTranslator(baseURL string, timeout time.Duration) *HTTPTranslator {
	return &HTTPTranslator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTranslator) Resolve(ctx context.Context, catalogKey string) string {
	url := fmt.Sprintf("%s/%s", t.baseURL, catalogKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Warn().Err(err).Str("catalog_key", catalogKey).Msg("translator request build failed, using catalog key")
		return catalogKey
	}

	resp, err := t.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("catalog_key", catalogKey).Msg("translator unreachable, using catalog key")
		return catalogKey
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("catalog_key", catalogKey).Msg("translator returned non-OK, using catalog key")
		return catalogKey
	}

	var body struct {
		SKU string `json:"sku"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.SKU == "" {
		log.Warn().Err(err).Str("catalog_key", catalogKey).Msg("translator response unusable, using catalog key")
		return catalogKey
	}

	return body.SKU
}

var (
	_ Translator = NoopTranslator{}
	_ Translator = (*HTTPTranslator)(nil)
)
