package versium

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/skipscan/skipscan/internal/config"
	"github.com/skipscan/skipscan/internal/enrichment/domain"
	"github.com/skipscan/skipscan/internal/enrichment/endpoints"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Endpoints *endpoints.Holder
}

// Client calls the enrichment provider. Responses are treated as opaque
// JSON and returned untouched.
type Client struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	endpoints *endpoints.Holder
	log       *zap.Logger
}

func New(p Params) domain.Provider {
	return &Client{
		apiKey:    strings.TrimSpace(p.Config.VersiumAPIKey),
		baseURL:   strings.TrimRight(strings.TrimSpace(p.Config.VersiumBaseURL), "/"),
		client:    &http.Client{Timeout: 12 * time.Second},
		endpoints: p.Endpoints,
		log:       p.Log.Named("enrichment.versium"),
	}
}

func (c *Client) Enrich(ctx context.Context, kind string, req domain.EnrichmentRequest) (map[string]any, error) {
	path, ok := c.endpoints.PathFor(kind)
	if !ok {
		return nil, domain.ErrInvalidKind
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var body map[string]any
	// One retry, and only for transport failures. Provider-side errors are
	// not retried; the call is billed per attempt upstream.
	backoff := retry.WithMaxRetries(1, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		decoded, callErr := c.call(ctx, path, payload)
		if callErr != nil {
			return callErr
		}
		body = decoded
		return nil
	})
	if err != nil {
		if err == domain.ErrProviderUnavailable {
			return nil, err
		}
		c.log.Warn("provider unreachable",
			zap.String("kind", kind),
			zap.Error(err),
		)
		return nil, domain.ErrProviderUnavailable
	}

	return body, nil
}

func (c *Client) call(ctx context.Context, path string, payload []byte) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn("provider call failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("detail", detail),
		)
		return nil, domain.ErrProviderUnavailable
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn("provider response undecodable", zap.String("path", path), zap.Error(err))
		return nil, domain.ErrProviderUnavailable
	}

	return body, nil
}
