package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vpipe/internal/language"
	"vpipe/internal/services"
)

// DefaultGoogleEndpoint is the unauthenticated translation endpoint the
// Google client queries.
const DefaultGoogleEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleClient translates through Google's public endpoint. Requests join
// all lines into one call to stay under rate limits.
type GoogleClient struct {
	endpoint string
	client   *http.Client
}

// NewGoogleClient constructs a GoogleClient. timeout bounds each request.
func NewGoogleClient(endpoint string, timeout time.Duration) *GoogleClient {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GoogleClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Translate sends lines through the endpoint and returns them translated.
func (g *GoogleClient) Translate(ctx context.Context, lines []string, from, to string) ([]string, error) {
	if err := validatePair(from, to); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", language.ToISO1(from))
	query.Set("tl", language.ToISO1(to))
	query.Set("dt", "t")
	query.Set("q", joinLines(lines))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "request", g.endpoint, err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "request", g.endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "request",
			fmt.Sprintf("%s returned status %d", g.endpoint, resp.StatusCode), nil)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "read", g.endpoint, err)
	}

	translated, err := decodeGooglePayload(body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "parse", g.endpoint, err)
	}
	out, ok := splitLines(translated, len(lines))
	if !ok {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "split",
			fmt.Sprintf("expected %d lines back", len(lines)), nil)
	}
	return out, nil
}

// decodeGooglePayload parses the endpoint's nested-array response. The first
// element holds chunk pairs [translated, original, ...]; concatenating the
// translated parts yields the full text.
func decodeGooglePayload(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty response payload")
	}
	chunks, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected payload shape")
	}
	var builder strings.Builder
	for _, chunk := range chunks {
		pair, ok := chunk.([]any)
		if !ok || len(pair) == 0 {
			continue
		}
		if text, ok := pair[0].(string); ok {
			builder.WriteString(text)
		}
	}
	return builder.String(), nil
}
