// Package translate fills in the English and Arabic fields of listings using
// the MyMemory machine-translation API.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultEndpoint is the public MyMemory "get" endpoint.
const DefaultEndpoint = "https://api.mymemory.translated.net/get"

// DefaultTimeout bounds a single outbound translation request.
const DefaultTimeout = 15 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// MyMemory answers with status 200 and this text once the daily quota is used up.
const quotaWarningPrefix = "MYMEMORY WARNING"

// Result is the outcome of one translation call.
type Result struct {
	// Text is the translated text, or the source text when Fallback is set.
	Text string
	// Fallback reports that the translation failed and Text is the input.
	Fallback bool
	// Reason describes why the translation fell back.
	Reason string
}

// Translator translates text between two language tags. Implementations do
// not fail: problems are reported through Result.Fallback.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) Result
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Endpoint overrides DefaultEndpoint.
	Endpoint string
	// ContactEmail is sent as the "de" parameter, which raises MyMemory's
	// anonymous daily quota.
	ContactEmail string
	// Timeout is the per-request timeout. Default: DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the HTTP client. Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a Translator backed by the MyMemory HTTP API.
type Client struct {
	endpoint string
	email    string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a MyMemory client.
func NewClient(opts ClientOptions) *Client {
	c := &Client{
		endpoint: opts.Endpoint,
		email:    opts.ContactEmail,
		http:     opts.HTTPClient,
		logger:   opts.Logger,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Translate translates text from one language to another. On any failure the
// error is logged and the input text is returned with Fallback set.
func (c *Client) Translate(ctx context.Context, text, from, to string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Text: text}
	}

	translated, err := c.fetch(ctx, text, from, to)
	if err != nil {
		c.logger.Warn("translation failed, keeping source text",
			"langpair", from+"|"+to, "error", err)
		return Result{Text: text, Fallback: true, Reason: err.Error()}
	}
	return Result{Text: translated}
}

// TranslateText is Translate reduced to the resulting text.
func (c *Client) TranslateText(ctx context.Context, text, from, to string) string {
	return c.Translate(ctx, text, from, to).Text
}

type apiResponse struct {
	ResponseStatus apiStatus `json:"responseStatus"`
	ResponseData   struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseDetails json.RawMessage `json:"responseDetails"`
}

// apiStatus accepts the status as a JSON number or a numeric string; the API
// uses both.
type apiStatus int

func (s *apiStatus) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("responseStatus %s: %w", data, err)
	}
	*s = apiStatus(n)
	return nil
}

func (r *apiResponse) details() string {
	var s string
	if err := json.Unmarshal(r.ResponseDetails, &s); err == nil {
		return s
	}
	return string(r.ResponseDetails)
}

func (c *Client) fetch(ctx context.Context, text, from, to string) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", from+"|"+to)
	if c.email != "" {
		q.Set("de", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	// The transport status is not checked: the API reports its own status
	// inside the body.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decoding response (http %d): %w", resp.StatusCode, err)
	}
	if payload.ResponseStatus != http.StatusOK {
		return "", fmt.Errorf("api status %d: %s", payload.ResponseStatus, payload.details())
	}

	translated := payload.ResponseData.TranslatedText
	if strings.TrimSpace(translated) == "" {
		return "", errors.New("empty translation")
	}
	if strings.HasPrefix(translated, quotaWarningPrefix) {
		return "", errors.New("daily quota exceeded")
	}
	return translated, nil
}
