package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	apiVersion = "v1beta"

	defaultBaseURL           = "https://generativelanguage.googleapis.com"
	defaultRequestTimeout    = 10 * time.Minute
	defaultUploadTimeout     = 5 * time.Minute
	defaultActivationTimeout = 5 * time.Minute
	defaultPollInterval      = 5 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBaseDelay    = 2 * time.Second
	defaultRetryMaxDelay     = 30 * time.Second
	defaultUserAgent         = "quill"

	healthTimeout  = 30 * time.Second
	cleanupTimeout = 30 * time.Second
)

// File states reported by the files API.
const (
	fileStateActive     = "ACTIVE"
	fileStateFailed     = "FAILED"
	fileStateProcessing = "PROCESSING"
)

// Config captures the runtime settings required to talk to the Gemini API.
type Config struct {
	APIKey                   string
	BaseURL                  string
	Model                    string
	RequestTimeoutSeconds    int
	UploadTimeoutSeconds     int
	ActivationTimeoutSeconds int
	PollIntervalSeconds      int
	MaxAttempts              int
	RetryBackoffSeconds      int
}

// Client wraps the Gemini files and generateContent APIs.
type Client struct {
	cfg        Config
	httpClient *http.Client
	userAgent  string

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the configured retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry and poll sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(userAgent); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:                   strings.TrimSpace(cfg.APIKey),
			BaseURL:                  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:                    strings.TrimSpace(cfg.Model),
			RequestTimeoutSeconds:    cfg.RequestTimeoutSeconds,
			UploadTimeoutSeconds:     cfg.UploadTimeoutSeconds,
			ActivationTimeoutSeconds: cfg.ActivationTimeoutSeconds,
			PollIntervalSeconds:      cfg.PollIntervalSeconds,
			MaxAttempts:              cfg.MaxAttempts,
			RetryBackoffSeconds:      cfg.RetryBackoffSeconds,
		},
		httpClient:       &http.Client{},
		userAgent:        defaultUserAgent,
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	if cfg.MaxAttempts > 0 {
		client.retryMaxAttempts = cfg.MaxAttempts
	}
	if cfg.RetryBackoffSeconds > 0 {
		client.retryBaseDelay = time.Duration(cfg.RetryBackoffSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	return client
}

// FileInfo identifies an uploaded file and its processing state.
type FileInfo struct {
	Name     string
	URI      string
	MIMEType string
	State    string
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, summarizePayloadSnippet(e.Body))
}

type emptyResponseError struct {
	Op           string
	FinishReason string
	Snippet      string
}

func (e *emptyResponseError) Error() string {
	return fmt.Sprintf(
		"%s: empty response (finish_reason=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Snippet,
	)
}

// UploadFile pushes the file at path through the resumable upload protocol
// and returns the resulting file handle. The file bytes are held in memory
// so that retries can replay the upload from the start.
func (c *Client) UploadFile(ctx context.Context, path string) (FileInfo, error) {
	var empty FileInfo
	if c.cfg.APIKey == "" {
		return empty, errors.New("gemini upload: api key required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: read audio: %w", err)
	}
	displayName := filepath.Base(path)
	mimeType := mimeTypeForPath(path)

	var info FileInfo
	err = c.withRetry(ctx, "gemini upload", c.uploadTimeout(), func(attemptCtx context.Context) error {
		uploaded, err := c.uploadOnce(attemptCtx, data, displayName, mimeType)
		if err != nil {
			return err
		}
		info = uploaded
		return nil
	})
	if err != nil {
		return empty, err
	}
	return info, nil
}

func (c *Client) uploadOnce(ctx context.Context, data []byte, displayName, mimeType string) (FileInfo, error) {
	var empty FileInfo
	metadata, err := json.Marshal(uploadStartRequest{File: uploadFileMetadata{DisplayName: displayName}})
	if err != nil {
		return empty, fmt.Errorf("gemini upload: encode metadata: %w", err)
	}
	startURL := fmt.Sprintf("%s/upload/%s/files", c.cfg.BaseURL, apiVersion)
	req, err := c.newRequest(ctx, http.MethodPost, startURL, bytes.NewReader(metadata))
	if err != nil {
		return empty, fmt.Errorf("gemini upload: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)
	header, _, err := c.send(req)
	if err != nil {
		return empty, err
	}
	uploadURL := strings.TrimSpace(header.Get("X-Goog-Upload-URL"))
	if uploadURL == "" {
		return empty, errors.New("gemini upload: missing upload url in start response")
	}

	req, err = c.newRequest(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return empty, fmt.Errorf("gemini upload: new request: %w", err)
	}
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	_, body, err := c.send(req)
	if err != nil {
		return empty, err
	}
	var decoded uploadFinalizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return empty, fmt.Errorf("gemini upload: decode response: %w", err)
	}
	info := decoded.File.toInfo()
	if info.Name == "" && info.URI == "" {
		return empty, fmt.Errorf("gemini upload: unexpected response: %s", summarizePayloadSnippet(string(body)))
	}
	return info, nil
}

// WaitForFileActive polls the file until the API reports it as ACTIVE.
// Polling is bounded by the activation timeout expressed as a poll budget so
// that injected sleepers keep the bound deterministic.
func (c *Client) WaitForFileActive(ctx context.Context, name string) (FileInfo, error) {
	var empty FileInfo
	if strings.TrimSpace(name) == "" {
		return empty, errors.New("gemini file: name required")
	}
	interval := c.pollInterval()
	maxPolls := int(c.activationTimeout() / interval)
	if maxPolls < 1 {
		maxPolls = 1
	}
	for poll := 0; ; poll++ {
		info, err := c.getFile(ctx, name)
		if err != nil {
			return empty, err
		}
		switch info.State {
		case fileStateActive:
			return info, nil
		case fileStateFailed:
			return empty, fmt.Errorf("gemini file: processing failed for %s", fileResourceName(name))
		}
		if poll >= maxPolls {
			return empty, fmt.Errorf("gemini file: %s not active after %s", fileResourceName(name), c.activationTimeout())
		}
		if err := c.sleep(ctx, interval); err != nil {
			return empty, err
		}
	}
}

func (c *Client) getFile(ctx context.Context, name string) (FileInfo, error) {
	var info FileInfo
	err := c.withRetry(ctx, "gemini file", c.requestTimeout(), func(attemptCtx context.Context) error {
		fetched, err := c.getFileOnce(attemptCtx, name)
		if err != nil {
			return err
		}
		info = fetched
		return nil
	})
	return info, err
}

func (c *Client) getFileOnce(ctx context.Context, name string) (FileInfo, error) {
	var empty FileInfo
	endpoint := fmt.Sprintf("%s/%s/%s", c.cfg.BaseURL, apiVersion, fileResourceName(name))
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return empty, fmt.Errorf("gemini file: new request: %w", err)
	}
	_, body, err := c.send(req)
	if err != nil {
		return empty, err
	}
	var decoded fileMetadata
	if err := json.Unmarshal(body, &decoded); err != nil {
		return empty, fmt.Errorf("gemini file: decode response: %w", err)
	}
	return decoded.toInfo(), nil
}

// GenerateText runs a generateContent request with the prompt and, when the
// file handle is non-empty, the uploaded audio attached as file data. It
// returns the concatenated text of the first candidate that produced any.
func (c *Client) GenerateText(ctx context.Context, prompt string, file FileInfo) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("gemini generate: prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("gemini generate: api key required")
	}
	if c.cfg.Model == "" {
		return "", errors.New("gemini generate: model required")
	}
	parts := []requestPart{{Text: prompt}}
	if file.URI != "" {
		parts = append(parts, requestPart{FileData: &fileData{MIMEType: file.MIMEType, FileURI: file.URI}})
	}
	encoded, err := json.Marshal(generateRequest{Contents: []requestContent{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("gemini generate: encode body: %w", err)
	}

	var text string
	err = c.withRetry(ctx, "gemini generate", c.requestTimeout(), func(attemptCtx context.Context) error {
		decoded, body, err := c.generateOnce(attemptCtx, encoded)
		if err != nil {
			return err
		}
		extracted := extractGeneratedText(decoded)
		if extracted == "" {
			if reason := blockReason(decoded); reason != "" {
				return fmt.Errorf("gemini generate: prompt blocked (reason=%s)", reason)
			}
			if len(decoded.Candidates) == 0 {
				return errors.New("gemini generate: empty candidates")
			}
			return &emptyResponseError{
				Op:           "gemini generate",
				FinishReason: decoded.Candidates[0].FinishReason,
				Snippet:      summarizePayloadSnippet(string(body)),
			}
		}
		text = extracted
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) generateOnce(ctx context.Context, encoded []byte) (generateResponse, []byte, error) {
	var decoded generateResponse
	endpoint := fmt.Sprintf("%s/%s/models/%s:generateContent", c.cfg.BaseURL, apiVersion, c.cfg.Model)
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return decoded, nil, fmt.Errorf("gemini generate: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, body, err := c.send(req)
	if err != nil {
		return decoded, body, err
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return decoded, body, fmt.Errorf("gemini generate: decode response: %w", err)
	}
	if decoded.Error != nil {
		return decoded, body, fmt.Errorf("gemini generate: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	return decoded, body, nil
}

// Transcribe uploads the audio file, waits for it to become usable, and asks
// the model for a transcript. The uploaded file is deleted on a best-effort
// basis afterwards; files expire server-side after 48 hours regardless.
func (c *Client) Transcribe(ctx context.Context, audioPath, prompt string) (string, error) {
	info, err := c.UploadFile(ctx, audioPath)
	if err != nil {
		return "", err
	}
	defer func() {
		if info.Name == "" {
			return
		}
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		_ = c.DeleteFile(cleanupCtx, info.Name)
	}()

	active := info
	if active.State != fileStateActive {
		active, err = c.WaitForFileActive(ctx, info.Name)
		if err != nil {
			return "", err
		}
	}
	return c.GenerateText(ctx, prompt, active)
}

// DeleteFile removes an uploaded file. A missing file is not an error.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	if c.cfg.APIKey == "" {
		return errors.New("gemini delete: api key required")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("gemini delete: name required")
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.cfg.BaseURL, apiVersion, fileResourceName(name))
	reqCtx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()
	req, err := c.newRequest(reqCtx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("gemini delete: new request: %w", err)
	}
	if _, _, err := c.send(req); err != nil {
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return err
	}
	return nil
}

// HealthCheck issues a fast model listing to verify the API key is usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("gemini health: api key required")
	}
	endpoint := fmt.Sprintf("%s/%s/models?pageSize=1", c.cfg.BaseURL, apiVersion)
	reqCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	req, err := c.newRequest(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("gemini health: new request: %w", err)
	}
	_, body, err := c.send(req)
	if err != nil {
		return err
	}
	var parsed struct {
		Models []json.RawMessage `json:"models"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("gemini health: decode response: %w", err)
	}
	if len(parsed.Models) == 0 {
		return errors.New("gemini health: no models available")
	}
	return nil
}

type uploadStartRequest struct {
	File uploadFileMetadata `json:"file"`
}

type uploadFileMetadata struct {
	DisplayName string `json:"display_name,omitempty"`
}

type uploadFinalizeResponse struct {
	File fileMetadata `json:"file"`
}

type fileMetadata struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	State    string `json:"state"`
}

func (m fileMetadata) toInfo() FileInfo {
	return FileInfo{
		Name:     strings.TrimSpace(m.Name),
		URI:      strings.TrimSpace(m.URI),
		MIMEType: strings.TrimSpace(m.MIMEType),
		State:    strings.ToUpper(strings.TrimSpace(m.State)),
	}
}

type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	MIMEType string `json:"mime_type,omitempty"`
	FileURI  string `json:"file_uri"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func extractGeneratedText(decoded generateResponse) string {
	for _, candidate := range decoded.Candidates {
		var builder strings.Builder
		for _, part := range candidate.Content.Parts {
			builder.WriteString(part.Text)
		}
		if text := strings.TrimSpace(builder.String()); text != "" {
			return text
		}
	}
	return ""
}

func blockReason(decoded generateResponse) string {
	if decoded.PromptFeedback == nil {
		return ""
	}
	return strings.TrimSpace(decoded.PromptFeedback.BlockReason)
}

func fileResourceName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if strings.HasPrefix(name, "files/") {
		return name
	}
	return "files/" + name
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (http.Header, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Header, nil, fmt.Errorf("gemini request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return resp.Header, body, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	return resp.Header, body, nil
}

func (c *Client) withRetry(ctx context.Context, op string, timeout time.Duration, fn func(context.Context) error) error {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return err
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) requestTimeout() time.Duration {
	return secondsOrDefault(c.cfg.RequestTimeoutSeconds, defaultRequestTimeout)
}

func (c *Client) uploadTimeout() time.Duration {
	return secondsOrDefault(c.cfg.UploadTimeoutSeconds, defaultUploadTimeout)
}

func (c *Client) activationTimeout() time.Duration {
	return secondsOrDefault(c.cfg.ActivationTimeoutSeconds, defaultActivationTimeout)
}

func (c *Client) pollInterval() time.Duration {
	return secondsOrDefault(c.cfg.PollIntervalSeconds, defaultPollInterval)
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func (c *Client) retryAttempts() int {
	if c == nil {
		return 1
	}
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts {
		return 0, false
	}
	if err == nil {
		return 0, false
	}
	if ctx == nil || ctx.Err() != nil {
		return 0, false
	}

	if _, ok := err.(*emptyResponseError); ok {
		return c.backoffDelay(attempt), true
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	// Attempt deadlines come from per-request timeouts; the parent context
	// was checked above and is still live here.
	if errors.Is(err, context.DeadlineExceeded) {
		return c.backoffDelay(attempt), true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := defaultRetryBaseDelay
	maxDelay := defaultRetryMaxDelay
	if c != nil {
		if c.retryBaseDelay >= 0 {
			base = c.retryBaseDelay
		}
		if c.retryMaxDelay > 0 {
			maxDelay = c.retryMaxDelay
		}
	}
	if base <= 0 {
		return 0
	}

	retryCount := attempt // attempt is 1-based, delay is for the next attempt.
	if retryCount <= 0 {
		retryCount = 1
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < retryCount; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := defaultRetryMaxDelay
	if c != nil && c.retryMaxDelay > 0 {
		maxDelay = c.retryMaxDelay
	}
	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		return errors.New("gemini retry: nil context")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c != nil && c.sleeper != nil {
		c.sleeper(delay)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".aac":
		return "audio/aac"
	case ".webm":
		return "audio/webm"
	}
	return "application/octet-stream"
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
