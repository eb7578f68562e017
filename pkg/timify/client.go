package timify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	sessionCookie   = "connect.sid"
	apiKeyHeader    = "x-api-key"
	maxResponseBody = 4 << 20
)

// Observer receives the outcome of every remote call.
type Observer interface {
	ObserveRemoteCall(op string, status int, duration time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Observer   Observer
	Logger     *zap.Logger
}

// Client is a thin typed wrapper over the timify REST API. It never retries.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// NewClient constructs a Client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     httpClient,
		observer: opts.Observer,
		logger:   logger,
	}
}

// Authenticate logs the service account in and returns the session cookie value.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	resp, err := c.do(ctx, "authenticate", http.MethodPost, "/auth/ep", nil, body)
	if err != nil {
		return "", err
	}
	token := sessionFromHeaders(resp.header)
	if token == "" {
		return "", &RemoteError{Op: "authenticate", StatusCode: resp.status, Err: errors.New("session cookie missing")}
	}
	return token, nil
}

// FetchSession exchanges a session cookie for the API key bound to it.
func (c *Client) FetchSession(ctx context.Context, sessionToken string) (string, error) {
	resp, err := c.do(ctx, "fetch_session", http.MethodGet, "/~/Session", &Credential{SessionToken: sessionToken}, nil)
	if err != nil {
		return "", err
	}
	var payload sessionResponse
	if err := resp.decode("fetch_session", &payload); err != nil {
		return "", err
	}
	if payload.Session.APIToken == "" {
		return "", &RemoteError{Op: "fetch_session", StatusCode: resp.status, Err: errors.New("api token missing")}
	}
	return payload.Session.APIToken, nil
}

// CreateLinks creates one link per label on the requested form.
func (c *Client) CreateLinks(ctx context.Context, cred Credential, req CreateLinksRequest) ([]Link, error) {
	payload := createLinksPayload{
		Labels:     make([]labelPayload, 0, len(req.Labels)),
		ExpiresIn:  req.ExpiresIn,
		ForceClose: req.ForceClose,
		PageID:     pageID(req.FormID),
	}
	for _, label := range req.Labels {
		payload.Labels = append(payload.Labels, labelPayload{Text: label})
	}

	resp, err := c.do(ctx, "create_links", http.MethodPost, "/~/Link/bulk", &cred, payload)
	if err != nil {
		return nil, err
	}
	var created createLinksResponse
	if err := resp.decode("create_links", &created); err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(created.Links))
	for _, item := range created.Links {
		id, _ := scalar(item.ID)
		links = append(links, Link{ID: id, Hash: item.Hash, Label: item.Label})
	}
	return links, nil
}

// FormLinks returns every link of a form with its score and completion time.
func (c *Client) FormLinks(ctx context.Context, cred Credential, formID string) ([]LinkStatus, error) {
	path := "/~/Page/@id/" + url.PathEscape(formID) + "/with/Link"
	resp, err := c.do(ctx, "form_links", http.MethodGet, path, &cred, nil)
	if err != nil {
		return nil, err
	}
	var payload formLinksResponse
	if err := resp.decode("form_links", &payload); err != nil {
		return nil, err
	}

	raw := payload.links()
	statuses := make([]LinkStatus, 0, len(raw))
	for _, item := range raw {
		id, _ := scalar(item.ID)
		statuses = append(statuses, LinkStatus{
			ID:         id,
			Score:      scalarPtr(item.Score),
			FinishedAt: scalarPtr(item.FinishedAt),
		})
	}
	return statuses, nil
}

// ListForms returns every form visible to the service account.
func (c *Client) ListForms(ctx context.Context, cred Credential) ([]Form, error) {
	resp, err := c.do(ctx, "list_forms", http.MethodGet, "/~/Page/all", &cred, nil)
	if err != nil {
		return nil, err
	}
	var payload formsResponse
	if err := resp.decode("list_forms", &payload); err != nil {
		return nil, err
	}
	forms := make([]Form, 0, len(payload.Pages))
	for _, page := range payload.Pages {
		id, _ := scalar(page.ID)
		forms = append(forms, Form{ID: id, Label: page.Label})
	}
	return forms, nil
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r *rawResponse) decode(op string, dest interface{}) error {
	if err := json.Unmarshal(r.body, dest); err != nil {
		return &RemoteError{Op: op, StatusCode: r.status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, cred *Credential, body interface{}) (*rawResponse, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &RemoteError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if cred != nil {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: cred.SessionToken})
		if cred.APIKey != "" {
			req.Header.Set(apiKeyHeader, cred.APIKey)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(op, 0, duration)
		c.logger.Warn("timify request failed", zap.String("op", op), zap.Duration("duration", duration), zap.Error(err))
		return nil, &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.observe(op, resp.StatusCode, duration)

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("timify request rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode}
	}

	c.logger.Debug("timify request", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Duration("duration", duration))
	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: payload}, nil
}

func (c *Client) observe(op string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRemoteCall(op, status, duration)
	}
}

// sessionFromHeaders scans every Set-Cookie value for the session cookie. The
// service has been seen folding several cookies into one comma separated header,
// which net/http's cookie parser does not split.
func sessionFromHeaders(h http.Header) string {
	for _, raw := range h.Values("Set-Cookie") {
		for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' }) {
			part = strings.TrimSpace(part)
			if value, ok := strings.CutPrefix(part, sessionCookie+"="); ok && value != "" {
				return value
			}
		}
	}
	return ""
}

// pageID sends numeric form ids as JSON numbers and leaves anything else for the service to reject.
func pageID(formID string) interface{} {
	if id, err := strconv.ParseInt(strings.TrimSpace(formID), 10, 64); err == nil {
		return id
	}
	return formID
}
