package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"resourcedesk/pkg/logging"
)

// Observer is told about every backend call; endpoint is a stable label
// such as "list" or "transition", result is "2xx", "4xx", "5xx" or "error".
type Observer func(endpoint, result string, elapsed time.Duration)

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
	Observe    Observer
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
	}
}

type response struct {
	status      int
	body        []byte
	contentType string
	disposition string
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, reqBody any) (*response, error) {
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	if c.BaseURL == "" {
		return nil, &Error{Kind: ErrFetchFailed, Op: endpoint, Message: "backend base url not configured"}
	}

	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
	}

	u := strings.TrimRight(c.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	reqID := logging.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		return nil, &Error{Kind: ErrFetchFailed, Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(endpoint, "error", start)
		return nil, &Error{Kind: ErrFetchFailed, Op: endpoint, Status: resp.StatusCode, Err: err}
	}
	c.observe(endpoint, resultLabel(resp.StatusCode), start)

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"endpoint":   endpoint,
		"status":     resp.StatusCode,
		"request_id": reqID,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("backend call")

	return &response{
		status:      resp.StatusCode,
		body:        b,
		contentType: resp.Header.Get("Content-Type"),
		disposition: resp.Header.Get("Content-Disposition"),
	}, nil
}

// getJSON issues a GET and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, endpoint, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if resp.status < 200 || resp.status >= 300 {
		return classify(endpoint, resp.status, resp.body, false)
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &Error{Kind: ErrFetchFailed, Op: endpoint, Status: resp.status, Message: "undecodable response", Err: err}
	}
	return nil
}

func (c *Client) observe(endpoint, result string, start time.Time) {
	if c.Observe != nil {
		c.Observe(endpoint, result, time.Since(start))
	}
}

func resultLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
