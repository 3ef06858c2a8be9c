// Package mirror pushes in-memory collections to the hosted document
// store. The mirror is best-effort: callers log and drop failures, the
// in-memory state is the source of truth.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/pennywise-app/pennywise-go/internal/types"
)

const (
	authHeaderKey = "Authorization"
	contentType   = "application/json"
)

// Client mirrors collection snapshots to the remote document store.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	headers     map[string]string
	logger      types.Logger
}

// Options for the mirror client
type Options struct {
	BaseURL     string
	Token       string
	HTTPClient  *http.Client
	Headers     map[string]string
	RetryConfig *types.RetryConfig
	Logger      types.Logger
}

// pushRequest is the wire shape of a collection sync: records are
// upserted by id, deleted ids are removed remotely.
type pushRequest struct {
	Records []interface{} `json:"records"`
	Deleted []string      `json:"deleted,omitempty"`
}

// NewClient creates a new mirror client
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	// Create retry client if configured
	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait

		if opts.Logger != nil {
			retryClient.Logger = &retryLogger{logger: opts.Logger}
		}
	}

	headers := map[string]string{
		"Accept":       contentType,
		"Content-Type": contentType,
		"User-Agent":   types.UserAgent,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Client{
		baseURL:     opts.BaseURL,
		token:       opts.Token,
		httpClient:  opts.HTTPClient,
		retryClient: retryClient,
		headers:     headers,
		logger:      opts.Logger,
	}
}

// Push upserts records into a user's collection and removes deleted
// ids. Best-effort: the caller decides what to do with failures.
func (c *Client) Push(ctx context.Context, userID, collection string, records []interface{}, deleted []string) error {
	body, err := json.Marshal(&pushRequest{Records: records, Deleted: deleted})
	if err != nil {
		return errors.Wrap(err, "failed to marshal records")
	}

	url := fmt.Sprintf("%s/users/%s/%s", c.baseURL, userID, collection)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if c.token != "" {
		httpReq.Header.Set(authHeaderKey, fmt.Sprintf("Bearer %s", c.token))
	}

	if c.logger != nil {
		c.logger.Debug("mirror push", "collection", collection, "records", len(records), "deleted", len(deleted))
	}

	start := time.Now()
	resp, err := c.doRequest(httpReq)
	duration := time.Since(start)
	if err != nil {
		return errors.Wrap(err, "mirror request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if c.logger != nil {
		c.logger.Debug("mirror response", "collection", collection, "status", resp.StatusCode, "duration", duration)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.handleHTTPError(resp.StatusCode, respBody)
	}

	return nil
}

// doRequest executes the HTTP request with retry if configured
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if c.retryClient != nil {
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return c.retryClient.Do(retryReq)
	}
	return c.httpClient.Do(req)
}

// handleHTTPError maps mirror HTTP errors to typed errors
func (c *Client) handleHTTPError(statusCode int, body []byte) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"error_code"`
	}
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.ErrNotAuthenticated
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusTooManyRequests:
		return types.ErrRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return types.ErrTimeout
	case http.StatusBadRequest:
		msg := errResp.Message
		if msg == "" {
			msg = errResp.Error
		}
		return &types.Error{
			Code:       "BAD_REQUEST",
			Message:    msg,
			StatusCode: statusCode,
		}
	default:
		if statusCode >= 500 {
			msg := fmt.Sprintf("server error: %d", statusCode)
			if errResp.Message != "" {
				msg = fmt.Sprintf("%s: %s", msg, errResp.Message)
			}
			return &types.Error{
				Code:       "SERVER_ERROR",
				Message:    msg,
				StatusCode: statusCode,
				Err:        types.ErrServerError,
			}
		}
		return &types.Error{
			Code:       "HTTP_ERROR",
			Message:    fmt.Sprintf("HTTP error: %d", statusCode),
			StatusCode: statusCode,
		}
	}
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
