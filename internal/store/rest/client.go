// Package rest serves the store contract from a hosted PostgREST/GoTrue
// compatible service over HTTP.
package rest

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

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"go.uber.org/zap"
)

const (
	restPathPrefix     = "/rest/v1/"
	headerAPIKey       = "apikey"
	headerPrefer       = "Prefer"
	headerContentRange = "Content-Range"
	preferReturnRows   = "return=representation"
	preferExactCount   = "count=exact"
	defaultTimeout     = 10 * time.Second
	maxErrorBodyBytes  = 64 << 10
)

var (
	errMissingBaseURL = errors.New("rest: base url is required")
	errMissingAPIKey  = errors.New("rest: api key is required")
)

// APIError reports a non-2xx response from the hosted service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("rest: status %d: %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("rest: status %d: %s", e.Status, e.Message)
}

// Config describes the hosted service endpoint.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client implements store.Store and store.Authenticator.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

var (
	_ store.Store         = (*Client)(nil)
	_ store.Authenticator = (*Client)(nil)
)

// New constructs a Client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errMissingAPIKey
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient, logger: logger}, nil
}

// Select loads the rows matching query into dest.
func (c *Client) Select(ctx context.Context, query store.Query, dest any) error {
	params := filterParams(query)
	params.Set("select", "*")
	if query.Order != nil {
		direction := "asc"
		if query.Order.Descending {
			direction = "desc"
		}
		params.Set("order", query.Order.Column+"."+direction)
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	response, err := c.do(ctx, http.MethodGet, c.tableURL(query.Table, params), nil, nil)
	if err != nil {
		return err
	}
	return decodeBody(response, dest)
}

// Insert posts one row and loads the stored representation into dest.
func (c *Client) Insert(ctx context.Context, table string, values map[string]any, dest any) error {
	headers := http.Header{headerPrefer: []string{preferReturnRows}}
	response, err := c.do(ctx, http.MethodPost, c.tableURL(table, nil), values, headers)
	if err != nil {
		return err
	}
	return decodeBody(response, dest)
}

// Update patches the matching rows and loads them back into dest.
func (c *Client) Update(ctx context.Context, query store.Query, values map[string]any, dest any) error {
	headers := http.Header{headerPrefer: []string{preferReturnRows}}
	response, err := c.do(ctx, http.MethodPatch, c.tableURL(query.Table, filterParams(query)), values, headers)
	if err != nil {
		return err
	}
	return decodeBody(response, dest)
}

// Delete removes the matching rows and reports how many were removed.
func (c *Client) Delete(ctx context.Context, query store.Query) (int64, error) {
	headers := http.Header{headerPrefer: []string{preferReturnRows}}
	response, err := c.do(ctx, http.MethodDelete, c.tableURL(query.Table, filterParams(query)), nil, headers)
	if err != nil {
		return 0, err
	}
	var removed []json.RawMessage
	if err := decodeBody(response, &removed); err != nil {
		return 0, err
	}
	return int64(len(removed)), nil
}

// Count asks for an exact row count without transferring rows.
func (c *Client) Count(ctx context.Context, table string) (int64, error) {
	params := url.Values{}
	params.Set("select", "*")
	headers := http.Header{headerPrefer: []string{preferExactCount}}
	response, err := c.do(ctx, http.MethodHead, c.tableURL(table, params), nil, headers)
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()
	return parseContentRangeTotal(response.Header.Get(headerContentRange))
}

func (c *Client) tableURL(table string, params url.Values) string {
	target := c.baseURL + restPathPrefix + url.PathEscape(table)
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	return target
}

// do sends the request with the service key and the caller's bearer token.
// Non-2xx responses are consumed and returned as *APIError.
func (c *Client) do(ctx context.Context, method, target string, body any, headers http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	for key, values := range headers {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}
	request.Header.Set(headerAPIKey, c.apiKey)
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if request.Header.Get("Authorization") == "" {
		bearer := c.apiKey
		if token, ok := store.AccessToken(ctx); ok {
			bearer = token
		}
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		defer response.Body.Close()
		apiErr := readAPIError(response)
		c.logger.Debug("store request rejected",
			zap.String("method", method),
			zap.Int("status", apiErr.Status),
			zap.String("code", apiErr.Code))
		return nil, apiErr
	}
	return response, nil
}

func filterParams(query store.Query) url.Values {
	params := url.Values{}
	for _, filter := range query.Filters {
		params.Add(filter.Column, "eq."+formatValue(filter.Value))
	}
	return params
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "null"
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(typed)
	}
}

func decodeBody(response *http.Response, dest any) error {
	defer response.Body.Close()
	if dest == nil {
		_, err := io.Copy(io.Discard, response.Body)
		return err
	}
	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	return json.Unmarshal(payload, dest)
}

func readAPIError(response *http.Response) *APIError {
	apiErr := &APIError{Status: response.StatusCode, Message: http.StatusText(response.StatusCode)}
	payload, err := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
	if err != nil || len(payload) == 0 {
		return apiErr
	}
	var envelope struct {
		Code             any    `json:"code"`
		ErrorCode        string `json:"error_code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(payload, &envelope) != nil {
		return apiErr
	}
	switch {
	case envelope.ErrorCode != "":
		apiErr.Code = envelope.ErrorCode
	case envelope.Error != "":
		apiErr.Code = envelope.Error
	case envelope.Code != nil:
		apiErr.Code = fmt.Sprint(envelope.Code)
	}
	for _, message := range []string{envelope.Message, envelope.Msg, envelope.ErrorDescription} {
		if message != "" {
			apiErr.Message = message
			break
		}
	}
	return apiErr
}

// parseContentRangeTotal reads the total from "0-24/3573" or "*/0".
func parseContentRangeTotal(header string) (int64, error) {
	slash := strings.LastIndex(header, "/")
	if slash < 0 {
		return 0, fmt.Errorf("rest: malformed content range %q", header)
	}
	total := strings.TrimSpace(header[slash+1:])
	if total == "*" {
		return 0, fmt.Errorf("rest: content range %q carries no total", header)
	}
	count, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("rest: malformed content range %q: %w", header, err)
	}
	return count, nil
}
