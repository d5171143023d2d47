package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiSendTimeout   = 30 * time.Second
	apiVerifyTimeout = 10 * time.Second
)

var httpClient = &http.Client{}

// apiResponse is a raw HTTP outcome from a transactional-email API call.
type apiResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

func doJSON(ctx context.Context, method, endpoint string, headers map[string]string, payload interface{}, timeout time.Duration) (*apiResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return execute(req)
}

func doForm(ctx context.Context, method, endpoint, basicUser, basicPass string, form url.Values, timeout time.Duration) (*apiResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.SetBasicAuth(basicUser, basicPass)

	return execute(req)
}

func execute(req *http.Request) (*apiResponse, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	return &apiResponse{
		StatusCode: resp.StatusCode,
		Body:       raw,
		Headers:    resp.Header,
	}, nil
}

func (r *apiResponse) errorText() string {
	text := strings.TrimSpace(string(r.Body))
	if text == "" {
		return http.StatusText(r.StatusCode)
	}
	return text
}

func (r *apiResponse) jsonField(name string) string {
	var decoded map[string]interface{}
	if err := json.Unmarshal(r.Body, &decoded); err != nil {
		return ""
	}
	if value, ok := decoded[name].(string); ok {
		return value
	}
	return ""
}
