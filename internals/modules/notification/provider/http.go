package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// doRequest executes one outbound provider call and maps the response
// onto the delivery error taxonomy. Every HTTP-backed provider funnels
// through here, for Send and SendTest alike.
func doRequest(client *http.Client, req *http.Request, kind Kind) error {
	resp, err := client.Do(req)
	if err != nil {
		// network error, DNS failure, context timeout
		return newError(Unreachable, kind, "request failed", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return newError(RateLimited, kind, "rate limited", nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return newError(Unauthorized, kind, fmt.Sprintf("rejected with status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// bad target or payload, retrying cannot help
		return newError(InvalidConfig, kind, fmt.Sprintf("rejected with status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return newError(Unreachable, kind, fmt.Sprintf("upstream returned status %d", resp.StatusCode), nil)
	default:
		return newError(UnexpectedResponse, kind, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
}

func postJSON(ctx context.Context, client *http.Client, kind Kind, url string, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return newError(InvalidConfig, kind, "failed to encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return newError(InvalidConfig, kind, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return doRequest(client, req, kind)
}
