package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

const (
	refreshTokenHeader    = "X-Refresh-Token"
	defaultRefreshTimeout = 10 * time.Second
	defaultRateLimitPause = 500 * time.Millisecond
	defaultRequestTimeout = 30 * time.Second
	timestampLayout       = time.RFC3339
	refreshEndpoint       = "/api/v1/auth/refresh"
)

// Gateway funnels every API call through one place that attaches the access
// credential, reacts to authentication failures, and enforces the retry
// discipline: at most one replay after a refresh, at most one retry after a
// rate-limit response, never both compounding into a loop.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     domain.Logger

	refreshTimeout   time.Duration
	rateLimitBackoff time.Duration

	// sleep is swappable so tests do not wait out real backoffs.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGateway creates a Gateway around the given session.
func NewGateway(baseURL string, session *Session, logger domain.Logger, httpClient *http.Client) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Gateway{
		baseURL:          baseURL,
		httpClient:       httpClient,
		session:          session,
		logger:           logger,
		refreshTimeout:   defaultRefreshTimeout,
		rateLimitBackoff: defaultRateLimitPause,
		sleep:            sleepCtx,
	}
}

// Do performs one API call. body is marshalled once and replayed as-is if the
// call is retried; out, when non-nil, receives the decoded success payload.
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	_, generation, authenticated := g.session.Current()

	resp, err := g.send(ctx, method, path, query, payload)
	if err != nil {
		return err
	}

	if resp.status == http.StatusTooManyRequests {
		if err := g.sleep(ctx, g.retryAfter(resp)); err != nil {
			return err
		}
		resp, err = g.send(ctx, method, path, query, payload)
		if err != nil {
			return err
		}
		if resp.status == http.StatusTooManyRequests {
			return apiError(resp.status, resp.errorBody)
		}
	}

	if resp.status == http.StatusUnauthorized {
		if !authenticated {
			// Anonymous callers have nothing to refresh.
			return apiError(resp.status, resp.errorBody)
		}
		if err := g.refreshCredentials(ctx, generation); err != nil {
			return err
		}
		resp, err = g.send(ctx, method, path, query, payload)
		if err != nil {
			return err
		}
		if resp.status == http.StatusUnauthorized {
			// The replay carried a credential the refresh endpoint just
			// issued, so a second rejection means the session is gone.
			g.session.Clear()
			return fmt.Errorf("request rejected after refresh: %w", domain.ErrSessionExpired)
		}
	}

	if resp.status >= http.StatusOK && resp.status < http.StatusMultipleChoices {
		if out != nil && len(resp.body) > 0 {
			if err := json.Unmarshal(resp.body, out); err != nil {
				return fmt.Errorf("failed to decode response body: %w", err)
			}
		}
		return nil
	}
	return apiError(resp.status, resp.errorBody)
}

// refreshCredentials rotates the credential pair exactly once per expiry, no
// matter how many calls hit 401 concurrently. The first caller through the
// mutex does the rotation; the rest block on the same mutex and, once inside,
// see the bumped generation and return immediately to replay with the new
// pair. A failed or timed-out rotation clears the session so every waiter
// fails the same way.
func (g *Gateway) refreshCredentials(ctx context.Context, observedGeneration uint64) error {
	g.session.refreshMu.Lock()
	defer g.session.refreshMu.Unlock()

	pair, generation, ok := g.session.Current()
	if !ok {
		// A previous holder already failed the rotation and cleared the pair.
		return fmt.Errorf("session cleared during refresh: %w", domain.ErrSessionExpired)
	}
	if generation != observedGeneration {
		// Rotated while this caller was waiting on the mutex.
		return nil
	}

	refreshCtx, cancel := context.WithTimeout(ctx, g.refreshTimeout)
	defer cancel()

	newPair, err := g.callRefresh(refreshCtx, pair.RefreshToken)
	if err != nil {
		g.session.Clear()
		g.logger.Warn(ctx, "Credential refresh failed, session cleared", "error", err.Error())
		return fmt.Errorf("credential refresh failed: %w", domain.ErrSessionExpired)
	}

	g.session.Set(*newPair)
	g.logger.Debug(ctx, "Credential pair rotated")
	return nil
}

// callRefresh hits the refresh endpoint directly, outside Do, so an expired
// refresh credential can never trigger another refresh attempt.
func (g *Gateway) callRefresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+refreshEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(refreshTokenHeader, refreshToken)

	httpResp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, apiError(httpResp.StatusCode, decodeErrorBody(raw))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   string `json:"expires_at"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	newRefresh := httpResp.Header.Get(refreshTokenHeader)
	if body.AccessToken == "" || newRefresh == "" {
		return nil, fmt.Errorf("refresh response is missing credentials")
	}
	expiresAt, err := time.Parse(timestampLayout, body.ExpiresAt)
	if err != nil {
		expiresAt = time.Now().Add(15 * time.Minute)
	}
	return &domain.TokenPair{
		AccessToken:  body.AccessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    expiresAt,
	}, nil
}

// response is one completed HTTP exchange with the body already drained, so
// retries never hold connections open.
type response struct {
	status    int
	body      []byte
	headers   http.Header
	errorBody *domain.ErrorResponse
}

func (g *Gateway) send(ctx context.Context, method, path string, query url.Values, payload []byte) (*response, error) {
	target := g.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if pair, _, ok := g.session.Current(); ok {
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}

	httpResp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("request failed: %w: %v", domain.ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w: %v", domain.ErrUnavailable, err)
	}

	resp := &response{status: httpResp.StatusCode, body: raw, headers: httpResp.Header}
	if httpResp.StatusCode >= http.StatusBadRequest {
		resp.errorBody = decodeErrorBody(raw)
	}
	return resp, nil
}

func (g *Gateway) retryAfter(resp *response) time.Duration {
	if raw := resp.headers.Get("Retry-After"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return g.rateLimitBackoff
}

func decodeErrorBody(raw []byte) *domain.ErrorResponse {
	if len(raw) == 0 {
		return nil
	}
	var body domain.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return &body
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
