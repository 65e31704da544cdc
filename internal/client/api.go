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
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// Client is the typed API surface. Every call goes through the Gateway, so
// authentication, refresh, and retry behavior is uniform across resources.
type Client struct {
	gateway *Gateway
	session *Session
	logger  domain.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.gateway.httpClient = httpClient }
}

// WithRefreshTimeout bounds how long a credential rotation may take before
// the session is abandoned.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) { c.gateway.refreshTimeout = d }
}

// WithRateLimitBackoff sets the pause before the single rate-limit retry when
// the response carries no Retry-After hint.
func WithRateLimitBackoff(d time.Duration) Option {
	return func(c *Client) { c.gateway.rateLimitBackoff = d }
}

// New creates a Client for the service at baseURL.
func New(baseURL string, logger domain.Logger, opts ...Option) *Client {
	session := NewSession()
	c := &Client{
		gateway: NewGateway(strings.TrimRight(baseURL, "/"), session, logger, nil),
		session: session,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the credential state, mainly for tests and CLI frontends.
func (c *Client) Session() *Session {
	return c.session
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairBody struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

// Login establishes a session. The refresh credential arrives in the
// X-Refresh-Token response header, so this call bypasses Gateway.Do and
// handles the exchange directly.
func (c *Client) Login(ctx context.Context, email, password string) error {
	payload, err := jsonBody(loginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gateway.baseURL+"/api/v1/auth/login", payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.gateway.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, body, err := readTokenBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, decodeErrorBody(raw))
	}

	refreshToken := resp.Header.Get(refreshTokenHeader)
	if body.AccessToken == "" || refreshToken == "" {
		return fmt.Errorf("login response is missing credentials")
	}
	expiresAt, err := time.Parse(timestampLayout, body.ExpiresAt)
	if err != nil {
		expiresAt = time.Now().Add(15 * time.Minute)
	}
	c.session.Set(domain.TokenPair{
		AccessToken:  body.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
	return nil
}

// Logout revokes the refresh credential and drops the local session. Safe to
// call without an established session.
func (c *Client) Logout(ctx context.Context) error {
	pair, _, ok := c.session.Current()
	c.session.Clear()
	if !ok {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gateway.baseURL+"/api/v1/auth/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set(refreshTokenHeader, pair.RefreshToken)
	resp, err := c.gateway.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w: %v", domain.ErrUnavailable, err)
	}
	resp.Body.Close()
	return nil
}

// Cart returns the current cart items.
func (c *Client) Cart(ctx context.Context) ([]domain.CartItem, error) {
	var body struct {
		Items []domain.CartItem `json:"items"`
	}
	if err := c.gateway.Do(ctx, http.MethodGet, "/api/v1/cart", nil, nil, &body); err != nil {
		return nil, err
	}
	return body.Items, nil
}

// ChangeCart applies one cart change.
func (c *Client) ChangeCart(ctx context.Context, change domain.CartChange) error {
	return c.gateway.Do(ctx, http.MethodPost, "/api/v1/cart/changes", nil, change, nil)
}

// BatchChangeCart applies several cart changes in one call.
func (c *Client) BatchChangeCart(ctx context.Context, changes []domain.CartChange) error {
	body := map[string]any{"changes": changes}
	return c.gateway.Do(ctx, http.MethodPost, "/api/v1/cart/changes/batch", nil, body, nil)
}

// CartStatus reports which of the given products are in the cart.
func (c *Client) CartStatus(ctx context.Context, productIDs []int64) (map[int64]bool, error) {
	return c.productStatus(ctx, "/api/v1/cart/status", productIDs)
}

// Favorites returns the favorites list.
func (c *Client) Favorites(ctx context.Context) ([]domain.Favorite, error) {
	var body struct {
		Items []domain.Favorite `json:"items"`
	}
	if err := c.gateway.Do(ctx, http.MethodGet, "/api/v1/favorites", nil, nil, &body); err != nil {
		return nil, err
	}
	return body.Items, nil
}

// ChangeFavorites applies one favorites change.
func (c *Client) ChangeFavorites(ctx context.Context, change domain.FavoriteChange) error {
	return c.gateway.Do(ctx, http.MethodPost, "/api/v1/favorites/changes", nil, change, nil)
}

// BatchChangeFavorites applies several favorites changes in one call.
func (c *Client) BatchChangeFavorites(ctx context.Context, changes []domain.FavoriteChange) error {
	body := map[string]any{"changes": changes}
	return c.gateway.Do(ctx, http.MethodPost, "/api/v1/favorites/changes/batch", nil, body, nil)
}

// FavoritesStatus reports which of the given products are favorited.
func (c *Client) FavoritesStatus(ctx context.Context, productIDs []int64) (map[int64]bool, error) {
	return c.productStatus(ctx, "/api/v1/favorites/status", productIDs)
}

// Profile returns the caller's profile.
func (c *Client) Profile(ctx context.Context) (*domain.Profile, error) {
	var profile domain.Profile
	if err := c.gateway.Do(ctx, http.MethodGet, "/api/v1/profile", nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ChangeProfile applies one profile change.
func (c *Client) ChangeProfile(ctx context.Context, change domain.ProfileChange) error {
	return c.gateway.Do(ctx, http.MethodPost, "/api/v1/profile/changes", nil, change, nil)
}

// BatchChangeProfile applies several profile changes in one call.
func (c *Client) BatchChangeProfile(ctx context.Context, changes []domain.ProfileChange) error {
	body := map[string]any{"changes": changes}
	return c.gateway.Do(ctx, http.MethodPost, "/api/v1/profile/changes/batch", nil, body, nil)
}

// Promocodes returns all currently applicable promocodes.
func (c *Client) Promocodes(ctx context.Context) ([]domain.Promocode, error) {
	var body struct {
		Promocodes []domain.Promocode `json:"promocodes"`
	}
	if err := c.gateway.Do(ctx, http.MethodGet, "/api/v1/promocodes", nil, nil, &body); err != nil {
		return nil, err
	}
	return body.Promocodes, nil
}

// PromocodeStatus reports which of the given codes are currently applicable.
func (c *Client) PromocodeStatus(ctx context.Context, codes []string) (map[string]bool, error) {
	query := url.Values{}
	if len(codes) > 0 {
		query.Set("codes", strings.Join(codes, ","))
	}
	var body struct {
		Status map[string]bool `json:"status"`
	}
	if err := c.gateway.Do(ctx, http.MethodGet, "/api/v1/promocodes/status", query, nil, &body); err != nil {
		return nil, err
	}
	return body.Status, nil
}

// Orders returns the caller's order history.
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var body struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.gateway.Do(ctx, http.MethodGet, "/api/v1/orders", nil, nil, &body); err != nil {
		return nil, err
	}
	return body.Orders, nil
}

// PlaceOrder turns the current cart into an order.
func (c *Client) PlaceOrder(ctx context.Context) (*domain.Order, error) {
	var order domain.Order
	if err := c.gateway.Do(ctx, http.MethodPost, "/api/v1/orders", nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder cancels one of the caller's placed orders.
func (c *Client) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	change := domain.OrderChange{Kind: domain.OrderCancel, OrderID: orderID}
	return c.gateway.Do(ctx, http.MethodPost, "/api/v1/orders/changes", nil, change, nil)
}

func jsonBody(v any) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(raw), nil
}

func readTokenBody(resp *http.Response) ([]byte, *tokenPairBody, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	var body tokenPairBody
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(raw, &body); err != nil {
			return raw, nil, fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return raw, &body, nil
}

func (c *Client) productStatus(ctx context.Context, path string, productIDs []int64) (map[int64]bool, error) {
	query := url.Values{}
	if len(productIDs) > 0 {
		parts := make([]string, 0, len(productIDs))
		for _, id := range productIDs {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
		query.Set("product_ids", strings.Join(parts, ","))
	}
	var body struct {
		Status map[string]bool `json:"status"`
	}
	if err := c.gateway.Do(ctx, http.MethodGet, path, query, nil, &body); err != nil {
		return nil, err
	}
	result := make(map[int64]bool, len(body.Status))
	for key, present := range body.Status {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		result[id] = present
	}
	return result, nil
}
