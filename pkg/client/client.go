package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/config"
)

// Refresh the token slightly before SFMC expires it to avoid racing the
// deadline with an in-flight request.
const tokenExpiryMargin = time.Minute

// SFMCClient talks to the Marketing Cloud REST API on behalf of the gateway.
type SFMCClient struct {
	config.SFMCConfig

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Create and initialize a new SFMCClient
func NewSFMCClient(cfg config.SFMCConfig) *SFMCClient {
	return &SFMCClient{
		SFMCConfig: cfg,
	}
}

// Fetch a new access token via the OAuth2 client-credentials flow.
// API endpoint: POST /v2/token
func (c *SFMCClient) fetchToken() (TokenResponse, error) {
	payload, err := json.Marshal(TokenRequest{
		GrantType:    "client_credentials",
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	})
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.AuthURL+"/v2/token", bytes.NewReader(payload))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to create token request: %w", err)
	}
	commonHeaders(req, "")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to request access token: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return TokenResponse{}, fmt.Errorf("failed to get access token, status code: %d", res.StatusCode)
	}

	var token TokenResponse
	err = json.NewDecoder(res.Body).Decode(&token)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to decode access token response: %w", err)
	}
	if token.AccessToken == "" {
		return TokenResponse{}, fmt.Errorf("access token response contained no token")
	}

	return token, nil
}

// getToken returns the cached access token, refreshing it when it is about
// to expire.
func (c *SFMCClient) getToken() (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	token, err := c.fetchToken()
	if err != nil {
		return "", err
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpiryMargin)
	return c.accessToken, nil
}
