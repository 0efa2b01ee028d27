package pia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenURL is the PIA account API token endpoint. Exposed as a variable so
// tests can point it at a local server. The exchange happens outside the
// tunnel namespace; the token endpoint is reachable on the open internet.
var TokenURL = "https://www.privateinternetaccess.com/api/client/v2/token"

var tokenClient = &http.Client{Timeout: 10 * time.Second}

// ExchangeToken trades credentials for a short-lived API token. The
// credentials are consumed here and must not be kept by callers.
func ExchangeToken(ctx context.Context, user, pass string) (string, error) {
	form := url.Values{"username": {user}, "password": {pass}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build token request: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := tokenClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %s", ErrAuth, resp.Status)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", ErrAuth, err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("%w: empty token in response", ErrAuth)
	}
	return body.Token, nil
}
