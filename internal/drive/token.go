package drive

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// Assertion lifetime per the JWT-bearer grant; Google rejects anything
	// longer than an hour.
	assertionLifetime = time.Hour
)

// assertionClaims is the claim set for the service-account assertion. The
// audience is declared as a plain string: the token endpoint wants
// `"aud": "..."`, and RegisteredClaims.Audience would serialize a
// single-element audience as a JSON array.
type assertionClaims struct {
	jwt.RegisteredClaims
	Aud   string `json:"aud"`
	Scope string `json:"scope"`
}

// tokenResponse models the token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// signAssertion builds and RS256-signs the JWT-bearer assertion. The result
// is three base64url segments joined with dots, unpadded.
func signAssertion(key *rsa.PrivateKey, clientEmail, scope, audience string, now time.Time) (string, error) {
	claims := assertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    clientEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		},
		Aud:   audience,
		Scope: scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}

// mintAccessToken exchanges a signed assertion for a short-lived bearer
// token. Tokens are not cached: every upload mints a fresh one, which keeps
// the path stateless and safe to retry.
func (c *Client) mintAccessToken(ctx context.Context) (string, error) {
	assertion, err := signAssertion(c.key, c.account.ClientEmail, c.scope, c.tokenURL, c.now())
	if err != nil {
		return "", &AuthenticationError{Err: err}
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthenticationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthenticationError{Err: fmt.Errorf("token request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthenticationError{Err: fmt.Errorf("read token response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The upstream body names the rejection reason (invalid_grant,
		// clock skew, revoked account) and carries no caller secrets.
		return "", &AuthenticationError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", &AuthenticationError{Err: fmt.Errorf("decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return "", &AuthenticationError{StatusCode: resp.StatusCode, Body: "token response missing access_token"}
	}

	return tr.AccessToken, nil
}
