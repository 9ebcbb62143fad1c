package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/regkeeper/internal/cryptox"
	"github.com/dmitrijs2005/regkeeper/internal/logging"
)

// RegistryUser is the identity the registry reports for a login.
type RegistryUser struct {
	ID       string
	Username string
	FullName string
}

// AuthResult is a successful registry login.
type AuthResult struct {
	AccessToken string
	User        RegistryUser
}

// RegistryAuthClient logs service accounts in to the registry.
type RegistryAuthClient struct {
	baseURL    string
	http       HTTPDoer
	encrypter  cryptox.FieldEncrypter
	deviceInfo string
	log        logging.Logger
}

func NewRegistryAuthClient(baseURL string, httpClient HTTPDoer, enc cryptox.FieldEncrypter, deviceInfo string, log logging.Logger) *RegistryAuthClient {
	return &RegistryAuthClient{
		baseURL:    baseURL,
		http:       httpClient,
		encrypter:  enc,
		deviceInfo: deviceInfo,
		log:        log,
	}
}

type tokenRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	DeviceInfo    string `json:"deviceInfo"`
	TimeZone      string `json:"timeZone"`
	AppType       int    `json:"appType"`
	IsForceLogout bool   `json:"isForceLogout"`
}

// Authenticate exchanges username and password for an access token. It makes
// at most one request and never retries. Every failure is an *AuthError.
func (c *RegistryAuthClient) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, &AuthError{Message: "username and password are required"}
	}

	encrypted, err := c.encrypter.Encrypt(password)
	if err != nil {
		return nil, &AuthError{Message: "failed to encrypt password", Cause: err}
	}

	payload, err := json.Marshal(tokenRequest{
		Username:      username,
		Password:      encrypted,
		DeviceInfo:    c.deviceInfo,
		TimeZone:      "",
		AppType:       0,
		IsForceLogout: true,
	})
	if err != nil {
		return nil, &AuthError{Message: "failed to encode login request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(c.baseURL, "/api/token"), bytes.NewReader(payload))
	if err != nil {
		return nil, &AuthError{Message: "failed to build login request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug(ctx, "registry login", "username", username)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("registry unreachable: %v", err), Cause: err}
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, &AuthError{Message: "failed to read registry response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := failureMessage(resp, body)
		c.log.Warn(ctx, "registry login rejected", "username", username, "status", resp.StatusCode)
		return nil, &AuthError{Message: msg}
	}

	data, err := decodeObject(body)
	if err != nil {
		return nil, &AuthError{Message: "Invalid response format from server", Cause: err}
	}

	token := stringField(data, "token", "accessToken", "access_token")
	if token == "" {
		return nil, &AuthError{Message: "registry response carried no token"}
	}

	user := RegistryUser{
		ID:       stringField(data, "userId", "id", "user_id"),
		Username: username,
		FullName: stringField(data, "fullname", "name", "full_name"),
	}
	if user.ID == "" {
		user.ID = username
	}
	if user.FullName == "" {
		user.FullName = username
	}

	return &AuthResult{AccessToken: token, User: user}, nil
}

// failureMessage prefers the message or error field of a JSON body and falls
// back to the status line plus raw body.
func failureMessage(resp *http.Response, body []byte) string {
	if data, err := decodeObject(body); err == nil {
		if msg := stringField(data, "message", "error"); msg != "" {
			return msg
		}
		return "Authentication failed"
	}
	msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if len(body) > 0 {
		msg += " - " + string(body)
	}
	return msg
}

// Logout ends the registry session bound to token.
func (c *RegistryAuthClient) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(c.baseURL, "/api/user/logout"), bytes.NewReader([]byte("{}")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	if _, err := readBody(resp); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	return nil
}
