package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/regkeeper/internal/logging"
)

// DefaultLMSService is the web-service name tokens are requested for.
const DefaultLMSService = "moodle_mobile_app"

// LMSUser is the profile of a signed-in LMS user.
type LMSUser struct {
	ID       string
	Username string
	FullName string
}

// LMSClient signs staff in against the LMS.
type LMSClient struct {
	baseURL string
	service string
	http    HTTPDoer
	log     logging.Logger
}

func NewLMSClient(baseURL, service string, httpClient HTTPDoer, log logging.Logger) *LMSClient {
	if service == "" {
		service = DefaultLMSService
	}
	return &LMSClient{baseURL: baseURL, service: service, http: httpClient, log: log}
}

// stripQuery drops the query string from any *url.Error in err. LMS calls
// carry the password and wstoken in the query.
func stripQuery(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	clean := *ue
	if i := strings.IndexByte(clean.URL, '?'); i >= 0 {
		clean.URL = clean.URL[:i]
	}
	return &clean
}

func (c *LMSClient) getJSON(ctx context.Context, path string, q url.Values) (map[string]any, error) {
	u := joinURL(c.baseURL, path) + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, stripQuery(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, stripQuery(err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	return decodeObject(body)
}

// Login exchanges credentials for an LMS token and fetches the profile it
// belongs to. Every failure is an *AuthError.
func (c *LMSClient) Login(ctx context.Context, username, password string) (*LMSUser, error) {
	if username == "" || password == "" {
		return nil, &AuthError{Message: "username and password are required"}
	}

	tokenData, err := c.getJSON(ctx, "/login/token.php", url.Values{
		"username": {username},
		"password": {password},
		"service":  {c.service},
	})
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("LMS login failed: %v", err), Cause: err}
	}
	if _, failed := tokenData["error"]; failed {
		c.log.Info(ctx, "LMS rejected credentials", "username", username)
		return nil, &AuthError{Message: "Invalid credentials"}
	}
	token := stringField(tokenData, "token")
	if token == "" {
		return nil, &AuthError{Message: "LMS response carried no token"}
	}

	profile, err := c.getJSON(ctx, "/webservice/rest/server.php", url.Values{
		"wstoken":            {token},
		"wsfunction":         {"core_webservice_get_site_info"},
		"moodlewsrestformat": {"json"},
	})
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("LMS profile lookup failed: %v", err), Cause: err}
	}
	if _, failed := profile["exception"]; failed {
		msg := stringField(profile, "message", "errorcode")
		if msg == "" {
			msg = "LMS profile lookup failed"
		}
		return nil, &AuthError{Message: msg}
	}

	user := &LMSUser{
		ID:       stringField(profile, "userid"),
		Username: stringField(profile, "username"),
		FullName: stringField(profile, "fullname"),
	}
	if user.Username == "" {
		user.Username = username
	}
	return user, nil
}
