package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/common"
	"github.com/dmitrijs2005/regkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lmsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/login/token.php":
			assert.Equal(t, DefaultLMSService, q.Get("service"))
			if q.Get("username") == "staff" && q.Get("password") == "pw" {
				_, _ = w.Write([]byte(`{"token":"lms-tok","privatetoken":null}`))
				return
			}
			_, _ = w.Write([]byte(`{"error":"Invalid login, please try again","errorcode":"invalidlogin"}`))
		case "/webservice/rest/server.php":
			assert.Equal(t, "lms-tok", q.Get("wstoken"))
			assert.Equal(t, "core_webservice_get_site_info", q.Get("wsfunction"))
			assert.Equal(t, "json", q.Get("moodlewsrestformat"))
			_, _ = w.Write([]byte(`{"userid":311,"username":"staff@uni.edu","fullname":"Staff Member"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLMSLogin_Success(t *testing.T) {
	srv := lmsServer(t)
	c := NewLMSClient(srv.URL, "", NewHTTPClient(5*time.Second), logging.Nop())

	u, err := c.Login(context.Background(), "staff", "pw")
	require.NoError(t, err)
	assert.Equal(t, &LMSUser{ID: "311", Username: "staff@uni.edu", FullName: "Staff Member"}, u)
}

func TestLMSLogin_InvalidCredentials(t *testing.T) {
	srv := lmsServer(t)
	c := NewLMSClient(srv.URL, "", NewHTTPClient(5*time.Second), logging.Nop())

	_, err := c.Login(context.Background(), "staff", "wrong")
	require.ErrorIs(t, err, common.ErrAuthFailed)
	assert.EqualError(t, err, "Invalid credentials")
}

func TestLMSLogin_EmptyInput(t *testing.T) {
	c := NewLMSClient("http://127.0.0.1:1", "", NewHTTPClient(time.Second), logging.Nop())
	_, err := c.Login(context.Background(), "", "")
	require.ErrorIs(t, err, common.ErrAuthFailed)
}

func TestLMSLogin_ProfileException(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login/token.php" {
			_, _ = w.Write([]byte(`{"token":"t"}`))
			return
		}
		_, _ = w.Write([]byte(`{"exception":"webservice_access_exception","message":"Access control exception"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewLMSClient(srv.URL, "", NewHTTPClient(5*time.Second), logging.Nop())
	_, err := c.Login(context.Background(), "a", "b")
	require.ErrorIs(t, err, common.ErrAuthFailed)
	assert.EqualError(t, err, "Access control exception")
}

func TestLMSLogin_TransportErrorHidesPassword(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewLMSClient(base, "", NewHTTPClient(time.Second), logging.Nop())
	_, err := c.Login(context.Background(), "staff", "S3cretPass")
	require.ErrorIs(t, err, common.ErrAuthFailed)
	assert.NotContains(t, err.Error(), "S3cretPass")
	assert.NotContains(t, err.Error(), "password=")
	assert.Contains(t, err.Error(), "/login/token.php")

	var ue *url.Error
	require.ErrorAs(t, err, &ue)
	assert.NotContains(t, ue.URL, "S3cretPass")
}

// profileDropper answers the token call and fails the profile call at the
// transport level.
type profileDropper struct{}

func (profileDropper) Do(req *http.Request) (*http.Response, error) {
	if req.URL.Path == "/login/token.php" {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"token":"lms-secret-tok"}`)),
		}, nil
	}
	return nil, &url.Error{Op: "Get", URL: req.URL.String(), Err: errors.New("connection reset by peer")}
}

func TestLMSLogin_ProfileTransportErrorHidesToken(t *testing.T) {
	c := NewLMSClient("http://lms.invalid", "", profileDropper{}, logging.Nop())

	_, err := c.Login(context.Background(), "staff", "pw")
	require.ErrorIs(t, err, common.ErrAuthFailed)
	assert.NotContains(t, err.Error(), "lms-secret-tok")
	assert.NotContains(t, err.Error(), "wstoken")
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestStripQuery(t *testing.T) {
	plain := errors.New("plain")
	assert.Same(t, plain, stripQuery(plain))

	err := stripQuery(&url.Error{Op: "Get", URL: "http://h/p?password=x", Err: plain})
	assert.Equal(t, `Get "http://h/p": plain`, err.Error())
	assert.ErrorIs(t, err, plain)
}
