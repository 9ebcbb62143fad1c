package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/auth/authtest"
	"github.com/dmitrijs2005/regkeeper/internal/client/client"
	"github.com/dmitrijs2005/regkeeper/internal/client/config"
	"github.com/dmitrijs2005/regkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/client/services"
	"github.com/dmitrijs2005/regkeeper/internal/client/wizard"
	"github.com/dmitrijs2005/regkeeper/internal/logging"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

// syncBuffer is a bytes.Buffer safe for the error watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeAuth struct {
	t     testing.TB
	mu    sync.Mutex
	next  map[string]string
	fail  error
	calls int
}

func (f *fakeAuth) Authenticate(ctx context.Context, username, password string) (*client.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return nil, &client.AuthError{Message: f.fail.Error(), Cause: f.fail}
	}
	token, ok := f.next[username]
	if ok {
		delete(f.next, username)
	} else {
		token = authtest.Expiring(f.t, username, 3*time.Hour)
	}
	return &client.AuthResult{AccessToken: token, User: client.RegistryUser{ID: username, Username: username}}, nil
}

type memStore struct{}

func (memStore) Load(ctx context.Context) (models.TokenCollection, error) {
	return models.TokenCollection{}, nil
}

func (memStore) Commit(ctx context.Context, change models.TokenChange) error { return nil }

type fakeSession struct {
	cur       *models.Session
	loginErr  error
	logoutErr error
	gotUser   string
	gotPass   string
	logouts   int
}

func (f *fakeSession) Login(ctx context.Context, username, password string) (models.Session, error) {
	f.gotUser, f.gotPass = username, password
	if f.loginErr != nil {
		return models.Session{}, f.loginErr
	}
	s := models.Session{UserID: "7", Username: username, DisplayName: "Staff " + username}
	f.cur = &s
	return s, nil
}

func (f *fakeSession) Logout(ctx context.Context) error {
	f.logouts++
	f.cur = nil
	return f.logoutErr
}

func (f *fakeSession) Current() *models.Session { return f.cur }

type fakeRegistry struct {
	students  []map[string]any
	info      map[string]any
	approvals []models.StudentApproval
	branches  []models.BankBranch
	err       error
	noToken   bool
}

func (f *fakeRegistry) Authorized() bool { return !f.noToken }

func (f *fakeRegistry) ok() (*client.APIResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &client.APIResponse{IsSuccess: true}, nil
}

func (f *fakeRegistry) SaveGeneralInformation(ctx context.Context, p models.GeneralInformation) (*client.APIResponse, error) {
	return f.ok()
}

func (f *fakeRegistry) SaveContactDetails(ctx context.Context, p models.ContactInformation) (*client.APIResponse, error) {
	return f.ok()
}

func (f *fakeRegistry) SaveAcademicInformation(ctx context.Context, p models.AcademicInformation) (*client.APIResponse, error) {
	return f.ok()
}

func (f *fakeRegistry) UpdateApproval(ctx context.Context, p models.StudentApproval) (*client.APIResponse, error) {
	f.approvals = append(f.approvals, p)
	return f.ok()
}

func (f *fakeRegistry) BankBranchesByIFSC(ctx context.Context, ifsc string) ([]models.BankBranch, error) {
	return f.branches, f.err
}

func (f *fakeRegistry) NewStudentList(ctx context.Context, instituteID int64) ([]map[string]any, error) {
	return f.students, f.err
}

func (f *fakeRegistry) StudentInfo(ctx context.Context, studentID int64) (map[string]any, error) {
	return f.info, f.err
}

type fakeLogout struct {
	tokens []string
	err    error
}

func (f *fakeLogout) Logout(ctx context.Context, token string) error {
	f.tokens = append(f.tokens, token)
	return f.err
}

type testApp struct {
	*App
	auth   *fakeAuth
	sess   *fakeSession
	reg    *fakeRegistry
	logout *fakeLogout
	buf    *syncBuffer
}

var errBoom = errors.New("boom")

// newTestApp builds an App over a real token manager with fake network
// collaborators. stored lists usernames with known credentials.
func newTestApp(t *testing.T, session *models.Session, stored ...string) *testApp {
	t.Helper()

	var list []models.Credentials
	for _, u := range stored {
		list = append(list, models.Credentials{Username: u, Password: u + "-pw"})
	}
	creds := credentials.New(list)

	ta := &testApp{
		auth:   &fakeAuth{t: t, next: map[string]string{}},
		sess:   &fakeSession{cur: session},
		reg:    &fakeRegistry{},
		logout: &fakeLogout{},
		buf:    &syncBuffer{},
	}
	log := logging.Nop()
	tokens := services.NewTokenManager(ta.auth, creds, memStore{}, log)

	ta.App = &App{
		config:    &config.Config{DefaultInstituteID: 5871},
		log:       log,
		tokens:    tokens,
		creds:     creds,
		session:   ta.sess,
		registry:  ta.reg,
		regAuth:   ta.logout,
		wizard:    wizard.New(ta.reg, nil, 5871, log),
		refresher: services.NewRefresher(tokens, creds, time.Hour, time.Hour, log),
		reader:    bufio.NewReader(strings.NewReader("")),
		out:       ta.buf,
		clock:     time.Now,
	}
	return ta
}

func staff() *models.Session {
	return &models.Session{UserID: "1", Username: "staff", DisplayName: "Staff"}
}

func admin() *models.Session {
	return &models.Session{UserID: "2", Username: "admin", DisplayName: "Admin", IsAdmin: true}
}

// stubInput replaces the interactive prompts for one test.
func stubInput(t *testing.T, texts []string, password string, yes bool) {
	t.Helper()
	origText, origPass, origConfirm := getSimpleText, getPassword, confirm
	t.Cleanup(func() { getSimpleText, getPassword, confirm = origText, origPass, origConfirm })

	getSimpleText = func(*bufio.Reader, string, io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		v := texts[0]
		texts = texts[1:]
		return v, nil
	}
	getPassword = func(string, io.Writer) ([]byte, error) { return []byte(password), nil }
	confirm = func(*bufio.Reader, string, io.Writer) (bool, error) { return yes, nil }
}
