package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/regkeeper/internal/client/client"
	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/regkeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/regkeeper/internal/logging"
)

// PrimaryAuthenticator signs staff in.
type PrimaryAuthenticator interface {
	Login(ctx context.Context, username, password string) (*client.LMSUser, error)
}

// TokenCleaner is notified when the staff member signs out.
type TokenCleaner interface {
	Cleanup(ctx context.Context) error
}

// SessionService owns the signed-in staff identity and keeps it in the
// metadata table so it survives restarts.
type SessionService struct {
	mu      sync.RWMutex
	session *models.Session

	lms    PrimaryAuthenticator
	tokens TokenCleaner
	db     *sql.DB
	repos  repomanager.RepositoryManager
	admins []string
	log    logging.Logger
}

func NewSessionService(lms PrimaryAuthenticator, tokens TokenCleaner, db *sql.DB, repos repomanager.RepositoryManager, admins []string, log logging.Logger) *SessionService {
	return &SessionService{lms: lms, tokens: tokens, db: db, repos: repos, admins: admins, log: log}
}

// IsAdmin reports whether username is on the admin list. Matching ignores
// case, and an entry written as an e-mail address also matches its local
// part.
func IsAdmin(admins []string, username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}
	for _, a := range admins {
		a = strings.TrimSpace(a)
		if strings.EqualFold(a, username) {
			return true
		}
		if local, _, ok := strings.Cut(a, "@"); ok && strings.EqualFold(local, username) {
			return true
		}
	}
	return false
}

// Restore loads a previously persisted session, if any.
func (s *SessionService) Restore(ctx context.Context) error {
	data, err := s.repos.Metadata(s.db).Get(ctx, metadata.KeySession)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if data == nil {
		return nil
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.Warn(ctx, "discarding unreadable session", "error", err)
		return s.repos.Metadata(s.db).Delete(ctx, metadata.KeySession)
	}
	// the admin list may have changed since the session was stored
	sess.IsAdmin = IsAdmin(s.admins, sess.Username)

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()
	return nil
}

// Login authenticates against the LMS and persists the resulting session.
func (s *SessionService) Login(ctx context.Context, username, password string) (models.Session, error) {
	user, err := s.lms.Login(ctx, username, password)
	if err != nil {
		s.log.Info(ctx, "login failed", "username", username, "error", err)
		return models.Session{}, err
	}

	sess := models.Session{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.FullName,
		IsAdmin:     IsAdmin(s.admins, user.Username),
	}
	if sess.DisplayName == "" {
		sess.DisplayName = sess.Username
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return models.Session{}, err
	}
	if err := s.repos.Metadata(s.db).Set(ctx, metadata.KeySession, data); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()

	s.log.Info(ctx, "signed in", "username", sess.Username, "admin", sess.IsAdmin)
	return sess, nil
}

// Logout clears the current registry token and forgets the session. The
// session is dropped even when the token cleanup fails; that error is
// returned.
func (s *SessionService) Logout(ctx context.Context) error {
	cleanupErr := s.tokens.Cleanup(ctx)
	if cleanupErr != nil {
		s.log.Error(ctx, "token cleanup on logout failed", "error", cleanupErr)
	}

	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if err := s.repos.Metadata(s.db).Delete(ctx, metadata.KeySession); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return cleanupErr
}

// Current returns the signed-in session, or nil.
func (s *SessionService) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}
