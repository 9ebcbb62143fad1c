package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/auth/authtest"
	"github.com/dmitrijs2005/regkeeper/internal/client/client"
	"github.com/dmitrijs2005/regkeeper/internal/client/models"
)

// fakeAuth issues tokens from a queue per username, falling back to a fresh
// 24h token.
type fakeAuth struct {
	t testing.TB

	mu     sync.Mutex
	queue  map[string][]string
	fail   map[string]error
	calls  map[string]int
	before func(username string)
}

func newFakeAuth(t testing.TB) *fakeAuth {
	return &fakeAuth{
		t:     t,
		queue: map[string][]string{},
		fail:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeAuth) push(username, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[username] = append(f.queue[username], token)
}

func (f *fakeAuth) failWith(username string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[username] = err
}

func (f *fakeAuth) callCount(username string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[username]
}

func (f *fakeAuth) Authenticate(ctx context.Context, username, password string) (*client.AuthResult, error) {
	if f.before != nil {
		f.before(username)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[username]++
	if err := f.fail[username]; err != nil {
		return nil, &client.AuthError{Message: err.Error(), Cause: err}
	}

	var token string
	if q := f.queue[username]; len(q) > 0 {
		token, f.queue[username] = q[0], q[1:]
	} else {
		token = authtest.Expiring(f.t, username, 24*time.Hour)
	}
	return &client.AuthResult{
		AccessToken: token,
		User:        client.RegistryUser{ID: username, Username: username, FullName: username},
	}, nil
}

type fakeCreds map[string]string

func (c fakeCreds) Lookup(username string) (models.Credentials, bool) {
	p, ok := c[username]
	if !ok {
		return models.Credentials{}, false
	}
	return models.Credentials{Username: username, Password: p}, true
}

// memStore is an in-memory TokenStore.
type memStore struct {
	mu      sync.Mutex
	coll    models.TokenCollection
	failErr error
	commits int
}

var errCommit = errors.New("disk full")

func (s *memStore) Load(ctx context.Context) (models.TokenCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Clone(), nil
}

func (s *memStore) Commit(ctx context.Context, change models.TokenChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return s.failErr
	}
	s.commits++
	for _, rec := range change.Upsert {
		if i := s.coll.Find(rec.ID); i >= 0 {
			s.coll.Tokens[i] = rec
		} else {
			s.coll.Tokens = append(s.coll.Tokens, rec)
		}
	}
	for _, id := range change.Delete {
		if i := s.coll.Find(id); i >= 0 {
			s.coll.Tokens = append(s.coll.Tokens[:i], s.coll.Tokens[i+1:]...)
		}
	}
	if change.Current != nil {
		s.coll.CurrentID = *change.Current
	}
	return nil
}

// recordingSink remembers the last bearer it was given.
type recordingSink struct {
	mu       sync.Mutex
	username string
	token    string
	set      bool
}

func (s *recordingSink) SetBearer(username, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username, s.token, s.set = username, token, true
}

func (s *recordingSink) ClearBearer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username, s.token, s.set = "", "", false
}

func (s *recordingSink) get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.set
}

// record builds a stored record for seeding a store.
func record(id, username, token string, active bool) models.TokenRecord {
	now := time.Now()
	return models.TokenRecord{
		ID:        id,
		Username:  username,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
		IsActive:  active,
	}
}
