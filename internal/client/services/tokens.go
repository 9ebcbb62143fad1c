// Package services contains the application services of the regkeeper
// client: the registry token lifecycle, its background refresher and the
// staff session.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/auth"
	"github.com/dmitrijs2005/regkeeper/internal/client/client"
	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/common"
	"github.com/dmitrijs2005/regkeeper/internal/logging"
	"github.com/google/uuid"
)

// fallbackValidity is recorded as ExpiresAt for tokens whose expiry cannot be
// decoded. It is for display only.
const fallbackValidity = 24 * time.Hour

// Authenticator obtains registry access tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*client.AuthResult, error)
}

// CredentialLookup finds service-account credentials by username.
type CredentialLookup interface {
	Lookup(username string) (models.Credentials, bool)
}

// BearerSink is told whenever the token used for outbound calls changes.
type BearerSink interface {
	SetBearer(username, token string)
	ClearBearer()
}

// TokenManager owns the registry token collection. All mutations go through
// its methods; readers get immutable snapshots. Network calls are made
// without holding the lock, and every change is committed to the store
// before memory is updated.
type TokenManager struct {
	mu        sync.Mutex
	coll      models.TokenCollection
	lastError string
	inFlight  int
	subs      map[int]chan models.TokenState
	nextSub   int

	auth  Authenticator
	creds CredentialLookup
	store TokenStore
	sink  BearerSink
	log   logging.Logger

	clock func() time.Time
	newID func() string
}

func NewTokenManager(authn Authenticator, creds CredentialLookup, store TokenStore, log logging.Logger) *TokenManager {
	return &TokenManager{
		subs:  make(map[int]chan models.TokenState),
		auth:  authn,
		creds: creds,
		store: store,
		log:   log,
		clock: time.Now,
		newID: uuid.NewString,
	}
}

// WithClock overrides clock for testing.
func (m *TokenManager) WithClock(clock func() time.Time) *TokenManager {
	m.clock = clock
	return m
}

// Attach sets the sink notified about bearer changes and brings it in line
// with the current token.
func (m *TokenManager) Attach(sink BearerSink) {
	m.mu.Lock()
	m.sink = sink
	m.mu.Unlock()
	m.Resync()
}

// Load replaces the in-memory collection with the stored one. It is called
// once at startup.
func (m *TokenManager) Load(ctx context.Context) error {
	coll, err := m.store.Load(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.coll = coll
	m.mu.Unlock()

	m.log.Info(ctx, "token collection loaded", "tokens", len(coll.Tokens), "current", coll.CurrentID)
	m.Resync()
	return nil
}

// begin marks an operation as in flight and clears the previous error.
func (m *TokenManager) begin() {
	m.mu.Lock()
	m.inFlight++
	m.lastError = ""
	m.mu.Unlock()
	m.publish()
}

// end finishes an operation started with begin, recording err if non-nil.
func (m *TokenManager) end(err error) {
	m.mu.Lock()
	m.inFlight--
	if err != nil {
		m.lastError = err.Error()
	}
	m.mu.Unlock()
	m.publish()
}

// commitLocked persists change and, on success, installs next. m.mu must be
// held.
func (m *TokenManager) commitLocked(ctx context.Context, next models.TokenCollection, change models.TokenChange) error {
	if err := m.store.Commit(ctx, change); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	m.coll = next
	return nil
}

func (m *TokenManager) newRecord(username, token string) models.TokenRecord {
	now := m.clock()
	exp, err := auth.ExpiresAt(token)
	if err != nil {
		exp = now.Add(fallbackValidity)
	}
	return models.TokenRecord{
		ID:        m.newID(),
		Username:  username,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: exp,
		IsActive:  true,
	}
}

// supersede deactivates every active record of username in next and returns
// the records it changed.
func supersede(next *models.TokenCollection, username string) []models.TokenRecord {
	var changed []models.TokenRecord
	for i := range next.Tokens {
		if next.Tokens[i].Username == username && next.Tokens[i].IsActive {
			next.Tokens[i].IsActive = false
			changed = append(changed, next.Tokens[i])
		}
	}
	return changed
}

// Issue authenticates with creds and makes the new token current. Earlier
// active tokens of the same username are deactivated. On failure the
// collection is left untouched.
func (m *TokenManager) Issue(ctx context.Context, creds models.Credentials) (models.TokenRecord, error) {
	m.begin()
	rec, err := m.issue(ctx, creds)
	m.end(err)
	return rec, err
}

func (m *TokenManager) issue(ctx context.Context, creds models.Credentials) (models.TokenRecord, error) {
	res, err := m.auth.Authenticate(ctx, creds.Username, creds.Password)
	if err != nil {
		m.log.Warn(ctx, "token issue failed", "username", creds.Username, "error", err)
		return models.TokenRecord{}, err
	}
	rec := m.newRecord(creds.Username, res.AccessToken)

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.coll.Clone()
	change := models.TokenChange{Upsert: supersede(&next, rec.Username)}
	next.Tokens = append(next.Tokens, rec)
	next.CurrentID = rec.ID
	change.Upsert = append(change.Upsert, rec)
	change.Current = &rec.ID

	if err := m.commitLocked(ctx, next, change); err != nil {
		return models.TokenRecord{}, err
	}
	if m.sink != nil {
		m.sink.SetBearer(rec.Username, rec.Token)
	}

	m.log.Info(ctx, "token issued", "username", rec.Username, "id", rec.ID, "expires_at", rec.ExpiresAt)
	return rec, nil
}

// Activate makes the token with id current. It fails with
// common.ErrTokenNotFound for unknown ids and common.ErrTokenExpired for
// tokens that are expired or deactivated; if that token was current, current
// is cleared.
func (m *TokenManager) Activate(ctx context.Context, id string) error {
	m.begin()
	err := m.activate(ctx, id)
	m.end(err)
	return err
}

func (m *TokenManager) activate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.coll.Find(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", common.ErrTokenNotFound, id)
	}
	rec := m.coll.Tokens[idx]

	if !rec.Valid(m.clock()) {
		expired := fmt.Errorf("%w: %s", common.ErrTokenExpired, id)
		if !rec.IsActive {
			expired = fmt.Errorf("%w: %s has been deactivated", common.ErrTokenExpired, id)
		}
		if m.coll.CurrentID == id {
			next := m.coll.Clone()
			next.CurrentID = ""
			empty := ""
			if err := m.commitLocked(ctx, next, models.TokenChange{Current: &empty}); err != nil {
				m.log.Warn(ctx, "failed to clear expired current token", "id", id, "error", err)
				return fmt.Errorf("%w (clearing current: %w)", expired, err)
			}
			if m.sink != nil {
				m.sink.ClearBearer()
			}
		}
		return expired
	}

	next := m.coll.Clone()
	next.CurrentID = id
	if err := m.commitLocked(ctx, next, models.TokenChange{Current: &id}); err != nil {
		return err
	}
	if m.sink != nil {
		m.sink.SetBearer(rec.Username, rec.Token)
	}
	m.log.Info(ctx, "token activated", "username", rec.Username, "id", id)
	return nil
}

// Remove deletes the token with id. Removing the current token clears
// current. A second Remove of the same id fails with common.ErrTokenNotFound.
func (m *TokenManager) Remove(ctx context.Context, id string) error {
	m.begin()
	err := m.remove(ctx, id)
	m.end(err)
	return err
}

func (m *TokenManager) remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.coll.Find(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", common.ErrTokenNotFound, id)
	}

	next := m.coll.Clone()
	next.Tokens = append(next.Tokens[:idx], next.Tokens[idx+1:]...)
	change := models.TokenChange{Delete: []string{id}}

	wasCurrent := m.coll.CurrentID == id
	if wasCurrent {
		next.CurrentID = ""
		empty := ""
		change.Current = &empty
	}

	if err := m.commitLocked(ctx, next, change); err != nil {
		return err
	}
	if wasCurrent && m.sink != nil {
		m.sink.ClearBearer()
	}
	m.log.Info(ctx, "token removed", "id", id, "was_current", wasCurrent)
	return nil
}

// Rotate replaces the token with id by a freshly issued one for the same
// username. The old record is deactivated and the new one appended in a
// single commit, after the registry has answered. If the registry rejects
// the login the old record stays as it was. If the username has no
// credentials the old record is deactivated and common.ErrCredentialsNotFound
// is returned.
func (m *TokenManager) Rotate(ctx context.Context, id string) (models.TokenRecord, error) {
	m.begin()
	rec, err := m.rotate(ctx, id)
	m.end(err)
	return rec, err
}

func (m *TokenManager) rotate(ctx context.Context, id string) (models.TokenRecord, error) {
	m.mu.Lock()
	idx := m.coll.Find(id)
	if idx < 0 {
		m.mu.Unlock()
		return models.TokenRecord{}, fmt.Errorf("%w: %s", common.ErrTokenNotFound, id)
	}
	old := m.coll.Tokens[idx]
	m.mu.Unlock()

	creds, ok := m.creds.Lookup(old.Username)
	if !ok {
		if err := m.deactivate(ctx, id); err != nil {
			return models.TokenRecord{}, err
		}
		m.log.Warn(ctx, "token deactivated, no credentials to rotate it", "username", old.Username, "id", id)
		return models.TokenRecord{}, fmt.Errorf("%w: %s", common.ErrCredentialsNotFound, old.Username)
	}

	res, err := m.auth.Authenticate(ctx, creds.Username, creds.Password)
	if err != nil {
		m.log.Warn(ctx, "token rotation failed", "username", old.Username, "id", id, "error", err)
		return models.TokenRecord{}, err
	}
	rec := m.newRecord(old.Username, res.AccessToken)

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.coll.Clone()
	change := models.TokenChange{Upsert: supersede(&next, rec.Username)}
	next.Tokens = append(next.Tokens, rec)
	change.Upsert = append(change.Upsert, rec)

	// current follows the rotation when it pointed at a record that was just
	// superseded, or when nothing was current
	moveCurrent := next.CurrentID == ""
	if !moveCurrent {
		if ci := next.Find(next.CurrentID); ci >= 0 && !next.Tokens[ci].IsActive && next.Tokens[ci].Username == rec.Username {
			moveCurrent = true
		}
	}
	if moveCurrent {
		next.CurrentID = rec.ID
		change.Current = &rec.ID
	}

	if err := m.commitLocked(ctx, next, change); err != nil {
		return models.TokenRecord{}, err
	}
	if moveCurrent && m.sink != nil {
		m.sink.SetBearer(rec.Username, rec.Token)
	}

	m.log.Info(ctx, "token rotated", "username", rec.Username, "old_id", id, "new_id", rec.ID)
	return rec, nil
}

// deactivate marks the record inactive and clears current if it pointed at
// it.
func (m *TokenManager) deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.coll.Find(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", common.ErrTokenNotFound, id)
	}

	next := m.coll.Clone()
	next.Tokens[idx].IsActive = false
	change := models.TokenChange{Upsert: []models.TokenRecord{next.Tokens[idx]}}

	wasCurrent := next.CurrentID == id
	if wasCurrent {
		next.CurrentID = ""
		empty := ""
		change.Current = &empty
	}

	if err := m.commitLocked(ctx, next, change); err != nil {
		return err
	}
	if wasCurrent && m.sink != nil {
		m.sink.ClearBearer()
	}
	return nil
}

// Classify splits the collection into usable and unusable records. It makes
// no I/O and decodes expiry from each token.
func (m *TokenManager) Classify() (active, expired []models.TokenRecord) {
	m.mu.Lock()
	tokens := m.coll.Clone().Tokens
	m.mu.Unlock()

	now := m.clock()
	for _, rec := range tokens {
		if rec.Valid(now) {
			active = append(active, rec)
		} else {
			expired = append(expired, rec)
		}
	}
	return active, expired
}

// Snapshot returns a copy of the current state.
func (m *TokenManager) Snapshot() models.TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *TokenManager) snapshotLocked() models.TokenState {
	coll := m.coll.Clone()
	st := models.TokenState{
		Tokens:    coll.Tokens,
		IsLoading: m.inFlight > 0,
		LastError: m.lastError,
	}
	if idx := coll.Find(coll.CurrentID); idx >= 0 {
		cur := coll.Tokens[idx]
		st.Current = &cur
	}
	return st
}

// Current returns the current token if it is present, active and not
// expired.
func (m *TokenManager) Current() (models.TokenRecord, bool) {
	m.mu.Lock()
	idx := m.coll.Find(m.coll.CurrentID)
	var rec models.TokenRecord
	if idx >= 0 {
		rec = m.coll.Tokens[idx]
	}
	m.mu.Unlock()

	if idx < 0 || !rec.Valid(m.clock()) {
		return models.TokenRecord{}, false
	}
	return rec, true
}

// Bearer returns the token outbound registry calls should carry.
func (m *TokenManager) Bearer() (string, bool) {
	rec, ok := m.Current()
	if !ok {
		return "", false
	}
	return rec.Token, true
}

// ClearError dismisses the last recorded error.
func (m *TokenManager) ClearError() {
	m.mu.Lock()
	m.lastError = ""
	m.mu.Unlock()
	m.publish()
}

// RecordError stores err as the last error without an operation in flight.
// The background refresher uses it for failures nobody waits on.
func (m *TokenManager) RecordError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	m.lastError = err.Error()
	m.mu.Unlock()
	m.publish()
}

// Cleanup forgets which token is current but keeps the collection. It runs on
// logout.
func (m *TokenManager) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	if m.coll.CurrentID == "" {
		m.mu.Unlock()
		return nil
	}
	next := m.coll.Clone()
	next.CurrentID = ""
	empty := ""
	err := m.commitLocked(ctx, next, models.TokenChange{Current: &empty})
	if err == nil && m.sink != nil {
		m.sink.ClearBearer()
	}
	m.mu.Unlock()

	m.publish()
	return err
}

// Resync pushes the current token, or its absence, to the attached sink.
func (m *TokenManager) Resync() {
	rec, ok := m.Current()

	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()

	if sink == nil {
		return
	}
	if ok {
		sink.SetBearer(rec.Username, rec.Token)
	} else {
		sink.ClearBearer()
	}
}

// Subscribe returns a channel receiving a snapshot after every state change.
// Slow readers only see the latest snapshot. cancel closes the channel.
func (m *TokenManager) Subscribe() (<-chan models.TokenState, func()) {
	ch := make(chan models.TokenState, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (m *TokenManager) publish() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.subs) == 0 {
		return
	}
	st := m.snapshotLocked()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// IsCredentialsMissing reports whether err came from a rotation without
// credentials.
func IsCredentialsMissing(err error) bool {
	return errors.Is(err, common.ErrCredentialsNotFound)
}
