// Package credentials holds the service-account logins regkeeper may use to
// refresh registry tokens without asking anyone.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dmitrijs2005/regkeeper/internal/client/models"
)

// Registry is an immutable set of credentials keyed by username.
type Registry struct {
	byUsername map[string]models.Credentials
}

// New builds a Registry. Later duplicates of a username replace earlier ones.
func New(list []models.Credentials) *Registry {
	r := &Registry{byUsername: make(map[string]models.Credentials, len(list))}
	for _, c := range list {
		if c.Username == "" {
			continue
		}
		r.byUsername[c.Username] = c
	}
	return r
}

// Load reads a JSON array of {"username","password"} objects from path. An
// empty path yields an empty registry.
func Load(path string) (*Registry, error) {
	if path == "" {
		return New(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var list []models.Credentials
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", path, err)
	}
	for i, c := range list {
		if c.Username == "" || c.Password == "" {
			return nil, fmt.Errorf("credentials file %s: entry %d is missing username or password", path, i)
		}
	}
	return New(list), nil
}

// Lookup returns the credentials for username.
func (r *Registry) Lookup(username string) (models.Credentials, bool) {
	if r == nil {
		return models.Credentials{}, false
	}
	c, ok := r.byUsername[username]
	return c, ok
}

// Usernames lists every known username in sorted order.
func (r *Registry) Usernames() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.byUsername))
	for u := range r.byUsername {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
