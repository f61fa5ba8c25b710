package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/fishalchemy/reel/internal/domain"
)

// cacheKey is the fixed table the identity is stored under.
const cacheKey = "currentUser"

// Cache persists the session cookie and a user snapshot between runs.
// A nil *Cache stores nothing.
type Cache struct {
	path string
}

type cacheFile struct {
	CurrentUser *cachedUser `toml:"currentUser"`
}

type cachedUser struct {
	Token    string        `toml:"token"`
	ID       int           `toml:"id"`
	Username string        `toml:"username"`
	Role     string        `toml:"role,omitempty"`
	Groups   []cachedGroup `toml:"groups,omitempty"`
	SavedAt  time.Time     `toml:"saved_at"`
}

type cachedGroup struct {
	ID        int    `toml:"id"`
	Name      string `toml:"name"`
	CreatorID int    `toml:"creatorid"`
}

// NewCache stores the session in dir/session.toml.
func NewCache(dir string) *Cache {
	return &Cache{path: filepath.Join(dir, "session.toml")}
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Load returns the cached cookie and user; both are empty when nothing is cached.
func (c *Cache) Load() (string, *domain.User, error) {
	if c == nil {
		return "", nil, nil
	}
	var f cacheFile
	md, err := toml.DecodeFile(c.path, &f)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("failed to read session cache: %w", err)
	}
	if !md.IsDefined(cacheKey) || f.CurrentUser == nil {
		return "", nil, nil
	}
	cu := f.CurrentUser
	user := &domain.User{ID: cu.ID, Username: cu.Username, Role: domain.Role(cu.Role)}
	for _, g := range cu.Groups {
		user.Groups = append(user.Groups, domain.GroupRef{ID: g.ID, Name: g.Name, CreatorID: g.CreatorID})
	}
	return cu.Token, user, nil
}

// Save writes the cookie and user with owner-only permissions.
func (c *Cache) Save(token string, u domain.User) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	cu := &cachedUser{
		Token:    token,
		ID:       u.ID,
		Username: u.Username,
		Role:     string(u.Role),
		SavedAt:  time.Now().UTC().Truncate(time.Second),
	}
	for _, g := range u.Groups {
		cu.Groups = append(cu.Groups, cachedGroup{ID: g.ID, Name: g.Name, CreatorID: g.CreatorID})
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open session cache: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cacheFile{CurrentUser: cu}); err != nil {
		return fmt.Errorf("failed to write session cache: %w", err)
	}
	return nil
}

// Clear removes the cache file.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session cache: %w", err)
	}
	return nil
}
