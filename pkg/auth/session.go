package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Session holds the cookies for one authenticated ad library session.
// The li_at cookie is the login token; JSESSIONID doubles as the CSRF
// token when it carries the ajax: prefix.
type Session struct {
	Name         string    `json:"name"`
	LiAt         string    `json:"li_at"`
	JSessionID   string    `json:"jsessionid"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Cookies renders the session as request cookies
func (s *Session) Cookies() map[string]string {
	cookies := map[string]string{
		"li_at": s.LiAt,
	}
	if s.JSessionID != "" {
		cookies["JSESSIONID"] = s.JSessionID
	}
	return cookies
}

// CSRFToken derives the csrf-token header value from the session
func (s *Session) CSRFToken() string {
	jsession := strings.Trim(s.JSessionID, `"`)
	if strings.HasPrefix(jsession, "ajax:") {
		return jsession
	}
	return ""
}

// SessionStore is the interface for storing and retrieving sessions
type SessionStore interface {
	// Store saves a session under its name
	Store(session *Session) error

	// Retrieve gets the session with the given name
	Retrieve(name string) (*Session, error)

	// List returns all stored sessions
	List() ([]*Session, error)

	// Delete removes the session with the given name
	Delete(name string) error

	// Exists checks if a session with the given name is stored
	Exists(name string) bool
}

// Manager handles session storage with fallback mechanisms
type Manager struct {
	stores []SessionStore
}

// NewManager creates a session manager backed by the system keychain
// when available, an encrypted file, a browser-exported cookie file,
// and environment variables, consulted in that order.
func NewManager(cookieFile string) (*Manager, error) {
	var stores []SessionStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "sessions.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	if cookieFile != "" {
		stores = append(stores, NewCookieFileStore(cookieFile))
	}

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a session using the first store that accepts it
func (m *Manager) Store(session *Session) error {
	if session.Name == "" {
		return errors.New("session name is required")
	}
	if session.LiAt == "" {
		return errors.New("li_at cookie is required")
	}

	session.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(session); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return errors.New("no available session stores")
}

// Retrieve gets a session from the first store that has it
func (m *Manager) Retrieve(name string) (*Session, error) {
	for _, store := range m.stores {
		if session, err := store.Retrieve(name); err == nil && session != nil {
			return session, nil
		}
	}
	return nil, fmt.Errorf("session not found: %s", name)
}

// RetrieveDefault gets the default session or the first available one
func (m *Manager) RetrieveDefault() (*Session, error) {
	for _, store := range m.stores {
		if session, err := store.Retrieve("default"); err == nil && session != nil {
			return session, nil
		}
	}

	sessions, err := m.List()
	if err == nil && len(sessions) > 0 {
		return sessions[0], nil
	}

	return nil, ErrSessionNotFound
}

// List returns all stored sessions from all stores
func (m *Manager) List() ([]*Session, error) {
	sessionMap := make(map[string]*Session)

	for _, store := range m.stores {
		sessions, err := store.List()
		if err != nil {
			continue
		}
		for _, session := range sessions {
			// Keep the most recently modified version of each name
			if existing, ok := sessionMap[session.Name]; !ok || session.LastModified.After(existing.LastModified) {
				sessionMap[session.Name] = session
			}
		}
	}

	var result []*Session
	for _, session := range sessionMap {
		result = append(result, session)
	}

	return result, nil
}

// Delete removes a session from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete session: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("session not found: %s", name)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "adlibscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "adlibscraper")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "adlibscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "adlibscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeSession returns a copy with cookie values masked for display
func SanitizeSession(session *Session) *Session {
	if session == nil {
		return nil
	}

	return &Session{
		Name:         session.Name,
		LiAt:         maskString(session.LiAt),
		JSessionID:   maskString(session.JSessionID),
		UserAgent:    session.UserAgent,
		LastModified: session.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSession   = errors.New("invalid session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
