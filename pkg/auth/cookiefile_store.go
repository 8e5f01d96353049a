package auth

import (
	"encoding/json"
	"fmt"
	"os"
)

// CookieFileStore implements SessionStore over a browser-exported
// cookie file. The file is produced by an external interactive login
// step; a missing file simply means the session must be re-acquired.
type CookieFileStore struct {
	filepath string
}

// browser extensions export either a flat name-to-value object or a
// list of cookie records
type cookieRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewCookieFileStore creates a store reading the given cookie file
func NewCookieFileStore(filePath string) *CookieFileStore {
	return &CookieFileStore{filepath: filePath}
}

// ReadCookies parses the cookie file into name-value pairs
func (c *CookieFileStore) ReadCookies() (map[string]string, error) {
	content, err := os.ReadFile(c.filepath)
	if err != nil {
		return nil, err
	}

	var flat map[string]string
	if err := json.Unmarshal(content, &flat); err == nil {
		return flat, nil
	}

	var records []cookieRecord
	if err := json.Unmarshal(content, &records); err == nil {
		cookies := make(map[string]string, len(records))
		for _, r := range records {
			if r.Name != "" {
				cookies[r.Name] = r.Value
			}
		}
		return cookies, nil
	}

	return nil, fmt.Errorf("unrecognized cookie file format: %s", c.filepath)
}

// Store writes the session cookies as a flat name-to-value file
func (c *CookieFileStore) Store(session *Session) error {
	if session == nil || session.LiAt == "" {
		return ErrInvalidSession
	}

	content, err := json.MarshalIndent(session.Cookies(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	tempFile := c.filepath + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	return os.Rename(tempFile, c.filepath)
}

// Retrieve builds a session from the cookie file. The file holds one
// anonymous session, returned under whatever name was asked for.
func (c *CookieFileStore) Retrieve(name string) (*Session, error) {
	cookies, err := c.ReadCookies()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if cookies["li_at"] == "" {
		return nil, ErrSessionNotFound
	}

	if name == "" {
		name = "default"
	}

	info, _ := os.Stat(c.filepath)
	session := &Session{
		Name:       name,
		LiAt:       cookies["li_at"],
		JSessionID: cookies["JSESSIONID"],
	}
	if info != nil {
		session.LastModified = info.ModTime()
	}

	return session, nil
}

// List returns the single session held by the file, if valid
func (c *CookieFileStore) List() ([]*Session, error) {
	session, err := c.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{session}, nil
}

// Delete removes the cookie file
func (c *CookieFileStore) Delete(name string) error {
	if err := os.Remove(c.filepath); err != nil {
		if os.IsNotExist(err) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// Exists checks if the cookie file holds a usable session
func (c *CookieFileStore) Exists(name string) bool {
	session, err := c.Retrieve(name)
	return err == nil && session != nil
}
