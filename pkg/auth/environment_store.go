package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements SessionStore using environment variables.
// It exists so CI and one-off runs can skip interactive login.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based session store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(session *Session) error {
	return ErrStoreUnavailable
}

// Retrieve builds a session from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Session, error) {
	liAt := os.Getenv("ADLIB_LI_AT")
	if liAt == "" {
		return nil, ErrSessionNotFound
	}

	if name == "" {
		name = "default"
	}

	return &Session{
		Name:         name,
		LiAt:         liAt,
		JSessionID:   os.Getenv("ADLIB_JSESSIONID"),
		UserAgent:    os.Getenv("ADLIB_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single session if environment variables are set
func (e *EnvironmentStore) List() ([]*Session, error) {
	session, err := e.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{session}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials are present
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("ADLIB_LI_AT") != ""
}
