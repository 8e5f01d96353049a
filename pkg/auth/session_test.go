package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCookies(t *testing.T) {
	session := &Session{
		Name:       "default",
		LiAt:       "AQEDtoken",
		JSessionID: `"ajax:123456789"`,
	}

	cookies := session.Cookies()
	assert.Equal(t, "AQEDtoken", cookies["li_at"])
	assert.Equal(t, `"ajax:123456789"`, cookies["JSESSIONID"])

	// No JSESSIONID, no cookie
	bare := &Session{LiAt: "AQEDtoken"}
	_, ok := bare.Cookies()["JSESSIONID"]
	assert.False(t, ok)
}

func TestSessionCSRFToken(t *testing.T) {
	tests := []struct {
		name       string
		jsessionID string
		expected   string
	}{
		{"quoted ajax token", `"ajax:123456789"`, "ajax:123456789"},
		{"bare ajax token", "ajax:123456789", "ajax:123456789"},
		{"non-ajax value", "something-else", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &Session{JSessionID: tt.jsessionID}
			assert.Equal(t, tt.expected, session.CSRFToken())
		})
	}
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	manager, store := NewMockManager()

	session := &Session{
		Name:       "default",
		LiAt:       "AQEDtoken",
		JSessionID: "ajax:123",
	}

	require.NoError(t, manager.Store(session))
	assert.Equal(t, 1, store.Count())

	got, err := manager.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "AQEDtoken", got.LiAt)
	assert.False(t, got.LastModified.IsZero())
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	err := manager.Store(&Session{LiAt: "AQEDtoken"})
	assert.Error(t, err, "missing name must be rejected")

	err = manager.Store(&Session{Name: "default"})
	assert.Error(t, err, "missing li_at must be rejected")
}

func TestManagerStoreFallsBackAcrossStores(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()
	manager := NewMockManagerWithStores(broken, working)

	session := &Session{Name: "default", LiAt: "AQEDtoken"}
	require.NoError(t, manager.Store(session))

	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())
}

func TestManagerRetrieveDefault(t *testing.T) {
	t.Run("prefers the session named default", func(t *testing.T) {
		manager, store := NewMockManager()
		require.NoError(t, store.Store(&Session{Name: "other", LiAt: "A"}))
		require.NoError(t, store.Store(&Session{Name: "default", LiAt: "B"}))

		got, err := manager.RetrieveDefault()
		require.NoError(t, err)
		assert.Equal(t, "default", got.Name)
	})

	t.Run("falls back to any stored session", func(t *testing.T) {
		manager, store := NewMockManager()
		require.NoError(t, store.Store(&Session{Name: "work", LiAt: "A"}))

		got, err := manager.RetrieveDefault()
		require.NoError(t, err)
		assert.Equal(t, "work", got.Name)
	})

	t.Run("empty manager errors", func(t *testing.T) {
		manager, _ := NewMockManager()
		_, err := manager.RetrieveDefault()
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestManagerListMergesStores(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	manager := NewMockManagerWithStores(older, newer)

	require.NoError(t, older.Store(&Session{Name: "default", LiAt: "old", LastModified: time.Now().Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Session{Name: "default", LiAt: "new", LastModified: time.Now()}))
	require.NoError(t, older.Store(&Session{Name: "work", LiAt: "work", LastModified: time.Now()}))

	sessions, err := manager.List()
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	byName := make(map[string]*Session)
	for _, s := range sessions {
		byName[s.Name] = s
	}
	assert.Equal(t, "new", byName["default"].LiAt, "most recently modified wins")
	assert.Equal(t, "work", byName["work"].LiAt)
}

func TestManagerDelete(t *testing.T) {
	manager, store := NewMockManager()
	require.NoError(t, store.Store(&Session{Name: "default", LiAt: "A"}))

	require.NoError(t, manager.Delete("default"))
	assert.Equal(t, 0, store.Count())

	assert.Error(t, manager.Delete("missing"))
}

func TestSanitizeSession(t *testing.T) {
	session := &Session{
		Name:       "default",
		LiAt:       "AQEDlongsessiontokenvalue",
		JSessionID: "ajax:123456789012345",
	}

	sanitized := SanitizeSession(session)
	assert.Equal(t, "AQED...alue", sanitized.LiAt)
	assert.Equal(t, "ajax...2345", sanitized.JSessionID)
	assert.NotContains(t, sanitized.LiAt, "longsessiontoken")

	short := SanitizeSession(&Session{LiAt: "tiny"})
	assert.Equal(t, "********", short.LiAt)

	assert.Nil(t, SanitizeSession(nil))
}
