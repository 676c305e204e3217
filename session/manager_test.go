package session

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

func TestStartsAnonymous(t *testing.T) {
	m := NewManager("", testLogger())
	_, ok := m.Current()
	assert.False(t, ok)
	assert.Empty(t, m.Token())
}

func TestLoginFiresListenerOncePerTransition(t *testing.T) {
	m := NewManager("", testLogger())
	var events []Event
	m.Subscribe(func(ev Event, _ Identity) { events = append(events, ev) })

	assert.True(t, m.Login(Identity{Token: "t1", UserID: "u1"}))
	// refreshing the token mid-session is not a transition
	assert.False(t, m.Login(Identity{Token: "t2", UserID: "u1"}))

	require.Equal(t, []Event{LoggedIn}, events)
	assert.Equal(t, "t2", m.Token())
}

func TestLogoutFiresOnlyWhenAuthenticated(t *testing.T) {
	m := NewManager("", testLogger())
	var events []Event
	m.Subscribe(func(ev Event, _ Identity) { events = append(events, ev) })

	m.Logout() // anonymous, no-op
	m.Login(Identity{Token: "t", UserID: "u"})
	m.Logout()
	m.Logout() // already anonymous

	assert.Equal(t, []Event{LoggedIn, LoggedOut}, events)
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestIdentityPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	m := NewManager(path, testLogger())
	m.Login(Identity{Token: "tok", UserID: "u1", Username: "alice"})

	restarted := NewManager(path, testLogger())
	id, ok := restarted.Current()
	require.True(t, ok)
	assert.Equal(t, "tok", id.Token)
	assert.Equal(t, "alice", id.Username)
}

func TestLogoutRemovesPersistedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")

	m := NewManager(path, testLogger())
	m.Login(Identity{Token: "tok", UserID: "u1"})
	m.Logout()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	restarted := NewManager(path, testLogger())
	_, ok := restarted.Current()
	assert.False(t, ok)
}

func TestCorruptedRecordStartsAnonymous(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	m := NewManager(path, testLogger())
	_, ok := m.Current()
	assert.False(t, ok)
}
