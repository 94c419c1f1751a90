package token

import (
	"testing"
	"time"

	"github.com/atinyakov/ParkPassport/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	raw, err := m.Issue(models.Account{ID: 42, Username: "alice"})
	require.NoError(t, err)

	claims, err := m.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AccountID)
	assert.Equal(t, "alice", claims.Username)
}

func TestVerify_WrongSecret(t *testing.T) {
	raw, err := NewManager("one", 0).Issue(models.Account{ID: 1, Username: "a"})
	require.NoError(t, err)

	_, err = NewManager("two", 0).Verify(raw)
	assert.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	raw, err := m.Issue(models.Account{ID: 1, Username: "a"})
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Verify(raw)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := NewManager("secret", 0).Verify("not-a-token")
	assert.Error(t, err)
}
