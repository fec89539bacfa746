package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueValidateRoundTrip(t *testing.T) {
	m := NewManager("secret")

	token, err := m.Issue("alice", "admin", "", time.Hour)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Empty(t, claims.DeviceID)
}

func TestDeviceTokenCarriesDeviceID(t *testing.T) {
	m := NewManager("secret")

	token, err := m.Issue("mic-7", "device", "mic-7", time.Hour)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "mic-7", claims.DeviceID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a").Issue("alice", "admin", "", time.Hour)
	require.NoError(t, err)

	_, err = NewManager("secret-b").Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("secret")

	token, err := m.Issue("alice", "admin", "", -time.Minute)
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewManager("secret").Validate("not-a-token")
	assert.Error(t, err)
}

func TestIdentityFromClaims(t *testing.T) {
	assert.Nil(t, IdentityFromClaims(nil))

	m := NewManager("secret")
	token, err := m.Issue("alice", "admin", "", time.Hour)
	require.NoError(t, err)
	claims, err := m.Validate(token)
	require.NoError(t, err)

	id := IdentityFromClaims(claims)
	require.NotNil(t, id)
	assert.Equal(t, "alice", id.Subject)
	assert.Equal(t, "admin", id.Role)
}
