package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	user := &User{
		ID:               "u1",
		Email:            "alice@example.com",
		Roles:            []string{"admin", "user"},
		Region:           "us-east",
		ComplianceAccess: true,
	}

	token, err := GenerateAccessToken(user, "test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "test-secret")
	require.NoError(t, err)

	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{"admin", "user"}, claims.Roles)
	assert.Equal(t, "us-east", claims.Region)
	assert.True(t, claims.ComplianceAccess)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	user := &User{ID: "u1", Roles: []string{"user"}}

	token, err := GenerateAccessToken(user, "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "other-secret")
	assert.Error(t, err)
}

func TestTokenExpiryEnforced(t *testing.T) {
	user := &User{ID: "u1", Roles: []string{"user"}}

	token, err := GenerateAccessToken(user, "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "test-secret")
	assert.Error(t, err)
}

func TestSubjectFromClaimsCarriesAttributes(t *testing.T) {
	user := &User{
		ID:               "u1",
		Email:            "alice@example.com",
		Roles:            []string{"auditor"},
		Region:           "eu-west",
		ComplianceAccess: true,
	}

	token, err := GenerateAccessToken(user, "test-secret", time.Hour)
	require.NoError(t, err)
	claims, err := ParseAccessToken(token, "test-secret")
	require.NoError(t, err)

	sub := SubjectFromClaims(claims)
	assert.Equal(t, "u1", sub.ID)
	assert.Equal(t, []string{"auditor"}, sub.Roles)
	assert.Equal(t, "eu-west", sub.Attributes["region"])
	assert.Equal(t, true, sub.Attributes["compliance_access"])
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, CheckPassword("s3cret-pass", hash))
	assert.False(t, CheckPassword("wrong-pass", hash))
}
