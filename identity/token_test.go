package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	verifier, err := NewVerifier("s3cret")
	require.NoError(t, err)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	id, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestMissingSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = NewVerifier("")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueRejectsInvalidUser(t *testing.T) {
	issuer, err := NewIssuer("s3cret", 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, issuer.ttl)

	_, err = issuer.Issue(0)
	assert.Error(t, err)
}

func TestVerifyRejects(t *testing.T) {
	issuer, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	verifier, err := NewVerifier("s3cret")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewIssuer("other", time.Hour)
		require.NoError(t, err)
		token, err := other.Issue(1)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		defer func() { issuer.now = time.Now }()
		token, err := issuer.Issue(1)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := &Claims{
			UserID: 1,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    "someone-else",
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := &Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestResolve(t *testing.T) {
	issuer, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	verifier, err := NewVerifier("s3cret")
	require.NoError(t, err)
	token, err := issuer.Issue(7)
	require.NoError(t, err)

	id, ok, err := verifier.Resolve("")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)

	id, ok, err = verifier.Resolve("Bearer " + token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, _, err = verifier.Resolve("Bearer nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
