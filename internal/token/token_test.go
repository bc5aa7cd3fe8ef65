package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leca/loqed-births/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	window     = 300 * time.Second
)

// fakeClock is a settable clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc, err := New(testSecret, ImageNamespace, WithClock(clock.Now))
	require.NoError(t, err)
	return svc, clock
}

func TestIssueAndValidate(t *testing.T) {
	svc, _ := newTestService(t)

	tok, err := svc.Issue("content-123")
	require.NoError(t, err)
	assert.NotContains(t, tok, "/")

	id, err := svc.Validate(tok, window)
	require.NoError(t, err)
	assert.Equal(t, "content-123", id)
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	svc, clock := newTestService(t)

	tok, err := svc.Issue("content-123")
	require.NoError(t, err)

	clock.Advance(window)
	id, err := svc.Validate(tok, window)
	require.NoError(t, err, "a token is still valid exactly at issued_at + window")
	assert.Equal(t, "content-123", id)

	clock.Advance(time.Second)
	_, err = svc.Validate(tok, window)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestValidate_SubSecondIssueKeepsFullWindow(t *testing.T) {
	svc, clock := newTestService(t)
	clock.Advance(900 * time.Millisecond)

	tok, err := svc.Issue("content-123")
	require.NoError(t, err)

	clock.Advance(window)
	_, err = svc.Validate(tok, window)
	require.NoError(t, err, "issued_at is whole seconds, so is the comparison")

	clock.Advance(100 * time.Millisecond)
	_, err = svc.Validate(tok, window)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = svc.Validate(tok, window)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestValidate_WindowIsPerCall(t *testing.T) {
	svc, clock := newTestService(t)

	tok, err := svc.Issue("content-123")
	require.NoError(t, err)

	clock.Advance(90 * time.Second)
	_, err = svc.Validate(tok, 60*time.Second)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)

	_, err = svc.Validate(tok, 300*time.Second)
	assert.NoError(t, err)
}

func TestValidate_IssuedInTheFuture(t *testing.T) {
	svc, clock := newTestService(t)

	tok, err := svc.Issue("content-123")
	require.NoError(t, err)

	clock.Advance(-time.Minute)
	_, err = svc.Validate(tok, window)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestValidate_TamperedTokens(t *testing.T) {
	svc, _ := newTestService(t)

	tok, err := svc.Issue("content-123")
	require.NoError(t, err)

	for i := range len(tok) {
		b := []byte(tok)
		b[i] ^= 0x01
		_, err := svc.Validate(string(b), window)
		assert.ErrorIs(t, err, apperr.ErrTokenInvalid, "flipping byte %d must invalidate the token", i)
	}
}

func TestValidate_TruncatedAndGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	tok, err := svc.Issue("content-123")
	require.NoError(t, err)

	for _, bad := range []string{"", "garbage", tok[:len(tok)-1], tok + "x", "a.b.c"} {
		_, err := svc.Validate(bad, window)
		assert.ErrorIs(t, err, apperr.ErrTokenInvalid, "token %q", bad)
	}
}

func TestValidate_OtherNamespaceRejected(t *testing.T) {
	svc, clock := newTestService(t)
	other, err := New(testSecret, "session_salt", WithClock(clock.Now))
	require.NoError(t, err)

	tok, err := other.Issue("content-123")
	require.NoError(t, err)

	_, err = svc.Validate(tok, window)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestValidate_OtherSecretRejected(t *testing.T) {
	svc, clock := newTestService(t)
	other, err := New("another-secret", ImageNamespace, WithClock(clock.Now))
	require.NoError(t, err)

	tok, err := other.Issue("content-123")
	require.NoError(t, err)

	_, err = svc.Validate(tok, window)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestValidate_UnsignedTokenRejected(t *testing.T) {
	svc, clock := newTestService(t)

	claims := jwt.RegisteredClaims{
		Subject:  "content-123",
		Audience: jwt.ClaimStrings{ImageNamespace},
		IssuedAt: jwt.NewNumericDate(clock.Now()),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Validate(tok, window)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestManyTokensPerContentID(t *testing.T) {
	svc, clock := newTestService(t)

	first, err := svc.Issue("content-123")
	require.NoError(t, err)
	clock.Advance(2 * time.Second)
	second, err := svc.Issue("content-123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, tok := range []string{first, second, first} {
		id, err := svc.Validate(tok, window)
		require.NoError(t, err, "tokens are reusable until they expire")
		assert.Equal(t, "content-123", id)
	}
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("", ImageNamespace)
	assert.Error(t, err)

	_, err = New(testSecret, "")
	assert.Error(t, err)
}
