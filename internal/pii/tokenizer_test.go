package pii

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tk, err := NewTokenizer(bytes.Repeat([]byte{0x01}, 32), bytes.Repeat([]byte{0x02}, 32))
	require.NoError(t, err)
	return tk
}

func TestTokenDeterministic(t *testing.T) {
	tk := newTestTokenizer(t)

	a := tk.Token("123-45-6789")
	b := tk.Token("123-45-6789")
	c := tk.Token("987-65-4321")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotContains(t, a, "123")
}

func TestTokenTrimsWhitespace(t *testing.T) {
	tk := newTestTokenizer(t)
	assert.Equal(t, tk.Token("123-45-6789"), tk.Token("  123-45-6789 "))
}

func TestSealOpenRoundTrip(t *testing.T) {
	tk := newTestTokenizer(t)

	sealed, err := tk.Seal("123-45-6789")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "6789")

	plain, err := tk.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", plain)
}

func TestSealIsNonDeterministic(t *testing.T) {
	tk := newTestTokenizer(t)

	a, err := tk.Seal("same value")
	require.NoError(t, err)
	b, err := tk.Seal("same value")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	tk := newTestTokenizer(t)

	sealed, err := tk.Seal("123-45-6789")
	require.NoError(t, err)

	_, err = tk.Open("AAAA" + sealed[4:])
	assert.Error(t, err)

	_, err = tk.Open("AA")
	assert.Error(t, err)

	_, err = tk.Open("not base64 !!!")
	assert.Error(t, err)
}

func TestNewTokenizerValidatesKeys(t *testing.T) {
	_, err := NewTokenizer([]byte("short"), bytes.Repeat([]byte{0x02}, 32))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewTokenizer(bytes.Repeat([]byte{0x01}, 32), []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMaskSSN(t *testing.T) {
	assert.Equal(t, "***-**-6789", MaskSSN("123-45-6789"))
	assert.Equal(t, "***-**-6789", MaskSSN("123456789"))
	assert.Equal(t, "***", MaskSSN("12"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@example.com", MaskEmail("alice@example.com"))
	assert.Equal(t, "***", MaskEmail("a@b"))
	assert.Equal(t, "***", MaskEmail("no-at-sign"))
}
