package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)
	require.True(t, s.Enabled())

	sealed, err := s.SealString("123456789012")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "123456789012")

	again, err := s.SealString("123456789012")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)

	plain, err := s.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", plain)
}

func TestOpenRejectsTampering(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)
	sealed, err := s.SealString("secret")
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff
	_, err = s.Open(sealed)
	assert.Error(t, err)

	_, err = s.Open([]byte{1, 2})
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestDisabledSealerPassesThrough(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	sealed, err := s.SealString("plain")
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), sealed)

	var nilSealer *Sealer
	assert.False(t, nilSealer.Enabled())
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New("too-short")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "32 bytes"))

	_, err = New(strings.Repeat("k!", 16))
	assert.NoError(t, err)
}
