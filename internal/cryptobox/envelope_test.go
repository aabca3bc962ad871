package cryptobox

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvelope(t *testing.T) *Envelope {
	t.Helper()

	keyHex, err := GenerateMasterKey()
	require.NoError(t, err)

	env, err := NewEnvelope(keyHex)
	require.NoError(t, err)
	return env
}

func TestNewEnvelope(t *testing.T) {
	t.Run("accepts 64 hex characters", func(t *testing.T) {
		env, err := NewEnvelope(strings.Repeat("ab", 32))
		require.NoError(t, err)
		assert.NotNil(t, env)
	})

	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"too short", strings.Repeat("ab", 16)},
		{"too long", strings.Repeat("ab", 33)},
		{"not hex", strings.Repeat("zz", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEnvelope(tt.key)
			assert.ErrorIs(t, err, ErrInvalidMasterKey)
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	env := testEnvelope(t)

	large := make([]byte, 2<<20)
	_, err := rand.Read(large)
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short text", []byte("standup recap")},
		{"unicode", []byte("résumé — 日本語")},
		{"binary", []byte{0x00, 0xff, 0x10, 0x80}},
		{"two megabytes", large},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, ivHex, err := env.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.Len(t, ivHex, IVSize*2)
			assert.GreaterOrEqual(t, len(blob), SaltSize+TagSize)

			got, err := env.Decrypt(blob, ivHex)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.plaintext, got))
		})
	}
}

func TestEncryptUsesFreshSaltAndIV(t *testing.T) {
	env := testEnvelope(t)

	blob1, iv1, err := env.Encrypt([]byte("same input"))
	require.NoError(t, err)
	blob2, iv2, err := env.Encrypt([]byte("same input"))
	require.NoError(t, err)

	assert.NotEqual(t, iv1, iv2)
	assert.NotEqual(t, blob1[:SaltSize], blob2[:SaltSize])
	assert.NotEqual(t, blob1, blob2)
}

func TestDecryptRejectsTampering(t *testing.T) {
	env := testEnvelope(t)

	blob, ivHex, err := env.Encrypt([]byte("authenticated content"))
	require.NoError(t, err)

	t.Run("any flipped byte fails", func(t *testing.T) {
		// Cover every region: salt, tag, and ciphertext.
		for _, offset := range []int{0, SaltSize - 1, SaltSize, SaltSize + TagSize - 1, SaltSize + TagSize, len(blob) - 1} {
			tampered := make([]byte, len(blob))
			copy(tampered, blob)
			tampered[offset] ^= 0x01

			_, err := env.Decrypt(tampered, ivHex)
			assert.ErrorIs(t, err, ErrDecryption, "offset %d", offset)
		}
	})

	t.Run("substituted IV fails", func(t *testing.T) {
		otherIV := make([]byte, IVSize)
		_, err := rand.Read(otherIV)
		require.NoError(t, err)

		_, err = env.Decrypt(blob, hex.EncodeToString(otherIV))
		assert.ErrorIs(t, err, ErrDecryption)
	})

	t.Run("malformed IV fails", func(t *testing.T) {
		_, err := env.Decrypt(blob, "not-hex")
		assert.ErrorIs(t, err, ErrDecryption)

		_, err = env.Decrypt(blob, "abcd")
		assert.ErrorIs(t, err, ErrDecryption)
	})

	t.Run("truncated blob fails", func(t *testing.T) {
		_, err := env.Decrypt(blob[:SaltSize+TagSize-1], ivHex)
		assert.ErrorIs(t, err, ErrDecryption)

		_, err = env.Decrypt(nil, ivHex)
		assert.ErrorIs(t, err, ErrDecryption)
	})

	t.Run("wrong master key fails", func(t *testing.T) {
		other := testEnvelope(t)
		_, err := other.Decrypt(blob, ivHex)
		assert.ErrorIs(t, err, ErrDecryption)
	})
}

func TestGenerateMasterKey(t *testing.T) {
	key1, err := GenerateMasterKey()
	require.NoError(t, err)
	key2, err := GenerateMasterKey()
	require.NoError(t, err)

	assert.Len(t, key1, MasterKeySize*2)
	assert.NotEqual(t, key1, key2)

	decoded, err := hex.DecodeString(key1)
	require.NoError(t, err)
	assert.Len(t, decoded, MasterKeySize)
}
