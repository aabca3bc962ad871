// Package cryptobox implements the at-rest encryption envelope for task
// results: a per-record random salt, a PBKDF2-derived key, a random IV, and
// AES-256-GCM authenticated ciphertext packed as salt ‖ authTag ‖ ciphertext.
//
// The per-record salt makes every derived key unique even though the master
// secret is static, so (key, IV) pairs can never repeat across records.
package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Envelope geometry. Offsets into the stored blob are fixed:
// [0,SaltSize) salt, [SaltSize,SaltSize+TagSize) GCM tag, rest ciphertext.
const (
	// MasterKeySize is the required master secret length in bytes.
	MasterKeySize = 32
	// SaltSize is the per-record key-derivation salt length.
	SaltSize = 32
	// IVSize is the AES-GCM nonce length.
	IVSize = 16
	// TagSize is the GCM authentication tag length.
	TagSize = 16
	// KDFIterations is the PBKDF2-SHA256 iteration count.
	KDFIterations = 100_000
)

// Envelope errors.
var (
	// ErrInvalidMasterKey is returned when the configured master secret is
	// missing or not exactly 32 bytes (64 hex characters).
	ErrInvalidMasterKey = errors.New("master key must be 64 hex characters (32 bytes)")

	// ErrDecryption is returned for any decryption failure: tampered blob,
	// truncated blob, or wrong IV. Unauthenticated plaintext is never
	// returned.
	ErrDecryption = errors.New("decryption failed")
)

// Envelope seals and opens result content with a fixed master secret.
// Construct with NewEnvelope; the zero value is unusable.
type Envelope struct {
	masterKey []byte
}

// NewEnvelope parses the hex-encoded master secret and fails fast if it is
// absent or not exactly 32 bytes.
func NewEnvelope(masterKeyHex string) (*Envelope, error) {
	key, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMasterKey, err)
	}
	if len(key) != MasterKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidMasterKey, len(key))
	}

	return &Envelope{masterKey: key}, nil
}

// Encrypt seals plaintext under a fresh salt and IV.
// Returns the packed blob (salt ‖ authTag ‖ ciphertext) and the IV as hex.
func (e *Envelope) Encrypt(plaintext []byte) ([]byte, string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, "", fmt.Errorf("failed to generate salt: %w", err)
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, "", fmt.Errorf("failed to generate IV: %w", err)
	}

	gcm, err := e.aead(salt)
	if err != nil {
		return nil, "", err
	}

	// Seal appends ciphertext ‖ tag; the stored layout wants the tag
	// ahead of the ciphertext, so split and repack.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-TagSize]
	tag := sealed[len(sealed)-TagSize:]

	blob := make([]byte, 0, SaltSize+TagSize+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)

	return blob, hex.EncodeToString(iv), nil
}

// Decrypt unpacks a stored blob, re-derives the key from the embedded salt,
// and opens the ciphertext. Any tampering, truncation, or IV mismatch yields
// an error wrapping ErrDecryption.
func (e *Envelope) Decrypt(blob []byte, ivHex string) ([]byte, error) {
	if len(blob) < SaltSize+TagSize {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", ErrDecryption, len(blob))
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed IV", ErrDecryption)
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: IV must be %d bytes, got %d", ErrDecryption, IVSize, len(iv))
	}

	salt := blob[:SaltSize]
	tag := blob[SaltSize : SaltSize+TagSize]
	ciphertext := blob[SaltSize+TagSize:]

	gcm, err := e.aead(salt)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	return plaintext, nil
}

// aead derives the per-record key and builds the GCM cipher.
func (e *Envelope) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.masterKey, salt, KDFIterations, MasterKeySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

// GenerateMasterKey produces a fresh random 32-byte master secret,
// hex-encoded for provisioning.
func GenerateMasterKey() (string, error) {
	key := make([]byte, MasterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate master key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
