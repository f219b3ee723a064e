package encryption

import (
	"context"
	"encoding/base64"

	"gocloud.dev/secrets"

	apperrors "github.com/allisson/compliance/internal/errors"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Cipher algorithm identifiers, matching the ENCRYPTION_ALGORITHM setting and
// the algorithm field stored in sealed envelopes.
const (
	AlgorithmAESGCM           = "aes-gcm"
	AlgorithmChaCha20Poly1305 = "chacha20-poly1305"
)

// UnwrapDataKey opens the KMS keeper at keyURI and decrypts the base64-encoded
// wrapped data key. Supports gcpkms://, awskms://, azurekeyvault://,
// hashivault:// and base64key:// URIs.
func UnwrapDataKey(ctx context.Context, keyURI, wrappedKeyB64 string) ([]byte, error) {
	wrapped, err := base64.StdEncoding.DecodeString(wrappedKeyB64)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode wrapped data key")
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open KMS keeper")
	}
	defer func() { _ = keeper.Close() }()

	key, err := keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unwrap data key")
	}
	return key, nil
}

// NewCipher builds the AEAD for the configured algorithm.
func NewCipher(algorithm string, key []byte) (AEAD, error) {
	switch algorithm {
	case AlgorithmAESGCM:
		return NewAESGCM(key)
	case AlgorithmChaCha20Poly1305:
		return NewChaCha20Poly1305(key)
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown encryption algorithm %q", algorithm)
	}
}
