package encryption

import (
	"encoding/base64"
	"encoding/json"

	apperrors "github.com/allisson/compliance/internal/errors"
)

// Envelope field names. A sealed state map carries exactly these keys.
const (
	envelopeFlagKey       = "encrypted"
	envelopeAlgorithmKey  = "algorithm"
	envelopeNonceKey      = "nonce"
	envelopeCiphertextKey = "ciphertext"
)

// stateEncryptor seals state maps with a single AEAD cipher.
type stateEncryptor struct {
	aead      AEAD
	algorithm string
}

// NewStateEncryptor creates a StateEncryptor backed by the given cipher. The
// algorithm name is recorded in each envelope for operability.
func NewStateEncryptor(aead AEAD, algorithm string) StateEncryptor {
	return &stateEncryptor{aead: aead, algorithm: algorithm}
}

// Seal serializes the state map to JSON and encrypts it, binding the result to
// the context tag via AAD.
func (e *stateEncryptor) Seal(state map[string]any, contextTag string) (map[string]any, error) {
	if state == nil {
		return nil, nil
	}

	plaintext, err := json.Marshal(state)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to serialize state")
	}

	ciphertext, nonce, err := e.aead.Encrypt(plaintext, []byte(contextTag))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt state")
	}

	return map[string]any{
		envelopeFlagKey:       true,
		envelopeAlgorithmKey:  e.algorithm,
		envelopeNonceKey:      base64.StdEncoding.EncodeToString(nonce),
		envelopeCiphertextKey: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// Open reverses Seal. Maps without the envelope flag are passed through
// unchanged so plaintext entries remain readable.
func (e *stateEncryptor) Open(state map[string]any, contextTag string) (map[string]any, error) {
	if !IsEnvelope(state) {
		return state, nil
	}

	nonceB64, _ := state[envelopeNonceKey].(string)
	ciphertextB64, _ := state[envelopeCiphertextKey].(string)

	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode nonce")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode ciphertext")
	}

	plaintext, err := e.aead.Decrypt(ciphertext, nonce, []byte(contextTag))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decrypt state")
	}

	var opened map[string]any
	if err := json.Unmarshal(plaintext, &opened); err != nil {
		return nil, apperrors.Wrap(err, "failed to deserialize state")
	}
	return opened, nil
}

// IsEnvelope reports whether the map is a sealed envelope.
func IsEnvelope(state map[string]any) bool {
	flag, ok := state[envelopeFlagKey].(bool)
	return ok && flag
}

// noOpStateEncryptor passes state through unchanged, used when encryption is
// disabled.
type noOpStateEncryptor struct{}

// NewNoOpStateEncryptor creates a pass-through StateEncryptor.
func NewNoOpStateEncryptor() StateEncryptor {
	return &noOpStateEncryptor{}
}

func (noOpStateEncryptor) Seal(state map[string]any, _ string) (map[string]any, error) {
	return state, nil
}

func (noOpStateEncryptor) Open(state map[string]any, _ string) (map[string]any, error) {
	return state, nil
}
