package app

import (
	"context"
	"fmt"

	"github.com/allisson/compliance/internal/encryption"
)

// StateEncryptor returns the before/after state encryptor. When state
// encryption is disabled a pass-through encryptor is returned.
func (c *Container) StateEncryptor() (encryption.StateEncryptor, error) {
	var err error
	c.stateEncryptorInit.Do(func() {
		c.stateEncryptor, err = c.initStateEncryptor()
		if err != nil {
			c.initErrors["stateEncryptor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["stateEncryptor"]; exists {
		return nil, storedErr
	}
	return c.stateEncryptor, nil
}

// initStateEncryptor unwraps the data key through the configured KMS keeper
// and builds the AEAD-backed state encryptor.
func (c *Container) initStateEncryptor() (encryption.StateEncryptor, error) {
	if !c.config.EncryptionEnabled {
		return encryption.NewNoOpStateEncryptor(), nil
	}

	if c.config.EncryptionKeyURI == "" || c.config.EncryptionWrappedKey == "" {
		return nil, fmt.Errorf("state encryption enabled but key URI or wrapped key is missing")
	}

	key, err := encryption.UnwrapDataKey(
		context.Background(),
		c.config.EncryptionKeyURI,
		c.config.EncryptionWrappedKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap state encryption key: %w", err)
	}

	cipher, err := encryption.NewCipher(c.config.EncryptionAlgorithm, key)
	if err != nil {
		return nil, fmt.Errorf("failed to build state encryption cipher: %w", err)
	}

	return encryption.NewStateEncryptor(cipher, c.config.EncryptionAlgorithm), nil
}
