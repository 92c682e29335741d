package utils

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptorFromSecret derives an XChaCha20-Poly1305 key from secret and purpose.
func NewEncryptorFromSecret(secret, purpose string) (*Encryptor, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is empty")
	}
	key, err := DeriveKey(secret, purpose, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Encryptor{aead: aead}, nil
}

func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, []byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	ciphertext := e.aead.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

func (e *Encryptor) Decrypt(nonce, ciphertext []byte) ([]byte, error) {
	return e.aead.Open(nil, nonce, ciphertext, nil)
}

func (e *Encryptor) EncryptToBlob(plaintext []byte) ([]byte, error) {
	nonce, ct, err := e.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	return append(nonce, ct...), nil
}

func (e *Encryptor) DecryptBlob(data []byte) ([]byte, error) {
	ns := e.aead.NonceSize()
	if len(data) < ns {
		return nil, errors.New("ciphertext too short")
	}
	return e.Decrypt(data[:ns], data[ns:])
}
