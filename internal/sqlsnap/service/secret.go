package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	secretSaltLen   = 16
	secretKeyLen    = 32
	secretPBKDF2Ite = 4096
)

// Cipher 负责凭据的静态加密
// 密钥由 SQLSNAP_SECRET 通过 PBKDF2 派生，密文格式为 base64(盐 || nonce || 密文)
type Cipher struct {
	secret []byte
}

// NewCipher 创建凭据加密器
func NewCipher(secret string) *Cipher {
	return &Cipher{secret: []byte(secret)}
}

// Encrypt 加密明文，每次调用使用新的随机盐和 nonce
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, secretSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := c.gcm(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt 解密 Encrypt 产出的密文
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) < secretSaltLen {
		return "", errors.New("ciphertext too short")
	}

	salt := raw[:secretSaltLen]
	gcm, err := c.gcm(salt)
	if err != nil {
		return "", err
	}

	rest := raw[secretSaltLen:]
	if len(rest) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

// gcm 用给定盐派生密钥并构造 AES-GCM
func (c *Cipher) gcm(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.secret, salt, secretPBKDF2Ite, secretKeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
