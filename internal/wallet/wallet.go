// Package wallet loads the signing keypair the execution pipeline uses
// to sign bundles: either a base58 private key taken directly from the
// environment, or an AES-256-GCM encrypted key file unlocked by a
// password held in a separate environment variable.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/pbkdf2"

	"github.com/crossvenue/arbengine/internal/domain"
)

// FileConfig is the JSON payload an encrypted wallet file decrypts to.
type FileConfig struct {
	MainPrivateKey    string     `json:"main_private_key"`
	HotPrivateKey     *string    `json:"hot_private_key,omitempty"`
	ColdWalletAddress *string    `json:"cold_wallet_address,omitempty"`
	MinBalance        *float64   `json:"min_balance,omitempty"`
	Description       string     `json:"description"`
	CreatedAt         time.Time  `json:"created_at"`
}

const (
	saltSize       = 16
	nonceSize      = 12
	pbkdf2Rounds   = 10000
	keySize        = 32
	keypairBytes   = 64 // 32-byte seed + 32-byte public key, base58-encoded
)

// Keypair holds the decoded signing key. Seed and Public are disjoint
// halves of the 64-byte base58 keypair; Sign produces an Ed25519
// signature from Seed.
type Keypair struct {
	Seed   [32]byte
	Public [32]byte
}

// Sign produces an Ed25519 signature of msg using the keypair's seed.
func (k *Keypair) Sign(msg []byte) []byte {
	priv := ed25519.NewKeyFromSeed(k.Seed[:])
	return ed25519.Sign(priv, msg)
}

// Address returns the keypair's public key as a domain.Address.
func (k *Keypair) Address() domain.Address {
	return domain.Address(k.Public)
}

// Load resolves the wallet per §6: a key file takes precedence over a
// raw environment variable, matching the original bot's preference
// order (encrypted file "RECOMMENDED", plain env var a fallback).
func Load(keyFile, passwordVar, rawPrivateKey string) (*Keypair, error) {
	if keyFile != "" {
		password := os.Getenv(passwordVar)
		if password == "" {
			return nil, &domain.ConfigError{Field: passwordVar, Reason: "wallet password environment variable is empty"}
		}
		return LoadFromFile(keyFile, password)
	}
	if rawPrivateKey != "" {
		return ParseBase58(rawPrivateKey)
	}
	return nil, &domain.ConfigError{Field: "WALLET_KEY_FILE/WALLET_PRIVATE_KEY", Reason: "neither is set"}
}

// LoadFromFile reads and decrypts an encrypted wallet file at path,
// returning the main trading keypair.
func LoadFromFile(path, password string) (*Keypair, error) {
	cfg, err := LoadFileConfig(path, password)
	if err != nil {
		return nil, err
	}
	return ParseBase58(cfg.MainPrivateKey)
}

// LoadFileConfig reads, decrypts, and JSON-decodes an encrypted wallet
// file into its full configuration (main/hot keys, cold wallet, etc).
func LoadFileConfig(path, password string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet file: %w", err)
	}
	plaintext, err := Decrypt(data, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet file: %w", err)
	}
	var cfg FileConfig
	if err := json.Unmarshal(plaintext, &cfg); err != nil {
		return nil, fmt.Errorf("parse wallet config: %w", err)
	}
	if cfg.MainPrivateKey == "" {
		return nil, fmt.Errorf("wallet config missing main_private_key")
	}
	return &cfg, nil
}

// ParseBase58 decodes a 64-byte base58 keypair (32-byte seed followed
// by 32-byte public key, the conventional Solana secret-key encoding).
func ParseBase58(s string) (*Keypair, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode base58 private key: %w", err)
	}
	if len(raw) != keypairBytes {
		return nil, fmt.Errorf("private key must decode to %d bytes, got %d", keypairBytes, len(raw))
	}
	kp := &Keypair{}
	copy(kp.Seed[:], raw[:32])
	copy(kp.Public[:], raw[32:])
	return kp, nil
}

// Decrypt reverses Encrypt: salt(16) ‖ nonce(12) ‖ ciphertext, with the
// key derived from password via PBKDF2-HMAC-SHA256 at 10000 rounds.
func Decrypt(encrypted []byte, password string) ([]byte, error) {
	if len(encrypted) < saltSize+nonceSize {
		return nil, fmt.Errorf("encrypted wallet data too short")
	}
	salt := encrypted[:saltSize]
	nonce := encrypted[saltSize : saltSize+nonceSize]
	ciphertext := encrypted[saltSize+nonceSize:]

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init GCM: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: incorrect password or corrupted file: %w", err)
	}
	return plaintext, nil
}

// Encrypt produces the salt‖nonce‖ciphertext layout Decrypt expects.
// Used by the `wallet encrypt` CLI subcommand to create key files.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init GCM: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// WriteEncryptedFile encrypts plaintext under password and writes it
// to path with 0600 permissions.
func WriteEncryptedFile(path string, plaintext []byte, password string) error {
	encrypted, err := Encrypt(plaintext, password)
	if err != nil {
		return err
	}
	return os.WriteFile(path, encrypted, 0600)
}

// WriteEncryptedConfigFile JSON-encodes cfg and writes it as an
// encrypted wallet file, for the `wallet create` CLI subcommand.
func WriteEncryptedConfigFile(path string, cfg FileConfig, password string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet config: %w", err)
	}
	return WriteEncryptedFile(path, data, password)
}
