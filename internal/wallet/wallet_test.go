package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("super secret wallet payload")
	password := "correct horse battery staple"

	encrypted, err := Encrypt(plaintext, password)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if len(encrypted) <= saltSize+nonceSize {
		t.Fatalf("expected ciphertext to be appended after salt+nonce, got %d bytes", len(encrypted))
	}

	got, err := Decrypt(encrypted, password)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("expected %q, got %q", plaintext, got)
	}
}

func TestDecryptWrongPasswordFails(t *testing.T) {
	encrypted, err := Encrypt([]byte("payload"), "right-password")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(encrypted, "wrong-password"); err == nil {
		t.Fatal("expected decrypt with wrong password to fail")
	}
}

func TestEncryptIsNotDeterministic(t *testing.T) {
	a, err := Encrypt([]byte("payload"), "pw")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := Encrypt([]byte("payload"), "pw")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if string(a) == string(b) {
		t.Fatal("expected distinct salt/nonce to produce distinct ciphertexts")
	}
}

func TestParseBase58RoundTrip(t *testing.T) {
	raw := make([]byte, keypairBytes)
	for i := range raw {
		raw[i] = byte(i)
	}
	encoded := base58.Encode(raw)

	kp, err := ParseBase58(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i := 0; i < 32; i++ {
		if kp.Seed[i] != raw[i] {
			t.Fatalf("seed byte %d: expected %d, got %d", i, raw[i], kp.Seed[i])
		}
	}
	for i := 0; i < 32; i++ {
		if kp.Public[i] != raw[32+i] {
			t.Fatalf("public byte %d: expected %d, got %d", i, raw[32+i], kp.Public[i])
		}
	}
}

func TestParseBase58WrongLength(t *testing.T) {
	encoded := base58.Encode([]byte("too short"))
	if _, err := ParseBase58(encoded); err == nil {
		t.Fatal("expected error for short keypair")
	}
}

func TestLoadFromFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.enc")

	raw := make([]byte, keypairBytes)
	for i := range raw {
		raw[i] = byte(i * 3 % 251)
	}
	encoded := base58.Encode(raw)

	cfg := FileConfig{MainPrivateKey: encoded, Description: "test wallet"}
	if err := WriteEncryptedConfigFile(path, cfg, "file-password"); err != nil {
		t.Fatalf("write encrypted config file: %v", err)
	}

	kp, err := LoadFromFile(path, "file-password")
	if err != nil {
		t.Fatalf("load from file: %v", err)
	}
	var wantSeed [32]byte
	copy(wantSeed[:], raw[:32])
	if kp.Seed != wantSeed {
		t.Fatal("decrypted seed did not round-trip")
	}
}

func TestLoadFileConfigRejectsMissingMainKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.enc")
	if err := WriteEncryptedConfigFile(path, FileConfig{}, "pw"); err != nil {
		t.Fatalf("write encrypted config file: %v", err)
	}
	if _, err := LoadFileConfig(path, "pw"); err == nil {
		t.Fatal("expected error for config missing main_private_key")
	}
}

func TestLoadPrefersKeyFileOverRawEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.enc")
	raw := make([]byte, keypairBytes)
	encoded := base58.Encode(raw)
	if err := WriteEncryptedConfigFile(path, FileConfig{MainPrivateKey: encoded}, "pw"); err != nil {
		t.Fatalf("write encrypted config file: %v", err)
	}

	t.Setenv("TEST_WALLET_PASSWORD", "pw")
	os.Unsetenv("WALLET_PRIVATE_KEY")

	kp, err := Load(path, "TEST_WALLET_PASSWORD", "should-be-ignored")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if kp == nil {
		t.Fatal("expected non-nil keypair")
	}
}

func TestLoadRequiresPasswordVarWhenKeyFileSet(t *testing.T) {
	if _, err := Load("somefile.enc", "UNSET_PASSWORD_VAR", ""); err == nil {
		t.Fatal("expected error when password env var is unset")
	}
}

func TestLoadRequiresOneSource(t *testing.T) {
	if _, err := Load("", "", ""); err == nil {
		t.Fatal("expected error when neither key file nor raw key is set")
	}
}
