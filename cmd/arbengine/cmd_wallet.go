package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/crossvenue/arbengine/internal/wallet"
)

func init() {
	walletCmd := &cobra.Command{
		Use:   "wallet",
		Short: "Generate and manage the trading wallet's encrypted key file",
	}

	var createOut, createPasswordVar, createDescription string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a new Ed25519 keypair and write it as an encrypted wallet file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalletCreate(createOut, createPasswordVar, createDescription)
		},
	}
	createCmd.Flags().StringVar(&createOut, "out", "wallet.json.enc", "output path for the encrypted wallet file")
	createCmd.Flags().StringVar(&createPasswordVar, "password-var", "WALLET_PASSWORD", "environment variable holding the encryption password")
	createCmd.Flags().StringVar(&createDescription, "description", "arbengine trading wallet", "description stored in the wallet file")
	walletCmd.AddCommand(createCmd)

	var encryptKey, encryptOut, encryptPasswordVar string
	encryptCmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt an existing base58 private key into a wallet file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalletEncrypt(encryptKey, encryptOut, encryptPasswordVar)
		},
	}
	encryptCmd.Flags().StringVar(&encryptKey, "private-key", "", "base58-encoded 64-byte private key (required)")
	encryptCmd.Flags().StringVar(&encryptOut, "out", "wallet.json.enc", "output path for the encrypted wallet file")
	encryptCmd.Flags().StringVar(&encryptPasswordVar, "password-var", "WALLET_PASSWORD", "environment variable holding the encryption password")
	walletCmd.AddCommand(encryptCmd)

	rootCmd.AddCommand(walletCmd)
}

func readPassword(passwordVar string) (string, error) {
	if pw := os.Getenv(passwordVar); pw != "" {
		return pw, nil
	}
	fmt.Printf("Enter password for %s: ", passwordVar)
	pw, err := term.ReadPassword(int(0))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func runWalletCreate(out, passwordVar, description string) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}
	raw := append(append([]byte{}, priv.Seed()...), pub...)
	encoded := base58.Encode(raw)

	password, err := readPassword(passwordVar)
	if err != nil {
		return err
	}

	cfg := wallet.FileConfig{
		MainPrivateKey: encoded,
		Description:    description,
		CreatedAt:      time.Now(),
	}
	if err := wallet.WriteEncryptedConfigFile(out, cfg, password); err != nil {
		return fmt.Errorf("write wallet file: %w", err)
	}
	fmt.Printf("Wrote encrypted wallet to %s (public key %s)\n", out, base58.Encode(pub))
	return nil
}

func runWalletEncrypt(privateKey, out, passwordVar string) error {
	if privateKey == "" {
		return fmt.Errorf("--private-key is required")
	}
	kp, err := wallet.ParseBase58(privateKey)
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}

	password, err := readPassword(passwordVar)
	if err != nil {
		return err
	}

	cfg := wallet.FileConfig{
		MainPrivateKey: privateKey,
		Description:    "arbengine trading wallet (imported)",
		CreatedAt:      time.Now(),
	}
	if err := wallet.WriteEncryptedConfigFile(out, cfg, password); err != nil {
		return fmt.Errorf("write wallet file: %w", err)
	}
	fmt.Printf("Wrote encrypted wallet to %s (public key %s)\n", out, kp.Address().Base58())
	return nil
}
