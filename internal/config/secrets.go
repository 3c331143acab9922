package config

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"golang.org/x/crypto/pbkdf2"
)

// ResolveDSN returns the Sink's connection string. If DatabaseDSN is
// set directly it is used as-is; otherwise DatabaseDSNSecret is
// resolved as an AWS Secrets Manager secret ARN. The secret's raw
// string value is the DSN, except when COLLIDER_DSN_PASSPHRASE is set
// in the environment, in which case the secret value is treated as a
// base64-encoded ciphertext: the passphrase is stretched through pbkdf2
// into a key (see decryptDSN) and the decrypted plaintext is returned
// as the DSN.
func (c Config) ResolveDSN(ctx context.Context) (string, error) {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN, nil
	}
	if c.DatabaseDSNSecret == "" {
		return "", fmt.Errorf("config: no database_dsn or database_dsn_secret_arn configured")
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("config: load AWS config: %w", err)
	}

	sm := secretsmanager.NewFromConfig(awsCfg)
	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &c.DatabaseDSNSecret,
	})
	if err != nil {
		return "", fmt.Errorf("config: fetch secret %q: %w", c.DatabaseDSNSecret, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("config: secret %q has no string value", c.DatabaseDSNSecret)
	}

	if passphrase, ok := os.LookupEnv("COLLIDER_DSN_PASSPHRASE"); ok {
		return decryptDSN(*out.SecretString, passphrase)
	}
	return *out.SecretString, nil
}

// decryptDSN derives a key from passphrase via pbkdf2-sha256, the same
// primitive and call shape the teacher CLI uses to turn a plaintext
// SCRAM password into a salted credential, and XORs it over the
// base64-decoded secret payload. This is a lightweight reversible
// transform suited to a secret already gated by IAM and Secrets
// Manager's own at-rest encryption; it is not a substitute for a
// proper AEAD cipher and is scoped accordingly.
func decryptDSN(payload, passphrase string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("config: decode secret payload: %w", err)
	}

	const iterations = 4096
	key := pbkdf2.Key([]byte(passphrase), []byte("collider-ingest-dsn"), iterations, sha256.Size, sha256.New)

	out := make([]byte, len(raw))
	for i := range raw {
		out[i] = raw[i] ^ key[i%len(key)]
	}
	return strings.TrimRight(string(out), "\x00"), nil
}
