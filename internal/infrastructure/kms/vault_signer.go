// Package kms keeps delegated signing keys in HashiCorp Vault.
package kms

import (
	"context"
	"fmt"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/vincent/internal/config"
	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/internal/infrastructure/crypto"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
)

// VaultSigner is a DelegatedSigner whose secp256k1 key lives in a Vault KV v2 secret.
// The key is read on first use and kept in memory afterwards.
type VaultSigner struct {
	client *vault.Client
	cfg    config.VaultConfig
	logger logger.Logger

	mu     sync.Mutex
	signer *crypto.PrivateKeySigner
}

var _ service.DelegatedSigner = (*VaultSigner)(nil)

// NewVaultClient creates a Vault API client from cfg.
func NewVaultClient(cfg config.VaultConfig) (*vault.Client, error) {
	vc := vault.DefaultConfig()
	if cfg.Address != "" {
		vc.Address = cfg.Address
	}
	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, errors.ErrVaultConnectionFailed(err.Error()).WithCause(err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	return client, nil
}

// NewVaultSigner creates a VaultSigner.
func NewVaultSigner(cfg config.VaultConfig, client *vault.Client, log logger.Logger) *VaultSigner {
	if cfg.MountPath == "" {
		cfg.MountPath = "secret"
	}
	if cfg.Field == "" {
		cfg.Field = "private_key"
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &VaultSigner{
		client: client,
		cfg:    cfg,
		logger: log.WithComponent("VaultSigner"),
	}
}

// secretPath returns the KV v2 data path, e.g. secret/data/vincent/signer.
func (s *VaultSigner) secretPath() string {
	return fmt.Sprintf("%s/data/%s", strings.Trim(s.cfg.MountPath, "/"), strings.Trim(s.cfg.KeyPath, "/"))
}

func (s *VaultSigner) load(ctx context.Context) (*crypto.PrivateKeySigner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signer != nil {
		return s.signer, nil
	}

	path := s.secretPath()
	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		s.logger.Error(ctx, "failed to read signing key from Vault", err, logger.String("path", path))
		return nil, errors.ErrVaultConnectionFailed(err.Error()).WithCause(err)
	}
	if secret == nil || secret.Data["data"] == nil {
		return nil, fmt.Errorf("signing key not found in vault at %s", path)
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format in vault")
	}
	hexKey, ok := data[s.cfg.Field].(string)
	if !ok || hexKey == "" {
		return nil, fmt.Errorf("%s not found or not a string in vault secret", s.cfg.Field)
	}

	signer, err := crypto.NewPrivateKeySignerFromHex(hexKey)
	if err != nil {
		s.logger.Error(ctx, "vault secret does not hold a secp256k1 key", err, logger.String("path", path))
		return nil, err
	}
	s.signer = signer
	s.logger.Info(ctx, "Signing key loaded from Vault",
		logger.String("path", path),
		logger.String("address", signer.Identity().Address),
	)
	return signer, nil
}

// Address implements service.DelegatedSigner.
func (s *VaultSigner) Address(ctx context.Context) (string, error) {
	signer, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return signer.Address(ctx)
}

// SignMessage implements service.DelegatedSigner.
func (s *VaultSigner) SignMessage(ctx context.Context, message []byte) (string, error) {
	signer, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return signer.SignMessage(ctx, message)
}

// Identity returns the address and public key of the stored key.
func (s *VaultSigner) Identity(ctx context.Context) (models.SignerIdentity, error) {
	signer, err := s.load(ctx)
	if err != nil {
		return models.SignerIdentity{}, err
	}
	return signer.Identity(), nil
}

// ProvisionKey generates a new key, writes it to Vault and starts using it.
func (s *VaultSigner) ProvisionKey(ctx context.Context) (models.SignerIdentity, error) {
	signer, err := crypto.GeneratePrivateKeySigner()
	if err != nil {
		return models.SignerIdentity{}, fmt.Errorf("failed to generate key: %w", err)
	}
	identity := signer.Identity()

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			s.cfg.Field:  signer.PrivateKeyHex(),
			"address":    identity.Address,
			"public_key": identity.PublicKey,
		},
	}
	path := s.secretPath()
	if _, err := s.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		s.logger.Error(ctx, "failed to write signing key to Vault", err, logger.String("path", path))
		return models.SignerIdentity{}, errors.ErrVaultConnectionFailed(err.Error()).WithCause(err)
	}

	s.mu.Lock()
	s.signer = signer
	s.mu.Unlock()
	s.logger.Info(ctx, "Signing key provisioned in Vault", logger.String("path", path), logger.String("address", identity.Address))
	return identity, nil
}
