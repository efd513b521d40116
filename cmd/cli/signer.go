package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/internal/infrastructure/crypto"
	"github.com/turtacn/vincent/internal/infrastructure/kms"
	"github.com/turtacn/vincent/pkg/logger"
)

func newSignerCommand(loadConfig configFunc) *cobra.Command {
	signerCmd := &cobra.Command{
		Use:   "signer",
		Short: "Manage the delegated signing key",
	}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a local development key",
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := crypto.GeneratePrivateKeySigner()
			if err != nil {
				return err
			}
			identity := signer.Identity()
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"address":    identity.Address,
				"publicKey":  identity.PublicKey,
				"privateKey": signer.PrivateKeyHex(),
			})
		},
	}

	var privateKey string
	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Print the address and public key of the configured signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, identity, err := resolveSigner(cmd.Context(), privateKey, loadConfig)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), identity)
		},
	}
	addressCmd.Flags().StringVar(&privateKey, "private-key", "", "hex secp256k1 key (defaults to the configured signer)")

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Generate a key and store it in Vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Signer.Vault.Enabled() {
				return fmt.Errorf("signer.vault.address and signer.vault.key_path are required")
			}
			client, err := kms.NewVaultClient(cfg.Signer.Vault)
			if err != nil {
				return err
			}
			identity, err := kms.NewVaultSigner(cfg.Signer.Vault, client, logger.NewNoopLogger()).ProvisionKey(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), identity)
		},
	}

	signerCmd.AddCommand(generateCmd, addressCmd, provisionCmd)
	return signerCmd
}

// resolveSigner picks, in order, the explicit key, the configured key or the Vault key.
func resolveSigner(ctx context.Context, privateKey string, loadConfig configFunc) (service.DelegatedSigner, models.SignerIdentity, error) {
	if privateKey != "" {
		signer, err := crypto.NewPrivateKeySignerFromHex(privateKey)
		if err != nil {
			return nil, models.SignerIdentity{}, err
		}
		return signer, signer.Identity(), nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, models.SignerIdentity{}, err
	}
	switch {
	case cfg.Signer.PrivateKey != "":
		signer, err := crypto.NewPrivateKeySignerFromHex(cfg.Signer.PrivateKey)
		if err != nil {
			return nil, models.SignerIdentity{}, err
		}
		return signer, signer.Identity(), nil
	case cfg.Signer.Vault.Enabled():
		client, err := kms.NewVaultClient(cfg.Signer.Vault)
		if err != nil {
			return nil, models.SignerIdentity{}, err
		}
		signer := kms.NewVaultSigner(cfg.Signer.Vault, client, logger.NewNoopLogger())
		identity, err := signer.Identity(ctx)
		if err != nil {
			return nil, models.SignerIdentity{}, err
		}
		return signer, identity, nil
	}
	return nil, models.SignerIdentity{}, fmt.Errorf("no signer configured: pass --private-key or set signer.private_key or signer.vault")
}
