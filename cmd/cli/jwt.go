package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	appservice "github.com/turtacn/vincent/internal/application/service"
	"github.com/turtacn/vincent/internal/application/dto"
	"github.com/turtacn/vincent/internal/infrastructure/crypto"
	"github.com/turtacn/vincent/pkg/logger"
	"github.com/turtacn/vincent/pkg/utils"
)

func newJWTCommand(loadConfig configFunc) *cobra.Command {
	jwtCmd := &cobra.Command{
		Use:   "jwt",
		Short: "Create, verify and decode Vincent JWTs",
	}

	var (
		audience   []string
		expires    int
		payload    string
		privateKey string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Sign a new Vincent JWT with the delegated signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &dto.CreateJWTRequest{Audience: audience, ExpiresInMinutes: expires}
			if payload != "" {
				if err := json.Unmarshal([]byte(payload), &req.Payload); err != nil {
					return fmt.Errorf("payload must be a JSON object: %w", err)
				}
			}
			if err := utils.ValidateStruct(req); err != nil {
				return err
			}

			signer, identity, err := resolveSigner(cmd.Context(), privateKey, loadConfig)
			if err != nil {
				return err
			}
			svc, err := newAuthService("")
			if err != nil {
				return err
			}
			created, err := svc.CreateToken(cmd.Context(), signer, identity, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	createCmd.Flags().StringSliceVar(&audience, "audience", nil, "audience the token is issued for (repeatable)")
	createCmd.Flags().IntVar(&expires, "expires", 30, "lifetime in minutes")
	createCmd.Flags().StringVar(&payload, "payload", "", "extra claims as a JSON object")
	createCmd.Flags().StringVar(&privateKey, "private-key", "", "hex secp256k1 key (defaults to the configured signer)")

	var verifyAudience string
	verifyCmd := &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a Vincent JWT for an audience",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newAuthService(verifyAudience)
			if err != nil {
				return err
			}
			res, err := svc.VerifyToken(cmd.Context(), args[0], verifyAudience)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.NewDecodedJWTDTO(res.DecodedJWT))
		},
	}
	verifyCmd.Flags().StringVar(&verifyAudience, "audience", "", "expected audience")
	_ = verifyCmd.MarkFlagRequired("audience")

	decodeCmd := &cobra.Command{
		Use:   "decode TOKEN",
		Short: "Decode a Vincent JWT without verifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newAuthService("")
			if err != nil {
				return err
			}
			decoded, err := svc.DecodeToken(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.NewDecodedJWTDTO(decoded))
		},
	}

	jwtCmd.AddCommand(createCmd, verifyCmd, decodeCmd)
	return jwtCmd
}

func newAuthService(audience string) (appservice.AuthAppService, error) {
	manager, err := crypto.NewJWTManager(crypto.JWTConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return appservice.NewAuthAppService(appservice.AuthAppConfig{ExpectedAudience: audience}, manager, nil, nil, nil, logger.NewNoopLogger()), nil
}
