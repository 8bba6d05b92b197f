package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/infrastructure/auth"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API access tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign an access token with the configured secret",
	Long: `Sign an HS256 access token accepted by the billing API.

Tokens are normally minted by the identity service. This command is for
operators running sweeps through the admin API and for local testing.`,
	Example: `  billingctl token issue --tenant <uuid> --role admin --ttl 15m`,
	RunE:    runTokenIssue,
}

func init() {
	tokenIssueCmd.Flags().String("tenant", "", "Tenant (organization) id")
	tokenIssueCmd.Flags().String("user", "", "User id (default: a random id)")
	tokenIssueCmd.Flags().String("role", "", "Role claim, e.g. admin")
	tokenIssueCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = tokenIssueCmd.MarkFlagRequired("tenant")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenIssue(cmd *cobra.Command, _ []string) error {
	tenantRaw, _ := cmd.Flags().GetString("tenant")
	userRaw, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	tenantID, err := uuid.Parse(tenantRaw)
	if err != nil {
		return fmt.Errorf("invalid tenant id %q: %w", tenantRaw, err)
	}
	userID := uuid.New()
	if userRaw != "" {
		if userID, err = uuid.Parse(userRaw); err != nil {
			return fmt.Errorf("invalid user id %q: %w", userRaw, err)
		}
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}

	token, err := auth.NewVerifier(cfg.Auth).Issue(auth.Identity{TenantID: tenantID, UserID: userID, Role: role}, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
