package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/infrastructure/auth"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssue(t *testing.T) {
	t.Setenv("BILLING_APP_ENV", "development")
	t.Setenv("BILLING_AUTH_JWT_SECRET", "cli-test-secret")
	t.Setenv("BILLING_AUTH_ISSUER", "billing-cli-test")

	tenantID := uuid.New()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "issue", "--tenant", tenantID.String(), "--role", "admin", "--ttl", "10m"})
	require.NoError(t, rootCmd.Execute())

	verifier := auth.NewVerifier(config.AuthConfig{JWTSecret: "cli-test-secret", Issuer: "billing-cli-test"})
	claims, err := verifier.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenIssue_InvalidTenant(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"token", "issue", "--tenant", "acme"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tenant id")
}
