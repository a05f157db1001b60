package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/campuswatch/internal/adminauth"
	"github.com/BrandonDHaskell/campuswatch/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBPath = filepath.Join(t.TempDir(), "admin.db")
	cfg.AdminJWTSecret = "cli-secret"
	cfg.AdminTokenTTL = time.Hour
	return cfg
}

func TestRunTokenMintsParsableToken(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	err := run(context.Background(), cfg, slog.New(slog.DiscardHandler),
		[]string{"token", "-sub", "ops", "-perms", "monitoring.view, monitoring.reports.export"}, &out)
	require.NoError(t, err)

	claims, err := adminauth.NewIssuer("cli-secret", time.Hour).Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, []string{adminauth.PermView, adminauth.PermReportsExport}, claims.Permissions)
}

func TestRunDeviceCreateAndRotate(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	quiet := slog.New(slog.DiscardHandler)

	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, quiet, []string{"device", "create", "-name", "front door", "-type", "gateway"}, &out))

	var created struct {
		ID    int64  `json:"id"`
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &created))
	assert.Equal(t, "GATEWAY", created.Type)
	assert.NotEmpty(t, created.Token)

	out.Reset()
	require.NoError(t, run(ctx, cfg, quiet, []string{"device", "rotate", "-id", strconv.FormatInt(created.ID, 10)}, &out))

	var rotated struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &rotated))
	assert.Equal(t, created.ID, rotated.ID)
	assert.NotEqual(t, created.Token, rotated.Token)
}

func TestRunSettingsShowCreatesDefaults(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), cfg, slog.New(slog.DiscardHandler), []string{"settings", "show"}, &out))
	assert.Contains(t, out.String(), `"temp_min"`)
}

func TestRunRejectsUnknownCommands(t *testing.T) {
	cfg := testConfig(t)
	quiet := slog.New(slog.DiscardHandler)
	for _, args := range [][]string{nil, {"nope"}, {"device"}, {"device", "explode"}, {"settings"}, {"token"}} {
		err := run(context.Background(), cfg, quiet, args, &bytes.Buffer{})
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}
