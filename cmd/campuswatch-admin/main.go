// Command campuswatch-admin is the operator CLI: it mints admin tokens and
// manages devices and settings directly against the database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/BrandonDHaskell/campuswatch/internal/adminauth"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	sqlitestore "github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store/sqlite"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
	"github.com/BrandonDHaskell/campuswatch/internal/config"
	"github.com/BrandonDHaskell/campuswatch/internal/db"
	"github.com/BrandonDHaskell/campuswatch/internal/logging"
)

const usage = `usage:
  campuswatch-admin token -sub NAME [-perms a,b,c]
  campuswatch-admin device create -name NAME -type GATEWAY|ROOM_SENSOR [-room ID]
  campuswatch-admin device rotate -id ID
  campuswatch-admin settings show
`

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.Env, cfg.LogLevel).With("app", "campuswatch-admin")

	if err := run(context.Background(), cfg, logger, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "token":
		return mintToken(cfg, args[1:], out)
	case "device":
		if len(args) < 2 {
			return errUsage
		}
		return withRegistry(ctx, cfg, logger, func(r *service.DeviceRegistry) error {
			switch args[1] {
			case "create":
				return createDevice(ctx, r, args[2:], out)
			case "rotate":
				return rotateToken(ctx, r, args[2:], out)
			}
			return errUsage
		})
	case "settings":
		if len(args) < 2 || args[1] != "show" {
			return errUsage
		}
		return showSettings(ctx, cfg, logger, out)
	}
	return errUsage
}

func mintToken(cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "token subject")
	perms := fs.String("perms", strings.Join(adminauth.AllPermissions, ","), "comma-separated permission codes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *sub == "" {
		return errUsage
	}
	if cfg.AdminJWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is not set")
	}

	issuer := adminauth.NewIssuer(cfg.AdminJWTSecret, cfg.AdminTokenTTL)
	tok, err := issuer.Issue(*sub, splitList(*perms))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}

func createDevice(ctx context.Context, r *service.DeviceRegistry, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("device create", flag.ContinueOnError)
	name := fs.String("name", "", "device name")
	typ := fs.String("type", "", "GATEWAY or ROOM_SENSOR")
	room := fs.Int64("room", 0, "room id (sensors only)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	dt, ok := types.ParseDeviceType(*typ)
	if !ok {
		return fmt.Errorf("unknown device type %q", *typ)
	}

	in := service.DeviceInput{Name: *name, Type: dt}
	if *room > 0 {
		in.RoomID = room
	}
	dev, err := r.CreateDevice(ctx, in)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]any{
		"id":    dev.ID,
		"name":  dev.Name,
		"type":  dev.Type,
		"token": dev.Token,
	})
}

func rotateToken(ctx context.Context, r *service.DeviceRegistry, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("device rotate", flag.ContinueOnError)
	id := fs.Int64("id", 0, "device id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id <= 0 {
		return errUsage
	}
	dev, err := r.RegenerateToken(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]any{"id": dev.ID, "token": dev.Token})
}

func showSettings(ctx context.Context, cfg config.Config, logger *slog.Logger, out io.Writer) error {
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return err
	}
	defer conn.Close()
	writer := db.NewWorker(conn)
	defer writer.Close()

	settings := service.NewSettingsService(sqlitestore.NewSettingsStore(conn, writer), logger)
	cur, err := settings.Current(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, cur.View())
}

func withRegistry(ctx context.Context, cfg config.Config, logger *slog.Logger, fn func(*service.DeviceRegistry) error) error {
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return err
	}
	defer conn.Close()
	writer := db.NewWorker(conn)
	defer writer.Close()

	registry := service.NewDeviceRegistry(
		sqlitestore.NewDeviceStore(conn, writer),
		sqlitestore.NewDirectoryStore(conn),
		logger,
	)
	return fn(registry)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
