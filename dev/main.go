package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"challan-backend/internal/history"

	"github.com/mazen160/go-random"
)

const stateDir = "dev/.state"

const configTemplate = `{
  erp: {
    base_url: %q,
    menu_id: "",
    cloudflare_bypass: false,
  },
  history: {
    driver: "sqlite",
    uri: %q,
  },
  security: {
    csrf_secret: %q,
    delete_token_secret: %q,
    // set DELETE_USERNAME and DELETE_PASSWORD in .env to enable /api/delete
  },
  http: {
    port: 8000,
    allowed_origins: ["http://localhost:8000"],
  },
  capture_dir: %q,
}
`

func writeConfig(path, erpURL string) error {
	csrfSecret, err := random.String(64)
	if err != nil {
		return err
	}
	tokenSecret, err := random.String(64)
	if err != nil {
		return err
	}
	content := fmt.Sprintf(
		configTemplate,
		erpURL,
		filepath.Join(stateDir, "history.db"),
		csrfSecret,
		tokenSecret,
		filepath.Join(stateDir, "captures"),
	)
	return os.WriteFile(path, []byte(content), 0600)
}

func create(ctx context.Context, recreate bool, erpURL string) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		err = os.RemoveAll(stateDir)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	err = os.MkdirAll(filepath.Join(stateDir, "captures"), 0777)
	if err != nil {
		return err
	}

	store, err := history.OpenSQL(ctx, "sqlite", filepath.Join(stateDir, "history.db"))
	if err != nil {
		return err
	}
	err = store.Close(ctx)
	if err != nil {
		return err
	}

	configPath := filepath.Join(stateDir, "config.json5")
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		err = writeConfig(configPath, erpURL)
	}
	if err != nil {
		return err
	}

	slog.Info("server config", "path", configPath)
	slog.Info("run with", "cmd", "go run ./cmd/challan-server -config "+configPath)
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	erpURL := flag.String("erp", "http://localhost:8080/erp", "base url of the ERP to point the dev config at")
	flag.Parse()

	err := create(context.Background(), *recreate, *erpURL)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created sucessfully!")
}
