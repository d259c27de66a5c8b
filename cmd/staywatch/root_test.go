package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/amishk599/staywatch/internal/config"
	"github.com/amishk599/staywatch/internal/model"
	"github.com/amishk599/staywatch/internal/notifier"
)

func loadTestConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

const bookingSite = `
sites:
  - name: booking
    queries:
      - url: "https://www.booking.com/searchresults.html?ss=Sokcho"
`

func TestSetupNotifier_DefaultWithoutTelegramEnvRefusesToStart(t *testing.T) {
	t.Setenv("TG_TOKEN", "")
	t.Setenv("TG_CHAT_ID", "")
	cfg := loadTestConfig(t, bookingSite)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	n, _, err := setupNotifier(context.Background(), cfg, http.DefaultClient, logger)
	if !errors.Is(err, model.ErrMissingCredentials) {
		t.Fatalf("setupNotifier error = %v, want ErrMissingCredentials", err)
	}
	if n != nil {
		t.Errorf("notifier = %T, want nil", n)
	}
}

func TestSetupNotifier_DefaultUsesTelegramEnv(t *testing.T) {
	t.Setenv("TG_TOKEN", "123:abc")
	t.Setenv("TG_CHAT_ID", "42")
	cfg := loadTestConfig(t, bookingSite)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	n, closeFn, err := setupNotifier(context.Background(), cfg, http.DefaultClient, logger)
	if err != nil {
		t.Fatalf("setupNotifier: %v", err)
	}
	defer closeFn()
	if _, ok := n.(*notifier.TelegramNotifier); !ok {
		t.Errorf("notifier = %T, want *notifier.TelegramNotifier", n)
	}
}

func TestSetupNotifier_LogIsExplicitOptIn(t *testing.T) {
	t.Setenv("TG_TOKEN", "")
	cfg := loadTestConfig(t, "notification: {type: log}\n"+bookingSite)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	n, _, err := setupNotifier(context.Background(), cfg, http.DefaultClient, logger)
	if err != nil {
		t.Fatalf("setupNotifier: %v", err)
	}
	if _, ok := n.(*notifier.LogNotifier); !ok {
		t.Errorf("notifier = %T, want *notifier.LogNotifier", n)
	}
}

func TestRunStart_ReturnsSetupErrors(t *testing.T) {
	t.Setenv("TG_TOKEN", "")
	t.Setenv("TG_CHAT_ID", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(bookingSite), 0644); err != nil {
		t.Fatal(err)
	}
	prev := cfgPath
	cfgPath = path
	t.Cleanup(func() { cfgPath = prev })

	if err := runStart(startCmd, nil); !errors.Is(err, model.ErrMissingCredentials) {
		t.Errorf("runStart = %v, want ErrMissingCredentials", err)
	}
}
