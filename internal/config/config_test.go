package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redraw.toml")
	err := os.WriteFile(path, []byte(`
relay_url = "ws://relay.lan:9000/ws"
board = "sprint"
debounce = "250ms"
mdns = false
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9100")
	t.Setenv("REDRAW_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.RelayURL = "ws://relay.lan:9000/ws"
	want.Board = "sprint"
	want.Debounce = Duration{250 * time.Millisecond}
	want.MDNS = false
	want.Port = 9100
	want.LogLevel = "debug"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level = %v", cfg.Level())
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Debounce.Duration != 120*time.Millisecond || cfg.CursorInterval.Duration != 40*time.Millisecond {
		t.Errorf("intervals = %v / %v", cfg.Debounce, cfg.CursorInterval)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "http")
	if _, err := Load(""); err == nil {
		t.Fatal("non-numeric PORT accepted")
	}
}

func TestShareLink(t *testing.T) {
	link := ShareLink("192.168.1.4", 8080, "team board")
	if link != "redraw://192.168.1.4:8080?board=team+board" {
		t.Fatalf("link = %s", link)
	}
	relay, board, err := ParseShareLink(link)
	if err != nil {
		t.Fatal(err)
	}
	if relay != "ws://192.168.1.4:8080/ws" || board != "team board" {
		t.Fatalf("parsed %s %s", relay, board)
	}

	relay, board, err = ParseShareLink("redraw://10.0.0.2:8888/")
	if err != nil || relay != "ws://10.0.0.2:8888/ws" || board != "default" {
		t.Fatalf("parsed %s %s %v", relay, board, err)
	}
	if _, _, err := ParseShareLink("http://x"); err == nil {
		t.Fatal("http link accepted")
	}
}
