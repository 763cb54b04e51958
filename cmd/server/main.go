package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/term"

	"github.com/dreslan/tapfi/internal/config"
	"github.com/dreslan/tapfi/internal/handlers/accounts"
	"github.com/dreslan/tapfi/internal/handlers/backup"
	"github.com/dreslan/tapfi/internal/handlers/dashboard"
	"github.com/dreslan/tapfi/internal/handlers/goals"
	"github.com/dreslan/tapfi/internal/services/storage"
	"github.com/dreslan/tapfi/internal/services/tracker"
	"github.com/dreslan/tapfi/internal/version"
)

var (
	cfg     *config.Config
	store   *storage.Storage
	manager *tracker.Manager
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	encrypt := flag.Bool("encrypt", false, "enable at-rest encryption for the data directory")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	cfg = config.Load()
	log.Printf("Starting FI tracker %s on %s", version.Get().Version, cfg.ListenAddr)
	log.Printf("Data directory: %s", cfg.DataDirectory)

	if err := SetupDependencies(cfg); err != nil {
		log.Fatalf("Failed to set up dependencies: %v", err)
	}

	if *encrypt && !store.IsEncrypted() {
		password, err := promptPassword("Choose an encryption passphrase: ")
		if err != nil {
			log.Fatalf("Failed to read passphrase: %v", err)
		}
		if err := store.EnableEncryption(password); err != nil {
			log.Fatalf("Failed to enable encryption: %v", err)
		}
		log.Println("Encryption enabled for data directory")
	}

	if store.IsEncrypted() && !store.IsUnlocked() {
		password, err := promptPassword("Data directory is encrypted. Passphrase: ")
		if err != nil {
			log.Fatalf("Failed to read passphrase: %v", err)
		}
		if err := store.Unlock(password); err != nil {
			log.Fatalf("Failed to unlock data directory: %v", err)
		}
		log.Println("Data directory unlocked")
	}

	r := SetupRouter()

	log.Printf("Server starting on %s", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}

// SetupDependencies initializes storage, the tracker, and every handler
// package against the given config.
func SetupDependencies(c *config.Config) error {
	cfg = c

	var err error
	store, err = storage.New(c.DataDirectory)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	manager = tracker.NewManager(store, c.DataDirectory)

	dashboard.Initialize(manager)
	accounts.Initialize(manager)
	goals.Initialize(manager)
	backup.Initialize(manager)

	return nil
}

// SetupRouter builds the chi router with middleware and all routes.
func SetupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/api/health", handleHealth)

	dashboard.RegisterRoutes(r)
	accounts.RegisterRoutes(r)
	goals.RegisterRoutes(r)
	backup.RegisterRoutes(r)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.Get().Version,
	})
}

// promptPassword reads a passphrase without echo when attached to a
// terminal; otherwise it falls back to TAPFI_PASSPHRASE for headless runs.
func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		if pw := os.Getenv("TAPFI_PASSPHRASE"); pw != "" {
			return pw, nil
		}
		return "", fmt.Errorf("stdin is not a terminal and TAPFI_PASSPHRASE is not set")
	}

	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
