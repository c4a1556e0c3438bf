// ABOUTME: Entry point for the abra direct-messaging server
// ABOUTME: Wires config, store, services, and the HTTP API together

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/NoamBoni/abra/internal/account"
	"github.com/NoamBoni/abra/internal/auth"
	"github.com/NoamBoni/abra/internal/config"
	"github.com/NoamBoni/abra/internal/httpapi"
	"github.com/NoamBoni/abra/internal/messaging"
	"github.com/NoamBoni/abra/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
        _
   __ _| |__  _ __ __ _
  / _' | '_ \| '__/ _' |
 | (_| | |_) | | | (_| |
  \__,_|_.__/|_|  \__,_|
`

// getConfigPath returns the path to the server config file.
// Priority: ABRA_CONFIG env var > XDG_CONFIG_HOME/abra/abra.yaml > ~/.config/abra/abra.yaml
func getConfigPath() string {
	if envPath := os.Getenv("ABRA_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "abra.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "abra", "abra.yaml")
}

// getDataPath returns the path to the abra data directory.
// Priority: XDG_DATA_HOME/abra > ~/.local/share/abra
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "abra")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: abra <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the messaging server")
		fmt.Println("  init    Write a starter config file")
		os.Exit(1)
	}

	// Local .env is optional; the config loader expands ${VARS} from it
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	logger.Info("starting abra",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	codec := auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	accounts := account.NewService(st)
	messages := messaging.NewService(st)
	api := httpapi.NewAPI(accounts, messages, codec)

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: httpapi.NewRouter(api, st, codec),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// runInit writes a starter config with a freshly generated signing secret.
func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("generating secret: %w", err)
	}

	cfg := fmt.Sprintf(`# abra configuration
# Generated by abra init

server:
  http_addr: "localhost:8080"

database:
  path: %q

auth:
  jwt_secret: %q
  # token_ttl: 720h  # uncomment to expire sessions and force re-login

logging:
  level: info
  format: text
`, filepath.Join(getDataPath(), "abra.db"), base64.StdEncoding.EncodeToString(secret))

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(cfg), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote %s\n", configPath)
	return nil
}
