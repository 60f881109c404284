package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"imagerelay/internal/infra"
	"imagerelay/internal/infra/credentials"
	"imagerelay/internal/upstream"
)

func main() {
	_ = godotenv.Load()

	var keyFlag, noteFlag string
	flag.StringVar(&keyFlag, "key", "", "Upstream API key (falls back to API_KEY)")
	flag.StringVar(&noteFlag, "note", "", "Free-form note stored with the key")
	flag.Parse()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("API_KEY"))
	}
	key = upstream.CleanCredential(key)
	if key == "" {
		fmt.Fprintln(os.Stderr, "upstream API key is required via -key or API_KEY")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "").With().Str("cmd", "apikey").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	props := map[string]any{"source": "cli", "rotated_at": time.Now().UTC().Format(time.RFC3339)}
	if note := strings.TrimSpace(noteFlag); note != "" {
		props["note"] = note
	}

	ctxExec, cancelExec := context.WithTimeout(ctx, 5*time.Second)
	defer cancelExec()
	if err := store.EnsureSchema(ctxExec); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare schema: %v\n", err)
		os.Exit(1)
	}
	if err := store.SetUpstreamAPIKey(ctxExec, key, props); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist upstream api key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("upstream API key stored successfully")
}
