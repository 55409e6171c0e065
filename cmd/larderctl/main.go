// Command larderctl manages subscriptions in a larder database.
//
//	larderctl -db larder.db create-subscription -name "Home"
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/logging"
	"github.com/dukerupert/larder/internal/store"
)

func main() {
	dbPath := flag.String("db", envOr("LARDER_DB_PATH", "larder.db"), "path to the SQLite database")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Usage = usage
	flag.Parse()

	logger := logging.Setup(*logLevel, "text")

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	db, err := database.Open(*dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch flag.Arg(0) {
	case "create-subscription":
		err = createSubscription(ctx, store.NewSubscriptionStore(db), flag.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error(flag.Arg(0)+" failed", "error", err)
		os.Exit(1)
	}
}

func createSubscription(ctx context.Context, ss *store.SubscriptionStore, args []string) error {
	fs := flag.NewFlagSet("create-subscription", flag.ExitOnError)
	name := fs.String("name", "", "display name of the subscription")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return fmt.Errorf("-name is required")
	}

	secret, err := newSecret()
	if err != nil {
		return err
	}
	sub, err := ss.Create(ctx, strings.TrimSpace(*name), secret)
	if err != nil {
		return err
	}

	// The secret is only recoverable here; the database keeps its hash.
	fmt.Printf("subscription_id: %d\n", sub.ID)
	fmt.Printf("secret:          %s\n", secret)
	return nil
}

func newSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: larderctl [-db path] <command> [flags]\n\ncommands:\n  create-subscription -name NAME\n\nflags:\n")
	flag.PrintDefaults()
}
