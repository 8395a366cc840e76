package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/barberbook/barberbook/libs/auth"
	"github.com/barberbook/barberbook/libs/config"
	"github.com/barberbook/barberbook/libs/db"
	"github.com/barberbook/barberbook/services/booking-service/internal/storage"
)

// create-admin seeds or resets the panel login. Running it twice for the same
// username replaces the password.
func main() {
	_ = config.Load()

	var (
		dbURL    = flag.String("database-url", config.String("DATABASE_URL", ""), "postgres connection string")
		username = flag.String("username", config.String("ADMIN_USERNAME", "admin"), "admin username")
		password = flag.String("password", config.String("ADMIN_PASSWORD", ""), "admin password (min 8 chars)")
		migrate  = flag.Bool("migrate", false, "apply schema migrations first")
	)
	flag.Parse()

	if strings.TrimSpace(*dbURL) == "" {
		fatal("DATABASE_URL is required")
	}
	if strings.TrimSpace(*username) == "" {
		fatal("username is required")
	}
	if len(*password) < 8 {
		fatal("password must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, *dbURL, db.Options{MaxConns: 2})
	if err != nil {
		fatal(err.Error())
	}
	defer pool.Close()

	if *migrate {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		if err := db.Migrate(ctx, pool, storage.Migrations(), logger); err != nil {
			fatal(err.Error())
		}
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fatal(err.Error())
	}
	u, err := storage.NewRepository(pool, nil).UpsertAdmin(ctx, strings.TrimSpace(*username), hash)
	if err != nil {
		fatal(err.Error())
	}
	fmt.Printf("admin %q ready (id=%s)\n", u.Username, u.ID)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
