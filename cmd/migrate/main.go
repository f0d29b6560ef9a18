package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/5w1tchy/shelf-api/internal/db"
	"github.com/5w1tchy/shelf-api/internal/logging"
	"github.com/5w1tchy/shelf-api/internal/repository/sqlconnect"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down, status, version")
	flag.Parse()

	_ = godotenv.Load()
	logging.Init(os.Stderr)

	if err := run(context.Background(), *command); err != nil {
		logging.Fatal("migrate failed", "command", *command, "err", err)
	}
}

func run(ctx context.Context, command string) error {
	if !known(command) {
		return fmt.Errorf("unknown command %q; use up, down, status or version", command)
	}
	sqlDB, err := sqlconnect.ConnectDB(ctx)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	switch command {
	case "up":
		if err := db.Up(ctx, sqlDB); err != nil {
			return err
		}
		logging.Info("migrations applied")
	case "down":
		if err := db.Down(ctx, sqlDB); err != nil {
			return err
		}
		logging.Info("rolled back one migration")
	case "status":
		return db.Status(ctx, sqlDB)
	case "version":
		v, err := db.Version(ctx, sqlDB)
		if err != nil {
			return err
		}
		fmt.Println(v)
	}
	return nil
}

func known(command string) bool {
	switch command {
	case "up", "down", "status", "version":
		return true
	}
	return false
}
