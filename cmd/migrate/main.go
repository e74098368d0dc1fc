package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

// Applies the SQL migrations under migrations/ against DB_URL.
//
// Usage:
//
//	migrate [up|down|version|force <version>]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL must be set")
	}

	dir := os.Getenv("MIGRATIONS_PATH")
	if dir == "" {
		var err error
		dir, err = findMigrationsDir()
		if err != nil {
			log.Fatal(err)
		}
	}

	m, err := migrate.New("file://"+dir, dbURL)
	if err != nil {
		log.Fatalf("migrate init: %v", err)
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		run(m.Up, "applied all pending migrations")
	case "down":
		run(m.Down, "rolled back all migrations")
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("no migrations applied yet")
			return
		}
		if err != nil {
			log.Fatalf("read schema version: %v", err)
		}
		log.Printf("schema version %d (dirty=%v)", version, dirty)
	case "force":
		if len(os.Args) < 3 {
			log.Fatal("force needs a version number")
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("bad version %q: %v", os.Args[2], err)
		}
		if err := m.Force(version); err != nil {
			log.Fatalf("force version %d: %v", version, err)
		}
		log.Printf("forced schema version to %d", version)
	default:
		log.Fatalf("unknown command %q (want up, down, version or force)", cmd)
	}
}

func run(step func() error, done string) {
	if err := step(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("schema already up to date")
			return
		}
		log.Fatalf("migration failed: %v", err)
	}
	log.Println(done)
}

// findMigrationsDir walks up from the working directory until it finds a
// migrations directory, so the tool works from the repo root or any
// package directory.
func findMigrationsDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
		if filepath.Dir(dir) == dir {
			return "", fmt.Errorf("no migrations directory above %s (set MIGRATIONS_PATH)", cwd)
		}
	}
}
