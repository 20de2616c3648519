package configs

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the front-end needs to wire the stores and
// services: where the snapshot files live and the tunable business
// defaults.
type Config struct {
	DataDir        string
	BooksFile      string
	UsersFile      string
	LoansFile      string
	AuditFile      string
	EmailDomain    string
	LoanPeriodDays int
	AuditEnabled   bool
}

// Load reads .env when present, then the environment, falling back to
// defaults. It never fails: a missing .env is the normal case.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	dataDir := getenv("DATA_DIR", "data")

	return Config{
		DataDir:        dataDir,
		BooksFile:      filepath.Join(dataDir, getenv("BOOKS_FILE", "books.txt")),
		UsersFile:      filepath.Join(dataDir, getenv("USERS_FILE", "users.txt")),
		LoansFile:      filepath.Join(dataDir, getenv("LOANS_FILE", "loans.txt")),
		AuditFile:      filepath.Join(dataDir, getenv("AUDIT_FILE", "audit.log")),
		EmailDomain:    getenv("EMAIL_DOMAIN", ""),
		LoanPeriodDays: getenvInt("LOAN_PERIOD_DAYS", 30),
		AuditEnabled:   getenvBool("AUDIT_ENABLED", true),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return b
}
