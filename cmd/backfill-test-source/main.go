package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// One-off backfill: states created before the totalTestResultsSource column
// existed have it empty, which the derived-field calculator reads as posNeg.
// This makes the default explicit so reports can distinguish "defaulted"
// from "never configured".
func main() {
	godotenv.Load(".env.local")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("DB connection error: %v", err)
	}
	defer conn.Close()

	res, err := conn.Exec(`
		UPDATE states
		SET total_test_results_source = 'posNeg'
		WHERE total_test_results_source IS NULL OR total_test_results_source = ''`)
	if err != nil {
		log.Fatalf("Backfill failed: %v", err)
	}

	n, _ := res.RowsAffected()
	log.Printf("Backfilled total_test_results_source for %d states", n)
}
