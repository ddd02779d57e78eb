package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"lawbot/internal/importer"
	"lawbot/internal/storage/ch"
)

// lawimport loads a raw statute text file (LAW_CODE:/SECTION:/article
// sentinel format) into the law_articles table. Run migrations first;
// the tool appends, it does not truncate.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using existing environment variables")
	}

	filename := "raw_law.txt"
	if len(os.Args) > 1 {
		filename = os.Args[1]
	}

	f, err := os.Open(filename)
	if err != nil {
		log.Fatalf("Failed to open import file %s: %v", filename, err)
	}
	defer f.Close()

	articles, err := importer.Parse(f)
	if err != nil {
		log.Fatalf("Failed to parse import file: %v", err)
	}
	if len(articles) == 0 {
		log.Fatal("Import file contains no articles")
	}

	host := getEnv("CLICKHOUSE_HOST", "localhost")
	port := getEnvInt("CLICKHOUSE_PORT", 9000)
	database := getEnv("CLICKHOUSE_DATABASE", "default")
	user := getEnv("CLICKHOUSE_USER", "default")
	password := getEnv("CLICKHOUSE_PASSWORD", "")
	useTLS := getEnv("CLICKHOUSE_USE_TLS", "false") == "true"

	db, err := ch.NewClickHouseDB(host, port, database, user, password, useTLS)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, article := range articles {
		if err := db.SaveArticle(ctx, article); err != nil {
			log.Fatalf("Failed to save %q: %v", article.Title, err)
		}
	}

	log.Printf("Imported %d articles from %s", len(articles), filename)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid %s: %s", key, value)
	}
	return n
}
