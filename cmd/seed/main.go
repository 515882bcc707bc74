package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"siteforge/internal/config"
	"siteforge/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if err := seedDemoSite(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to seed demo site: %v", err)
	}

	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createAuthors := `
		CREATE TABLE IF NOT EXISTS ` + tables.Authors + ` (
			user_id UUID PRIMARY KEY,
			display_name TEXT NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			photo_url TEXT
		)
	`
	if _, err := pool.Exec(ctx, createAuthors); err != nil {
		return err
	}

	createBooks := `
		CREATE TABLE IF NOT EXISTS ` + tables.Books + ` (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			title TEXT NOT NULL,
			subtitle TEXT NOT NULL DEFAULT '',
			cover_url TEXT,
			hook TEXT NOT NULL DEFAULT '',
			about TEXT NOT NULL DEFAULT '',
			links TEXT[] NOT NULL DEFAULT '{}'
		)
	`
	if _, err := pool.Exec(ctx, createBooks); err != nil {
		return err
	}

	createSites := `
		CREATE TABLE IF NOT EXISTS ` + tables.Sites + ` (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			primary_book_id UUID REFERENCES ` + tables.Books + `(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createSites); err != nil {
		return err
	}

	createSiteBooks := `
		CREATE TABLE IF NOT EXISTS ` + tables.SiteBooks + ` (
			site_id UUID NOT NULL REFERENCES ` + tables.Sites + `(id) ON DELETE CASCADE,
			book_id UUID NOT NULL REFERENCES ` + tables.Books + `(id) ON DELETE CASCADE,
			PRIMARY KEY (site_id, book_id)
		)
	`
	if _, err := pool.Exec(ctx, createSiteBooks); err != nil {
		return err
	}

	createChatMessages := `
		CREATE TABLE IF NOT EXISTS ` + tables.ChatMessages + ` (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			site_id UUID NOT NULL REFERENCES ` + tables.Sites + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
			content TEXT NOT NULL,
			prompt_image_ids UUID[] NOT NULL DEFAULT '{}',
			correlation_id UUID NOT NULL,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createChatMessages); err != nil {
		return err
	}

	createFileVersions := `
		CREATE TABLE IF NOT EXISTS ` + tables.FileVersions + ` (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			site_id UUID NOT NULL REFERENCES ` + tables.Sites + `(id) ON DELETE CASCADE,
			folder TEXT NOT NULL,
			filename TEXT NOT NULL,
			filetype TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			message_correlation_ids UUID[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (site_id, folder, filename, version)
		)
	`
	if _, err := pool.Exec(ctx, createFileVersions); err != nil {
		return err
	}

	createUserImages := `
		CREATE TABLE IF NOT EXISTS ` + tables.UserImages + ` (
			id UUID PRIMARY KEY,
			site_id UUID NOT NULL REFERENCES ` + tables.Sites + `(id) ON DELETE CASCADE,
			mime TEXT NOT NULL,
			data BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createUserImages); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `sites_user_id ON ` + tables.Sites + `(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chat_messages_site ON ` + tables.ChatMessages + `(site_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `file_versions_path ON ` + tables.FileVersions + `(site_id, folder, filename, version DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `file_versions_correlation ON ` + tables.FileVersions + ` USING GIN (message_correlation_ids)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.UserImages,
		tables.FileVersions,
		tables.ChatMessages,
		tables.SiteBooks,
		tables.Sites,
		tables.Books,
		tables.Authors,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}

// seedDemoSite creates a demo author with one book, one site, and a starter
// page so a fresh environment has something to chat against.
func seedDemoSite(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	userID := uuid.NewString()
	bookID := uuid.NewString()
	siteID := uuid.NewString()

	log.Printf("📝 Seeding demo site (user: %s, site: %s)", userID, siteID)

	_, err := pool.Exec(ctx, `
		INSERT INTO `+tables.Authors+` (user_id, display_name, bio)
		VALUES ($1, $2, $3)
	`, userID, "Avery Quill", "Mystery novelist. Three books, two cats, one typewriter.")
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO `+tables.Books+` (id, user_id, title, subtitle, hook, about, links)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, bookID, userID,
		"The Hollow Lighthouse",
		"A Cove Harbor Mystery",
		"The keeper vanished. The light never went out.",
		"When journalist Mara Voss returns to Cove Harbor, the lighthouse keeper's disappearance pulls her into a decades-old secret.",
		[]string{"https://example.com/hollow-lighthouse"})
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO `+tables.Sites+` (id, user_id, name, slug, primary_book_id)
		VALUES ($1, $2, $3, $4, $5)
	`, siteID, userID, "Avery Quill - Author Site", "avery-quill", bookID)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO `+tables.SiteBooks+` (site_id, book_id)
		VALUES ($1, $2)
	`, siteID, bookID)
	if err != nil {
		return err
	}

	starterFiles := []struct {
		folder   string
		filename string
		filetype string
		content  string
	}{
		{"/", "index.html", "html", `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Avery Quill</title>
  <link rel="stylesheet" href="style.css">
</head>
<body>
  <h1>Avery Quill</h1>
  <p>Author of The Hollow Lighthouse.</p>
</body>
</html>
`},
		{"/", "style.css", "css", `body {
  font-family: Georgia, serif;
  max-width: 42rem;
  margin: 3rem auto;
  padding: 0 1rem;
}
`},
	}

	for _, f := range starterFiles {
		_, err = pool.Exec(ctx, `
			INSERT INTO `+tables.FileVersions+` (site_id, folder, filename, filetype, version, content)
			VALUES ($1, $2, $3, $4, 1, $5)
		`, siteID, f.folder, f.filename, f.filetype, f.content)
		if err != nil {
			return err
		}
		log.Printf("  ✓ Created %s%s", f.folder, f.filename)
	}

	log.Printf("✅ Demo site ready: /preview/avery-quill/")
	return nil
}
