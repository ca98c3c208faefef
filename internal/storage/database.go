package storage

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // pure Go SQLite driver for the migration connection
)

const (
	createStoriesTableSQL = `
	CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		style TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`

	createPagesTableSQL = `
	CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		story_id TEXT NOT NULL REFERENCES stories(id),
		page_number INTEGER NOT NULL,
		prompt TEXT NOT NULL,
		character_image_urls TEXT NOT NULL DEFAULT '[]',
		generated_image_url TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (story_id, page_number)
	);`

	createGenerationRecordsTableSQL = `
	CREATE TABLE IF NOT EXISTS generation_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`

	createStoriesUserIDIndexSQL = `CREATE INDEX IF NOT EXISTS idx_stories_user_id ON stories (user_id);`
	createPagesStoryIDIndexSQL  = `CREATE INDEX IF NOT EXISTS idx_pages_story_id ON pages (story_id);`
	createRecordsUserIndexSQL   = `CREATE INDEX IF NOT EXISTS idx_generation_records_user_created ON generation_records (user_id, created_at);`
)

// InitDB runs migrations over a plain database/sql connection, then opens
// the gorm handle the stores use. The UNIQUE (story_id, page_number)
// constraint is what arbitrates concurrent page-number assignment; the
// application never takes its own locks for it.
func InitDB(dbPath string) (*gorm.DB, error) {
	migrationDB, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	defer migrationDB.Close()

	if err := migrationDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	zap.L().Info("Running database migrations...")
	if err := runMigrations(migrationDB); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	zap.L().Info("Database migration completed.")

	dialector := sqlite.Dialector{
		DriverName: "sqlite", // route gorm through the pure Go driver
		DSN:        dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func runMigrations(db *sql.DB) error {
	statements := []string{
		createStoriesTableSQL,
		createPagesTableSQL,
		createGenerationRecordsTableSQL,
		createStoriesUserIDIndexSQL,
		createPagesStoryIDIndexSQL,
		createRecordsUserIndexSQL,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute migration statement: %w\nSQL: %s", err, stmt)
		}
	}

	return nil
}
