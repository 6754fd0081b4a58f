package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// sessionRepo implements the Session repository
type sessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new Session repository
func NewSessionRepo(dbPath string) (repo.SessionRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_settings (
			chat_id TEXT PRIMARY KEY,
			style TEXT NOT NULL DEFAULT '',
			triggers_customized INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS chat_triggers (
			chat_id TEXT NOT NULL,
			word TEXT NOT NULL,
			PRIMARY KEY (chat_id, word)
		)`,
		`CREATE TABLE IF NOT EXISTS bot_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return &sessionRepo{db: db}, nil
}

// Triggers returns the chat's customized trigger set, or nil if the chat
// never customized its triggers. An empty customized set is valid and
// distinct from nil.
func (r *sessionRepo) Triggers(ctx context.Context, chatID string) (domain.TriggerSet, error) {
	var customized int
	err := r.db.QueryRowContext(ctx, `
		SELECT triggers_customized FROM chat_settings WHERE chat_id = ?
	`, chatID).Scan(&customized)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chat settings: %w", err)
	}
	if customized == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT word FROM chat_triggers WHERE chat_id = ?
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query triggers: %w", err)
	}
	defer rows.Close()

	set := domain.NewTriggerSet()
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("failed to scan trigger: %w", err)
		}
		set.Add(word)
	}
	return set, rows.Err()
}

// SaveTriggers replaces the chat's trigger set
func (r *sessionRepo) SaveTriggers(ctx context.Context, chatID string, set domain.TriggerSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_settings (chat_id, triggers_customized) VALUES (?, 1)
		ON CONFLICT(chat_id) DO UPDATE SET triggers_customized = 1
	`, chatID); err != nil {
		return fmt.Errorf("failed to mark triggers customized: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_triggers WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to clear triggers: %w", err)
	}
	for _, word := range set.Words() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chat_triggers (chat_id, word) VALUES (?, ?)
		`, chatID, word); err != nil {
			return fmt.Errorf("failed to insert trigger: %w", err)
		}
	}
	return tx.Commit()
}

// Style returns the chat's persona override, or "" if unset
func (r *sessionRepo) Style(ctx context.Context, chatID string) (string, error) {
	var style string
	err := r.db.QueryRowContext(ctx, `
		SELECT style FROM chat_settings WHERE chat_id = ?
	`, chatID).Scan(&style)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query style: %w", err)
	}
	return style, nil
}

// SaveStyle sets the chat's persona override
func (r *sessionRepo) SaveStyle(ctx context.Context, chatID, style string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_settings (chat_id, style) VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET style = excluded.style
	`, chatID, style)
	if err != nil {
		return fmt.Errorf("failed to save style: %w", err)
	}
	return nil
}

// Instructions returns the stored system instructions, or "" if unset
func (r *sessionRepo) Instructions(ctx context.Context) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM bot_settings WHERE key = 'system_instructions'
	`).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query instructions: %w", err)
	}
	return value, nil
}

// SaveInstructions stores the system instructions
func (r *sessionRepo) SaveInstructions(ctx context.Context, text string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bot_settings (key, value) VALUES ('system_instructions', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, text)
	if err != nil {
		return fmt.Errorf("failed to save instructions: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *sessionRepo) Close() error {
	return r.db.Close()
}
