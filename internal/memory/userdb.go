package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// UserProfile is the durable subset of a user's memory.
type UserProfile struct {
	ID                 string
	PersonalInfo       string
	PersonalPreference string
}

// UserDB persists user profiles in a SQLite table keyed by user id.
type UserDB struct {
	db *sql.DB
}

// NewUserDB opens or creates the profile database at the given path.
func NewUserDB(dbPath string) (*UserDB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	u := &UserDB{db: db}
	if err := u.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return u, nil
}

func (u *UserDB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id                  TEXT PRIMARY KEY,
		personal_info       TEXT NOT NULL DEFAULT '',
		personal_preference TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := u.db.Exec(schema)
	return err
}

// GetOrCreateUser returns the profile for the user id, inserting an empty
// row on first contact.
func (u *UserDB) GetOrCreateUser(ctx context.Context, userID string) (UserProfile, error) {
	profile := UserProfile{ID: userID}
	err := u.db.QueryRowContext(ctx,
		`SELECT personal_info, personal_preference FROM users WHERE id = ?`, userID).
		Scan(&profile.PersonalInfo, &profile.PersonalPreference)
	if err == nil {
		return profile, nil
	}
	if err != sql.ErrNoRows {
		return profile, fmt.Errorf("select user %s: %w", userID, err)
	}

	_, err = u.db.ExecContext(ctx,
		`INSERT INTO users (id, personal_info, personal_preference) VALUES (?, '', '')`, userID)
	if err != nil {
		return profile, fmt.Errorf("insert user %s: %w", userID, err)
	}
	return profile, nil
}

// UpdateField overwrites one durable column for the user. Only the two
// profile columns are accepted.
func (u *UserDB) UpdateField(ctx context.Context, userID, field, value string) error {
	var column string
	switch field {
	case KeyPersonalInfo:
		column = "personal_info"
	case KeyPersonalPreference:
		column = "personal_preference"
	default:
		return fmt.Errorf("field %q is not persisted", field)
	}

	if _, err := u.GetOrCreateUser(ctx, userID); err != nil {
		return err
	}
	_, err := u.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = ? WHERE id = ?`, column), value, userID)
	if err != nil {
		return fmt.Errorf("update %s for user %s: %w", column, userID, err)
	}
	return nil
}

func (u *UserDB) Close() error {
	return u.db.Close()
}
