package core

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DiaryEntry is one journal entry. All fields are immutable after creation;
// there is no edit operation anywhere in the service.
type DiaryEntry struct {
	ID        int64
	OwnerID   int64
	Title     string
	Content   string
	Date      time.Time // calendar date, assigned at creation
	CreatedAt time.Time
}

// EntryRepository defines persistence operations for diary entries.
// All reads and deletes are owner-scoped.
type EntryRepository interface {
	Create(ctx context.Context, ownerID int64, title, content string) (*DiaryEntry, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]DiaryEntry, error)
	// DeleteIfOwned removes the entry only when it exists and belongs to
	// ownerID. It returns false otherwise, without distinguishing a missing
	// entry from one owned by somebody else.
	DeleteIfOwned(ctx context.Context, entryID, ownerID int64) (bool, error)
}

// PgEntryRepository implements EntryRepository using pgxpool.
type PgEntryRepository struct {
	db *pgxpool.Pool
}

func NewPgEntryRepository(db *pgxpool.Pool) *PgEntryRepository {
	return &PgEntryRepository{db: db}
}

func (r *PgEntryRepository) Create(ctx context.Context, ownerID int64, title, content string) (*DiaryEntry, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	const q = `
INSERT INTO entries (user_id, title, content)
VALUES ($1, $2, $3)
RETURNING id, entry_date, created_at`
	e := DiaryEntry{OwnerID: ownerID, Title: title, Content: content}
	if err := r.db.QueryRow(ctx, q, ownerID, title, content).Scan(&e.ID, &e.Date, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PgEntryRepository) ListByOwner(ctx context.Context, ownerID int64) ([]DiaryEntry, error) {
	const q = `
SELECT id, user_id, title, content, entry_date, created_at
FROM entries
WHERE user_id = $1
ORDER BY entry_date DESC, created_at DESC`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DiaryEntry
	for rows.Next() {
		var e DiaryEntry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Content, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *PgEntryRepository) DeleteIfOwned(ctx context.Context, entryID, ownerID int64) (bool, error) {
	// Single statement, so concurrent deletes of the same id see exactly
	// one row affected between them.
	const q = `DELETE FROM entries WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Exec(ctx, q, entryID, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
