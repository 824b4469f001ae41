package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Same wording pgx surfaces for a unique-constraint violation.
var errDuplicateUsername = errors.New("duplicate key value violates unique constraint \"users_username_key\"")

// In-memory doubles for the persistence interfaces, used by service and
// router tests so no database is needed.

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]UserRecord
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]UserRecord{}}
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	out := u
	return &out, nil
}

func (r *memUserRepo) Create(_ context.Context, username, passwordHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return 0, errDuplicateUsername
	}
	r.nextID++
	r.users[username] = UserRecord{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	return r.nextID, nil
}

func (r *memUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type memEntryRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]DiaryEntry
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{entries: map[int64]DiaryEntry{}}
}

func (r *memEntryRepo) Create(_ context.Context, ownerID int64, title, content string) (*DiaryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now()
	e := DiaryEntry{
		ID:        r.nextID,
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		Date:      now.Truncate(24 * time.Hour),
		CreatedAt: now,
	}
	r.entries[e.ID] = e
	return &e, nil
}

func (r *memEntryRepo) ListByOwner(_ context.Context, ownerID int64) ([]DiaryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []DiaryEntry
	for _, e := range r.entries {
		if e.OwnerID == ownerID {
			items = append(items, e)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (r *memEntryRepo) DeleteIfOwned(_ context.Context, entryID, ownerID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[entryID]
	if !ok || e.OwnerID != ownerID {
		return false, nil
	}
	delete(r.entries, entryID)
	return true, nil
}

// put inserts an entry with caller-chosen timestamps, for ordering tests.
func (r *memEntryRepo) put(ownerID int64, title string, date, createdAt time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries[r.nextID] = DiaryEntry{
		ID:        r.nextID,
		OwnerID:   ownerID,
		Title:     title,
		Content:   title + " content",
		Date:      date,
		CreatedAt: createdAt,
	}
	return r.nextID
}

func (r *memEntryRepo) has(entryID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[entryID]
	return ok
}
