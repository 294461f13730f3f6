// Package postgres stores page revisions in PostgreSQL through sqlx. The
// unique (page_id, revision_number) index is what makes concurrent ledger
// writers safe.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/goliatone/go-directives/revision"
)

// Schema creates the revision table. Migrate applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS page_revisions (
	id               UUID PRIMARY KEY,
	page_id          UUID NOT NULL,
	revision_number  INTEGER NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	content          TEXT NOT NULL DEFAULT '',
	meta_title       TEXT NOT NULL DEFAULT '',
	meta_description TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	created_by       TEXT NOT NULL DEFAULT '',
	restored_at      TIMESTAMPTZ NULL,
	restored_by      TEXT NOT NULL DEFAULT '',
	restored_from    INTEGER NOT NULL DEFAULT 0,
	CONSTRAINT page_revisions_page_number_key UNIQUE (page_id, revision_number)
)`

const uniqueViolation = "23505"

const revisionColumns = `id, page_id, revision_number, title, content, meta_title, meta_description,
	created_at, created_by, restored_at, restored_by, restored_from`

// RevisionStore implements revision.Store.
type RevisionStore struct {
	db *sqlx.DB
}

var _ revision.Store = (*RevisionStore)(nil)

// NewRevisionStore wraps db.
func NewRevisionStore(db *sqlx.DB) *RevisionStore {
	return &RevisionStore{db: db}
}

// Open connects with the lib/pq driver.
func Open(ctx context.Context, dsn string) (*RevisionStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return NewRevisionStore(db), nil
}

// Migrate creates the revision table when missing.
func (s *RevisionStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RevisionStore) Close() error {
	return s.db.Close()
}

type revisionRow struct {
	ID              uuid.UUID    `db:"id"`
	PageID          uuid.UUID    `db:"page_id"`
	RevisionNumber  int          `db:"revision_number"`
	Title           string       `db:"title"`
	Content         string       `db:"content"`
	MetaTitle       string       `db:"meta_title"`
	MetaDescription string       `db:"meta_description"`
	CreatedAt       time.Time    `db:"created_at"`
	CreatedBy       string       `db:"created_by"`
	RestoredAt      sql.NullTime `db:"restored_at"`
	RestoredBy      string       `db:"restored_by"`
	RestoredFrom    int          `db:"restored_from"`
}

func toRow(rev revision.Revision) revisionRow {
	row := revisionRow{
		ID:              rev.ID,
		PageID:          rev.PageID,
		RevisionNumber:  rev.RevisionNumber,
		Title:           rev.Snapshot.Title,
		Content:         rev.Snapshot.Content,
		MetaTitle:       rev.Snapshot.MetaTitle,
		MetaDescription: rev.Snapshot.MetaDescription,
		CreatedAt:       rev.CreatedAt.UTC(),
		CreatedBy:       rev.CreatedBy,
		RestoredBy:      rev.RestoredBy,
		RestoredFrom:    rev.RestoredFrom,
	}
	if rev.RestoredAt != nil {
		row.RestoredAt = sql.NullTime{Time: rev.RestoredAt.UTC(), Valid: true}
	}
	return row
}

func (r revisionRow) revision() revision.Revision {
	rev := revision.Revision{
		ID:             r.ID,
		PageID:         r.PageID,
		RevisionNumber: r.RevisionNumber,
		Snapshot: revision.Snapshot{
			Title:           r.Title,
			Content:         r.Content,
			MetaTitle:       r.MetaTitle,
			MetaDescription: r.MetaDescription,
		},
		CreatedAt:    r.CreatedAt,
		CreatedBy:    r.CreatedBy,
		RestoredBy:   r.RestoredBy,
		RestoredFrom: r.RestoredFrom,
	}
	if r.RestoredAt.Valid {
		at := r.RestoredAt.Time
		rev.RestoredAt = &at
	}
	return rev
}

// MaxRevisionNumber returns 0 for a page without history.
func (s *RevisionStore) MaxRevisionNumber(ctx context.Context, pageID uuid.UUID) (int, error) {
	var latest int
	err := s.db.GetContext(ctx, &latest,
		`SELECT COALESCE(MAX(revision_number), 0) FROM page_revisions WHERE page_id = $1`, pageID)
	if err != nil {
		return 0, err
	}
	return latest, nil
}

// Insert writes rev. A unique violation maps to revision.ErrRevisionExists.
func (s *RevisionStore) Insert(ctx context.Context, rev revision.Revision) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO page_revisions (`+revisionColumns+`)
		VALUES (:id, :page_id, :revision_number, :title, :content, :meta_title, :meta_description,
			:created_at, :created_by, :restored_at, :restored_by, :restored_from)
	`, toRow(rev))
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s#%d", revision.ErrRevisionExists, rev.PageID, rev.RevisionNumber)
	}
	return err
}

// Get returns (nil, nil) for unknown revisions.
func (s *RevisionStore) Get(ctx context.Context, pageID uuid.UUID, number int) (*revision.Revision, error) {
	var row revisionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+revisionColumns+`
		FROM page_revisions
		WHERE page_id = $1 AND revision_number = $2
	`, pageID, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rev := row.revision()
	return &rev, nil
}

// List returns the page history ordered by revision number.
func (s *RevisionStore) List(ctx context.Context, pageID uuid.UUID) ([]revision.Revision, error) {
	var rows []revisionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+revisionColumns+`
		FROM page_revisions
		WHERE page_id = $1
		ORDER BY revision_number
	`, pageID)
	if err != nil {
		return nil, err
	}
	out := make([]revision.Revision, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.revision())
	}
	return out, nil
}
