// Package repository contains data access logic for the movie catalog.
// This file defines the Movie model and every query the API exposes over
// the movies table.  Release dates travel as "YYYY-MM-DD" strings; the
// version column is the optimistic concurrency token and is bumped on
// every successful update.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Movie mirrors the 'movies' table.  The struct doubles as the API
// response shape, so fields carry JSON tags.
type Movie struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PosterURL   string  `json:"posterUrl"`
	ReleaseDate string  `json:"releaseDate"` // "YYYY-MM-DD"
	Budget      float64 `json:"budget"`
	Category    string  `json:"category"`
	Version     uint64  `json:"version"`
}

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// movieColumns is the SELECT list shared by every read.  DATE_FORMAT keeps
// release_date in the wire format regardless of the driver's parseTime
// setting.
const movieColumns = `id, title, description, poster_url, DATE_FORMAT(release_date,'%Y-%m-%d'), budget, category, version`

func scanMovie(row interface{ Scan(...any) error }, m *Movie) error {
	return row.Scan(&m.ID, &m.Title, &m.Description, &m.PosterURL, &m.ReleaseDate, &m.Budget, &m.Category, &m.Version)
}

func (r *MovieRepo) list(ctx context.Context, query string, args ...any) ([]Movie, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Movie
	for rows.Next() {
		var m Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAll returns every movie ordered by id.
func (r *MovieRepo) GetAll(ctx context.Context) ([]Movie, error) {
	return r.list(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY id ASC`)
}

// GetByID retrieves a movie by its id, returning ErrMovieNotFound when no
// row matches.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*Movie, error) {
	var m Movie
	err := scanMovie(r.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE id = ?`, id), &m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Search matches the query as a case-sensitive substring of the title or
// the description.  LIKE BINARY forces byte-wise comparison; the default
// collation would otherwise match case-insensitively.
func (r *MovieRepo) Search(ctx context.Context, query string) ([]Movie, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.list(ctx,
		`SELECT `+movieColumns+` FROM movies
         WHERE title LIKE BINARY ? OR description LIKE BINARY ?
         ORDER BY id ASC`, pattern, pattern)
}

// GetByCategory returns movies whose category equals the name, compared
// case-insensitively.
func (r *MovieRepo) GetByCategory(ctx context.Context, category string) ([]Movie, error) {
	return r.list(ctx,
		`SELECT `+movieColumns+` FROM movies
         WHERE LOWER(category) = LOWER(?)
         ORDER BY id ASC`, category)
}

// GetByDateRange returns movies released within [start, end], inclusive on
// both ends.  Dates are "YYYY-MM-DD" strings.
func (r *MovieRepo) GetByDateRange(ctx context.Context, start, end string) ([]Movie, error) {
	return r.list(ctx,
		`SELECT `+movieColumns+` FROM movies
         WHERE release_date >= ? AND release_date <= ?
         ORDER BY release_date ASC, id ASC`, start, end)
}

// DistinctCategories returns the distinct category values present in the
// catalog.
func (r *MovieRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM movies ORDER BY category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetLatest returns the ten most recently released movies.
func (r *MovieRepo) GetLatest(ctx context.Context) ([]Movie, error) {
	return r.list(ctx,
		`SELECT `+movieColumns+` FROM movies ORDER BY release_date DESC, id DESC LIMIT 10`)
}

// Count returns the number of movies, optionally restricted to a category
// (case-insensitive equality).  Pass "" for the whole catalog.
func (r *MovieRepo) Count(ctx context.Context, category string) (int, error) {
	var n int
	var err error
	if strings.TrimSpace(category) != "" {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM movies WHERE LOWER(category) = LOWER(?)`, category).Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	}
	return n, err
}

// Create inserts a new movie and assigns the generated id and initial
// version back onto the struct.
func (r *MovieRepo) Create(ctx context.Context, m *Movie) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (title, description, poster_url, release_date, budget, category, version)
         VALUES (?,?,?,?,?,?,1)`,
		m.Title, m.Description, m.PosterURL, m.ReleaseDate, m.Budget, m.Category)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.Version = 1
	return nil
}

// Update overwrites the row identified by id, guarded by the payload's
// version.  ErrIDMismatch when id and m.ID disagree; ErrVersionConflict
// when the row changed underneath the caller; ErrMovieNotFound when the
// row no longer exists.  On success the bumped version is reflected on m.
func (r *MovieRepo) Update(ctx context.Context, id uint64, m *Movie) error {
	if m.ID != id {
		return ErrIDMismatch
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE movies
         SET title=?, description=?, poster_url=?, release_date=?, budget=?, category=?, version=version+1
         WHERE id=? AND version=?`,
		m.Title, m.Description, m.PosterURL, m.ReleaseDate, m.Budget, m.Category,
		id, m.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		m.Version++
		return nil
	}
	// No row changed: distinguish a vanished row from a stale version.
	var cur uint64
	err = r.db.QueryRowContext(ctx, `SELECT version FROM movies WHERE id=?`, id).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMovieNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

// Delete removes the row with the given id, returning ErrMovieNotFound
// when it does not exist.  Poster file cleanup is the caller's
// responsibility.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// ListByIDs returns the movies whose ids appear in ids.  Used by the bulk
// delete path to learn poster paths before the rows go away.
func (r *MovieRepo) ListByIDs(ctx context.Context, ids []uint64) ([]Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.list(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE id IN (`+placeholders+`) ORDER BY id ASC`, args...)
}

// DeleteMany removes every movie whose id appears in ids and returns how
// many rows went away.  ErrMovieNotFound when none matched.
func (r *MovieRepo) DeleteMany(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, ErrMovieNotFound
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM movies WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrMovieNotFound
	}
	return int(n), nil
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
