package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
)

const movieColumns = `id, name, description, category, genre, trailer_link, movie_link, episodes,
	main_poster_url, main_poster_id, background_poster_url, background_poster_id,
	mobile_poster_url, mobile_poster_id, status, created_at, updated_at`

// episodeList is stored as a JSON array; NULL for non-series rows.
type episodeList []model.Episode

func (e episodeList) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	b, err := json.Marshal([]model.Episode(e))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (e *episodeList) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*e = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("episodes: unsupported type %T", src)
	}
	var out []model.Episode
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*e = out
	return nil
}

type movieRow struct {
	ID                  uint64      `db:"id"`
	Name                string      `db:"name"`
	Description         string      `db:"description"`
	Category            string      `db:"category"`
	Genre               string      `db:"genre"`
	TrailerLink         string      `db:"trailer_link"`
	MovieLink           string      `db:"movie_link"`
	Episodes            episodeList `db:"episodes"`
	MainPosterURL       string      `db:"main_poster_url"`
	MainPosterID        string      `db:"main_poster_id"`
	BackgroundPosterURL string      `db:"background_poster_url"`
	BackgroundPosterID  string      `db:"background_poster_id"`
	MobilePosterURL     string      `db:"mobile_poster_url"`
	MobilePosterID      string      `db:"mobile_poster_id"`
	Status              string      `db:"status"`
	CreatedAt           time.Time   `db:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at"`
}

func (r movieRow) model() model.Movie {
	m := model.Movie{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    model.Category(r.Category),
		Genre:       r.Genre,
		TrailerLink: r.TrailerLink,
		MovieLink:   r.MovieLink,
		Episodes:    []model.Episode(r.Episodes),
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	m.Posters.Main = model.Image{URL: r.MainPosterURL, ID: r.MainPosterID}
	m.Posters.Background = model.Image{URL: r.BackgroundPosterURL, ID: r.BackgroundPosterID}
	m.Posters.Mobile = model.Image{URL: r.MobilePosterURL, ID: r.MobilePosterID}
	if m.Category.IsSeries() && m.Episodes == nil {
		m.Episodes = []model.Episode{}
	}
	return m
}

func movieArgs(m *model.Movie) []any {
	var eps episodeList
	if m.Category.IsSeries() {
		eps = episodeList(m.Episodes)
		if eps == nil {
			eps = episodeList{}
		}
	}
	return []any{
		m.Name, m.Description, string(m.Category), m.Genre, m.TrailerLink, m.MovieLink, eps,
		m.Posters.Main.URL, m.Posters.Main.ID,
		m.Posters.Background.URL, m.Posters.Background.ID,
		m.Posters.Mobile.URL, m.Posters.Mobile.ID,
		m.Status,
	}
}

// MovieRepo persists catalog content items.
type MovieRepo struct{ db *sqlx.DB }

func NewMovieRepo(db *sqlx.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a movie and sets its ID.  CreatedAt and UpdatedAt are
// taken from m when set.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	args := append(movieArgs(m), m.CreatedAt, m.UpdatedAt)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (name, description, category, genre, trailer_link, movie_link, episodes,
			main_poster_url, main_poster_id, background_poster_url, background_poster_id,
			mobile_poster_url, mobile_poster_id, status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID loads a movie regardless of status.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	var row movieRow
	if err := r.db.GetContext(ctx, &row, "SELECT "+movieColumns+" FROM movies WHERE id=? LIMIT 1", id); err != nil {
		return model.Movie{}, notFound(err)
	}
	return row.model(), nil
}

// Update overwrites every mutable column of an existing movie.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	}
	args := append(movieArgs(m), m.UpdatedAt, m.ID)
	_, err := r.db.ExecContext(ctx,
		`UPDATE movies SET name=?, description=?, category=?, genre=?, trailer_link=?, movie_link=?, episodes=?,
			main_poster_url=?, main_poster_id=?, background_poster_url=?, background_poster_id=?,
			mobile_poster_url=?, mobile_poster_id=?, status=?, updated_at=?
		 WHERE id=?`, args...)
	return err
}

// Delete removes a movie row.  Favorites pointing at it are left in place.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Exists reports whether a movie with id exists, in any status.
func (r *MovieRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, "SELECT 1 FROM movies WHERE id=? LIMIT 1", id)
	if err != nil {
		if errors.Is(notFound(err), errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func movieModels(rows []movieRow) []model.Movie {
	out := make([]model.Movie, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out
}
