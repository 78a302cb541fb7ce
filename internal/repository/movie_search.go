package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/streaming-catalog/internal/model"
)

// MovieQuery defines filters and pagination for listing movies.  Zero
// values mean "no filter".
type MovieQuery struct {
	Category model.Category
	Text     string // case-insensitive substring of the name
	Status   string
	Offset   int
	Limit    int
	SortBy   string
	SortDesc bool
}

var movieSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
}

func (q MovieQuery) where() (string, []any) {
	where := []string{}
	args := []any{}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(q.Category))
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Text != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, likePattern(q.Text))
	}
	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// Search returns one page of movies and the total number of matches.
func (r *MovieRepo) Search(ctx context.Context, q MovieQuery) ([]model.Movie, int64, error) {
	cond, args := q.where()

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM movies WHERE "+cond, args...); err != nil {
		return nil, 0, err
	}

	var rows []movieRow
	dataSQL := "SELECT " + movieColumns + " FROM movies WHERE " + cond +
		" ORDER BY " + orderBy(movieSortColumns, q.SortBy, q.SortDesc, "created_at") + ", id DESC LIMIT ? OFFSET ?"
	if err := r.db.SelectContext(ctx, &rows, dataSQL, append(args, q.Limit, q.Offset)...); err != nil {
		return nil, 0, err
	}
	return movieModels(rows), total, nil
}

// Latest returns the newest movies matching category and status, without
// counting.  Used by the slider and the per-category buckets.
func (r *MovieRepo) Latest(ctx context.Context, category model.Category, status string, limit int) ([]model.Movie, error) {
	cond, args := MovieQuery{Category: category, Status: status}.where()
	var rows []movieRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+movieColumns+" FROM movies WHERE "+cond+" ORDER BY created_at DESC, id DESC LIMIT ?",
		append(args, limit)...)
	if err != nil {
		return nil, err
	}
	return movieModels(rows), nil
}
