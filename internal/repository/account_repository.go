package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
)

const accountColumns = "id, email, password_hash, role, first_name, last_name, created_at, updated_at"

// accountRow mirrors the 'accounts' table minus the reset ticket columns,
// which never leave this package.
type accountRow struct {
	ID           uint64    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r accountRow) model() model.Account {
	return model.Account{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         model.Role(r.Role),
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// AccountRepo is the credential store.
type AccountRepo struct{ db *sqlx.DB }

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts an account and sets its ID.  The email is normalized before
// insert; a duplicate returns errs.ErrEmailExists and leaves the existing
// row untouched.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	a.Email = model.NormalizeEmail(a.Email)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	a.UpdatedAt = a.CreatedAt
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (email, password_hash, role, first_name, last_name, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		a.Email, a.PasswordHash, string(a.Role), a.FirstName, a.LastName, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return errs.ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	var row accountRow
	err := r.db.GetContext(ctx, &row,
		"SELECT "+accountColumns+" FROM accounts WHERE email=? LIMIT 1", model.NormalizeEmail(email))
	if err != nil {
		return model.Account{}, notFound(err)
	}
	return row.model(), nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	var row accountRow
	err := r.db.GetContext(ctx, &row,
		"SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id)
	if err != nil {
		return model.Account{}, notFound(err)
	}
	return row.model(), nil
}

// SetResetTicket stores the hash of a reset secret and its expiry,
// replacing any previous ticket for the account.
func (r *AccountRepo) SetResetTicket(ctx context.Context, id uint64, hash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET reset_token_hash=?, reset_expires_at=? WHERE id=?",
		hash, expiresAt.UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ResetTicketLive reports whether an unexpired ticket matches hash.
func (r *AccountRepo) ResetTicketLive(ctx context.Context, hash string, now time.Time) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM accounts WHERE reset_token_hash=? AND reset_expires_at > ?",
		hash, now.UTC())
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RedeemResetTicket swaps in a new password hash and clears the ticket in a
// single conditional UPDATE.  It reports false when no live ticket matches
// hash, so of two concurrent redemptions at most one succeeds.
func (r *AccountRepo) RedeemResetTicket(ctx context.Context, hash, passwordHash string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		    SET password_hash=?, reset_token_hash=NULL, reset_expires_at=NULL, updated_at=?
		  WHERE reset_token_hash=? AND reset_expires_at > ?`,
		passwordHash, now.UTC(), hash, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// AccountQuery filters and pages the admin user listing.
type AccountQuery struct {
	Text     string // substring of first name, last name or email
	Role     model.Role
	Offset   int
	Limit    int
	SortBy   string
	SortDesc bool
}

var accountSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"email":     "email",
	"firstName": "first_name",
	"lastName":  "last_name",
}

// Search returns one page of accounts and the total number of matches.
func (r *AccountRepo) Search(ctx context.Context, q AccountQuery) ([]model.Account, int64, error) {
	where := []string{}
	args := []any{}
	if q.Text != "" {
		p := likePattern(q.Text)
		where = append(where, "(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?)")
		args = append(args, p, p, p)
	}
	if q.Role != "" {
		where = append(where, "role = ?")
		args = append(args, string(q.Role))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM accounts WHERE "+cond, args...); err != nil {
		return nil, 0, err
	}

	var rows []accountRow
	dataSQL := "SELECT " + accountColumns + " FROM accounts WHERE " + cond +
		" ORDER BY " + orderBy(accountSortColumns, q.SortBy, q.SortDesc, "created_at") + ", id DESC LIMIT ? OFFSET ?"
	if err := r.db.SelectContext(ctx, &rows, dataSQL, append(args, q.Limit, q.Offset)...); err != nil {
		return nil, 0, err
	}
	return accountModels(rows), total, nil
}

// Recent returns the newest accounts first.
func (r *AccountRepo) Recent(ctx context.Context, limit int) ([]model.Account, error) {
	var rows []accountRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+accountColumns+" FROM accounts ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	return accountModels(rows), nil
}

// UpdateRole changes the role of an existing account.
func (r *AccountRepo) UpdateRole(ctx context.Context, id uint64, role model.Role) error {
	_, err := r.db.ExecContext(ctx, "UPDATE accounts SET role=? WHERE id=?", string(role), id)
	return err
}

func accountModels(rows []accountRow) []model.Account {
	out := make([]model.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out
}
