// Package storetest provides in-memory implementations of the service store
// interfaces for tests.  They mirror the database constraints the services
// rely on: unique email, composite favorite key, conditional reset redemption.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/streaming-catalog/internal/errs"
	"github.com/iliyamo/streaming-catalog/internal/model"
	"github.com/iliyamo/streaming-catalog/internal/repository"
)

type ticket struct {
	hash      string
	expiresAt time.Time
}

// Accounts is an in-memory AccountStore.
type Accounts struct {
	mu      sync.Mutex
	nextID  uint64
	byID    map[uint64]model.Account
	tickets map[uint64]ticket
	// Err, when set, is returned by every method.
	Err error
}

func NewAccounts() *Accounts {
	return &Accounts{byID: map[uint64]model.Account{}, tickets: map[uint64]ticket{}}
}

func (s *Accounts) Create(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a.Email = model.NormalizeEmail(a.Email)
	for _, ex := range s.byID {
		if ex.Email == a.Email {
			return errs.ErrEmailExists
		}
	}
	s.nextID++
	a.ID = s.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Add(time.Duration(s.nextID) * time.Second)
	}
	a.UpdatedAt = a.CreatedAt
	s.byID[a.ID] = *a
	return nil
}

func (s *Accounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Account{}, s.Err
	}
	email = model.NormalizeEmail(email)
	for _, a := range s.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return model.Account{}, errs.ErrNotFound
}

func (s *Accounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Account{}, s.Err
	}
	a, ok := s.byID[id]
	if !ok {
		return model.Account{}, errs.ErrNotFound
	}
	return a, nil
}

func (s *Accounts) UpdateRole(_ context.Context, id uint64, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	a.Role = role
	s.byID[id] = a
	return nil
}

func (s *Accounts) SetResetTicket(_ context.Context, id uint64, hash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.byID[id]; !ok {
		return errs.ErrNotFound
	}
	s.tickets[id] = ticket{hash: hash, expiresAt: expiresAt}
	return nil
}

func (s *Accounts) ResetTicketLive(_ context.Context, hash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for _, t := range s.tickets {
		if t.hash == hash && t.expiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Accounts) RedeemResetTicket(_ context.Context, hash, passwordHash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for id, t := range s.tickets {
		if t.hash == hash && t.expiresAt.After(now) {
			a := s.byID[id]
			a.PasswordHash = passwordHash
			s.byID[id] = a
			delete(s.tickets, id)
			return true, nil
		}
	}
	return false, nil
}

// Ticket exposes the stored reset ticket of an account.
func (s *Accounts) Ticket(id uint64) (hash string, expiresAt time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	return t.hash, t.expiresAt, ok
}

func (s *Accounts) sorted() []model.Account {
	out := make([]model.Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Accounts) Search(_ context.Context, q repository.AccountQuery) ([]model.Account, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	text := strings.ToLower(q.Text)
	var match []model.Account
	for _, a := range s.sorted() {
		if q.Role != "" && a.Role != q.Role {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(a.FirstName), text) &&
			!strings.Contains(strings.ToLower(a.LastName), text) &&
			!strings.Contains(a.Email, text) {
			continue
		}
		match = append(match, a)
	}
	return window(match, q.Offset, q.Limit), int64(len(match)), nil
}

func (s *Accounts) Recent(_ context.Context, limit int) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return window(s.sorted(), 0, limit), nil
}

// Movies is an in-memory MovieStore.  Search ignores the sort fields and
// always returns newest first.
type Movies struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.Movie
	Err    error
}

func NewMovies() *Movies { return &Movies{byID: map[uint64]model.Movie{}} }

func (s *Movies) Create(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.nextID++
	m.ID = s.nextID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.byID[m.ID] = *m
	return nil
}

func (s *Movies) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Movie{}, s.Err
	}
	m, ok := s.byID[id]
	if !ok {
		return model.Movie{}, errs.ErrNotFound
	}
	return m, nil
}

func (s *Movies) Update(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.byID[m.ID]; !ok {
		return errs.ErrNotFound
	}
	s.byID[m.ID] = *m
	return nil
}

func (s *Movies) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Movies) Exists(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.byID[id]
	return ok, nil
}

func (s *Movies) filter(c model.Category, status, text string) []model.Movie {
	text = strings.ToLower(text)
	var out []model.Movie
	for _, m := range s.byID {
		if c != "" && m.Category != c {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(m.Name), text) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Movies) Search(_ context.Context, q repository.MovieQuery) ([]model.Movie, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	match := s.filter(q.Category, q.Status, q.Text)
	return window(match, q.Offset, q.Limit), int64(len(match)), nil
}

func (s *Movies) Latest(_ context.Context, c model.Category, status string, limit int) ([]model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return window(s.filter(c, status, ""), 0, limit), nil
}

type favKey struct{ account, movie uint64 }

// Favorites is an in-memory FavoriteStore backed by a Movies store for the
// detailed join.
type Favorites struct {
	mu     sync.Mutex
	movies *Movies
	rows   map[favKey]time.Time
	Err    error
}

func NewFavorites(movies *Movies) *Favorites {
	return &Favorites{movies: movies, rows: map[favKey]time.Time{}}
}

func (s *Favorites) Add(_ context.Context, accountID, movieID uint64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	k := favKey{accountID, movieID}
	if _, ok := s.rows[k]; ok {
		return false, nil
	}
	s.rows[k] = at
	return true, nil
}

func (s *Favorites) Remove(_ context.Context, accountID, movieID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.rows, favKey{accountID, movieID})
	return nil
}

func (s *Favorites) ids(accountID uint64) []uint64 {
	type entry struct {
		id uint64
		at time.Time
	}
	var es []entry
	for k, at := range s.rows {
		if k.account == accountID {
			es = append(es, entry{k.movie, at})
		}
	}
	sort.Slice(es, func(i, j int) bool {
		if es[i].at.Equal(es[j].at) {
			return es[i].id > es[j].id
		}
		return es[i].at.After(es[j].at)
	})
	out := make([]uint64, 0, len(es))
	for _, e := range es {
		out = append(out, e.id)
	}
	return out
}

func (s *Favorites) ListIDs(_ context.Context, accountID uint64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.ids(accountID), nil
}

func (s *Favorites) ListActiveMovies(ctx context.Context, accountID uint64) ([]model.Movie, error) {
	s.mu.Lock()
	ids := s.ids(accountID)
	err := s.Err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := []model.Movie{}
	for _, id := range ids {
		m, err := s.movies.GetByID(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if m.Status == model.StatusActive {
			out = append(out, m)
		}
	}
	return out, nil
}

// Count returns the number of stored favorite rows.
func (s *Favorites) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Images is an in-memory ImageStore.
type Images struct {
	mu      sync.Mutex
	next    int
	Files   map[string][]byte
	Deleted []string
	// FailSave, when set, is returned by Save.
	FailSave error
}

func NewImages() *Images { return &Images{Files: map[string][]byte{}} }

func (s *Images) Save(_ context.Context, folder string, body io.Reader, ext string) (model.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return model.Image{}, s.FailSave
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return model.Image{}, err
	}
	s.next++
	id := fmt.Sprintf("%s/img-%d%s", folder, s.next, ext)
	s.Files[id] = buf.Bytes()
	return model.Image{URL: "/uploads/" + id, ID: id}, nil
}

func (s *Images) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Files, id)
	s.Deleted = append(s.Deleted, id)
	return nil
}

// Notifier records reset notices.
type Notifier struct {
	mu      sync.Mutex
	Notices []model.ResetNotice
	Err     error
}

func (n *Notifier) NotifyPasswordReset(_ context.Context, notice model.ResetNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Notices = append(n.Notices, notice)
	return nil
}

// Last returns the most recent notice.
func (n *Notifier) Last() (model.ResetNotice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Notices) == 0 {
		return model.ResetNotice{}, false
	}
	return n.Notices[len(n.Notices)-1], true
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]T{}, items[offset:end]...)
}
