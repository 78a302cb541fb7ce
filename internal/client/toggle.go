package client

import (
	"context"
	"sort"
	"sync"
)

// FavoriteRemote is the server side of a favorite toggle.  *Client
// implements it.
type FavoriteRemote interface {
	AddFavorite(ctx context.Context, movieID string) error
	RemoveFavorite(ctx context.Context, movieID string) error
}

// FavoriteSet is the locally displayed set of favorite ids.
type FavoriteSet struct {
	mu  sync.RWMutex
	ids map[string]bool
}

func NewFavoriteSet(ids ...string) *FavoriteSet {
	s := &FavoriteSet{ids: make(map[string]bool, len(ids))}
	s.Replace(ids)
	return s
}

func (s *FavoriteSet) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ids[id]
}

// IDs returns the ids in sorted order.
func (s *FavoriteSet) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Replace swaps in the server's view.
func (s *FavoriteSet) Replace(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.ids[id] = true
	}
}

func (s *FavoriteSet) set(id string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.ids[id] = true
	} else {
		delete(s.ids, id)
	}
}

// favoriteCommand is one add or remove.  Its inverse undoes it locally.
type favoriteCommand struct {
	movieID string
	add     bool
}

func (c favoriteCommand) inverse() favoriteCommand {
	return favoriteCommand{movieID: c.movieID, add: !c.add}
}

func (c favoriteCommand) apply(s *FavoriteSet) { s.set(c.movieID, c.add) }

func (c favoriteCommand) execute(ctx context.Context, r FavoriteRemote) error {
	if c.add {
		return r.AddFavorite(ctx, c.movieID)
	}
	return r.RemoveFavorite(ctx, c.movieID)
}

// FavoriteToggler flips favorites optimistically: the local set changes
// first, the server call follows, and a failed call replays the inverse
// command locally.
type FavoriteToggler struct {
	remote FavoriteRemote
	set    *FavoriteSet
}

func NewFavoriteToggler(remote FavoriteRemote, set *FavoriteSet) *FavoriteToggler {
	return &FavoriteToggler{remote: remote, set: set}
}

// Toggle flips movieID and reports whether it is a favorite afterwards.  On
// error the local set is back in its previous state.
func (t *FavoriteToggler) Toggle(ctx context.Context, movieID string) (bool, error) {
	cmd := favoriteCommand{movieID: movieID, add: !t.set.Has(movieID)}
	cmd.apply(t.set)
	if err := cmd.execute(ctx, t.remote); err != nil {
		cmd.inverse().apply(t.set)
		return !cmd.add, err
	}
	return cmd.add, nil
}
