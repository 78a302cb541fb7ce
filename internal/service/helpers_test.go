package service

import (
	"time"

	"github.com/iliyamo/streaming-catalog/internal/storetest"
)

var (
	_ AccountStore  = (*storetest.Accounts)(nil)
	_ MovieStore    = (*storetest.Movies)(nil)
	_ FavoriteStore = (*storetest.Favorites)(nil)
	_ ImageStore    = (*storetest.Images)(nil)
	_ ResetNotifier = (*storetest.Notifier)(nil)
)

const testSecret = "test-secret-0123456789abcdef"

// testCost is bcrypt.MinCost; keeps hashing fast in tests.
const testCost = 4

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}
