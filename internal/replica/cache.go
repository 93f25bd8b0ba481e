package replica

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/feed"
)

// defaultHistoryLimit caps how many transactions the replica keeps per
// branch. Older sales stay queryable through the history endpoint.
const defaultHistoryLimit = 200

// Row is one replicated record: the primary key plus the raw row payload
// as it appeared on the change feed.
type Row struct {
	ID   uuid.UUID       `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Cache is an in-memory read model of catalog and sales rows, maintained
// from the change feed. Rows merge by primary key: an event for a known ID
// replaces that row in place, an unknown ID is inserted. Replaying or
// receiving an event twice therefore never duplicates a row.
type Cache struct {
	mu           sync.RWMutex
	products     map[uuid.UUID][]Row
	transactions map[uuid.UUID][]Row
	accounts     []Row
	historyLimit int
}

// NewCache builds an empty replica cache.
func NewCache() *Cache {
	return &Cache{
		products:     make(map[uuid.UUID][]Row),
		transactions: make(map[uuid.UUID][]Row),
		historyLimit: defaultHistoryLimit,
	}
}

// ErrInvalidEnvelope rejects events missing their routable fields.
var ErrInvalidEnvelope = errors.New("invalid feed envelope")

// Apply folds one change-feed event into the replica.
func (c *Cache) Apply(env feed.Envelope) error {
	if !env.Valid() {
		return ErrInvalidEnvelope
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch env.Table {
	case feed.TableProducts:
		c.products[env.AccountID] = applyOrdered(c.products[env.AccountID], env, false, 0)
	case feed.TableTransactions:
		c.transactions[env.AccountID] = applyOrdered(c.transactions[env.AccountID], env, true, c.historyLimit)
	case feed.TableAccounts:
		c.accounts = applyOrdered(c.accounts, env, false, 0)
	}
	return nil
}

// PrimeProducts replaces the product snapshot for a branch, for the initial
// full fetch before feed events start flowing.
func (c *Cache) PrimeProducts(accountID uuid.UUID, rows []Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[accountID] = append([]Row(nil), rows...)
}

// PrimeTransactions replaces the sales snapshot for a branch.
func (c *Cache) PrimeTransactions(accountID uuid.UUID, rows []Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(rows) > c.historyLimit {
		rows = rows[:c.historyLimit]
	}
	c.transactions[accountID] = append([]Row(nil), rows...)
}

// Products returns the replicated catalog for a branch.
func (c *Cache) Products(accountID uuid.UUID) []Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Row(nil), c.products[accountID]...)
}

// Transactions returns the replicated sales history for a branch, newest
// first.
func (c *Cache) Transactions(accountID uuid.UUID) []Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Row(nil), c.transactions[accountID]...)
}

// Accounts returns the replicated branch list.
func (c *Cache) Accounts() []Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Row(nil), c.accounts...)
}

// applyOrdered merges one event into a row slice. prepend controls where
// inserts land: sales history grows newest-first, the catalog appends.
func applyOrdered(rows []Row, env feed.Envelope, prepend bool, limit int) []Row {
	idx := -1
	for i := range rows {
		if rows[i].ID == env.RowID {
			idx = i
			break
		}
	}

	if env.Op == feed.OpDelete {
		if idx < 0 {
			return rows
		}
		return append(rows[:idx], rows[idx+1:]...)
	}

	row := Row{ID: env.RowID, Data: env.Row}
	if idx >= 0 {
		rows[idx] = row
		return rows
	}
	if prepend {
		rows = append([]Row{row}, rows...)
	} else {
		rows = append(rows, row)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
