package feed

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Operation is the row-change kind carried by a feed event.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Table names carried on the wire. Only tables with replicated read models
// are published.
const (
	TableProducts     = "products"
	TableTransactions = "transactions"
	TableAccounts     = "accounts"
)

// Envelope is the stable payload published for every replicated row change.
// Row holds the full row after the change; for deletes only the primary key
// is guaranteed to be present.
type Envelope struct {
	EventID    string          `json:"eventId"`
	Table      string          `json:"table"`
	Op         Operation       `json:"op"`
	AccountID  uuid.UUID       `json:"accountId"`
	RowID      uuid.UUID       `json:"rowId"`
	Row        json.RawMessage `json:"row,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewEnvelope builds an envelope with a fresh event id and marshaled row.
func NewEnvelope(table string, op Operation, accountID, rowID uuid.UUID, row any) (Envelope, error) {
	env := Envelope{
		EventID:    uuid.NewString(),
		Table:      table,
		Op:         op,
		AccountID:  accountID,
		RowID:      rowID,
		OccurredAt: time.Now().UTC(),
	}
	if row != nil {
		raw, err := json.Marshal(row)
		if err != nil {
			return Envelope{}, err
		}
		env.Row = raw
	}
	return env, nil
}

// Valid reports whether the envelope carries the minimum routable fields.
func (e Envelope) Valid() bool {
	if e.Table == "" || e.RowID == uuid.Nil {
		return false
	}
	switch e.Op {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}
