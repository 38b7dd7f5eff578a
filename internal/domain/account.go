package domain

import "time"

// Account is a named holder of a balance. IDs come from a database sequence,
// so they are unique, monotonically increasing and never reused. Balance is
// in minor units and is only ever changed through the ledger service.
type Account struct {
	ID        int64
	Name      string
	Balance   int64
	Version   int64
	CreatedAt time.Time
}
