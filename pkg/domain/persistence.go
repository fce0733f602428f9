package domain

import "context"

// View provides read-only access to a consistent snapshot of the store.
type View interface {
	// Get returns a copy of the record or ErrNotFound.
	Get(collection Collection, id string) (Record, error)
	// Exists reports whether id is present in the collection.
	Exists(collection Collection, id string) bool
	// Scan returns every entry in insertion order. Callers sort explicitly when
	// they need a different order.
	Scan(collection Collection) []Entry
	// Now returns the transaction timestamp formatted with TimestampLayout.
	Now() string
}

// Tx exposes the mutations a handler may perform inside an atomic scope.
type Tx interface {
	View
	// Put inserts or replaces a record.
	Put(collection Collection, id string, record Record) error
	// Insert adds a record and fails with ErrAlreadyExists on a duplicate id.
	Insert(collection Collection, id string, record Record) error
	// Delete removes a record and returns it, or ErrNotFound.
	Delete(collection Collection, id string) (Record, error)
	// MintID returns the next free id under the collection's id policy.
	MintID(collection Collection) (string, error)
}

// Txn is a transaction handle returned by Store.Begin.
type Txn interface {
	Tx
	// Changes returns the change log accumulated so far.
	Changes() []Change
	// Commit evaluates rules and publishes the working state.
	Commit(ctx context.Context) (Result, error)
	// Rollback discards the working state. It is safe to call after Commit.
	Rollback()
}

// Store is the transactional record store a dispatcher runs handlers against.
type Store interface {
	Begin() (Txn, error)
	RunInTransaction(ctx context.Context, fn func(Tx) error) (Result, error)
	View(ctx context.Context, fn func(View) error) error
	Collections() []Collection
	Declare(specs ...CollectionSpec)
}
