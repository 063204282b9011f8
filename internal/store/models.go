// Package store provides relational persistence for tenwords.
// Items (vocabulary words) and subscriptions live in SQLite or Postgres
// behind a single database/sql implementation.
package store

import "context"

// Item is a vocabulary word served in rotation.
// Everything except ServeCount is immutable after creation.
type Item struct {
	ID          string `json:"id"`
	Word        string `json:"word"`
	Translation string `json:"translation"`
	WordType    string `json:"wordType"`
	ServeCount  int64  `json:"serveCount"`
}

// Subscription is a captured newsletter subscriber.
type Subscription struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	SubscribedAt int64  `json:"subscribedAt"` // unix millis
}

// Storer defines the interface for data persistence.
// SQLStore is the sole implementation; the dialect decides how rows are locked.
type Storer interface {
	// Rotation
	PickLeastServed(ctx context.Context, n int) ([]Item, error)

	// Items - created out-of-band, read-only afterwards
	InsertItems(ctx context.Context, items []*Item) (int, error)
	GetItemByKey(ctx context.Context, word string) (*Item, error)
	ListItems(ctx context.Context, wordType string) ([]*Item, error)
	CountItems(ctx context.Context) (int, error)

	// Subscriptions
	AddSubscription(ctx context.Context, sub *Subscription) error
	GetSubscriptionByEmail(ctx context.Context, email string) (*Subscription, error)

	// Export/Import (JSON word lists)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) (int, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
