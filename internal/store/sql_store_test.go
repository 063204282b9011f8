package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// finnishNumbers mirrors the seed data of the original service's tests.
func finnishNumbers() []*Item {
	pairs := [][2]string{
		{"yksi", "one"}, {"kaksi", "two"}, {"kolme", "three"}, {"neljä", "four"},
		{"viisi", "five"}, {"kuusi", "six"}, {"seitsemän", "seven"},
		{"kahdeksan", "eight"}, {"yhdeksän", "nine"}, {"kymmenen", "ten"},
	}
	items := make([]*Item, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, &Item{Word: p[0], Translation: p[1], WordType: "noun"})
	}
	return items
}

// newTestStore opens a file-backed SQLite store so that several pool
// connections see the same database.
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), Options{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "tenwords.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedStore(t *testing.T, s *SQLStore, items []*Item) {
	t.Helper()
	n, err := s.InsertItems(context.Background(), items)
	require.NoError(t, err)
	require.Equal(t, len(items), n)
}

func serveCounts(t *testing.T, s *SQLStore) map[string]int64 {
	t.Helper()
	items, err := s.ListItems(context.Background(), "")
	require.NoError(t, err)
	counts := make(map[string]int64, len(items))
	for _, it := range items {
		counts[it.Word] = it.ServeCount
	}
	return counts
}

func TestInsertItems(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	items := finnishNumbers()
	items[0].ServeCount = 42
	seedStore(t, s, items)

	for _, it := range items {
		assert.NotEmpty(t, it.ID, "id assigned for %s", it.Word)
		assert.Zero(t, it.ServeCount)
	}

	got, err := s.GetItemByKey(ctx, "yksi")
	require.NoError(t, err)
	assert.Equal(t, items[0].ID, got.ID)
	assert.Equal(t, "one", got.Translation)
	assert.Equal(t, "noun", got.WordType)
	assert.Zero(t, got.ServeCount)

	// duplicates are skipped, new words still land
	n, err := s.InsertItems(ctx, []*Item{
		{Word: "yksi", Translation: "uno", WordType: "noun"},
		{Word: "talo", Translation: "house", WordType: "noun"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = s.GetItemByKey(ctx, "yksi")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Translation, "existing word must not be overwritten")

	count, err := s.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, count)
}

func TestInsertItemsRejectsEmptyWord(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertItems(context.Background(), []*Item{
		{Word: "talo", Translation: "house"},
		{Word: "  ", Translation: "nothing"},
	})
	require.ErrorIs(t, err, ErrInvalidItem)

	count, err := s.CountItems(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetItemByKeyNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetItemByKey(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListItemsByType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedStore(t, s, []*Item{
		{Word: "juosta", Translation: "to run", WordType: "verb"},
		{Word: "talo", Translation: "house", WordType: "noun"},
		{Word: "istua", Translation: "to sit", WordType: "verb"},
	})

	verbs, err := s.ListItems(ctx, "verb")
	require.NoError(t, err)
	require.Len(t, verbs, 2)
	assert.Equal(t, "istua", verbs[0].Word)
	assert.Equal(t, "juosta", verbs[1].Word)

	all, err := s.ListItems(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedStore(t, s, finnishNumbers())

	_, err := s.PickLeastServed(ctx, 4)
	require.NoError(t, err)

	data, err := s.Export(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// a fresh store simulates a restore on another host
	s2 := newTestStore(t)
	n, err := s2.Import(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	for word, count := range serveCounts(t, s2) {
		assert.Zero(t, count, "imported %s must start unserved", word)
	}

	orig, err := s.GetItemByKey(ctx, "kolme")
	require.NoError(t, err)
	restored, err := s2.GetItemByKey(ctx, "kolme")
	require.NoError(t, err)
	assert.Equal(t, orig.ID, restored.ID)
	assert.Equal(t, orig.Translation, restored.Translation)
}

func TestImportEmpty(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Import(context.Background(), []byte("{not json"))
	assert.Error(t, err)
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sub := &Subscription{Email: "ursula_le_guin@gmail.com", Name: "le guin"}
	require.NoError(t, s.AddSubscription(ctx, sub))
	assert.NotEmpty(t, sub.ID)
	assert.NotZero(t, sub.SubscribedAt)

	saved, err := s.GetSubscriptionByEmail(ctx, "ursula_le_guin@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "le guin", saved.Name)
	assert.Equal(t, sub.ID, saved.ID)

	err = s.AddSubscription(ctx, &Subscription{Email: "ursula_le_guin@gmail.com", Name: "other"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.GetSubscriptionByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore(t *testing.T) {
	s, err := NewSQLiteStore()
	require.NoError(t, err)
	defer s.Close()

	seedStore(t, s, finnishNumbers())
	picked, err := s.PickLeastServed(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, picked, 3)
	assert.Equal(t, DriverSQLite, s.Driver())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestPingAfterClose(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	err := s.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("constraint failed")
	err := error(&Error{Op: "insert", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store: insert: constraint failed", err.Error())

	var storeErr *Error
	assert.True(t, errors.As(err, &storeErr))
}
