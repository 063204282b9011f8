package serverrun

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/kittclouds/tenwords/internal/config"
	"github.com/kittclouds/tenwords/internal/store"
	"github.com/kittclouds/tenwords/pkg/response"
)

func TestRunServesWordsUntilCancelled(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "run.db")
	cfg.Rotation.BatchSize = 2

	s, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	_, err = s.InsertItems(context.Background(), []*store.Item{
		{Word: "yksi", Translation: "one"},
		{Word: "kaksi", Translation: "two"},
		{Word: "kolme", Translation: "three"},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, Options{Config: cfg, Listener: l}) }()

	var body response.WordResponse
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + l.Addr().String() + "/words")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&body) == nil
	}, 3*time.Second, 20*time.Millisecond)
	assert.Len(t, body.Words, 2)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Rotation.BatchSize = 0

	err := Run(context.Background(), Options{Config: cfg})
	assert.ErrorContains(t, err, "rotation.batchSize")
}
