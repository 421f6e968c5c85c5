package library

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchExternalChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := tempStore(t)
	require.NoError(t, s.Save())

	changed := make(chan string, 16)
	require.NoError(t, WatchExternalChanges(ctx, s, func(path string) { changed <- path }))

	// Our own saves are not reported.
	s.Data().NextBookID = 10
	require.NoError(t, s.Save())
	select {
	case p := <-changed:
		t.Fatalf("own save reported as external change: %s", p)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"books": []}`), 0o644))
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatalf("external write not reported")
	}
}
