package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/yearbook/internal/client/config"
	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/logging"
)

func TestNewApp(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	a := NewApp(cfg, logging.Discard(), logging.Discard())
	assert.NotNil(t, a.backend)
	assert.Equal(t, "http://localhost:8080/upload", a.backend.UploadURL())
	assert.NotNil(t, a.camera)
	assert.Equal(t, ModeUnknown, a.Mode())
	assert.Empty(t, a.getStatus())
}

func TestCheckOnline(t *testing.T) {
	b := &fakeBackend{}
	a, _ := newTestApp(b, readerFromLines())

	a.checkOnline(context.Background())
	assert.Equal(t, ModeOnline, a.Mode())
	assert.Equal(t, "(online)", a.getStatus())

	b.pingErr = common.ErrUnavailable
	a.checkOnline(context.Background())
	assert.Equal(t, ModeOffline, a.Mode())
	assert.Equal(t, "(offline)", a.getStatus())
}

func TestStartOnlineStatusWatcher_StopsWithContext(t *testing.T) {
	a, _ := newTestApp(&fakeBackend{}, readerFromLines())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return a.Mode() == ModeOnline }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRoot_ExitsOnQuit(t *testing.T) {
	lines := capturePrints(t)
	a, _ := newTestApp(&fakeBackend{}, readerFromLines("help", "quit"))

	a.Root(context.Background())
	assert.Contains(t, *lines, helpText)
	assert.Equal(t, "Bye!", (*lines)[len(*lines)-1])
}
