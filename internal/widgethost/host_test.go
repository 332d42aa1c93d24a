package widgethost

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"popup-orchestrator/internal/player"
	"popup-orchestrator/internal/verdict"
)

func dialHost(t *testing.T, h *Host) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(url, "", "http://localhost/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func receive(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, websocket.JSON.Receive(conn, &f))
	return f
}

func newHost() *Host {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHost_notReadyUntilAttachedAndLoaded(t *testing.T) {
	h := newHost()
	_, err := h.NewWidget("abc", player.LeanBack(), func(player.WidgetEvent) {})
	assert.ErrorIs(t, err, player.ErrAPINotReady)

	conn := dialHost(t, h)
	assert.Never(t, h.Ready, 50*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, websocket.JSON.Send(conn, frame{Type: "api_ready"}))
	assert.Eventually(t, h.Ready, 2*time.Second, 10*time.Millisecond)
}

func TestHost_widgetRoundTrip(t *testing.T) {
	h := newHost()
	conn := dialHost(t, h)
	require.NoError(t, websocket.JSON.Send(conn, frame{Type: "api_ready"}))
	require.Eventually(t, h.Ready, 2*time.Second, 10*time.Millisecond)

	events := make(chan player.WidgetEvent, 4)
	w, err := h.NewWidget("dQw4w9WgXcQ", player.LeanBack(), func(e player.WidgetEvent) { events <- e })
	require.NoError(t, err)

	mount := receive(t, conn)
	assert.Equal(t, "mount", mount.Type)
	assert.Equal(t, "dQw4w9WgXcQ", mount.Identifier)
	assert.Contains(t, mount.URL, "controls=0")
	require.NotNil(t, mount.Config)
	assert.True(t, mount.Config.Inline)
	assert.Equal(t, "http://localhost", mount.Config.Origin)
	assert.Contains(t, mount.URL, "origin=http%3A%2F%2Flocalhost")

	require.NoError(t, w.Mute())
	cmd := receive(t, conn)
	assert.Equal(t, "command", cmd.Type)
	assert.Equal(t, "mute", cmd.Command)
	assert.Equal(t, mount.Widget, cmd.Widget)

	require.NoError(t, websocket.JSON.Send(conn, frame{Type: "widget_event", Widget: mount.Widget, Event: "stateChange", Data: 0}))
	select {
	case e := <-events:
		assert.Equal(t, player.WidgetEvent{Name: "stateChange", Data: 0}, e)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	require.NoError(t, w.Destroy())
	assert.Equal(t, "destroy", receive(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, frame{Type: "widget_event", Widget: mount.Widget, Event: "ready"}))
	select {
	case e := <-events:
		t.Fatalf("event after destroy delivered: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHost_sinkFrames(t *testing.T) {
	h := newHost()
	conn := dialHost(t, h)
	require.NoError(t, websocket.JSON.Send(conn, frame{Type: "api_ready"}))
	require.Eventually(t, h.Ready, 2*time.Second, 10*time.Millisecond)

	item := verdict.FactItem{Text: "Shot in one take", SourceURL: "https://example.org"}
	h.HistoryAppended(item)
	h.OverlayShown(item)
	h.OverlayHidden()

	f := receive(t, conn)
	assert.Equal(t, "history_append", f.Type)
	require.NotNil(t, f.Fact)
	assert.Equal(t, item, *f.Fact)
	assert.Equal(t, "overlay_show", receive(t, conn).Type)
	assert.Equal(t, "overlay_hide", receive(t, conn).Type)
}

func TestHost_disconnectedIsQuiet(t *testing.T) {
	h := newHost()
	assert.NotPanics(t, func() {
		h.OverlayHidden()
		h.HistoryAppended(verdict.FactItem{Text: "x"})
	})
	assert.NoError(t, h.Close())
}

func markReady(t *testing.T, h *Host, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, websocket.JSON.Send(conn, frame{Type: "api_ready"}))
	require.Eventually(t, h.Ready, 2*time.Second, 10*time.Millisecond)
}

func TestHost_reattachWaitsForAPIReady(t *testing.T) {
	h := newHost()
	first := dialHost(t, h)
	markReady(t, h, first)

	second := dialHost(t, h)
	require.Eventually(t, func() bool { return !h.Ready() }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, h.Attached())
	assert.Never(t, h.Ready, 50*time.Millisecond, 10*time.Millisecond)

	_, err := h.NewWidget("abc", player.LeanBack(), func(player.WidgetEvent) {})
	assert.ErrorIs(t, err, player.ErrAPINotReady)

	markReady(t, h, second)
	_, err = h.NewWidget("abc", player.LeanBack(), func(player.WidgetEvent) {})
	require.NoError(t, err)
	assert.Equal(t, "mount", receive(t, second).Type)
}

func TestHost_widgetLostOnReattach(t *testing.T) {
	h := newHost()
	first := dialHost(t, h)
	markReady(t, h, first)

	events := make(chan player.WidgetEvent, 4)
	w, err := h.NewWidget("abc", player.LeanBack(), func(e player.WidgetEvent) { events <- e })
	require.NoError(t, err)
	assert.Equal(t, "mount", receive(t, first).Type)

	dialHost(t, h)
	select {
	case e := <-events:
		assert.Equal(t, player.WidgetEvent{Name: player.WidgetLost}, e)
	case <-time.After(2 * time.Second):
		t.Fatal("widget on replaced tab was not reported lost")
	}

	assert.ErrorIs(t, w.Play(), ErrDisconnected)
	assert.NoError(t, w.Destroy())
}

func TestHost_widgetLostOnClose(t *testing.T) {
	h := newHost()
	conn := dialHost(t, h)
	markReady(t, h, conn)

	events := make(chan player.WidgetEvent, 4)
	_, err := h.NewWidget("abc", player.LeanBack(), func(e player.WidgetEvent) { events <- e })
	require.NoError(t, err)

	require.NoError(t, h.Close())
	assert.False(t, h.Attached())
	select {
	case e := <-events:
		assert.Equal(t, player.WidgetLost, e.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("widget was not reported lost")
	}
}

func TestHost_destroyedWidgetIsNotReportedLost(t *testing.T) {
	h := newHost()
	conn := dialHost(t, h)
	markReady(t, h, conn)

	events := make(chan player.WidgetEvent, 4)
	w, err := h.NewWidget("abc", player.LeanBack(), func(e player.WidgetEvent) { events <- e })
	require.NoError(t, err)
	require.NoError(t, w.Destroy())

	require.NoError(t, h.Close())
	select {
	case e := <-events:
		t.Fatalf("destroyed widget reported: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}
