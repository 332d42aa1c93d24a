// Package widgethost bridges a browser tab that hosts the platform's embed
// script to the server over a websocket. The tab builds and drives the actual
// iframe widget; the server sends it commands and receives its events.
//
// Server to client frames:
//
//	{"type":"mount","widget":3,"identifier":"...","url":"...","config":{...}}
//	{"type":"command","widget":3,"command":"mute"}
//	{"type":"destroy","widget":3}
//	{"type":"overlay_show","fact":{...}}
//	{"type":"overlay_hide"}
//	{"type":"history_append","fact":{...}}
//
// Client to server frames:
//
//	{"type":"api_ready"}
//	{"type":"widget_event","widget":3,"event":"stateChange","data":0}
package widgethost

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"popup-orchestrator/internal/player"
	"popup-orchestrator/internal/verdict"
)

const writeTimeout = 5 * time.Second

// ErrDisconnected is returned when no browser tab is attached, or when a
// widget's tab has been replaced or closed.
var ErrDisconnected = errors.New("widget host disconnected")

type frame struct {
	Type       string              `json:"type"`
	Widget     uint64              `json:"widget,omitempty"`
	Identifier string              `json:"identifier,omitempty"`
	URL        string              `json:"url,omitempty"`
	Config     *player.EmbedConfig `json:"config,omitempty"`
	Command    string              `json:"command,omitempty"`
	Event      string              `json:"event,omitempty"`
	Data       int                 `json:"data"`
	Fact       *verdict.FactItem   `json:"fact,omitempty"`
}

// attachment is one connected page. Its embed script readiness and its
// widgets die with it; a reloaded tab starts over with a fresh attachment.
type attachment struct {
	conn      *websocket.Conn
	origin    string
	readiness *player.Readiness
	widgets   map[uint64]func(player.WidgetEvent)
}

// Host is one tab's widget bridge. It implements player.EmbedAPI and
// playback.Sink.
type Host struct {
	log *slog.Logger

	mu   sync.Mutex
	att  *attachment
	next uint64
}

// New returns a Host with no tab attached.
func New(log *slog.Logger) *Host {
	return &Host{log: log}
}

// ServeHTTP upgrades the request and attaches the tab, replacing any tab
// attached before.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.serve).ServeHTTP(w, r)
}

// Attached reports whether a tab is connected.
func (h *Host) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.att != nil
}

// Ready reports whether a tab is attached and its embed script has loaded.
func (h *Host) Ready() bool {
	h.mu.Lock()
	att := h.att
	h.mu.Unlock()
	return att != nil && att.readiness.Ready()
}

// NewWidget asks the current tab to build a widget for identifier. If that
// tab goes away the widget emits player.WidgetLost.
func (h *Host) NewWidget(identifier string, cfg player.EmbedConfig, emit func(player.WidgetEvent)) (player.Widget, error) {
	h.mu.Lock()
	att := h.att
	if att == nil || !att.readiness.Ready() {
		h.mu.Unlock()
		return nil, player.ErrAPINotReady
	}
	h.next++
	id := h.next
	att.widgets[id] = emit
	h.mu.Unlock()

	if cfg.Origin == "" {
		cfg.Origin = att.origin
	}
	err := h.sendTo(att, frame{
		Type:       "mount",
		Widget:     id,
		Identifier: identifier,
		URL:        player.EmbedURL(identifier, cfg),
		Config:     &cfg,
	})
	if err != nil {
		h.forget(att, id)
		return nil, fmt.Errorf("mount widget: %w", err)
	}
	return &remoteWidget{host: h, att: att, id: id}, nil
}

func (h *Host) OverlayShown(item verdict.FactItem) {
	h.push(frame{Type: "overlay_show", Fact: &item})
}

func (h *Host) OverlayHidden() {
	h.push(frame{Type: "overlay_hide"})
}

func (h *Host) HistoryAppended(item verdict.FactItem) {
	h.push(frame{Type: "history_append", Fact: &item})
}

// Close detaches the current tab, if any. Widgets still mounted on it emit
// player.WidgetLost.
func (h *Host) Close() error {
	h.mu.Lock()
	att := h.att
	h.att = nil
	h.mu.Unlock()
	if att == nil {
		return nil
	}
	return att.conn.Close()
}

func (h *Host) push(f frame) {
	h.mu.Lock()
	att := h.att
	h.mu.Unlock()
	if att == nil {
		return
	}
	if err := h.sendTo(att, f); err != nil && !errors.Is(err, ErrDisconnected) {
		h.log.Warn("widget host push failed", slog.String("type", f.Type), slog.String("error", err.Error()))
	}
}

// sendTo writes f to att, failing with ErrDisconnected once att is no longer
// the attached tab.
func (h *Host) sendTo(att *attachment, f frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.att != att {
		return ErrDisconnected
	}
	_ = att.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return websocket.JSON.Send(att.conn, f)
}

func (h *Host) forget(att *attachment, id uint64) {
	h.mu.Lock()
	delete(att.widgets, id)
	h.mu.Unlock()
}

func (h *Host) serve(conn *websocket.Conn) {
	att := &attachment{
		conn:      conn,
		origin:    pageOrigin(conn),
		readiness: player.NewReadiness(),
		widgets:   make(map[uint64]func(player.WidgetEvent)),
	}

	h.mu.Lock()
	prev := h.att
	h.att = att
	h.mu.Unlock()
	if prev != nil {
		_ = prev.conn.Close()
	}
	h.log.Debug("widget host attached", slog.String("origin", att.origin))

	defer h.detach(att)

	for {
		var in frame
		if err := websocket.JSON.Receive(conn, &in); err != nil {
			return
		}
		switch in.Type {
		case "api_ready":
			att.readiness.MarkReady()
		case "widget_event":
			h.mu.Lock()
			emit := att.widgets[in.Widget]
			h.mu.Unlock()
			if emit == nil {
				continue
			}
			emit(player.WidgetEvent{Name: in.Event, Data: in.Data})
		default:
			h.log.Debug("unknown widget host frame", slog.String("type", in.Type))
		}
	}
}

// detach drops att and tells each widget still mounted on it that it is gone.
// Emitters run without the lock held; they may call back into the Host.
func (h *Host) detach(att *attachment) {
	h.mu.Lock()
	if h.att == att {
		h.att = nil
	}
	lost := att.widgets
	att.widgets = make(map[uint64]func(player.WidgetEvent))
	h.mu.Unlock()
	_ = att.conn.Close()
	h.log.Debug("widget host detached", slog.Int("lost_widgets", len(lost)))

	for _, emit := range lost {
		emit(player.WidgetEvent{Name: player.WidgetLost})
	}
}

func pageOrigin(conn *websocket.Conn) string {
	cfg := conn.Config()
	if cfg == nil || cfg.Origin == nil || cfg.Origin.Host == "" {
		return ""
	}
	return cfg.Origin.Scheme + "://" + cfg.Origin.Host
}

type remoteWidget struct {
	host *Host
	att  *attachment
	id   uint64
}

func (w *remoteWidget) command(name string) error {
	return w.host.sendTo(w.att, frame{Type: "command", Widget: w.id, Command: name})
}

func (w *remoteWidget) Mute() error   { return w.command("mute") }
func (w *remoteWidget) Unmute() error { return w.command("unmute") }
func (w *remoteWidget) Play() error   { return w.command("play") }
func (w *remoteWidget) Pause() error  { return w.command("pause") }

func (w *remoteWidget) Destroy() error {
	w.host.forget(w.att, w.id)
	err := w.host.sendTo(w.att, frame{Type: "destroy", Widget: w.id})
	if errors.Is(err, ErrDisconnected) {
		return nil
	}
	return err
}
