package player

import (
	"errors"
	"net/url"
	"sync"
)

// ErrAPINotReady is returned by an EmbedAPI whose script has not finished loading.
var ErrAPINotReady = errors.New("embed api not ready")

// EmbedConfig controls how the platform widget is built.
type EmbedConfig struct {
	Controls       bool `json:"controls"`
	Keyboard       bool `json:"keyboard"`
	Inline         bool `json:"inline"`
	PointerEvents  bool `json:"pointerEvents"`
	RelatedContent bool `json:"relatedContent"`

	// Origin is the embedding page's scheme and host. The platform needs it
	// for the JS API when set.
	Origin string `json:"origin,omitempty"`
}

// LeanBack is the configuration used for every mount: no controls, no
// keyboard, inline playback, no pointer events and no related suggestions.
func LeanBack() EmbedConfig {
	return EmbedConfig{Inline: true}
}

// EmbedURL returns the iframe source for identifier under cfg.
func EmbedURL(identifier string, cfg EmbedConfig) string {
	q := url.Values{}
	q.Set("enablejsapi", "1")
	q.Set("controls", boolParam(cfg.Controls))
	q.Set("disablekb", boolParam(!cfg.Keyboard))
	q.Set("modestbranding", "1")
	q.Set("rel", boolParam(cfg.RelatedContent))
	q.Set("playsinline", boolParam(cfg.Inline))
	if cfg.Origin != "" {
		q.Set("origin", cfg.Origin)
	}
	return "https://www.youtube.com/embed/" + url.PathEscape(identifier) + "?" + q.Encode()
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Widget is one live instance of the platform's embeddable player.
type Widget interface {
	Mute() error
	Unmute() error
	Play() error
	Pause() error
	Destroy() error
}

// EmbedAPI builds widgets. emit receives the widget's raw events and may be
// called from any goroutine.
type EmbedAPI interface {
	Ready() bool
	NewWidget(identifier string, cfg EmbedConfig, emit func(WidgetEvent)) (Widget, error)
}

// Readiness records, once, that the embed script has loaded. It replaces the
// platform's global "api ready" callback with an object that is created by the
// owner of the script and injected where it is needed.
type Readiness struct {
	once sync.Once
	ch   chan struct{}
}

// NewReadiness returns a Readiness that is not yet ready.
func NewReadiness() *Readiness {
	return &Readiness{ch: make(chan struct{})}
}

// MarkReady flips the capability to ready. Later calls are no-ops.
func (r *Readiness) MarkReady() {
	r.once.Do(func() { close(r.ch) })
}

// Ready reports whether MarkReady has been called.
func (r *Readiness) Ready() bool {
	select {
	case <-r.ch:
		return true
	default:
		return false
	}
}

// Done is closed once the capability is ready.
func (r *Readiness) Done() <-chan struct{} {
	return r.ch
}
