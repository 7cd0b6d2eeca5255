package modules

import (
	"fmt"
	"maps"
	"net/url"
	"sync"

	"github.com/GoCodeAlone/capreg"
)

// URLHandler opens URLs on behalf of the session.
type URLHandler struct {
	rt *capreg.RuntimeContext
}

// NewURLHandler creates the URL handler module.
func NewURLHandler(rt *capreg.RuntimeContext) (*URLHandler, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &URLHandler{rt: rt}, nil
}

func (m *URLHandler) Name() string { return "URLHandler" }

// Resolve validates raw and returns it in canonical form.
func (m *URLHandler) Resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u.String(), nil
}

// Constants exposes environment information to the session.
type Constants struct {
	values map[string]any
}

// NewConstants creates the constants module. Manifest and properties are
// absent in kernel sessions.
func NewConstants(rt *capreg.RuntimeContext, props capreg.TaskProperties, manifest capreg.Manifest) (*Constants, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	values := map[string]any{
		"sessionId": rt.SessionID,
		"appId":     rt.Config.AppID,
		"locale":    rt.Config.Locale,
		"platform":  rt.Config.Platform,
	}
	if manifest != nil {
		values["manifest"] = manifest
	}
	if props != nil {
		values["properties"] = props
	}
	return &Constants{values: values}, nil
}

func (m *Constants) Name() string { return "Constants" }

// Values returns a copy of the exported constants.
func (m *Constants) Values() map[string]any { return maps.Clone(m.values) }

// Shake dispatches shake gestures to subscribers.
type Shake struct {
	mu       sync.Mutex
	handlers []func()
}

// NewShake creates the shake detection module.
func NewShake(rt *capreg.RuntimeContext) (*Shake, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &Shake{}, nil
}

func (m *Shake) Name() string { return "Shake" }

// Subscribe registers fn to run on every shake.
func (m *Shake) Subscribe(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, fn)
}

// Shook notifies subscribers of one shake.
func (m *Shake) Shook() {
	m.mu.Lock()
	handlers := append([]func(){}, m.handlers...)
	m.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// FontLoader registers fonts under the task's namespace.
type FontLoader struct {
	scope string

	mu    sync.Mutex
	fonts map[string]string
}

// NewFontLoader creates the font loader module. Fonts of a task are scoped
// by its manifest id; kernel fonts share one scope.
func NewFontLoader(rt *capreg.RuntimeContext, manifest capreg.Manifest) (*FontLoader, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	scope := "kernel"
	if id := manifest.ID(); id != "" {
		scope = id
	}
	return &FontLoader{scope: scope, fonts: make(map[string]string)}, nil
}

func (m *FontLoader) Name() string { return "FontLoader" }

// Load records family as available from uri and returns its scoped name.
func (m *FontLoader) Load(family, uri string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	scoped := m.scope + "-" + family
	m.fonts[scoped] = uri
	return scoped
}

// Keyboard controls the soft keyboard.
type Keyboard struct{ rt *capreg.RuntimeContext }

// NewKeyboard creates the keyboard module.
func NewKeyboard(rt *capreg.RuntimeContext) (*Keyboard, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &Keyboard{rt: rt}, nil
}

func (m *Keyboard) Name() string { return "Keyboard" }

// Util offers generic helpers.
type Util struct{ rt *capreg.RuntimeContext }

// NewUtil creates the utility module.
func NewUtil(rt *capreg.RuntimeContext) (*Util, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &Util{rt: rt}, nil
}

func (m *Util) Name() string { return "Util" }

// CurrentLocale returns the configured locale.
func (m *Util) CurrentLocale() string { return m.rt.Config.Locale }

// NativeAnimated drives animations natively.
type NativeAnimated struct{ rt *capreg.RuntimeContext }

// NewNativeAnimated creates the animation driver module.
func NewNativeAnimated(rt *capreg.RuntimeContext) (*NativeAnimated, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &NativeAnimated{rt: rt}, nil
}

func (m *NativeAnimated) Name() string { return "NativeAnimatedModule" }
