package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/scrollkeeper/nav"
)

//go:embed hooks.js
var hooksJS []byte

const bindingName = "__scrollkeeper_binding"

// Handlers receives the lifecycle events forwarded from the page. Fields
// map one-to-one onto the keeper's handlers; nil fields are skipped.
type Handlers struct {
	Mounted            func()
	NavigationFinished func()
	PopState           func(state nav.State)
	BeforeUnload       func()
}

// InstallHooks injects the in-page instrumentation and starts the binding
// listener that dispatches page events to the handlers. The listener stops
// when ctx is cancelled.
//
// The injected script owns the synchronous half of the interceptor: a
// pushState issued by page code must see its outgoing entry stamped before
// the new entry commits, which cannot wait on a CDP round trip. Go owns the
// asynchronous half — target resolution and the restoration polling loop.
func (t *Tab) InstallHooks(ctx context.Context, h Handlers) error {
	if err := (proto.RuntimeAddBinding{Name: bindingName}.Call(t.Page)); err != nil {
		t.logger.Warn("browser: addBinding failed (may already exist)", "error", err)
	}

	go t.listenBinding(ctx, h)

	if _, err := t.Page.Eval(string(hooksJS)); err != nil {
		return fmt.Errorf("browser: inject hooks.js: %w", err)
	}

	t.logger.Debug("browser: hooks installed", "url", t.PageURL, "page_id", t.PageID)
	return nil
}

// listenBinding receives events from the page via Runtime.bindingCalled.
func (t *Tab) listenBinding(ctx context.Context, h Handlers) {
	t.Page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}

		var event struct {
			Type  string    `json:"type"`
			URL   string    `json:"url"`
			State nav.State `json:"state"`
		}
		if err := json.Unmarshal([]byte(e.Payload), &event); err != nil {
			t.logger.Warn("browser: parse binding payload", "error", err)
			return
		}

		switch event.Type {
		case "mounted":
			if h.Mounted != nil {
				h.Mounted()
			}
		case "navigation":
			if event.URL != "" {
				t.PageURL = event.URL
			}
			if h.NavigationFinished != nil {
				h.NavigationFinished()
			}
		case "popstate":
			if h.PopState != nil {
				h.PopState(event.State)
			}
		case "beforeunload":
			if h.BeforeUnload != nil {
				h.BeforeUnload()
			}
		default:
			t.logger.Debug("browser: unknown binding event", "type", event.Type)
		}
	})()
}
