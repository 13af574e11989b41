// Package action models client-side actions returned by backend methods and the
// navigation helpers that emit them.
package action

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
)

// Action types understood by the browser shell.
const (
	TypeWindow = "ir.actions.act_window"
	TypeURL    = "ir.actions.act_url"
	TypeClient = "ir.actions.client"
)

// Descriptor is an action as produced by the backend. Unknown keys are preserved so
// that forwarding leaves the payload untouched.
type Descriptor map[string]any

// Decode parses a raw call result into a descriptor. Non-object results yield nil.
func Decode(raw json.RawMessage) Descriptor {
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil
	}
	return d
}

// Type returns the action type.
func (d Descriptor) Type() string {
	v, _ := d["type"].(string)
	return v
}

// URL returns the target of an act_url action.
func (d Descriptor) URL() string {
	v, _ := d["url"].(string)
	return v
}

// IsURL reports whether the action opens a URL.
func (d Descriptor) IsURL() bool { return d.Type() == TypeURL }

// OpenRecord builds a form-view window action for a single record.
func OpenRecord(model string, id int64) Descriptor {
	return Descriptor{
		"type":      TypeWindow,
		"res_model": model,
		"res_id":    id,
		"views":     []any{[]any{false, "form"}},
		"target":    "current",
	}
}

// OpenList builds a list/form window action over a domain.
func OpenList(name, model string, domain any) Descriptor {
	return Descriptor{
		"type":      TypeWindow,
		"name":      name,
		"res_model": model,
		"domain":    domain,
		"views":     []any{[]any{false, "list"}, []any{false, "form"}},
		"target":    "current",
	}
}

// WithViews replaces the view list, in order, and returns d.
func (d Descriptor) WithViews(modes ...string) Descriptor {
	views := make([]any, 0, len(modes))
	for _, m := range modes {
		views = append(views, []any{false, m})
	}
	d["views"] = views
	return d
}

// DisplayNotification builds the client action that shows a toast.
func DisplayNotification(title, message string, typ notify.Type) Descriptor {
	return Descriptor{
		"type": TypeClient,
		"tag":  "display_notification",
		"params": map[string]any{
			"title":   title,
			"message": message,
			"type":    string(typ),
		},
	}
}

// Executor performs actions on behalf of the user.
type Executor interface {
	DoAction(ctx context.Context, d Descriptor) error
	OpenURL(ctx context.Context, url string) error
}

// Outbox collects actions, URLs and notices produced while serving one request.
// It satisfies both Executor and notify.Notifier.
type Outbox struct {
	mu      sync.Mutex
	actions []Descriptor
	urls    []string
	notices []notify.Notice
	forward notify.Notifier
}

// NewOutbox constructs an Outbox. Notices are also forwarded to fwd when set.
func NewOutbox(fwd notify.Notifier) *Outbox {
	return &Outbox{forward: fwd}
}

// DoAction implements Executor.
func (o *Outbox) DoAction(_ context.Context, d Descriptor) error {
	o.mu.Lock()
	o.actions = append(o.actions, d)
	o.mu.Unlock()
	return nil
}

// OpenURL implements Executor.
func (o *Outbox) OpenURL(_ context.Context, url string) error {
	o.mu.Lock()
	o.urls = append(o.urls, url)
	o.mu.Unlock()
	return nil
}

// Notify implements notify.Notifier.
func (o *Outbox) Notify(ctx context.Context, n notify.Notice) error {
	o.mu.Lock()
	o.notices = append(o.notices, n)
	o.mu.Unlock()
	if o.forward != nil {
		return o.forward.Notify(ctx, n)
	}
	return nil
}

// Envelope is the serialisable content of an Outbox.
type Envelope struct {
	Actions []Descriptor    `json:"actions"`
	URLs    []string        `json:"urls"`
	Notices []notify.Notice `json:"notices"`
}

// Snapshot copies the collected items.
func (o *Outbox) Snapshot() Envelope {
	o.mu.Lock()
	defer o.mu.Unlock()
	env := Envelope{
		Actions: append([]Descriptor{}, o.actions...),
		URLs:    append([]string{}, o.urls...),
		Notices: append([]notify.Notice{}, o.notices...),
	}
	return env
}
