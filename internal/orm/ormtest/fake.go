// Package ormtest provides an in-memory orm.Client for tests.
package ormtest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

// Invocation records one call made against the fake.
type Invocation struct {
	Kind   string
	Model  string
	Method string
	Domain orm.Domain
	Fields []string
	Opts   orm.SearchOptions
	Args   []any
}

// Fake dispatches calls to per-kind functions and records every invocation.
type Fake struct {
	SearchReadFunc  func(model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error)
	SearchCountFunc func(model string, domain orm.Domain) (int, error)
	CallFunc        func(model, method string, args []any) (json.RawMessage, error)

	mu    sync.Mutex
	calls []Invocation
}

// SearchRead implements orm.Client.
func (f *Fake) SearchRead(ctx context.Context, model string, domain orm.Domain, fields []string, opts orm.SearchOptions) ([]orm.Record, error) {
	f.record(Invocation{Kind: "search_read", Model: model, Domain: domain, Fields: fields, Opts: opts})
	if f.SearchReadFunc == nil {
		return nil, nil
	}
	return f.SearchReadFunc(model, domain, fields, opts)
}

// SearchCount implements orm.Client.
func (f *Fake) SearchCount(ctx context.Context, model string, domain orm.Domain) (int, error) {
	f.record(Invocation{Kind: "search_count", Model: model, Domain: domain})
	if f.SearchCountFunc == nil {
		return 0, nil
	}
	return f.SearchCountFunc(model, domain)
}

// Call implements orm.Client.
func (f *Fake) Call(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	f.record(Invocation{Kind: "call", Model: model, Method: method, Args: args})
	if f.CallFunc == nil {
		return json.RawMessage("null"), nil
	}
	return f.CallFunc(model, method, args)
}

// Calls returns a snapshot of recorded invocations.
func (f *Fake) Calls() []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Invocation, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded invocations for a model.
func (f *Fake) CallsTo(model string) []Invocation {
	var out []Invocation
	for _, c := range f.Calls() {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) record(inv Invocation) {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()
}

// Rows decodes a JSON array literal into records the same way the real client does,
// so tests see json.Number values.
func Rows(raw string) []orm.Record {
	rows, err := orm.DecodeRecords(json.RawMessage(raw))
	if err != nil {
		panic(err)
	}
	return rows
}

// JSON marshals v or panics; handy for CallFunc results.
func JSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
