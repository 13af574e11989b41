package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrViewNotFound is returned for unknown or expired view ids.
var ErrViewNotFound = errors.New("hierarchy: view not found")

// IDSet is a set of node ids. It marshals as a sorted list.
type IDSet map[ID]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Toggle returns a copy with id removed when present and added otherwise.
func (s IDSet) Toggle(id ID) IDSet {
	out := make(IDSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	if _, ok := out[id]; ok {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

// Slice returns the members in sorted order.
func (s IDSet) Slice() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON implements json.Marshaler.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []ID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// ViewState holds which deliveries and components are expanded. Both sets start empty.
type ViewState struct {
	ExpandedDeliveries IDSet `json:"expanded_deliveries"`
	ExpandedComponents IDSet `json:"expanded_components"`
}

// NewViewState returns the initial, fully collapsed state.
func NewViewState() ViewState {
	return ViewState{ExpandedDeliveries: IDSet{}, ExpandedComponents: IDSet{}}
}

// ToggleDelivery flips the expansion of a delivery.
func (v ViewState) ToggleDelivery(id ID) ViewState {
	v.ExpandedDeliveries = v.ExpandedDeliveries.Toggle(id)
	return v
}

// ToggleComponent flips the expansion of a component.
func (v ViewState) ToggleComponent(id ID) ViewState {
	v.ExpandedComponents = v.ExpandedComponents.Toggle(id)
	return v
}

// IsDeliveryExpanded reports whether a delivery is expanded.
func (v ViewState) IsDeliveryExpanded(id ID) bool { return v.ExpandedDeliveries.Has(id) }

// IsComponentExpanded reports whether a component is expanded.
func (v ViewState) IsComponentExpanded(id ID) bool { return v.ExpandedComponents.Has(id) }

const viewKeyPrefix = "hierarchy:view:"

// ViewStore keeps view states in Redis for the lifetime of a browser session.
type ViewStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewViewStore constructs a ViewStore.
func NewViewStore(client *redis.Client, ttl time.Duration) *ViewStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &ViewStore{client: client, ttl: ttl}
}

// Create stores a fresh collapsed state under a new id.
func (s *ViewStore) Create(ctx context.Context) (string, ViewState, error) {
	id := uuid.NewString()
	state := NewViewState()
	if err := s.Save(ctx, id, state); err != nil {
		return "", ViewState{}, err
	}
	return id, state, nil
}

// Get loads a state.
func (s *ViewStore) Get(ctx context.Context, id string) (ViewState, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ViewState{}, ErrViewNotFound
	}
	payload, err := s.client.Get(ctx, viewKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return ViewState{}, ErrViewNotFound
	}
	if err != nil {
		return ViewState{}, fmt.Errorf("load view: %w", err)
	}
	state := NewViewState()
	if err := json.Unmarshal(payload, &state); err != nil {
		return ViewState{}, fmt.Errorf("decode view: %w", err)
	}
	if state.ExpandedDeliveries == nil {
		state.ExpandedDeliveries = IDSet{}
	}
	if state.ExpandedComponents == nil {
		state.ExpandedComponents = IDSet{}
	}
	return state, nil
}

// Save overwrites a state and refreshes its expiry.
func (s *ViewStore) Save(ctx context.Context, id string, state ViewState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, viewKeyPrefix+id, payload, s.ttl).Err()
}

// Update applies fn to the stored state and saves the result. Concurrent updates to the
// same view are last-write-wins.
func (s *ViewStore) Update(ctx context.Context, id string, fn func(ViewState) ViewState) (ViewState, error) {
	state, err := s.Get(ctx, id)
	if err != nil {
		return ViewState{}, err
	}
	state = fn(state)
	if err := s.Save(ctx, id, state); err != nil {
		return ViewState{}, err
	}
	return state, nil
}
