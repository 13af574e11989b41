package mostatus

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/mrp-dashboard/internal/action"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

// Card names a production overview card.
type Card string

// Overview cards.
const (
	CardAll            Card = "all"
	CardWorkInProgress Card = "work_in_progress"
	CardWaiting        Card = "waiting_materials"
	CardCompletedToday Card = "completed_today"
)

var cardTitles = map[Card]string{
	CardAll:            "All Manufacturing",
	CardWorkInProgress: "Work In Progress",
	CardWaiting:        "Waiting for Materials",
	CardCompletedToday: "Completed Today",
}

// Cards lists the overview cards in display order.
func Cards() []Card {
	return []Card{CardAll, CardWorkInProgress, CardWaiting, CardCompletedToday}
}

// ParseCard validates a card name.
func ParseCard(name string) (Card, error) {
	c := Card(name)
	if _, ok := cardTitles[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCard, name)
	}
	return c, nil
}

// Title is the card's display name.
func (c Card) Title() string { return cardTitles[c] }

// CountKind selects one of a card's counters.
type CountKind string

// Counters shown on each card.
const (
	KindAll        CountKind = "all"
	KindReady      CountKind = "ready"
	KindWaiting    CountKind = "waiting"
	KindLate       CountKind = "late"
	KindInProgress CountKind = "in_progress"
)

// CardCounts holds a card's counters.
type CardCounts struct {
	Card       Card   `json:"card"`
	Title      string `json:"title"`
	Ready      int    `json:"ready"`
	Waiting    int    `json:"waiting"`
	Late       int    `json:"late"`
	InProgress int    `json:"in_progress"`
}

func dayBounds(now time.Time) (string, string) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24*time.Hour - time.Second)
	return start.Format(orm.DatetimeLayout), end.Format(orm.DatetimeLayout)
}

func completedToday(now time.Time) orm.Domain {
	start, end := dayBounds(now)
	return orm.Domain{
		orm.Where("state", orm.OpEq, "done"),
		orm.Where("date_finished", orm.OpGte, start),
		orm.Where("date_finished", orm.OpLte, end),
	}
}

// BaseDomain returns the card's base manufacturing order filter.
func (c Card) BaseDomain(now time.Time) orm.Domain {
	switch c {
	case CardWorkInProgress:
		return orm.Domain{orm.Where("state", orm.OpIn, []string{"confirmed", "progress"})}
	case CardWaiting:
		return orm.Domain{orm.Where("state", orm.OpEq, "confirmed"), orm.Where("reservation_state", orm.OpEq, "waiting")}
	case CardCompletedToday:
		return completedToday(now)
	default:
		return orm.Domain{}
	}
}

// KindDomain returns the filter behind one counter. Completed Today uses its base
// filter for every counter.
func (c Card) KindDomain(kind CountKind, now time.Time) orm.Domain {
	base := c.BaseDomain(now)
	if c == CardCompletedToday {
		return base
	}
	switch kind {
	case KindReady:
		return base.And(
			orm.Where("state", orm.OpIn, []string{"confirmed", "planned", "draft"}),
			orm.Where("reservation_state", orm.OpEq, "assigned"))
	case KindWaiting:
		return base.And(
			orm.Where("state", orm.OpIn, []string{"confirmed", "planned", "draft"}),
			orm.Where("reservation_state", orm.OpEq, "waiting"))
	case KindLate:
		return base.And(
			orm.Where("state", orm.OpIn, []string{"confirmed", "planned", "progress", "to_close", "draft"}),
			orm.Where("date_start", orm.OpLt, now.Format(orm.DatetimeLayout)))
	case KindInProgress:
		return base.And(orm.Where("state", orm.OpIn, []string{"progress", "to_close"}))
	default:
		return base
	}
}

// CardCounts computes the counters of a card.
func (s *Service) CardCounts(ctx context.Context, c Card, now time.Time) (CardCounts, error) {
	counts := CardCounts{Card: c, Title: c.Title()}
	if c == CardCompletedToday {
		n, err := s.client.SearchCount(ctx, ModelProduction, c.BaseDomain(now))
		if err != nil {
			return CardCounts{}, err
		}
		counts.Ready, counts.Waiting, counts.Late, counts.InProgress = n, n, n, n
		return counts, nil
	}
	targets := []struct {
		kind CountKind
		dst  *int
	}{
		{KindReady, &counts.Ready},
		{KindWaiting, &counts.Waiting},
		{KindLate, &counts.Late},
		{KindInProgress, &counts.InProgress},
	}
	for _, t := range targets {
		n, err := s.client.SearchCount(ctx, ModelProduction, c.KindDomain(t.kind, now))
		if err != nil {
			return CardCounts{}, fmt.Errorf("count %s/%s: %w", c, t.kind, err)
		}
		*t.dst = n
	}
	return counts, nil
}

var kindTitles = map[CountKind]string{
	KindReady:      "Ready to Process",
	KindWaiting:    "Waiting",
	KindLate:       "Late Operations",
	KindInProgress: "In Progress",
}

// CardAction builds the list action opening the orders behind a counter.
func CardAction(c Card, kind CountKind, now time.Time) action.Descriptor {
	name := c.Title()
	if c != CardCompletedToday {
		if title, ok := kindTitles[kind]; ok {
			name = title
		}
	}
	d := action.OpenList(name, ModelProduction, c.KindDomain(kind, now))
	if c != CardCompletedToday && (kind == KindAll || kind == KindReady) {
		d["context"] = map[string]any{"search_default_todo": 1}
	} else {
		d["context"] = map[string]any{}
	}
	return d
}
