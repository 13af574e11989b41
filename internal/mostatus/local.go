package mostatus

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
	"github.com/odyssey-erp/mrp-dashboard/internal/platform/db"
)

// Order is the minimal view of a manufacturing order needed for bucketing.
type Order struct {
	CreatedAt time.Time
	State     string
}

// Bucket counts orders per creation day over r. Every day of r yields exactly one
// point; orders outside r or in untracked states are ignored.
func Bucket(orders []Order, r DateRange) []Point {
	days := r.Days()
	points := make([]Point, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		key := d.Format(dateLayout)
		points[i].Date = key
		index[key] = i
	}
	for _, o := range orders {
		if o.CreatedAt.IsZero() {
			continue
		}
		i, ok := index[o.CreatedAt.UTC().Format(dateLayout)]
		if !ok {
			continue
		}
		points[i].add(State(o.State))
	}
	return points
}

// Store is the Postgres surface LocalSource needs; *pgxpool.Pool satisfies it.
type Store interface {
	db.Beginner
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LocalSource computes the snapshot itself and keeps it in the mo_status_daily table.
type LocalSource struct {
	client orm.Client
	store  Store
}

// NewLocalSource constructs a LocalSource.
func NewLocalSource(client orm.Client, store Store) *LocalSource {
	return &LocalSource{client: client, store: store}
}

// Generate implements Source. Existing rows of the range are replaced atomically.
func (s *LocalSource) Generate(ctx context.Context, r DateRange) error {
	orders, err := s.orders(ctx, r)
	if err != nil {
		return err
	}
	points := Bucket(orders, r)
	return db.WithTx(ctx, s.store, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM mo_status_daily WHERE day BETWEEN $1 AND $2`, r.Start, r.End); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
		batch := &pgx.Batch{}
		for _, p := range points {
			day, err := time.ParseInLocation(dateLayout, p.Date, time.UTC)
			if err != nil {
				return err
			}
			batch.Queue(`INSERT INTO mo_status_daily (day, draft, confirmed, progress, done, cancel, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())`, day, p.Draft, p.Confirmed, p.Progress, p.Done, p.Cancel)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		return nil
	})
}

// Points implements Source.
func (s *LocalSource) Points(ctx context.Context, r DateRange) ([]Point, error) {
	rows, err := s.store.Query(ctx, `SELECT day, draft, confirmed, progress, done, cancel
FROM mo_status_daily WHERE day BETWEEN $1 AND $2 ORDER BY day ASC`, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	defer rows.Close()

	points := make([]Point, 0)
	for rows.Next() {
		var (
			day time.Time
			p   Point
		)
		if err := rows.Scan(&day, &p.Draft, &p.Confirmed, &p.Progress, &p.Done, &p.Cancel); err != nil {
			return nil, err
		}
		p.Date = day.Format(dateLayout)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

func (s *LocalSource) orders(ctx context.Context, r DateRange) ([]Order, error) {
	end := r.End.AddDate(0, 0, 1)
	rows, err := s.client.SearchRead(ctx, ModelProduction, orm.Domain{
		orm.Where("create_date", orm.OpGte, r.Start.Format(orm.DatetimeLayout)),
		orm.Where("create_date", orm.OpLt, end.Format(orm.DatetimeLayout)),
	}, []string{"create_date", "state"}, orm.SearchOptions{})
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	orders := make([]Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, Order{CreatedAt: row.Time("create_date"), State: row.String("state")})
	}
	return orders, nil
}
