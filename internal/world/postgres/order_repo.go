// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/world"
)

const orderColumns = `id, unit_id, player_id,
	origin_type, origin_planet_id, origin_face, origin_u, origin_v, origin_system_id,
	dest_type, dest_planet_id, dest_face, dest_u, dest_v, dest_system_id,
	arrival_time, status, created_at, resolved_at`

// OrderRepository implements world.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(pool Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Get retrieves an order by ID.
func (r *OrderRepository) Get(ctx context.Context, id ulid.ULID) (*world.MoveOrder, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM move_orders WHERE id = $1`, id.String())
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orderNotFound(id)
	}
	if err != nil {
		return nil, oops.With("order_id", id.String()).Wrap(classify(err, "get order", ""))
	}
	return o, nil
}

// Create persists a new pending order.
func (r *OrderRepository) Create(ctx context.Context, order *world.MoveOrder) error {
	args := []any{order.ID.String(), order.UnitID.String(), order.PlayerID}
	args = append(args, locationArgs(order.Origin)...)
	args = append(args, locationArgs(order.Destination)...)
	args = append(args, order.ArrivalTime, string(order.Status), order.CreatedAt, order.ResolvedAt)
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO move_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, args...)
	if err != nil {
		return oops.With("order_id", order.ID.String()).Wrap(classify(err, "create order", "ORDER_EXISTS"))
	}
	return nil
}

// ListDue returns up to limit pending orders due at now, earliest first.
func (r *OrderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]world.DueOrder, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, unit_id, arrival_time FROM move_orders
		WHERE status = 'pending' AND arrival_time <= $1
		ORDER BY arrival_time, id
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, oops.Code("ORDER_QUERY_FAILED").Wrap(classify(err, "list due orders", ""))
	}
	defer rows.Close()

	var due []world.DueOrder
	for rows.Next() {
		var idStr, unitStr string
		var d world.DueOrder
		if err := rows.Scan(&idStr, &unitStr, &d.ArrivalTime); err != nil {
			return nil, oops.Code("ORDER_QUERY_FAILED").With("operation", "scan due order").Wrap(err)
		}
		if d.ID, err = ulid.Parse(idStr); err != nil {
			return nil, oops.Code("CORRUPT_ID").With("order_id", idStr).Wrap(err)
		}
		if d.UnitID, err = ulid.Parse(unitStr); err != nil {
			return nil, oops.Code("CORRUPT_ID").With("unit_id", unitStr).Wrap(err)
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ORDER_QUERY_FAILED").With("operation", "iterate due orders").Wrap(err)
	}
	return due, nil
}

// ListPendingByUnit returns the unit's pending orders, earliest arrival first.
func (r *OrderRepository) ListPendingByUnit(ctx context.Context, unitID ulid.ULID) ([]*world.MoveOrder, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+orderColumns+` FROM move_orders
		WHERE unit_id = $1 AND status = 'pending'
		ORDER BY arrival_time, id
	`, unitID.String())
	if err != nil {
		return nil, oops.With("unit_id", unitID.String()).Wrap(classify(err, "list pending orders by unit", ""))
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListPendingByPlayer returns the player's pending orders, earliest arrival first.
func (r *OrderRepository) ListPendingByPlayer(ctx context.Context, playerID int64) ([]*world.MoveOrder, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+orderColumns+` FROM move_orders
		WHERE player_id = $1 AND status = 'pending'
		ORDER BY arrival_time, id
	`, playerID)
	if err != nil {
		return nil, oops.With("player_id", playerID).Wrap(classify(err, "list pending orders by player", ""))
	}
	defer rows.Close()
	return scanOrders(rows)
}

// CountPending returns the pending order count and how many are due at now.
func (r *OrderRepository) CountPending(ctx context.Context, now time.Time) (pending, due int, err error) {
	var p, d int64
	err = conn(ctx, r.pool).QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE arrival_time <= $1)
		FROM move_orders WHERE status = 'pending'
	`, now).Scan(&p, &d)
	if err != nil {
		return 0, 0, classify(err, "count pending orders", "")
	}
	return int(p), int(d), nil
}

// Resolve moves the order's unit and marks the order resolved in one
// transaction. Both rows are locked first, so a concurrent resolution of the
// same order waits and then observes it resolved. An order is refused while
// an earlier order of its unit is pending.
func (r *OrderRepository) Resolve(ctx context.Context, orderID, unitID ulid.ULID, resolvedAt time.Time) (*world.Resolution, error) {
	var res *world.Resolution
	err := inTx(ctx, r.pool, func(ctx context.Context) error {
		q := conn(ctx, r.pool)

		order, err := scanOrder(q.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM move_orders WHERE id = $1 FOR UPDATE`, orderID.String()))
		if errors.Is(err, pgx.ErrNoRows) {
			return orderNotFound(orderID)
		}
		if err != nil {
			return oops.With("order_id", orderID.String()).Wrap(classify(err, "lock order", ""))
		}
		if !order.IsPending() {
			return alreadyResolved(orderID)
		}
		if order.UnitID != unitID {
			return oops.Code("ORDER_UNIT_MISMATCH").
				With("order_id", orderID.String()).
				With("unit_id", unitID.String()).
				Wrapf(world.ErrUnitMismatch, "order belongs to unit %s", order.UnitID)
		}

		unit, err := NewUnitRepository(r.pool).GetForUpdate(ctx, order.UnitID)
		if err != nil {
			return err
		}

		var earlier bool
		if err := q.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM move_orders
				WHERE unit_id = $1 AND status = 'pending' AND (arrival_time, id) < ($2, $3)
			)
		`, order.UnitID.String(), order.ArrivalTime, order.ID.String()).Scan(&earlier); err != nil {
			return oops.With("order_id", orderID.String()).Wrap(classify(err, "check earlier orders", ""))
		}
		if earlier {
			return oops.Code("ORDER_OUT_OF_SEQUENCE").
				With("order_id", orderID.String()).
				With("unit_id", order.UnitID.String()).
				Wrap(world.ErrEarlierOrderPending)
		}

		args := append([]any{unit.ID.String()}, locationArgs(order.Destination)...)
		if _, err := q.Exec(ctx, `
			UPDATE units SET location_type = $2, planet_id = $3, face = $4, u = $5, v = $6, system_id = $7
			WHERE id = $1
		`, args...); err != nil {
			return oops.With("unit_id", unit.ID.String()).Wrap(classify(err, "move unit", ""))
		}

		tag, err := q.Exec(ctx,
			`UPDATE move_orders SET status = 'resolved', resolved_at = $2 WHERE id = $1 AND status = 'pending'`,
			orderID.String(), resolvedAt)
		if err != nil {
			return oops.With("order_id", orderID.String()).Wrap(classify(err, "mark order resolved", ""))
		}
		if tag.RowsAffected() == 0 {
			return alreadyResolved(orderID)
		}

		previous := unit.Location
		unit.Location = order.Destination
		order.Status = world.OrderResolved
		at := resolvedAt
		order.ResolvedAt = &at
		res = &world.Resolution{Order: order, Unit: unit, Previous: previous}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// MarkFailed moves a pending order to the failed status and records why.
func (r *OrderRepository) MarkFailed(ctx context.Context, orderID ulid.ULID, reason string, at time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE move_orders SET status = 'failed', failed_at = $2, failure_reason = $3
		WHERE id = $1 AND status = 'pending'
	`, orderID.String(), at, reason)
	if err != nil {
		return oops.With("order_id", orderID.String()).Wrap(classify(err, "mark order failed", ""))
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ORDER_NOT_PENDING").
			With("order_id", orderID.String()).
			Wrap(world.ErrOrderResolved)
	}
	return nil
}

func orderNotFound(id ulid.ULID) error {
	return oops.Code("ORDER_NOT_FOUND").With("order_id", id.String()).Wrap(world.ErrNotFound)
}

func alreadyResolved(id ulid.ULID) error {
	return oops.Code("ORDER_ALREADY_RESOLVED").With("order_id", id.String()).Wrap(world.ErrOrderResolved)
}

func scanOrder(row rowScanner) (*world.MoveOrder, error) {
	var (
		o              world.MoveOrder
		idStr, unitStr string
		status         string
		origin, dest   world.LocationRecord
	)
	targets := []any{&idStr, &unitStr, &o.PlayerID}
	targets = append(targets, locationTargets(&origin)...)
	targets = append(targets, locationTargets(&dest)...)
	targets = append(targets, &o.ArrivalTime, &status, &o.CreatedAt, &o.ResolvedAt)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	var err error
	if o.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("CORRUPT_ID").With("order_id", idStr).Wrap(err)
	}
	if o.UnitID, err = ulid.Parse(unitStr); err != nil {
		return nil, oops.Code("CORRUPT_ID").With("unit_id", unitStr).Wrap(err)
	}
	if o.Origin, err = origin.Decode(); err != nil {
		return nil, oops.With("order_id", idStr).With("column", "origin").Wrap(err)
	}
	if o.Destination, err = dest.Decode(); err != nil {
		return nil, oops.With("order_id", idStr).With("column", "destination").Wrap(err)
	}
	o.Status = world.OrderStatus(status)
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]*world.MoveOrder, error) {
	var orders []*world.MoveOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, oops.With("operation", "scan order").Wrap(err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate orders").Wrap(err)
	}
	return orders, nil
}
