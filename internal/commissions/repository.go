package commissions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/partners"
	"github.com/compass-crm/compass-crm/internal/platform/db"
)

var ErrNotFound = errors.New("commissions: record not found")

// CommissionBase is one approved quotation that earns commission for a
// partner in a period.
type CommissionBase struct {
	QuotationID int64
	PartnerID   int64
	Territory   *access.Territory
	TotalAmount float64
	Tier        partners.PartnerTier
}

// Repository provides PostgreSQL backed persistence for commission entries.
type Repository interface {
	Get(ctx context.Context, id int64) (*Entry, error)
	List(ctx context.Context, req ListEntriesRequest, scope access.Scope) ([]Entry, int, error)
	Summaries(ctx context.Context, period string, scope access.Scope) ([]Summary, error)
	MarkPaid(ctx context.Context, id, actorID int64) error
	BasesForPeriod(ctx context.Context, period time.Time) ([]CommissionBase, error)
	ReplacePending(ctx context.Context, period string, entries []Entry) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const entryColumns = `id, partner_id, period, quotation_id, territory, base_amount, rate_percent, amount, status, paid_at, paid_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM commission_entries WHERE id = $1`, id)
	return scanEntry(row)
}

func (r *repository) List(ctx context.Context, req ListEntriesRequest, scope access.Scope) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if clause, scopeArgs := scope.Condition("territory", argCount+1); clause != "" {
		where += ` AND ` + clause
		args = append(args, scopeArgs...)
		argCount += len(scopeArgs)
	}
	if req.Period != "" {
		argCount++
		where += ` AND period = $` + strconv.Itoa(argCount)
		args = append(args, req.Period)
	}
	if req.PartnerID != nil {
		argCount++
		where += ` AND partner_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.PartnerID)
	}
	if req.Status != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(*req.Status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM commission_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + entryColumns + ` FROM commission_entries` + where + ` ORDER BY period DESC, id DESC`
	if req.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, req.PerPage)

		offset := (req.Page - 1) * req.PerPage
		if offset < 0 {
			offset = 0
		}
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}
	return entries, total, rows.Err()
}

func (r *repository) Summaries(ctx context.Context, period string, scope access.Scope) ([]Summary, error) {
	query := `SELECT e.partner_id, p.name, e.period, COUNT(*),
			COALESCE(SUM(e.amount), 0),
			COALESCE(SUM(e.amount) FILTER (WHERE e.status = 'PAID'), 0)
		FROM commission_entries e
		JOIN partners p ON p.id = e.partner_id
		WHERE e.period = $1`
	args := []any{period}
	if clause, scopeArgs := scope.Condition("e.territory", len(args)+1); clause != "" {
		query += ` AND ` + clause
		args = append(args, scopeArgs...)
	}
	query += ` GROUP BY e.partner_id, p.name, e.period ORDER BY p.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.PartnerID, &s.PartnerName, &s.Period, &s.EntryCount, &s.TotalAmount, &s.PaidAmount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *repository) MarkPaid(ctx context.Context, id, actorID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE commission_entries SET status = 'PAID', paid_at = NOW(), paid_by = $2, updated_at = NOW() WHERE id = $1 AND status = 'PENDING'`,
		id, actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BasesForPeriod collects the approved quotations linked to active partners
// whose approval fell inside the given month.
func (r *repository) BasesForPeriod(ctx context.Context, period time.Time) ([]CommissionBase, error) {
	start := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.partner_id, q.territory, q.total_amount, p.tier
		 FROM quotations q
		 JOIN partners p ON p.id = q.partner_id
		 WHERE q.status = 'APPROVED'
		   AND q.partner_id IS NOT NULL
		   AND p.is_active
		   AND q.approved_at >= $1 AND q.approved_at < $2
		 ORDER BY q.id`,
		start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bases []CommissionBase
	for rows.Next() {
		var b CommissionBase
		var territory *string
		var tier string
		if err := rows.Scan(&b.QuotationID, &b.PartnerID, &territory, &b.TotalAmount, &tier); err != nil {
			return nil, err
		}
		b.Tier = partners.PartnerTier(tier)
		if territory != nil {
			t := access.Territory(*territory)
			b.Territory = &t
		}
		bases = append(bases, b)
	}
	return bases, rows.Err()
}

// ReplacePending swaps out the period's unpaid entries atomically. Paid
// entries are never touched.
func (r *repository) ReplacePending(ctx context.Context, period string, entries []Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM commission_entries WHERE period = $1 AND status = 'PENDING'`, period); err != nil {
			return err
		}
		for _, e := range entries {
			var territory *string
			if e.Territory != nil {
				v := string(*e.Territory)
				territory = &v
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO commission_entries (partner_id, period, quotation_id, territory, base_amount, rate_percent, amount, status, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, 'PENDING', NOW(), NOW())
				 ON CONFLICT (quotation_id) DO NOTHING`,
				e.PartnerID, period, e.QuotationID, territory, e.BaseAmount, e.RatePercent, e.Amount)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var territory *string
	var status string
	err := row.Scan(&e.ID, &e.PartnerID, &e.Period, &e.QuotationID, &territory, &e.BaseAmount, &e.RatePercent, &e.Amount, &status, &e.PaidAt, &e.PaidBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.Status = EntryStatus(status)
	if territory != nil {
		// An unknown stored territory is kept verbatim so the access filter
		// denies it rather than treating the row as untagged.
		t := access.Territory(*territory)
		e.Territory = &t
	}
	return &e, nil
}
