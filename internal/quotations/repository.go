package quotations

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/db"
)

var ErrNotFound = errors.New("quotations: record not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest, scope access.Scope) ([]Quotation, int, error)
	Create(ctx context.Context, quotation Quotation) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	InsertLine(ctx context.Context, line QuotationLine) (int64, error)
	DeleteLines(ctx context.Context, quotationID int64) error
	UpdateStatus(ctx context.Context, id int64, status QuotationStatus, userID int64, reason *string) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{pool: r.pool, tx: tx})
	})
}

func (r *repository) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if r.tx != nil {
		tag, err := r.tx.Exec(ctx, sql, args...)
		return tag.RowsAffected(), err
	}
	tag, err := r.pool.Exec(ctx, sql, args...)
	return tag.RowsAffected(), err
}

func (r *repository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if r.tx != nil {
		return r.tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *repository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if r.tx != nil {
		return r.tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

const quotationColumns = `id, doc_number, lead_id, partner_id, customer_name, territory, quote_date, valid_until, status, currency, subtotal, tax_amount, total_amount, notes, created_by, approved_by, approved_at, rejected_by, rejected_at, rejection_reason, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	row := r.queryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	q, err := scanQuotation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.query(ctx, `SELECT id, quotation_id, description, quantity, uom, unit_price, discount_percent, discount_amount, tax_percent, tax_amount, line_total, line_order, created_at, updated_at FROM quotation_lines WHERE quotation_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line QuotationLine
		if err := rows.Scan(&line.ID, &line.QuotationID, &line.Description, &line.Quantity, &line.UOM, &line.UnitPrice, &line.DiscountPercent, &line.DiscountAmount, &line.TaxPercent, &line.TaxAmount, &line.LineTotal, &line.LineOrder, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		q.Lines = append(q.Lines, line)
	}
	return q, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest, scope access.Scope) ([]Quotation, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if clause, scopeArgs := scope.Condition("territory", argCount+1); clause != "" {
		where += ` AND ` + clause
		args = append(args, scopeArgs...)
		argCount += len(scopeArgs)
	}
	if req.Status != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(*req.Status))
	}
	if req.LeadID != nil {
		argCount++
		where += ` AND lead_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.LeadID)
	}
	if req.PartnerID != nil {
		argCount++
		where += ` AND partner_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.PartnerID)
	}
	if req.DateFrom != nil {
		argCount++
		where += ` AND quote_date >= $` + strconv.Itoa(argCount)
		args = append(args, *req.DateFrom)
	}
	if req.DateTo != nil {
		argCount++
		where += ` AND quote_date <= $` + strconv.Itoa(argCount)
		args = append(args, *req.DateTo)
	}

	var total int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM quotations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + quotationColumns + ` FROM quotations` + where + ` ORDER BY quote_date DESC, id DESC`
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

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotations []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		quotations = append(quotations, *q)
	}
	return quotations, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	var territory *string
	if q.Territory != nil {
		v := string(*q.Territory)
		territory = &v
	}
	var id int64
	err := r.queryRow(ctx,
		`INSERT INTO quotations (doc_number, lead_id, partner_id, customer_name, territory, quote_date, valid_until, status, currency, subtotal, tax_amount, total_amount, notes, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()) RETURNING id`,
		q.DocNumber, q.LeadID, q.PartnerID, q.CustomerName, territory, q.QuoteDate, q.ValidUntil, string(q.Status), q.Currency, q.Subtotal, q.TaxAmount, q.TotalAmount, q.Notes, q.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	query := `UPDATE quotations SET updated_at = NOW()`
	args := []any{}
	argCount := 0
	for _, column := range []string{"quote_date", "valid_until", "notes", "subtotal", "tax_amount", "total_amount"} {
		value, ok := updates[column]
		if !ok {
			continue
		}
		argCount++
		query += `, ` + column + ` = $` + strconv.Itoa(argCount)
		args = append(args, value)
	}
	argCount++
	query += ` WHERE id = $` + strconv.Itoa(argCount)
	args = append(args, id)

	affected, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertLine(ctx context.Context, line QuotationLine) (int64, error) {
	var id int64
	err := r.queryRow(ctx,
		`INSERT INTO quotation_lines (quotation_id, description, quantity, uom, unit_price, discount_percent, discount_amount, tax_percent, tax_amount, line_total, line_order, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()) RETURNING id`,
		line.QuotationID, line.Description, line.Quantity, line.UOM, line.UnitPrice, line.DiscountPercent, line.DiscountAmount, line.TaxPercent, line.TaxAmount, line.LineTotal, line.LineOrder,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, quotationID int64) error {
	_, err := r.exec(ctx, `DELETE FROM quotation_lines WHERE quotation_id = $1`, quotationID)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status QuotationStatus, userID int64, reason *string) error {
	var query string
	args := []any{string(status), id}
	switch status {
	case QuotationStatusApproved:
		query = `UPDATE quotations SET status = $1, approved_by = $3, approved_at = NOW(), updated_at = NOW() WHERE id = $2`
		args = append(args, userID)
	case QuotationStatusRejected:
		query = `UPDATE quotations SET status = $1, rejected_by = $3, rejected_at = NOW(), rejection_reason = $4, updated_at = NOW() WHERE id = $2`
		args = append(args, userID, reason)
	default:
		query = `UPDATE quotations SET status = $1, updated_at = NOW() WHERE id = $2`
	}
	affected, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GenerateNumber produces the next sequential document number for the month,
// e.g. QUO-202608-0042. The sequence upsert is atomic, so two concurrent
// creators never observe the same value.
func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	err := r.queryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "QUO", date.Format("200601")).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("QUO-%s-%04d", date.Format("200601"), seq), nil
}

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	var territory *string
	var status string
	err := row.Scan(&q.ID, &q.DocNumber, &q.LeadID, &q.PartnerID, &q.CustomerName, &territory, &q.QuoteDate, &q.ValidUntil, &status, &q.Currency, &q.Subtotal, &q.TaxAmount, &q.TotalAmount, &q.Notes, &q.CreatedBy, &q.ApprovedBy, &q.ApprovedAt, &q.RejectedBy, &q.RejectedAt, &q.RejectionReason, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.Status = QuotationStatus(status)
	if territory != nil {
		// An unknown stored territory is kept verbatim so the access filter
		// denies it rather than treating the row as untagged.
		t := access.Territory(*territory)
		q.Territory = &t
	}
	return &q, nil
}
