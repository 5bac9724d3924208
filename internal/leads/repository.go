package leads

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/compass-crm/compass-crm/internal/access"
)

var ErrNotFound = errors.New("leads: record not found")

// Repository provides PostgreSQL backed persistence for leads.
type Repository interface {
	Get(ctx context.Context, id int64) (*Lead, error)
	List(ctx context.Context, req ListLeadsRequest, scope access.Scope) ([]Lead, int, error)
	Create(ctx context.Context, lead Lead) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	UpdateStatus(ctx context.Context, id int64, status LeadStatus) error
	MarkStale(ctx context.Context, inactiveSince time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const leadColumns = `id, ref_code, name, company, email, phone, territory, status, source, owner_id, notes, last_activity_at, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

func (r *repository) List(ctx context.Context, req ListLeadsRequest, scope access.Scope) ([]Lead, int, error) {
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
	if req.OwnerID != nil {
		argCount++
		where += ` AND owner_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.OwnerID)
	}
	if req.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR company ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+req.Search+"%")
	}
	if req.Since != nil {
		argCount++
		where += ` AND created_at >= $` + strconv.Itoa(argCount)
		args = append(args, *req.Since)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where + ` ORDER BY created_at DESC`
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

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *lead)
	}
	return leads, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, lead Lead) (int64, error) {
	var territory *string
	if lead.Territory != nil {
		v := string(*lead.Territory)
		territory = &v
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO leads (ref_code, name, company, email, phone, territory, status, source, owner_id, notes, last_activity_at, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), $11, NOW(), NOW()) RETURNING id`,
		lead.RefCode, lead.Name, lead.Company, lead.Email, lead.Phone, territory, string(lead.Status), lead.Source, lead.OwnerID, lead.Notes, lead.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	query := `UPDATE leads SET updated_at = NOW(), last_activity_at = NOW()`
	args := []any{}
	argCount := 0
	for _, column := range []string{"name", "company", "email", "phone", "territory", "owner_id", "notes"} {
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

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status LeadStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $1, last_activity_at = NOW(), updated_at = NOW() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkStale flips NEW and CONTACTED leads with no activity since the cutoff
// to STALE. Returns the number of affected rows.
func (r *repository) MarkStale(ctx context.Context, inactiveSince time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = NOW() WHERE status = ANY($2) AND last_activity_at < $3`,
		string(StatusStale), []string{string(StatusNew), string(StatusContacted)}, inactiveSince)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	var territory *string
	var status string
	err := row.Scan(&l.ID, &l.RefCode, &l.Name, &l.Company, &l.Email, &l.Phone, &territory, &status, &l.Source, &l.OwnerID, &l.Notes, &l.LastActivityAt, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Status = LeadStatus(status)
	if territory != nil {
		// An unknown stored territory is kept verbatim so the access filter
		// denies it rather than treating the row as untagged.
		t := access.Territory(*territory)
		l.Territory = &t
	}
	return &l, nil
}
