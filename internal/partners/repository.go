package partners

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/compass-crm/compass-crm/internal/access"
)

var (
	ErrNotFound      = errors.New("partners: record not found")
	ErrAlreadyExists = errors.New("partners: record already exists")
)

// Repository provides PostgreSQL backed persistence for channel partners.
type Repository interface {
	Get(ctx context.Context, id int64) (*Partner, error)
	GetByUserID(ctx context.Context, userID int64) (*Partner, error)
	List(ctx context.Context, req ListPartnersRequest, scope access.Scope) ([]Partner, int, error)
	Create(ctx context.Context, partner Partner) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	GenerateCode(ctx context.Context, date time.Time) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const partnerColumns = `id, code, name, contact_name, email, phone, tier, territory, user_id, is_active, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Partner, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	return scanPartner(row)
}

func (r *repository) GetByUserID(ctx context.Context, userID int64) (*Partner, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE user_id = $1`, userID)
	return scanPartner(row)
}

func (r *repository) List(ctx context.Context, req ListPartnersRequest, scope access.Scope) ([]Partner, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if clause, scopeArgs := scope.Condition("territory", argCount+1); clause != "" {
		where += ` AND ` + clause
		args = append(args, scopeArgs...)
		argCount += len(scopeArgs)
	}
	if req.Tier != nil {
		argCount++
		where += ` AND tier = $` + strconv.Itoa(argCount)
		args = append(args, string(*req.Tier))
	}
	if req.IsActive != nil {
		argCount++
		where += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *req.IsActive)
	}
	if req.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM partners`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + partnerColumns + ` FROM partners` + where + ` ORDER BY name`
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

	var partners []Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, 0, err
		}
		partners = append(partners, *p)
	}
	return partners, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Partner) (int64, error) {
	var territory *string
	if p.Territory != nil {
		v := string(*p.Territory)
		territory = &v
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO partners (code, name, contact_name, email, phone, tier, territory, user_id, is_active, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()) RETURNING id`,
		p.Code, p.Name, p.ContactName, p.Email, p.Phone, string(p.Tier), territory, p.UserID, p.IsActive, p.CreatedBy,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	query := `UPDATE partners SET updated_at = NOW()`
	args := []any{}
	argCount := 0
	for _, column := range []string{"name", "contact_name", "email", "phone", "tier", "territory", "is_active"} {
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

// GenerateCode produces the next sequential partner code for the month. The
// sequence upsert is atomic, so two concurrent creators never observe the
// same value.
func (r *repository) GenerateCode(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "CP", date.Format("200601")).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CP-%s-%03d", date.Format("200601"), seq), nil
}

func scanPartner(row pgx.Row) (*Partner, error) {
	var p Partner
	var territory *string
	var tier string
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.ContactName, &p.Email, &p.Phone, &tier, &territory, &p.UserID, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Tier = PartnerTier(tier)
	if territory != nil {
		// An unknown stored territory is kept verbatim so the access filter
		// denies it rather than treating the row as untagged.
		t := access.Territory(*territory)
		p.Territory = &t
	}
	return &p, nil
}
