package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"clientbooks/internal/records/models"
	"clientbooks/pkg/platform/sentinel"
)

// Postgres persists records in PostgreSQL. The unique index on email is the
// final arbiter of the check-then-write race: a lost race maps SQLSTATE
// 23505 to sentinel.ErrConflict.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects a pool and applies the schema.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	s := &Postgres{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases database resources.
func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Postgres) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS financial_records (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			revenue NUMERIC(30,6) NOT NULL DEFAULT 0,
			expenses NUMERIC(30,6) NOT NULL DEFAULT 0,
			net_profit NUMERIC(30,6) NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			tags JSONB NOT NULL DEFAULT '[]',
			attachments JSONB NOT NULL DEFAULT '[]',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS financial_records_email_unique_idx ON financial_records (email);`,
		`CREATE INDEX IF NOT EXISTS financial_records_created_at_idx ON financial_records (created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS financial_records_name_search_idx ON financial_records (lower(name));`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const recordColumns = `id, name, email, phone, revenue, expenses, net_profit, notes, tags, attachments, created_by, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, record *models.Record) error {
	tags, attachments, err := marshalJSONFields(record)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO financial_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		record.ID, record.Name, record.Email, record.Phone,
		record.Financials.Revenue, record.Financials.Expenses, record.Financials.NetProfit,
		record.Notes, tags, attachments,
		record.CreatedBy, record.CreatedAt, record.UpdatedAt,
	)
	return translatePgError(err, "insert record")
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+recordColumns+` FROM financial_records WHERE id = $1`, id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, translatePgError(err, "find record")
	}
	return record, nil
}

func (s *Postgres) Update(ctx context.Context, record *models.Record) error {
	tags, attachments, err := marshalJSONFields(record)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE financial_records
		SET name = $2, email = $3, phone = $4,
			revenue = $5, expenses = $6, net_profit = $7,
			notes = $8, tags = $9, attachments = $10, updated_at = $11
		WHERE id = $1`,
		record.ID, record.Name, record.Email, record.Phone,
		record.Financials.Revenue, record.Financials.Expenses, record.Financials.NetProfit,
		record.Notes, tags, attachments, record.UpdatedAt,
	)
	if err != nil {
		return translatePgError(err, "update record")
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM financial_records WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err, "delete record")
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, query ListQuery) (ListResult, error) {
	query.Normalize()

	where, args := buildListWhere(query)

	var total int
	countSQL := `SELECT COUNT(*) FROM financial_records` + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return ListResult{}, translatePgError(err, "count records")
	}

	pageArgs := append(args, query.Limit, (query.Page-1)*query.Limit)
	pageSQL := fmt.Sprintf(`SELECT `+recordColumns+` FROM financial_records%s
		ORDER BY created_at DESC, id ASC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	rows, err := s.pool.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return ListResult{}, translatePgError(err, "list records")
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Records:      records,
		TotalClients: total,
		TotalPages:   (total + query.Limit - 1) / query.Limit,
		CurrentPage:  query.Page,
	}, nil
}

func (s *Postgres) FindAll(ctx context.Context, filter ReportFilter) ([]models.Record, error) {
	var conditions []string
	var args []any
	if filter.RecordID != nil {
		args = append(args, *filter.RecordID)
		conditions = append(conditions, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := s.pool.Query(ctx, `SELECT `+recordColumns+` FROM financial_records`+where+`
		ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, translatePgError(err, "find records")
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM financial_records`).Scan(&total); err != nil {
		return 0, translatePgError(err, "count records")
	}
	return total, nil
}

func buildListWhere(query ListQuery) (string, []any) {
	var conditions []string
	var args []any
	if query.Search != "" {
		args = append(args, "%"+strings.ToLower(query.Search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(lower(name) LIKE $%d OR lower(email) LIKE $%d)", n, n))
	}
	if query.MinRevenue != nil {
		args = append(args, *query.MinRevenue)
		conditions = append(conditions, fmt.Sprintf("revenue >= $%d", len(args)))
	}
	if query.MaxRevenue != nil {
		args = append(args, *query.MaxRevenue)
		conditions = append(conditions, fmt.Sprintf("revenue <= $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var r models.Record
	var tags, attachments []byte
	err := row.Scan(
		&r.ID, &r.Name, &r.Email, &r.Phone,
		&r.Financials.Revenue, &r.Financials.Expenses, &r.Financials.NetProfit,
		&r.Notes, &tags, &attachments,
		&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &r.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(attachments, &r.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	return &r, nil
}

func scanRecords(rows pgx.Rows) ([]models.Record, error) {
	var records []models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, "iterate records")
	}
	return records, nil
}

func marshalJSONFields(record *models.Record) ([]byte, []byte, error) {
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}
	attachments := record.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, nil, fmt.Errorf("encode tags: %w", err)
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return nil, nil, fmt.Errorf("encode attachments: %w", err)
	}
	return tagsJSON, attachmentsJSON, nil
}

// translatePgError maps driver failures onto store sentinels: unique
// violations become conflicts, context expiry becomes unavailability.
func translatePgError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
