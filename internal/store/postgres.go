package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/serroba/linkkeeper/internal/account"
	"github.com/serroba/linkkeeper/internal/shortener"
)

// Pool is the subset of pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore persists accounts and links in PostgreSQL.
type PostgresStore struct {
	pool Pool
}

// NewPostgresStore creates a store on pool.
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect opens a pool for dsn. A non-empty database overrides the
// database named in dsn.
func Connect(ctx context.Context, dsn, database string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Wrapf(err, "parsing database url")
	}

	if database != "" {
		cfg.ConnConfig.Database = database
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.With("database", cfg.ConnConfig.Database).Wrapf(err, "opening database pool")
	}

	return pool, nil
}

const accountColumns = `id, email, password_hash, is_activated, activation_token, reset_token, created_at`

func (p *PostgresStore) Create(ctx context.Context, acct *account.Account) error {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		acct.ID,
		acct.Email,
		acct.PasswordHash,
		acct.IsActivated,
		acct.ActivationToken,
		acct.ResetToken,
		acct.CreatedAt,
	)
	if isUniqueViolation(err) {
		return account.ErrDuplicateEmail
	}

	return err
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acct, err := scanAccount(p.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, account.ErrNotFound
	}

	return acct, err
}

func (p *PostgresStore) FindByEmail(ctx context.Context, email string) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	rows, err := p.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*account.Account

	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		matches = append(matches, acct)
	}

	return matches, rows.Err()
}

func (p *PostgresStore) ActivateByToken(ctx context.Context, token string) (*account.Account, error) {
	query := `
		UPDATE accounts SET is_activated = TRUE, activation_token = ''
		WHERE activation_token = $1 AND activation_token <> ''
		RETURNING ` + accountColumns

	acct, err := scanAccount(p.pool.QueryRow(ctx, query, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, account.ErrNotFound
	}

	return acct, err
}

func (p *PostgresStore) SetResetToken(ctx context.Context, id, token string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE accounts SET reset_token = $2 WHERE id = $1`, id, token)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) ConsumeResetToken(ctx context.Context, id, token, passwordHash string) error {
	query := `
		UPDATE accounts SET password_hash = $3, reset_token = ''
		WHERE id = $1 AND reset_token = $2 AND reset_token <> ''
	`

	tag, err := p.pool.Exec(ctx, query, id, token, passwordHash)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) Save(ctx context.Context, link *shortener.ShortURL) error {
	query := `
		INSERT INTO links (code, owner_id, long_url, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := p.pool.Exec(ctx, query,
		string(link.Code),
		link.OwnerID,
		link.LongURL,
		link.CreatedAt,
	)
	if isUniqueViolation(err) {
		return shortener.ErrCodeTaken
	}

	return err
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	query := `SELECT code, owner_id, long_url, created_at FROM links WHERE code = $1`

	link, err := scanLink(p.pool.QueryRow(ctx, query, string(code)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shortener.ErrNotFound
	}

	return link, err
}

func (p *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]*shortener.ShortURL, error) {
	query := `
		SELECT code, owner_id, long_url, created_at FROM links
		WHERE owner_id = $1
		ORDER BY created_at, code
	`

	rows, err := p.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]*shortener.ShortURL, 0)

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	return links, rows.Err()
}

// Ping checks the database connection.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acct account.Account

	err := row.Scan(
		&acct.ID,
		&acct.Email,
		&acct.PasswordHash,
		&acct.IsActivated,
		&acct.ActivationToken,
		&acct.ResetToken,
		&acct.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &acct, nil
}

func scanLink(row pgx.Row) (*shortener.ShortURL, error) {
	var (
		link shortener.ShortURL
		code string
	)

	if err := row.Scan(&code, &link.OwnerID, &link.LongURL, &link.CreatedAt); err != nil {
		return nil, err
	}

	link.Code = shortener.Code(code)

	return &link, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var (
	_ account.Repository   = (*PostgresStore)(nil)
	_ shortener.Repository = (*PostgresStore)(nil)
	_ account.Repository   = (*MemoryStore)(nil)
	_ shortener.Repository = (*MemoryStore)(nil)
)
