package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tobenna/launchpad/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so the same queries run
// inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DBTX
}

func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a Repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx}
}

// --- Projects ---

func (r *Repository) CreateProject(ctx context.Context, p *models.Project) error {
	query := `INSERT INTO projects (id, user_id, name, symbol, description, buy_amount_lamports, wallet_count, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, p.ID, p.UserID, p.Name, p.Symbol, p.Description, p.BuyAmountLamports, p.WalletCount, p.Status).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *Repository) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p := &models.Project{}
	query := `SELECT id, user_id, name, symbol, description, buy_amount_lamports, wallet_count, status, mint_address, metadata_uri, created_at, updated_at
		FROM projects WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Symbol, &p.Description, &p.BuyAmountLamports,
		&p.WalletCount, &p.Status, &p.MintAddress, &p.MetadataURI, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	query := `SELECT id, user_id, name, symbol, description, buy_amount_lamports, wallet_count, status, mint_address, metadata_uri, created_at, updated_at
		FROM projects WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Symbol, &p.Description, &p.BuyAmountLamports,
			&p.WalletCount, &p.Status, &p.MintAddress, &p.MetadataURI, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *Repository) UpdateProjectStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE projects SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update project status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetFundingPlan stores the bundle configuration on the project.
func (r *Repository) SetFundingPlan(ctx context.Context, id uuid.UUID, walletCount int32, buyAmountLamports int64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET wallet_count = $1, buy_amount_lamports = $2, updated_at = NOW() WHERE id = $3`,
		walletCount, buyAmountLamports, id)
	if err != nil {
		return 0, fmt.Errorf("failed to set funding plan: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkProjectLaunched records the terminal lifecycle transition along with
// the resulting asset identity.
func (r *Repository) MarkProjectLaunched(ctx context.Context, id uuid.UUID, mintAddress, metadataURI string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET status = $1, mint_address = $2, metadata_uri = $3, updated_at = NOW() WHERE id = $4`,
		"LAUNCHED", mintAddress, metadataURI, id)
	if err != nil {
		return 0, fmt.Errorf("failed to mark project launched: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Wallets ---

func (r *Repository) CreateWallet(ctx context.Context, w *models.Wallet, encryptedKey string) error {
	query := `INSERT INTO wallets (id, user_id, address, label, encrypted_key, is_creator, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`
	err := r.db.QueryRow(ctx, query, w.ID, w.UserID, w.Address, w.Label, encryptedKey, w.IsCreator).Scan(&w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *Repository) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	w := &models.Wallet{}
	query := `SELECT id, user_id, address, label, is_creator, created_at FROM wallets WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&w.ID, &w.UserID, &w.Address, &w.Label, &w.IsCreator, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

func (r *Repository) GetWalletByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	w := &models.Wallet{}
	query := `SELECT id, user_id, address, label, is_creator, created_at FROM wallets WHERE address = $1`
	err := r.db.QueryRow(ctx, query, address).Scan(&w.ID, &w.UserID, &w.Address, &w.Label, &w.IsCreator, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by address: %w", err)
	}
	return w, nil
}

func (r *Repository) ListWalletsByUser(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	query := `SELECT id, user_id, address, label, is_creator, created_at FROM wallets WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Address, &w.Label, &w.IsCreator, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// WalletSecret returns the encrypted signing key for custody. Nothing else
// reads this column.
func (r *Repository) WalletSecret(ctx context.Context, id uuid.UUID) (string, error) {
	var encrypted string
	err := r.db.QueryRow(ctx, `SELECT encrypted_key FROM wallets WHERE id = $1`, id).Scan(&encrypted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrWalletNotFound
		}
		return "", fmt.Errorf("failed to load wallet key: %w", err)
	}
	return encrypted, nil
}

func (r *Repository) DeleteWallet(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM wallets WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete wallet: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetCreatorWallet marks one wallet as the creator wallet, clearing the flag
// from any other wallet owned by the same user.
func (r *Repository) SetCreatorWallet(ctx context.Context, userID, walletID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `UPDATE wallets SET is_creator = FALSE WHERE user_id = $1 AND is_creator = TRUE`, userID); err != nil {
		return fmt.Errorf("failed to clear creator flags: %w", err)
	}
	tag, err := r.db.Exec(ctx, `UPDATE wallets SET is_creator = TRUE WHERE id = $1 AND user_id = $2`, walletID, userID)
	if err != nil {
		return fmt.Errorf("failed to set creator wallet: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return models.ErrWalletNotFound
	}
	return nil
}

// --- Funding assignments ---

// ReplaceAssignments drops any existing assignments for the project and
// creates fresh ones, all unfunded.
func (r *Repository) ReplaceAssignments(ctx context.Context, projectID uuid.UUID, walletIDs []uuid.UUID, amountLamports int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM project_wallets WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}
	for _, walletID := range walletIDs {
		_, err := r.db.Exec(ctx,
			`INSERT INTO project_wallets (id, project_id, wallet_id, amount_lamports, funded, created_at) VALUES ($1, $2, $3, $4, FALSE, NOW())`,
			uuid.New(), projectID, walletID, amountLamports)
		if err != nil {
			return fmt.Errorf("failed to assign wallet %s: %w", walletID, err)
		}
	}
	return nil
}

func (r *Repository) ListAssignments(ctx context.Context, projectID uuid.UUID) ([]models.FundingAssignment, error) {
	query := `SELECT pw.id, pw.project_id, pw.wallet_id, w.address, pw.amount_lamports, pw.funded, pw.created_at
		FROM project_wallets pw JOIN wallets w ON w.id = pw.wallet_id
		WHERE pw.project_id = $1 ORDER BY pw.created_at`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.FundingAssignment
	for rows.Next() {
		var a models.FundingAssignment
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.WalletID, &a.WalletAddress, &a.AmountLamports, &a.Funded, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *Repository) MarkAssignmentFunded(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE project_wallets SET funded = TRUE WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to mark assignment funded: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListProjectsInStatus returns projects currently in the given lifecycle
// state, oldest first. Used by the funding verification worker.
func (r *Repository) ListProjectsInStatus(ctx context.Context, status string, limit int32) ([]models.Project, error) {
	query := `SELECT id, user_id, name, symbol, description, buy_amount_lamports, wallet_count, status, mint_address, metadata_uri, created_at, updated_at
		FROM projects WHERE status = $1 ORDER BY updated_at ASC LIMIT $2`
	rows, err := r.db.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects by status: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Symbol, &p.Description, &p.BuyAmountLamports,
			&p.WalletCount, &p.Status, &p.MintAddress, &p.MetadataURI, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// --- Tokens ---

func (r *Repository) CreateToken(ctx context.Context, t *models.Token) error {
	query := `INSERT INTO tokens (id, owner_address, mint, name, symbol, supply, metadata_uri, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING created_at`
	err := r.db.QueryRow(ctx, query, t.ID, t.OwnerAddress, t.Mint, t.Name, t.Symbol, t.Supply, t.MetadataURI, t.Status).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// --- Event log ---

func (r *Repository) AppendEvent(ctx context.Context, eventType string, mint *string, metadata []byte) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO event_log (id, type, mint, metadata, created_at) VALUES ($1, $2, $3, $4, NOW())`,
		uuid.New(), eventType, mint, metadata)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// --- Idempotency keys (durable tier behind the redis cache) ---

type IdempotencyRow struct {
	Key         string
	RequestHash string
	Method      string
	Path        string
	Status      int
	Body        []byte
	ContentType string
	InProgress  bool
}

func (r *Repository) GetIdempotencyKey(ctx context.Context, key string) (*IdempotencyRow, error) {
	row := &IdempotencyRow{}
	query := `SELECT key, request_hash, method, path,
	                 COALESCE(response_status, 0), COALESCE(response_body, ''::bytea), COALESCE(content_type, ''), in_progress
	          FROM idempotency_keys WHERE key = $1`
	err := r.db.QueryRow(ctx, query, key).Scan(
		&row.Key, &row.RequestHash, &row.Method, &row.Path,
		&row.Status, &row.Body, &row.ContentType, &row.InProgress)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ReserveIdempotencyKey claims a key for an in-flight request. Returns false
// without error when another request already holds the key.
func (r *Repository) ReserveIdempotencyKey(ctx context.Context, key, requestHash, method, path string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key, request_hash, method, path, in_progress, created_at)
		 VALUES ($1, $2, $3, $4, TRUE, NOW())
		 ON CONFLICT (key) DO NOTHING`,
		key, requestHash, method, path)
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) FinalizeIdempotencyKey(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*IdempotencyRow, error) {
	row := &IdempotencyRow{}
	query := `UPDATE idempotency_keys
	          SET response_status = $1, response_body = $2, content_type = $3, in_progress = FALSE
	          WHERE key = $4 AND request_hash = $5
	          RETURNING key, request_hash, method, path,
	                    COALESCE(response_status, 0), COALESCE(response_body, ''::bytea), COALESCE(content_type, ''), in_progress`
	err := r.db.QueryRow(ctx, query, status, body, contentType, key, requestHash).Scan(
		&row.Key, &row.RequestHash, &row.Method, &row.Path,
		&row.Status, &row.Body, &row.ContentType, &row.InProgress)
	if err != nil {
		return nil, err
	}
	return row, nil
}
