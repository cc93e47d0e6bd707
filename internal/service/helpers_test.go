package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/tobenna/launchpad/internal/domain"
	"github.com/tobenna/launchpad/internal/models"
)

var testBlockhash = base58.Encode(make([]byte, 32))

type stubSigner struct {
	keys map[uuid.UUID]ed25519.PrivateKey
	err  error
}

func newStubSigner() *stubSigner {
	return &stubSigner{keys: make(map[uuid.UUID]ed25519.PrivateKey)}
}

func (s *stubSigner) addWallet(t *testing.T) uuid.UUID {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	id := uuid.New()
	s.keys[id] = priv
	return id
}

func (s *stubSigner) SignMessage(ctx context.Context, walletID uuid.UUID, message []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	priv, ok := s.keys[walletID]
	if !ok {
		return nil, models.ErrWalletNotFound
	}
	return ed25519.Sign(priv, message), nil
}

func (s *stubSigner) Address(ctx context.Context, walletID uuid.UUID) (string, error) {
	priv, ok := s.keys[walletID]
	if !ok {
		return "", models.ErrWalletNotFound
	}
	return base58.Encode(priv.Public().(ed25519.PublicKey)), nil
}

type stubLedger struct {
	balances    map[string]int64
	balanceErr  error
	sendErrAt   map[int]error
	confirmErrs map[string]error

	sent      []string
	confirmed []string
	sends     int
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		balances:    make(map[string]int64),
		sendErrAt:   make(map[int]error),
		confirmErrs: make(map[string]error),
	}
}

func (l *stubLedger) GetBalance(ctx context.Context, address string) (int64, error) {
	if l.balanceErr != nil {
		return 0, l.balanceErr
	}
	return l.balances[address], nil
}

func (l *stubLedger) LatestBlockhash(ctx context.Context) (string, error) {
	return testBlockhash, nil
}

func (l *stubLedger) SendTransaction(ctx context.Context, wire string) (string, error) {
	idx := l.sends
	l.sends++
	if err := l.sendErrAt[idx]; err != nil {
		return "", err
	}
	sig := fmt.Sprintf("sig-%d", idx)
	l.sent = append(l.sent, wire)
	return sig, nil
}

func (l *stubLedger) ConfirmTransaction(ctx context.Context, signature string, timeout time.Duration) error {
	if err := l.confirmErrs[signature]; err != nil {
		return err
	}
	l.confirmed = append(l.confirmed, signature)
	return nil
}

type stubBuilder struct {
	bundleID  string
	submitErr error
	statuses  []string
	statusErr error

	submitted [][]string
	polls     int
}

func (b *stubBuilder) SubmitBundle(ctx context.Context, wireTxs []string) (string, error) {
	b.submitted = append(b.submitted, wireTxs)
	if b.submitErr != nil {
		return "", b.submitErr
	}
	return b.bundleID, nil
}

func (b *stubBuilder) GetBundleStatus(ctx context.Context, bundleID string) (string, error) {
	if b.statusErr != nil {
		return "", b.statusErr
	}
	idx := b.polls
	b.polls++
	if idx >= len(b.statuses) {
		return "pending", nil
	}
	return b.statuses[idx], nil
}

type stubGenerator struct {
	payloads []string
	err      error
}

func (g *stubGenerator) Generate(ctx context.Context, intents []models.TransactionIntent) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.payloads, nil
}

// memStore is an in-memory LaunchStore / FundingStore.
type memStore struct {
	projects    map[uuid.UUID]*models.Project
	wallets     map[uuid.UUID]*models.Wallet
	assignments map[uuid.UUID][]models.FundingAssignment
	tokens      []models.Token
	events      []string
	eventMeta   [][]byte
}

func newMemStore() *memStore {
	return &memStore{
		projects:    make(map[uuid.UUID]*models.Project),
		wallets:     make(map[uuid.UUID]*models.Wallet),
		assignments: make(map[uuid.UUID][]models.FundingAssignment),
	}
}

func (m *memStore) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memStore) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	w, ok := m.wallets[id]
	if !ok {
		return nil, models.ErrWalletNotFound
	}
	return w, nil
}

func (m *memStore) ListAssignments(ctx context.Context, projectID uuid.UUID) ([]models.FundingAssignment, error) {
	out := make([]models.FundingAssignment, len(m.assignments[projectID]))
	copy(out, m.assignments[projectID])
	return out, nil
}

func (m *memStore) MarkAssignmentFunded(ctx context.Context, id uuid.UUID) (int64, error) {
	for projectID, list := range m.assignments {
		for i := range list {
			if list[i].ID == id {
				m.assignments[projectID][i].Funded = true
				return 1, nil
			}
		}
	}
	return 0, nil
}

func (m *memStore) MarkProjectLaunched(ctx context.Context, id uuid.UUID, mintAddress, metadataURI string) (int64, error) {
	p, ok := m.projects[id]
	if !ok {
		return 0, nil
	}
	p.Status = domain.ProjectStatusLaunched
	p.MintAddress = &mintAddress
	p.MetadataURI = &metadataURI
	return 1, nil
}

func (m *memStore) UpdateProjectStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	p, ok := m.projects[id]
	if !ok {
		return 0, nil
	}
	p.Status = status
	return 1, nil
}

func (m *memStore) SetFundingPlan(ctx context.Context, id uuid.UUID, walletCount int32, buyAmountLamports int64) (int64, error) {
	p, ok := m.projects[id]
	if !ok {
		return 0, nil
	}
	p.WalletCount = walletCount
	p.BuyAmountLamports = buyAmountLamports
	return 1, nil
}

func (m *memStore) ReplaceAssignments(ctx context.Context, projectID uuid.UUID, walletIDs []uuid.UUID, amountLamports int64) error {
	list := make([]models.FundingAssignment, 0, len(walletIDs))
	for _, walletID := range walletIDs {
		w := m.wallets[walletID]
		list = append(list, models.FundingAssignment{
			ID:             uuid.New(),
			ProjectID:      projectID,
			WalletID:       walletID,
			WalletAddress:  w.Address,
			AmountLamports: amountLamports,
		})
	}
	m.assignments[projectID] = list
	return nil
}

func (m *memStore) ListProjectsInStatus(ctx context.Context, status string, limit int32) ([]models.Project, error) {
	var out []models.Project
	for _, p := range m.projects {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) CreateToken(ctx context.Context, token *models.Token) error {
	m.tokens = append(m.tokens, *token)
	return nil
}

func (m *memStore) AppendEvent(ctx context.Context, eventType string, mint *string, metadata []byte) error {
	m.events = append(m.events, eventType)
	m.eventMeta = append(m.eventMeta, metadata)
	return nil
}
