package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tobenna/launchpad/internal/models"
)

func fundedAssignments(n int) []models.FundingAssignment {
	out := make([]models.FundingAssignment, n)
	for i := range out {
		out[i] = models.FundingAssignment{
			ID:            uuid.New(),
			WalletID:      uuid.New(),
			WalletAddress: uuid.NewString(),
			Funded:        true,
		}
	}
	return out
}

func testProject() *models.Project {
	return &models.Project{
		ID:                uuid.New(),
		Name:              "Test Coin",
		Symbol:            "TEST",
		BuyAmountLamports: 50_000_000,
	}
}

func TestComposeOrdering(t *testing.T) {
	composer := NewBundleComposer()
	creator := &models.Wallet{ID: uuid.New(), Address: "creator-address"}
	funded := fundedAssignments(3)

	comp, err := composer.Compose(testProject(), funded, creator, "mint-address", "ipfs://meta")
	require.NoError(t, err)
	require.Len(t, comp.Intents, 4)

	create := comp.Intents[0]
	require.Equal(t, models.IntentCreate, create.Action)
	require.Equal(t, creator.Address, create.PublicKey)
	require.Equal(t, "mint-address", create.Mint)
	require.NotNil(t, create.TokenMetadata)
	require.Equal(t, "Test Coin", create.TokenMetadata.Name)
	require.Equal(t, "0.05", create.AmountSOL)

	for i, intent := range comp.Intents[1:] {
		require.Equal(t, models.IntentBuy, intent.Action)
		require.Equal(t, funded[i].WalletAddress, intent.PublicKey)
		require.NotNil(t, intent.WalletID)
		require.Equal(t, funded[i].WalletID, *intent.WalletID)
	}
	require.Empty(t, comp.Excluded)
}

func TestComposeBundleCapOverflow(t *testing.T) {
	composer := NewBundleComposer()
	creator := &models.Wallet{ID: uuid.New(), Address: "creator-address"}
	funded := fundedAssignments(6)

	comp, err := composer.Compose(testProject(), funded, creator, "mint-address", "ipfs://meta")
	require.NoError(t, err)
	// One creation plus at most four buys; the rest is reported, not dropped.
	require.Len(t, comp.Intents, 5)
	require.Len(t, comp.Buyers, 4)
	require.Len(t, comp.Excluded, 2)
	require.Equal(t, funded[4].WalletAddress, comp.Excluded[0].WalletAddress)
	require.Equal(t, funded[5].WalletAddress, comp.Excluded[1].WalletAddress)
}

func TestComposeExcludesCreatorWallet(t *testing.T) {
	composer := NewBundleComposer()
	creator := &models.Wallet{ID: uuid.New(), Address: "creator-address"}
	funded := fundedAssignments(2)
	funded = append(funded, models.FundingAssignment{
		ID:            uuid.New(),
		WalletID:      creator.ID,
		WalletAddress: creator.Address,
		Funded:        true,
	})

	comp, err := composer.Compose(testProject(), funded, creator, "mint-address", "ipfs://meta")
	require.NoError(t, err)
	require.Len(t, comp.Buyers, 2)
	for _, intent := range comp.Intents[1:] {
		require.NotEqual(t, creator.Address, intent.PublicKey)
	}
}

func TestComposePreconditions(t *testing.T) {
	composer := NewBundleComposer()
	creator := &models.Wallet{ID: uuid.New(), Address: "creator-address"}

	cases := []struct {
		name    string
		mutate  func(p *models.Project) (mint, uri string)
		wantMsg string
	}{
		{
			name: "missing_name",
			mutate: func(p *models.Project) (string, string) {
				p.Name = ""
				return "mint", "uri"
			},
			wantMsg: "name",
		},
		{
			name: "missing_symbol",
			mutate: func(p *models.Project) (string, string) {
				p.Symbol = ""
				return "mint", "uri"
			},
			wantMsg: "symbol",
		},
		{
			name:    "missing_metadata",
			mutate:  func(p *models.Project) (string, string) { return "mint", "" },
			wantMsg: "metadata",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			project := testProject()
			mint, uri := tc.mutate(project)
			_, err := composer.Compose(project, nil, creator, mint, uri)
			var precondition *models.PreconditionError
			require.ErrorAs(t, err, &precondition)
			require.Contains(t, precondition.Reason, tc.wantMsg)
		})
	}
}
