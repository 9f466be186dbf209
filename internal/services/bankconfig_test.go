package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credihub/fgts-api/internal/models"
)

func TestBankConfigSeedsDefaults(t *testing.T) {
	store := newFakeStore()

	NewBankConfigService(store, testLogger())

	require.NotNil(t, store.bankDoc)
	assert.Contains(t, store.bankDoc.Banks, "VCTEX")
	assert.Contains(t, store.bankDoc.Banks, "FACTA")
	assert.True(t, store.bankDoc.Banks["VCTEX"].Active)
}

func TestBankConfigSeedIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewBankConfigService(store, testLogger())

	ok, err := svc.AddBank(context.Background(), "BMG", "Banco BMG", true, []string{models.FeatureSimulation}, "tester")
	require.NoError(t, err)
	require.True(t, ok)

	// a second service over the same store must not reseed
	NewBankConfigService(store, testLogger())

	assert.Contains(t, store.bankDoc.Banks, "BMG")
}

func TestGetActiveBanksFiltersByFeature(t *testing.T) {
	store := newFakeStore()
	svc := NewBankConfigService(store, testLogger())

	ok, err := svc.UpdateBankStatus(context.Background(), "FACTA", true, []string{models.FeatureSimulation}, "tester")
	require.NoError(t, err)
	require.True(t, ok)

	simulation, err := svc.GetActiveBanks(context.Background(), models.FeatureSimulation)
	require.NoError(t, err)
	assert.Equal(t, []string{"FACTA", "VCTEX"}, simulation)

	proposal, err := svc.GetActiveBanks(context.Background(), models.FeatureProposal)
	require.NoError(t, err)
	assert.Equal(t, []string{"VCTEX"}, proposal)
}

func TestIsBankActive(t *testing.T) {
	store := newFakeStore()
	svc := NewBankConfigService(store, testLogger())

	active, err := svc.IsBankActive(context.Background(), "VCTEX", models.FeatureProposal)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = svc.IsBankActive(context.Background(), "NUBANK", models.FeatureProposal)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestUpdateBankStatusUnknownBank(t *testing.T) {
	store := newFakeStore()
	svc := NewBankConfigService(store, testLogger())

	ok, err := svc.UpdateBankStatus(context.Background(), "NUBANK", true, nil, "tester")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateBankStatusKeepsFeaturesWhenNil(t *testing.T) {
	store := newFakeStore()
	svc := NewBankConfigService(store, testLogger())

	ok, err := svc.UpdateBankStatus(context.Background(), "VCTEX", false, nil, "tester")
	require.NoError(t, err)
	require.True(t, ok)

	setting := store.bankDoc.Banks["VCTEX"]
	assert.False(t, setting.Active)
	assert.ElementsMatch(t, []string{models.FeatureSimulation, models.FeatureProposal}, setting.Features)
	assert.Equal(t, "tester", setting.UpdatedBy)
}

func TestAddBankRejectsDuplicate(t *testing.T) {
	store := newFakeStore()
	svc := NewBankConfigService(store, testLogger())

	ok, err := svc.AddBank(context.Background(), "VCTEX", "duplicado", true, nil, "tester")
	require.NoError(t, err)
	assert.False(t, ok)
}
