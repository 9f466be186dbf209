package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credihub/fgts-api/internal/models"
)

func TestTableConfigSeedsDefaults(t *testing.T) {
	store := newFakeStore()

	NewTableConfigService(store, testLogger())

	require.NotNil(t, store.tableDoc)
	assert.Contains(t, store.tableDoc.Tables, "57851")
	assert.Contains(t, store.tableDoc.Tables, "0")
	assert.Contains(t, store.tableDoc.Tables, "DEFAULT_QI")
}

func TestGetActiveTableForBank(t *testing.T) {
	store := newFakeStore()
	svc := NewTableConfigService(store, testLogger())

	table, err := svc.GetActiveTableForBank(context.Background(), "FACTA")
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, "57851", table.TableID)

	table, err = svc.GetActiveTableForBank(context.Background(), "BMG")
	require.NoError(t, err)
	assert.Nil(t, table)
}

func TestSetActiveTableDeactivatesSiblings(t *testing.T) {
	store := newFakeStore()
	svc := NewTableConfigService(store, testLogger())

	ok, err := svc.SetActiveTable(context.Background(), "1", "tester")
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, store.tableDoc.Tables["1"].Active)
	assert.False(t, store.tableDoc.Tables["0"].Active)
	// tables of other banks stay untouched
	assert.True(t, store.tableDoc.Tables["57851"].Active)

	active, err := svc.GetActiveTableForBank(context.Background(), "VCTEX")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "1", active.TableID)
}

func TestSetActiveTableIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewTableConfigService(store, testLogger())

	for i := 0; i < 2; i++ {
		ok, err := svc.SetActiveTable(context.Background(), "57851", "tester")
		require.NoError(t, err)
		require.True(t, ok)
	}

	assert.True(t, store.tableDoc.Tables["57851"].Active)
}

func TestSetActiveTableUnknownID(t *testing.T) {
	store := newFakeStore()
	svc := NewTableConfigService(store, testLogger())

	ok, err := svc.SetActiveTable(context.Background(), "99999", "tester")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddTable(t *testing.T) {
	store := newFakeStore()
	svc := NewTableConfigService(store, testLogger())

	ok, err := svc.AddTable(context.Background(), models.TableSetting{
		TableID:  "60001",
		Name:     "Tabela Nova",
		BankName: "FACTA",
	}, "tester")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tester", store.tableDoc.Tables["60001"].UpdatedBy)

	ok, err = svc.AddTable(context.Background(), models.TableSetting{TableID: "60001"}, "tester")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetTablesByBank(t *testing.T) {
	store := newFakeStore()
	svc := NewTableConfigService(store, testLogger())

	tables, err := svc.GetTablesByBank(context.Background(), "VCTEX")
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}
