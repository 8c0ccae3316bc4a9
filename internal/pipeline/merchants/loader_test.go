package merchants

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/platform-analytics/internal/domain"
	"github.com/andresuchdata/platform-analytics/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterCSV = "Customer ID,Legal Business Name,DBA Name,Account Status,Registration Date,MTD Volume,Last Month Volume,MCC Description\n" +
	"1001,Acme Holdings LLC,Acme Coffee,Active,2024-03-01,\"$1,000.50\",$250,Coffee Shops\n" +
	"1002,Beta Partners,,Closed,,,\"$3,000\",Restaurants\n" +
	"1003,,,Active,,$10,,\n"

func TestLoadMapsColumnsAndKeepsEveryStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")
	require.NoError(t, os.WriteFile(path, []byte(masterCSV), 0o644))

	table, err := Load(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, table.Records, 3)

	acme := table.Records[0]
	assert.Equal(t, "1001", acme.MerchantID)
	assert.Equal(t, "ACME COFFEE", acme.NameKey)
	assert.Equal(t, "Coffee Shops", acme.MCCDescription)
	require.NotNil(t, acme.MTDVolume)
	assert.Equal(t, 1000.50, *acme.MTDVolume)
	require.NotNil(t, acme.RegistrationDate)

	beta := table.Records[1]
	assert.Equal(t, "Closed", beta.AccountStatus)
	assert.Equal(t, "BETA PARTNERS", beta.NameKey)
	assert.Nil(t, beta.MTDVolume)
	require.NotNil(t, beta.LastMonthVolume)
	assert.Equal(t, 3000.0, *beta.LastMonthVolume)

	assert.Equal(t, "MERCHANT_2", table.Records[2].NameKey)
}

func TestLoadIndexesFallbackKeysAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(first, []byte("MID,DBA Name\n1,One\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("MID,DBA Name\n2,\n"), 0o644))

	table, err := Load(context.Background(), []string{first, second})
	require.NoError(t, err)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "MERCHANT_1", table.Records[1].NameKey)
	assert.Len(t, table.Files, 2)
}

func TestRulesPreferExactIdentifiers(t *testing.T) {
	cols := normalize.Resolve([]string{"DBA Name", "Legal Name", "Customer ID"}, Rules)

	assert.Equal(t, 2, cols.Index(FieldID))
	assert.Equal(t, 0, cols.Index(FieldDBAName))
	assert.Equal(t, 1, cols.Index(FieldLegalName))
}

func TestNameKey(t *testing.T) {
	tests := []struct {
		name string
		m    domain.Merchant
		want string
	}{
		{name: "dba wins", m: domain.Merchant{DBAName: " Corner Cafe ", LegalName: "Corner LLC"}, want: "CORNER CAFE"},
		{name: "legal fallback", m: domain.Merchant{LegalName: "corner llc"}, want: "CORNER LLC"},
		{name: "positional", m: domain.Merchant{}, want: "MERCHANT_9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NameKey(tt.m, 9, true))
		})
	}
}
