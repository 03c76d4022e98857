package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msupdates/internal/extractor"
	"msupdates/internal/models"
	"msupdates/internal/normalizer"
)

var octWindowStart = time.Date(2023, time.July, 12, 0, 0, 0, 0, time.UTC)

func TestLoadExtraRecords(t *testing.T) {
	records, err := LoadExtraRecords([]string{filepath.Join("testdata", "server-updates.json")}, octWindowStart)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.Record{
		Date:            "2023-10-10",
		Identifier:      "KB5031361",
		Product:         "Windows Server 2019",
		Classification:  models.SecurityUpdate,
		Summary:         "October cumulative update",
		RemediationNote: "None known.",
		Link:            "https://support.microsoft.com/help/5031361",
		Severity:        "Important",
	}, records[0])

	filled := records[1]
	assert.Equal(t, "2023-10-17", filled.Date)
	assert.Equal(t, "KB5031445", filled.Identifier, "numeric id")
	assert.Equal(t, "Windows Server 2012 R2", filled.Product)
	assert.Equal(t, models.OutOfBand, filled.Classification)
	assert.Equal(t, "KB5031445", filled.Summary)
	assert.Equal(t, extractor.RemediationNote, filled.RemediationNote)
	assert.Equal(t, extractor.CatalogSearchURL("KB5031445"), filled.Link)
	assert.Equal(t, extractor.DefaultSeverity, filled.Severity)

	placeholder := records[2]
	assert.Equal(t, "2023-Oct", placeholder.Identifier, "non-update ids are kept verbatim")
	assert.Equal(t, normalizer.GenericProduct, placeholder.Product)
	assert.Equal(t, models.GenericUpdate, placeholder.Classification)

	for _, r := range records {
		require.NoError(t, normalizer.NewValidator().Validate(r, r.Identifier))
	}
}

func TestLoadExtraRecords_Errors(t *testing.T) {
	_, err := LoadExtraRecords([]string{filepath.Join("testdata", "missing.json")}, octWindowStart)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"date": "2023-10-10"}`), 0644))

	_, err = LoadExtraRecords([]string{bad}, octWindowStart)
	assert.Error(t, err, "object instead of list")
}

func TestLoadExtraRecords_None(t *testing.T) {
	records, err := LoadExtraRecords(nil, octWindowStart)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClassify(t *testing.T) {
	tests := map[string]models.Classification{
		"Security Update":                 models.SecurityUpdate,
		"Security Update (Patch Tuesday)": models.SecurityUpdate,
		"preview":                         models.Preview,
		"Out of band":                     models.OutOfBand,
		"":                                models.SecurityUpdate,
		"Feature Pack":                    models.GenericUpdate,
	}

	for label, want := range tests {
		assert.Equal(t, want, classify(label), "label %q", label)
	}
}
