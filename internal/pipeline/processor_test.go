package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msupdates/internal/extractor"
	"msupdates/internal/logger"
	"msupdates/internal/models"
	"msupdates/internal/normalizer"
	"msupdates/internal/parser"
)

// fakeFeed serves listings and bodies from memory. A body of nil means the
// fetch fails; an id listed in panics makes the fetch panic.
type fakeFeed struct {
	listErr error
	bodies  map[string][]byte
	panics  map[string]bool
	refs    []models.DocumentReference
}

func (f *fakeFeed) ListRecentDocuments(_ context.Context, _ time.Duration) ([]models.DocumentReference, error) {
	return f.refs, f.listErr
}

func (f *fakeFeed) FetchDocumentBody(_ context.Context, id string) ([]byte, error) {
	if f.panics[id] {
		panic("fetcher exploded")
	}

	body, ok := f.bodies[id]
	if !ok || body == nil {
		return nil, errors.New("503 from upstream")
	}

	return body, nil
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return data
}

func ref(id, title string, day int) models.DocumentReference {
	return models.DocumentReference{
		ID:          id,
		Title:       title,
		PublishedAt: time.Date(2023, time.October, day, 17, 0, 0, 0, time.UTC),
	}
}

func newProcessor(feed *fakeFeed) *Processor {
	return NewProcessor(feed, feed, nil, logger.Discard())
}

func TestProcessDocument_Structured(t *testing.T) {
	feed := &fakeFeed{bodies: map[string][]byte{"2023-Oct": fixture(t, "2023-Oct.json")}}

	records, err := newProcessor(feed).ProcessDocument(context.Background(), ref("2023-Oct", "October 2023 Security Updates", 10))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "KB5031354", records[0].Identifier)
	assert.Equal(t, "Windows 11 22H2 / 23H2", records[0].Product)
	assert.Equal(t, models.SecurityUpdate, records[0].Classification)
	assert.Equal(t, "Important", records[0].Severity)
	assert.Equal(t, "2023-10-10", records[0].Date)

	assert.Equal(t, "KB5031364", records[1].Identifier)
	assert.Equal(t, "Windows Server 2022", records[1].Product)
	assert.Equal(t, "Moderate", records[1].Severity)
}

func TestProcessDocument_MarkupBody(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("..", "parser", "testdata", "2023-Oct.xml"))
	require.NoError(t, err)

	feed := &fakeFeed{bodies: map[string][]byte{"2023-Oct": body}}

	records, err := newProcessor(feed).ProcessDocument(context.Background(), ref("2023-Oct", "October", 10))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "KB5031354", records[0].Identifier)
}

func TestProcessDocument_Failures(t *testing.T) {
	tests := []struct {
		name    string
		feed    *fakeFeed
		wantErr error
	}{
		{
			name:    "fetch failure",
			feed:    &fakeFeed{},
			wantErr: parser.ErrFetchFailure,
		},
		{
			name:    "malformed body",
			feed:    &fakeFeed{bodies: map[string][]byte{"2023-Nov": []byte("Service Unavailable")}},
			wantErr: parser.ErrMalformedDocument,
		},
		{
			name:    "empty body",
			feed:    &fakeFeed{bodies: map[string][]byte{"2023-Nov": {}}},
			wantErr: parser.ErrMalformedDocument,
		},
		{
			name:    "panic",
			feed:    &fakeFeed{panics: map[string]bool{"2023-Nov": true}},
			wantErr: ErrExtractionPanic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ref("2023-Nov", "November 2023 Security Updates", 14)

			records, err := newProcessor(tt.feed).ProcessDocument(context.Background(), r)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			require.Len(t, records, 1)
			assert.Equal(t, extractor.NewExtractor().DocumentLevelFailure(r), records[0])
			assert.Equal(t, "2023-Nov", records[0].Identifier)
			assert.Equal(t, models.GenericUpdate, records[0].Classification)
		})
	}
}

func TestProcessDocument_NoDataLoss(t *testing.T) {
	feed := &fakeFeed{
		bodies: map[string][]byte{
			"structured": fixture(t, "2023-Oct.json"),
			"text":       []byte(`{"Notes": "KB1111111 and KB2222222"}`),
			"empty-json": []byte(`{}`),
			"markup":     []byte(`<cvrfdoc><DocumentTitle>t</DocumentTitle></cvrfdoc>`),
			"garbage":    []byte(`Service Unavailable`),
		},
		panics: map[string]bool{"panics": true},
	}
	p := newProcessor(feed)

	for _, id := range []string{"structured", "text", "empty-json", "markup", "garbage", "missing", "panics"} {
		records, _ := p.ProcessDocument(context.Background(), ref(id, "", 10))
		assert.NotEmpty(t, records, "document %s", id)

		for _, r := range records {
			assert.NoError(t, normalizer.NewValidator().Validate(r, id), "document %s", id)
		}
	}
}

func TestRun(t *testing.T) {
	feed := &fakeFeed{
		refs: []models.DocumentReference{
			ref("2023-Sep", "September 2023 Security Updates", 12),
			ref("2023-Oct", "October 2023 Security Updates", 10),
			ref("2023-Nov", "November 2023 Security Updates", 14),
			ref("oob-1", "Out-of-band: text only", 10),
		},
		bodies: map[string][]byte{
			"2023-Sep": []byte(`{"Vulnerability": [{"Remediations": [{"Description": "KB5030219"}]}]}`),
			"2023-Oct": fixture(t, "2023-Oct.json"),
			"oob-1":    []byte(`{"Notes": "Superseded by KB5031354. See also KB5031999."}`),
		},
	}

	extra := []models.Record{
		{Date: "2023-10-10", Identifier: "KB5031354", Product: "Windows 11 22H2 / 23H2", Summary: "hand-maintained"},
		{Date: "2023-10-24", Identifier: "KB5031455", Product: "Windows 11 22H2 / 23H2", Summary: "preview"},
	}

	result, err := newProcessor(feed).Run(context.Background(), 90*24*time.Hour, extra...)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Documents)
	assert.Equal(t, 1, result.Degraded)

	var merr *multierror.Error
	require.True(t, errors.As(result.Err, &merr))
	require.Len(t, merr.Errors, 1)
	assert.ErrorIs(t, merr.Errors[0], parser.ErrFetchFailure)

	type row struct{ Date, ID, Product, Summary string }

	got := make([]row, 0, len(result.Records))
	for _, r := range result.Records {
		got = append(got, row{r.Date, r.Identifier, r.Product, r.Summary})
	}

	want := []row{
		{"2023-11-14", "2023-Nov", normalizer.GenericProduct, "November 2023 Security Updates (extraction failed)"},
		{"2023-10-24", "KB5031455", "Windows 11 22H2 / 23H2", "preview"},
		{"2023-10-10", "KB5031354", "Windows 11 22H2 / 23H2", "5031354"},
		{"2023-10-10", "KB5031364", "Windows Server 2022", "5031364"},
		{"2023-10-10", "KB5031354", normalizer.GenericProduct, "KB5031354 referenced in Out-of-band: text only (found by raw text scan)"},
		{"2023-10-10", "KB5031999", normalizer.GenericProduct, "KB5031999 referenced in Out-of-band: text only (found by raw text scan)"},
		{"2023-09-12", "KB5030219", normalizer.GenericProduct, "KB5030219"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Run() records mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_CrossTierDuplicate(t *testing.T) {
	feed := &fakeFeed{
		refs: []models.DocumentReference{
			ref("a", "Structured", 10),
			ref("b", "Text scan", 10),
		},
		bodies: map[string][]byte{
			"a": []byte(`{"Remediations": [{"Description": "Install KB5031354"}]}`),
			"b": []byte(`{"Notes": "KB5031354"}`),
		},
	}

	result, err := newProcessor(feed).Run(context.Background(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "Install KB5031354", result.Records[0].Summary)
}

func TestRun_ListingFailure(t *testing.T) {
	feed := &fakeFeed{listErr: errors.New("listing unavailable")}

	result, err := newProcessor(feed).Run(context.Background(), time.Hour)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestRun_Canceled(t *testing.T) {
	feed := &fakeFeed{refs: []models.DocumentReference{ref("2023-Oct", "", 10)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newProcessor(feed).Run(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Empty(t *testing.T) {
	result, err := newProcessor(&fakeFeed{}).Run(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.NoError(t, result.Err)
	assert.Empty(t, result.Records)
	assert.Zero(t, result.Documents)
}

func TestProcessDocument_Identifiers(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  []string
		class models.Classification
	}{
		{
			name:  "non-update codes in markup",
			body:  `<cvrfdoc>See ADV990001 and build ID a1234567 and rev R20231010</cvrfdoc>`,
			want:  []string{"2023-Oct"},
			class: models.GenericUpdate,
		},
		{
			name:  "spaced identifier",
			body:  `{"Notes": "Install KB 5031354 now"}`,
			want:  []string{"KB5031354"},
			class: models.SecurityUpdate,
		},
		{
			name:  "look-alike letters do not spoil the document",
			body:  `{"Remediations": [{"Description": "fix B\u212a5031355"}, {"Description": "5031354"}]}`,
			want:  []string{"KB5031354"},
			class: models.SecurityUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := &fakeFeed{bodies: map[string][]byte{"2023-Oct": []byte(tt.body)}}

			records, err := newProcessor(feed).ProcessDocument(context.Background(), ref("2023-Oct", "October", 10))
			require.NoError(t, err)

			ids := make([]string, 0, len(records))
			for _, r := range records {
				ids = append(ids, r.Identifier)
				assert.Equal(t, tt.class, r.Classification)
			}

			assert.Equal(t, tt.want, ids)
		})
	}
}
