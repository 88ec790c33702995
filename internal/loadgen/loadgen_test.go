package loadgen

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/diploma/internal/adapters/http/api"
	service "github.com/okian/diploma/internal/app"
	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/types"
	"github.com/okian/diploma/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	require.NoError(t, logger.Init(logger.WithOutput(&bytes.Buffer{})))

	svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(1000))
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestGeneratorIsDeterministic(t *testing.T) {
	defs := credits.DefaultDefinitions()
	a := NewGenerator(defs, 7).Transcripts(20)
	b := NewGenerator(defs, 7).Transcripts(20)

	require.Len(t, a, 20)
	seen := make(map[string]bool)
	for i := range a {
		assert.Equal(t, a[i].Verified, b[i].Verified)
		assert.Len(t, a[i].Verified, len(defs))
		assert.False(t, seen[a[i].StudentID], "student ids must be unique")
		seen[a[i].StudentID] = true
		for k, xp := range a[i].Verified {
			assert.GreaterOrEqual(t, xp, int64(0), "subject %s", k)
		}
	}
}

func TestVerifyCohort(t *testing.T) {
	ok := []types.CohortEntry{
		{Rank: 1, StudentID: "a", CreditsEarned: 20},
		{Rank: 1, StudentID: "b", CreditsEarned: 20},
		{Rank: 2, StudentID: "c", CreditsEarned: 12.5},
		{Rank: 3, StudentID: "a2", CreditsEarned: 1},
	}
	require.NoError(t, VerifyCohort(ok))
	require.NoError(t, VerifyCohort(nil))

	cases := map[string][]types.CohortEntry{
		"unsorted": {
			{Rank: 1, StudentID: "a", CreditsEarned: 2},
			{Rank: 2, StudentID: "b", CreditsEarned: 3},
		},
		"tie order": {
			{Rank: 1, StudentID: "b", CreditsEarned: 2},
			{Rank: 1, StudentID: "a", CreditsEarned: 2},
		},
		"tie rank": {
			{Rank: 1, StudentID: "a", CreditsEarned: 2},
			{Rank: 2, StudentID: "b", CreditsEarned: 2},
		},
		"gap": {
			{Rank: 1, StudentID: "a", CreditsEarned: 2},
			{Rank: 3, StudentID: "b", CreditsEarned: 1},
		},
		"first rank": {
			{Rank: 2, StudentID: "a", CreditsEarned: 2},
		},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, VerifyCohort(entries), ErrVerification)
		})
	}
}

func TestVerifyStanding(t *testing.T) {
	c := credits.DefaultCatalog()
	tr := Transcript{StudentID: "s", Verified: credits.XPMap{credits.Math: 2500}}

	good := types.StudentStanding{Report: credits.Report{Summary: credits.GraduationSummary{TotalCreditsEarned: 2.5}}}
	require.NoError(t, VerifyStanding(c, tr, good))

	bad := types.StudentStanding{Report: credits.Report{Summary: credits.GraduationSummary{TotalCreditsEarned: 3}}}
	assert.ErrorIs(t, VerifyStanding(c, tr, bad), ErrVerification)
}

func TestDecodeTranscript(t *testing.T) {
	doc := `
student_id: s-42
verified:
  math: 3000
  science: "1500"
  pe: 1e3
pending:
  math: 250
`
	tr, err := DecodeTranscript(strings.NewReader(doc), credits.DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, "s-42", tr.StudentID)
	assert.Equal(t, credits.XPMap{credits.Math: 3000, credits.Science: 1500, credits.PE: 1000}, tr.Verified)
	assert.Equal(t, credits.XPMap{credits.Math: 250}, tr.Pending)

	_, err = DecodeTranscript(strings.NewReader("verified:\n  math: 1.5\n"), credits.DefaultCatalog())
	assert.ErrorIs(t, err, credits.ErrInvalidXPValue)

	_, err = DecodeTranscript(strings.NewReader("verified:\n  math: lots\n"), credits.DefaultCatalog())
	assert.ErrorIs(t, err, credits.ErrInvalidXPValue)

	_, err = DecodeTranscript(strings.NewReader("verified:\n  history: lots\n"), credits.DefaultCatalog())
	assert.ErrorIs(t, err, credits.ErrUnknownSubject)

	_, err = DecodeTranscript(strings.NewReader("verified: [1, 2"), credits.DefaultCatalog())
	assert.Error(t, err)
}

func TestLoadTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verified:\n  math: 1000\n"), 0o600))

	tr, err := LoadTranscript(path, credits.DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), tr.Verified[credits.Math])

	_, err = LoadTranscript(filepath.Join(t.TempDir(), "missing.yaml"), credits.DefaultCatalog())
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	c := credits.DefaultCatalog()
	report, err := c.Evaluate(credits.XPMap{credits.Math: 3000}, credits.XPMap{credits.Math: 500}, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report))
	out := buf.String()
	assert.Contains(t, out, "Mathematics")
	assert.Contains(t, out, "Total: 3.00 / 20.00 credits")
	assert.Contains(t, out, "17.00 credits remaining")
	assert.Contains(t, out, "1. Mathematics")
}

func TestWriteCatalog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, credits.DefaultCatalog()))
	assert.Contains(t, buf.String(), string(credits.LanguageArts))
	assert.Contains(t, buf.String(), "Total credits required: 20.00")
}

func TestRunAgainstService(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	stats, err := Run(ctx, &Config{
		BaseURL:  ts.URL,
		Students: 60,
		TopN:     25,
		Workers:  4,
		Timeout:  5 * time.Second,
		Wait:     10 * time.Second,
		Sample:   10,
		Seed:     42,
	})
	require.NoError(t, err)
	assert.Equal(t, 60, stats.Generated)
	assert.Equal(t, 60, stats.Accepted)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 10, stats.Verified)
	assert.Equal(t, 0, stats.Mismatched)
}

func TestRunUnreachable(t *testing.T) {
	require.NoError(t, logger.Init(logger.WithOutput(&bytes.Buffer{})))
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	_, err := Run(context.Background(), &Config{BaseURL: ts.URL, Timeout: time.Second, Wait: time.Second})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrVerification))
}
