package loadgen

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/okian/diploma/internal/domain/credits"
)

// transcriptFile is the YAML shape read by LoadTranscript. XP values may be
// written as numbers or strings.
type transcriptFile struct {
	StudentID string         `yaml:"student_id"`
	Verified  map[string]any `yaml:"verified"`
	Pending   map[string]any `yaml:"pending"`
}

// LoadTranscript reads a YAML transcript from path and checks it against
// catalog.
func LoadTranscript(path string, catalog *credits.Catalog) (Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeTranscript(f, catalog)
}

// DecodeTranscript parses a YAML transcript, validating every subject and XP
// value against catalog.
func DecodeTranscript(r io.Reader, catalog *credits.Catalog) (Transcript, error) {
	var raw transcriptFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Transcript{}, fmt.Errorf("failed to parse transcript: %w", err)
	}
	verified, err := catalog.ParseXPMap(stringify(raw.Verified))
	if err != nil {
		return Transcript{}, err
	}
	t := Transcript{StudentID: raw.StudentID, Verified: verified}
	if raw.Pending != nil {
		if t.Pending, err = catalog.ParseXPMap(stringify(raw.Pending)); err != nil {
			return Transcript{}, err
		}
	}
	return t, nil
}

func stringify(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// WriteReport renders a report as a per-subject table followed by the summary.
func WriteReport(w io.Writer, r credits.Report) error { //nolint:gocritic // hugeParam
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tXP\tCREDITS\tREQUIRED\tPROGRESS\tPENDING XP\tWITH PENDING")
	for _, s := range r.Subjects {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.1f%%\t%d\t%.2f\n",
			s.DisplayName, s.XPEarned, s.CreditsEarned, s.CreditsRequired,
			s.ProgressPercentage, s.PendingXPEarned, s.TotalWithPending)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum := r.Summary
	fmt.Fprintf(w, "\nTotal: %.2f / %.2f credits (%.1f%%)\n", sum.TotalCreditsEarned, sum.TotalCreditsRequired, sum.Percentage())
	if sum.MeetsRequirements {
		fmt.Fprintln(w, "Graduation requirements met")
	} else {
		fmt.Fprintf(w, "%.2f credits remaining\n", sum.Remaining())
	}
	if len(r.TopSubjects) > 0 {
		fmt.Fprintln(w, "\nTop subjects:")
		for i, s := range r.TopSubjects {
			fmt.Fprintf(w, "  %d. %s (%.2f credits)\n", i+1, s.DisplayName, s.CreditsEarned)
		}
	}
	return nil
}

// WriteCatalog renders the catalog as a table.
func WriteCatalog(w io.Writer, c *credits.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tCREDITS REQUIRED\tXP PER CREDIT")
	for _, d := range c.Definitions() {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\n", d.Key, d.DisplayName, d.CreditsRequired, d.XPPerCredit)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal credits required: %.2f\n", c.TotalCreditsRequired())
	return err
}
