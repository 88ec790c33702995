package credits

// Report bundles everything a display surface needs for one student.
type Report struct {
	Subjects    []MergedSubjectProgress `json:"subjects"`
	Summary     GraduationSummary       `json:"summary"`
	TopSubjects []SubjectProgress       `json:"top_subjects"`
}

// Evaluate validates both maps once, then builds the merged per-subject view,
// the verified-only graduation summary and the top-n subject ranking.
func (c *Catalog) Evaluate(verified, pending XPMap, top int) (Report, error) {
	if err := c.validate(verified); err != nil {
		return Report{}, err
	}
	if err := c.validate(pending); err != nil {
		return Report{}, err
	}

	merged := c.merge(verified, pending)
	progress := make([]SubjectProgress, len(merged))
	for i := range merged {
		progress[i] = merged[i].SubjectProgress
	}
	return Report{
		Subjects:    merged,
		Summary:     c.summarize(verified),
		TopSubjects: c.TopSubjects(progress, top),
	}, nil
}
