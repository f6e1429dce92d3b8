package types

// ValidationReport is the outcome of a pre-flight, non-executing check of
// a workflow. Errors block execution; warnings never do.
type ValidationReport struct {
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
	StepCount int      `json:"step_count"`
}

// NewValidationReport creates an empty, valid report.
func NewValidationReport(stepCount int) *ValidationReport {
	return &ValidationReport{
		Valid:     true,
		Errors:    make([]string, 0),
		Warnings:  make([]string, 0),
		StepCount: stepCount,
	}
}

// AddError records a blocking problem and marks the report invalid.
func (r *ValidationReport) AddError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

// AddWarning records a non-blocking problem.
func (r *ValidationReport) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Merge folds another report into this one.
func (r *ValidationReport) Merge(other *ValidationReport) {
	if other == nil {
		return
	}
	r.Valid = r.Valid && other.Valid
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
