package clearance

import (
	"regexp"
	"strings"
)

var (
	containerIDPattern = regexp.MustCompile(`^[A-Z]{4}\d{7}$`)
	tinPattern         = regexp.MustCompile(`^\d{10,12}$`)
)

// DemoPrefix marks fallback identifiers that bypass the strict format check.
const DemoPrefix = "DEMO"

type Severity int

const (
	SeverityBlocking Severity = iota
	SeverityAdvisory
)

func (s Severity) String() string {
	if s == SeverityAdvisory {
		return "advisory"
	}
	return "blocking"
}

// Fields are the container values inspected by validation rules.
type Fields struct {
	ContainerID  string
	VesselName   string
	ImporterName string
	TIN          string
}

type Rule struct {
	Name     string
	Severity Severity
	// Check returns a message and true when the rule is violated.
	Check func(f Fields) (string, bool)
}

type Finding struct {
	Rule     string
	Severity Severity
	Message  string
}

type Report struct {
	Findings []Finding
}

// Messages returns every finding message in rule order.
func (r Report) Messages() []string {
	msgs := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

// Valid reports whether the report has no finding that blocks the validity
// flag. Advisory findings block only when advisoryBlocks is set.
func (r Report) Valid(advisoryBlocks bool) bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityBlocking || advisoryBlocks {
			return false
		}
	}
	return true
}

type Validator struct {
	Rules          []Rule
	AdvisoryBlocks bool
}

// NewValidator returns a validator with the default rule set.
func NewValidator(advisoryBlocks bool) *Validator {
	return &Validator{Rules: DefaultRules(), AdvisoryBlocks: advisoryBlocks}
}

// Validate runs every rule; it never stops at the first violation.
func (v *Validator) Validate(f Fields) Report {
	var report Report
	for _, rule := range v.Rules {
		if msg, violated := rule.Check(f); violated {
			report.Findings = append(report.Findings, Finding{
				Rule:     rule.Name,
				Severity: rule.Severity,
				Message:  msg,
			})
		}
	}
	return report
}

func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "container_id_required",
			Severity: SeverityBlocking,
			Check: func(f Fields) (string, bool) {
				return "Container ID is required", f.ContainerID == ""
			},
		},
		{
			Name:     "container_id_format",
			Severity: SeverityBlocking,
			Check: func(f Fields) (string, bool) {
				id := f.ContainerID
				bad := id != "" && !containerIDPattern.MatchString(id) && !strings.HasPrefix(id, DemoPrefix)
				return "Container ID format is invalid (expected: 4 letters + 7 digits)", bad
			},
		},
		{
			Name:     "tin_format",
			Severity: SeverityBlocking,
			Check: func(f Fields) (string, bool) {
				return "TIN format is invalid (expected: 10-12 digits)", f.TIN != "" && !tinPattern.MatchString(f.TIN)
			},
		},
		{
			Name:     "vessel_name_present",
			Severity: SeverityAdvisory,
			Check: func(f Fields) (string, bool) {
				return "Vessel name is missing (recommended)", f.VesselName == ""
			},
		},
		{
			Name:     "importer_name_present",
			Severity: SeverityAdvisory,
			Check: func(f Fields) (string, bool) {
				return "Importer name is missing (recommended)", f.ImporterName == ""
			},
		},
	}
}
