// Package billoflading extracts container data from the text of a bill of
// lading.
package billoflading

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
)

const (
	minTextLength  = 50
	fallbackPrefix = clearance.DemoPrefix
	fallbackSource = 100
	fallbackModulo = 10000000
)

const (
	ErrEmptyDocument      = "Document appears to be empty or unreadable"
	ErrContainerIDMissing = "Container ID not found in document"
)

var (
	containerIDPattern = regexp.MustCompile(`\b[A-Z]{4}\d{7}\b`)
	tinPattern         = regexp.MustCompile(`\b\d{10,12}\b`)
	weightPattern      = regexp.MustCompile(`(\d+(?:,\d+)?(?:\.\d+)?)\s*(?:KG|kg|Kg|MT|mt|Mt)`)
)

type field struct {
	labels    []string
	multiline bool
	maxLen    int
	patterns  []*regexp.Regexp
}

func newField(maxLen int, multiline bool, labels ...string) *field {
	f := &field{labels: labels, multiline: multiline, maxLen: maxLen}
	end := `(?:\n|$)`
	if multiline {
		end = `(?:\n\n|$)`
	}
	for _, label := range labels {
		f.patterns = append(f.patterns, regexp.MustCompile(`(?is)`+regexp.QuoteMeta(label)+`\s*[:：]\s*(.+?)`+end))
	}
	return f
}

// extract returns the value of the first label found, trimmed and truncated.
func (f *field) extract(text string) string {
	for _, p := range f.patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := strings.TrimSpace(m[1]); v != "" {
			return truncate(v, f.maxLen)
		}
	}
	return ""
}

var (
	vesselField          = newField(120, false, "Vessel Name", "Vessel", "Ship Name")
	importerField        = newField(200, false, "Consignee", "Importer", "Notify Party")
	importerAddressField = newField(500, true, "Consignee Address", "Importer Address")
	loadingField         = newField(100, false, "Port of Loading", "POL", "Loading Port")
	dischargeField       = newField(100, false, "Port of Discharge", "POD", "Discharge Port")
	cargoField           = newField(1000, true, "Description of Goods", "Cargo Description", "Goods Description")
)

type Result struct {
	Success bool                    `json:"success"`
	Errors  []string                `json:"errors"`
	Data    clearance.ExtractedData `json:"data"`
}

// Parse extracts container data from document text. A missing container
// identifier is reported in Errors but does not fail the parse: a
// deterministic DEMO identifier is substituted instead.
func Parse(text string) Result {
	res := Result{Errors: []string{}}

	if len([]rune(strings.TrimSpace(text))) < minTextLength {
		res.Errors = append(res.Errors, ErrEmptyDocument)
		return res
	}

	id := containerIDPattern.FindString(text)
	if id == "" {
		res.Errors = append(res.Errors, ErrContainerIDMissing)
		id = FallbackContainerID(text)
	}

	res.Data = clearance.ExtractedData{
		ContainerID:      id,
		VesselName:       vesselField.extract(text),
		ImporterName:     importerField.extract(text),
		ImporterAddress:  importerAddressField.extract(text),
		TIN:              tinPattern.FindString(text),
		PortOfLoading:    loadingField.extract(text),
		PortOfDischarge:  dischargeField.extract(text),
		CargoDescription: cargoField.extract(text),
	}

	if m := weightPattern.FindStringSubmatch(text); m != nil {
		if w, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "")); err == nil {
			res.Data.CargoWeight = decimal.NewNullDecimal(w)
		}
	}

	res.Success = true
	return res
}

// FallbackContainerID derives a stable DEMO identifier from the start of the
// document.
func FallbackContainerID(text string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(truncate(text, fallbackSource)))
	return fmt.Sprintf("%s%07d", fallbackPrefix, h.Sum32()%fallbackModulo)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
