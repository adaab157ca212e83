package lexical

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/panbanda/cppsmell/pkg/models"
)

// LongParameterList flags function definitions with too many parameters.
type LongParameterList struct {
	threshold models.Threshold
}

// NewLongParameterList creates a long-parameter-list detector.
func NewLongParameterList(th models.Threshold) *LongParameterList {
	return &LongParameterList{threshold: th}
}

// Kind implements Detector.
func (d *LongParameterList) Kind() models.SmellKind { return models.SmellLongParameterList }

// Detect implements Detector.
func (d *LongParameterList) Detect(src *Source) []models.Finding {
	var findings []models.Finding
	for _, sig := range signatures(src) {
		n := len(sig.params)
		if !d.threshold.Exceeded(n) {
			continue
		}
		findings = append(findings, newFinding(src, models.SmellLongParameterList, src.LineAt(sig.offset), sig.name,
			fmt.Sprintf("Function %q takes %d parameters (threshold %d)", sig.name, n, d.threshold.Trigger),
			d.threshold.Severity(n)))
	}
	return findings
}

var primitiveTypes = map[string]bool{
	"int": true, "float": true, "double": true, "char": true, "bool": true,
	"long": true, "short": true, "unsigned": true, "signed": true,
	"string": true, "wstring": true, "string_view": true, "size_t": true,
	"int32_t": true, "int64_t": true, "uint32_t": true, "uint64_t": true,
}

var domainSuffixes = []string{"id", "code", "name", "address", "phone", "email", "date", "time"}

var identPattern = regexp.MustCompile(`[A-Za-z_]\w*`)

// PrimitiveObsession flags functions that pass several domain concepts
// (ids, names, dates) as raw primitives.
type PrimitiveObsession struct {
	threshold models.Threshold
}

// NewPrimitiveObsession creates a primitive-obsession detector.
func NewPrimitiveObsession(th models.Threshold) *PrimitiveObsession {
	return &PrimitiveObsession{threshold: th}
}

// Kind implements Detector.
func (d *PrimitiveObsession) Kind() models.SmellKind { return models.SmellPrimitiveObsession }

// Detect implements Detector.
func (d *PrimitiveObsession) Detect(src *Source) []models.Finding {
	var findings []models.Finding
	for _, sig := range signatures(src) {
		var suspects []string
		for _, p := range sig.params {
			if name, ok := primitiveDomainParam(p); ok {
				suspects = append(suspects, name)
			}
		}
		if !d.threshold.Exceeded(len(suspects)) {
			continue
		}
		findings = append(findings, newFinding(src, models.SmellPrimitiveObsession, src.LineAt(sig.offset), sig.name,
			fmt.Sprintf("Function %q passes %d domain values as primitives: %s",
				sig.name, len(suspects), strings.Join(suspects, ", ")),
			d.threshold.Severity(len(suspects))))
	}
	return findings
}

// primitiveDomainParam reports whether a parameter has a primitive type and
// a name ending in a domain suffix, returning the name.
func primitiveDomainParam(param string) (string, bool) {
	if i := strings.IndexByte(param, '='); i >= 0 {
		param = param[:i]
	}
	idents := identPattern.FindAllString(param, -1)
	if len(idents) < 2 {
		return "", false
	}
	name := idents[len(idents)-1]

	primitive := false
	for _, tok := range idents[:len(idents)-1] {
		if primitiveTypes[tok] {
			primitive = true
			break
		}
	}
	if !primitive || !hasDomainSuffix(name) {
		return "", false
	}
	return name, true
}

// hasDomainSuffix matches a domain suffix case-insensitively (userId,
// userid, zip_code).
func hasDomainSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range domainSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
