package lexical

import (
	"fmt"
	"regexp"

	"github.com/panbanda/cppsmell/pkg/models"
)

var classHeadPattern = regexp.MustCompile(
	`\b(?:class|struct)\s+([A-Za-z_]\w*)\s*(?:final\s*)?(?::[^;{()]*)?\{`)

var memberAccessPattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*(?:\.|->)\s*[A-Za-z_~]`)

var ignoredReceivers = map[string]bool{
	"this": true, "std": true,
	"str": true, "string": true, "wstring": true,
	"ss": true, "os": true, "oss": true, "iss": true,
}

// InappropriateIntimacy flags classes that reach into another object's
// members too often.
type InappropriateIntimacy struct {
	threshold models.Threshold
}

// NewInappropriateIntimacy creates an inappropriate-intimacy detector.
func NewInappropriateIntimacy(th models.Threshold) *InappropriateIntimacy {
	return &InappropriateIntimacy{threshold: th}
}

// Kind implements Detector.
func (d *InappropriateIntimacy) Kind() models.SmellKind { return models.SmellInappropriateIntimacy }

type receiverCount struct {
	name  string
	count int
	first int
}

// Detect implements Detector.
func (d *InappropriateIntimacy) Detect(src *Source) []models.Finding {
	var findings []models.Finding
	text := src.Masked

	for _, head := range classHeadPattern.FindAllStringSubmatchIndex(text, -1) {
		open := head[1] - 1
		end := matchClose(text, open)
		if end < 0 {
			end = len(text)
		}
		class := text[head[2]:head[3]]

		for _, rc := range receivers(text, open+1, end) {
			if !d.threshold.Exceeded(rc.count) {
				continue
			}
			findings = append(findings, newFinding(src, models.SmellInappropriateIntimacy, src.LineAt(rc.first), rc.name,
				fmt.Sprintf("Class %q accesses members of %q %d times", class, rc.name, rc.count),
				d.threshold.Severity(rc.count)))
		}
	}
	return findings
}

// receivers counts member accesses per receiver name in text[from:to], in
// order of first appearance. Only the head of a chain counts: in a.b.c the
// receiver is a.
func receivers(text string, from, to int) []receiverCount {
	var order []receiverCount
	index := make(map[string]int)

	body := text[from:to]
	for _, m := range memberAccessPattern.FindAllStringSubmatchIndex(body, -1) {
		if chained(body, m[2]) {
			continue
		}
		name := body[m[2]:m[3]]
		if ignoredReceivers[name] {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(order)
			index[name] = i
			order = append(order, receiverCount{name: name, first: from + m[2]})
		}
		order[i].count++
	}
	return order
}

// chained reports whether the identifier at pos follows a member operator.
func chained(text string, pos int) bool {
	i := pos - 1
	for i >= 0 && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r') {
		i--
	}
	if i < 0 {
		return false
	}
	switch text[i] {
	case '.':
		return true
	case '>':
		return i > 0 && text[i-1] == '-'
	}
	return false
}
