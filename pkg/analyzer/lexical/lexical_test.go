package lexical

import (
	"fmt"
	"strings"
	"testing"

	"github.com/panbanda/cppsmell/pkg/models"
	"github.com/panbanda/cppsmell/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaults = models.DefaultThresholds()

func detectWith(d Detector, text string) []models.Finding {
	return d.Detect(NewSource("test.cpp", text))
}

func paramList(n int) string {
	params := make([]string, n)
	for i := range n {
		params[i] = fmt.Sprintf("int p%d", i)
	}
	return strings.Join(params, ", ")
}

func TestLongParameterList(t *testing.T) {
	d := NewLongParameterList(defaults.Get(models.RuleLongParameterList))

	tests := []struct {
		params   int
		flagged  bool
		severity models.Severity
	}{
		{4, false, ""},
		{5, true, models.SeverityLow},
		{6, true, models.SeverityMedium},
		{7, true, models.SeverityMedium},
		{8, true, models.SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d params", tt.params), func(t *testing.T) {
			findings := detectWith(d, fmt.Sprintf("\nvoid configure(%s) {\n}\n", paramList(tt.params)))
			if !tt.flagged {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, tt.severity, findings[0].Severity)
			assert.Equal(t, "configure", findings[0].Entity)
			assert.Equal(t, 2, findings[0].Line)
			assert.Equal(t, models.SmellLongParameterList, findings[0].Kind)
		})
	}
}

func TestLongParameterListIgnoresNonDefinitions(t *testing.T) {
	d := NewLongParameterList(defaults.Get(models.RuleLongParameterList))

	src := `void proto(int a, int b, int c, int d, int e);
void f() {
    call(a, b, c, d, e);
    if (a, b, c, d, e) { }
}
void g(std::map<int, int> m, int a, int b, int c) {}
Widget::Widget(int a, int b, int c, int d, int e) : a_(a), b_(b) {}
`
	findings := detectWith(d, src)
	require.Len(t, findings, 1)
	assert.Equal(t, "Widget", findings[0].Entity)
	assert.Equal(t, 7, findings[0].Line)
}

func TestGlobalVariables(t *testing.T) {
	d := NewGlobalVariables(defaults.Get(models.RuleGlobalVariable))

	src := `#include <vector>
int counter = 0;
static const char* name = "x;y";
std::vector<int> items;
namespace ns {
int hidden;
}
class A {
    int member;
};
int main() {
    int local = 1;
    return local;
}
using std::string;
int first, second;
void proto(int a);
`
	findings := detectWith(d, src)
	require.Len(t, findings, 4)

	names := make([]string, len(findings))
	lines := make([]int, len(findings))
	for i, f := range findings {
		names[i] = f.Entity
		lines[i] = f.Line
		assert.Equal(t, models.SeverityMedium, f.Severity)
		assert.Equal(t, models.SmellGlobalVariables, f.Kind)
	}
	assert.Equal(t, []string{"counter", "name", "items", "first"}, names)
	assert.Equal(t, []int{2, 3, 4, 16}, lines)
}

const dupBody = `{
    int total = 0;
    for (int i = 0; i < v; ++i) {
        if (i % 2 == 0) { total += i * 3; }
    }
    return total + compute_offset(v, 42);
}`

func TestDuplicateCode(t *testing.T) {
	d := NewDuplicateCode(defaults.Get(models.RuleDuplicateCodeChars))

	reformatted := strings.ReplaceAll(dupBody, "\n    ", "\n        ")
	src := "int first(int v) " + dupBody + "\n\nint second(int v)\n" + reformatted + "\n"

	findings := detectWith(d, src)
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, "second", f.Entity)
	assert.Equal(t, 9, f.Line)
	assert.Equal(t, models.SeverityHigh, f.Severity)
	assert.Contains(t, f.Description, `"first"`)
	assert.Contains(t, f.Description, "line 1")
}

func TestDuplicateCodeShortBodiesIgnored(t *testing.T) {
	d := NewDuplicateCode(defaults.Get(models.RuleDuplicateCodeChars))
	src := "int a() { return compute(1, 2, 3); }\nint b() { return compute(1, 2, 3); }\n"
	assert.Empty(t, detectWith(d, src))
}

func TestDuplicateCodeIgnoresComments(t *testing.T) {
	d := NewDuplicateCode(defaults.Get(models.RuleDuplicateCodeChars))
	commented := strings.Replace(dupBody, "int total = 0;", "int total = 0; // running sum", 1)
	src := "int first(int v) " + dupBody + "\nint second(int v) " + commented + "\n"
	assert.Len(t, detectWith(d, src), 1)
}

func TestDuplicateCodeReportsEachRepeatAgainstFirst(t *testing.T) {
	d := NewDuplicateCode(defaults.Get(models.RuleDuplicateCodeChars))
	src := "int a(int v) " + dupBody + "\nint b(int v) " + dupBody + "\nint c(int v) " + dupBody + "\n"

	findings := detectWith(d, src)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Contains(t, f.Description, `"a"`)
	}
}

func TestPrimitiveObsession(t *testing.T) {
	d := NewPrimitiveObsession(defaults.Get(models.RulePrimitiveObsession))

	src := `void save(int userId, std::string userName, double amount) {}
void one(int userId, Widget w) {}
void scale(int count, double ratio) {}
void reg(int userid, int zipcode) {}
void ship(const char* zip_code, long order_date = 0) {}
`
	findings := detectWith(d, src)
	require.Len(t, findings, 3)
	assert.Equal(t, "save", findings[0].Entity)
	assert.Contains(t, findings[0].Description, "userId, userName")
	assert.Equal(t, models.SeverityMedium, findings[0].Severity)
	assert.Equal(t, "reg", findings[1].Entity)
	assert.Contains(t, findings[1].Description, "userid, zipcode")
	assert.Equal(t, 4, findings[1].Line)
	assert.Equal(t, "ship", findings[2].Entity)
	assert.Equal(t, 5, findings[2].Line)
}

func TestRunFlagsLowercaseDomainNames(t *testing.T) {
	findings := Run(NewSource("po.cpp", "void f(int userid, int zipcode) { go(); }"), Default(defaults))

	var kinds []models.SmellKind
	for _, f := range findings {
		kinds = append(kinds, f.Kind)
	}
	assert.Equal(t, []models.SmellKind{models.SmellPrimitiveObsession}, kinds)
}

func TestHasDomainSuffix(t *testing.T) {
	for _, name := range []string{"id", "userId", "user_id", "userid", "username", "hostname", "zipcode", "Email", "start_time", "homeAddress"} {
		assert.True(t, hasDomainSuffix(name), name)
	}
	for _, name := range []string{"count", "idx", "ratio", "names", "codec"} {
		assert.False(t, hasDomainSuffix(name), name)
	}
}

func intimateClass(accesses int) string {
	var b strings.Builder
	b.WriteString("class Printer {\npublic:\n    void print(const Doc& doc) {\n")
	for i := range accesses {
		fmt.Fprintf(&b, "        out(doc.field%d);\n", i)
	}
	b.WriteString("        this->count++;\n        std::cout << str.size();\n    }\n};\n")
	return b.String()
}

func TestInappropriateIntimacy(t *testing.T) {
	d := NewInappropriateIntimacy(defaults.Get(models.RuleInappropriateIntimacy))

	tests := []struct {
		accesses int
		flagged  bool
		severity models.Severity
	}{
		{5, false, ""},
		{6, true, models.SeverityMedium},
		{10, true, models.SeverityMedium},
		{11, true, models.SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d accesses", tt.accesses), func(t *testing.T) {
			findings := detectWith(d, intimateClass(tt.accesses))
			if !tt.flagged {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, "doc", findings[0].Entity)
			assert.Equal(t, 4, findings[0].Line)
			assert.Equal(t, tt.severity, findings[0].Severity)
			assert.Contains(t, findings[0].Description, `"Printer"`)
		})
	}
}

func TestInappropriateIntimacyOutsideClass(t *testing.T) {
	d := NewInappropriateIntimacy(defaults.Get(models.RuleInappropriateIntimacy))
	src := "void f(Doc& d) { d.a; d.b; d.c; d.d; d.e; d.f; d.g; }\n"
	assert.Empty(t, detectWith(d, src))
}

func TestInappropriateIntimacyCountsChainHeadOnly(t *testing.T) {
	d := NewInappropriateIntimacy(defaults.Get(models.RuleInappropriateIntimacy))
	src := "struct S {\n  void f() { a.x.y; a->p.q; a.m->n; b.c; b.d; b.e; }\n};\n"
	assert.Empty(t, detectWith(d, src))
}

func TestComplexCondition(t *testing.T) {
	d := NewComplexCondition(defaults.Get(models.RuleComplexCondition))

	tests := []struct {
		cond     string
		flagged  bool
		severity models.Severity
	}{
		{"a && b || c == d", false, ""},
		{"a && b && c && d && e", true, models.SeverityMedium},
		{"a < b && c > d && e == f && g != h", true, models.SeverityHigh},
		{"p->x && q->y && (v << 2) > 3", false, ""},
		{`s == "a&&b||c&&d"`, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			findings := detectWith(d, "void f() {\n    if ("+tt.cond+") {\n        g();\n    }\n}\n")
			if !tt.flagged {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, 2, findings[0].Line)
			assert.Equal(t, tt.severity, findings[0].Severity)
		})
	}
}

func TestDeepNestingBoundaries(t *testing.T) {
	d := NewDeepNesting(defaults.Get(models.RuleDeepNesting))

	assert.Empty(t, detectWith(d, testutil.NestedBlocks(3)))

	findings := detectWith(d, testutil.NestedBlocks(4))
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityMedium, findings[0].Severity)
	assert.Equal(t, 4, findings[0].Line)

	findings = detectWith(d, testutil.NestedBlocks(5))
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
}

func TestDeepNestingOneFindingPerRun(t *testing.T) {
	d := NewDeepNesting(defaults.Get(models.RuleDeepNesting))
	src := testutil.NestedBlocks(4) + testutil.NestedBlocks(2) + testutil.NestedBlocks(6)

	findings := detectWith(d, src)
	require.Len(t, findings, 2)
	assert.Equal(t, models.SeverityMedium, findings[0].Severity)
	assert.Equal(t, models.SeverityHigh, findings[1].Severity)
}

func TestDeepNestingIgnoresBracesInLiterals(t *testing.T) {
	d := NewDeepNesting(defaults.Get(models.RuleDeepNesting))
	src := "void f() { const char* s = \"{{{{{\"; // {{{{{\n}\n"
	assert.Empty(t, detectWith(d, src))
}

func TestDeepNestingUnterminatedRun(t *testing.T) {
	d := NewDeepNesting(defaults.Get(models.RuleDeepNesting))
	findings := detectWith(d, "void f() {\n{\n{\n{\n{\n")
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
	assert.Equal(t, 5, findings[0].Line)
}

func TestDefaultOrder(t *testing.T) {
	want := []models.SmellKind{
		models.SmellLongParameterList,
		models.SmellGlobalVariables,
		models.SmellDuplicateCode,
		models.SmellPrimitiveObsession,
		models.SmellInappropriateIntimacy,
		models.SmellComplexCondition,
		models.SmellDeepNesting,
	}
	detectors := Default(defaults)
	require.Len(t, detectors, len(want))
	for i, d := range detectors {
		assert.Equal(t, want[i], d.Kind())
	}
}

func TestRunIsDeterministic(t *testing.T) {
	src := "int g_count;\n" + testutil.NestedBlocks(5) + intimateClass(7)
	first := Run(NewSource("a.cpp", src), Default(defaults))
	second := Run(NewSource("a.cpp", src), Default(defaults))
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestMalformedInputNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"}}}}((((",
		"if (",
		"class X {",
		"\"unterminated",
		"/* open",
		"'",
		"#define X \\",
		"int f(int a, int b, int c, int d, int e {",
		strings.Repeat("{", 200),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			Run(NewSource("bad.cpp", in), Default(defaults))
		}, "input %q", in)
	}
}
