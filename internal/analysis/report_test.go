package analysis

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/mdpl-cli/internal/table"
)

var csvRows = [][]string{
	{"A", "0.5", "70", "10.0", "alpha"},
	{"A", "0.6", "71", "11.0", "alpha"},
	{"A", "0.55", "69", "9.5", "beta"},
	{"B", "0.7", "75", "10.5", "alpha"},
	{"B", "0.65", "74", "9.8", "beta"},
	{"B", "0.68", "73", "10.2", "alpha"},
	{"A", "0.52", "68", "8.8", "gamma"},
	{"B", "0.75", "76", "9.7", "beta"},
	{"A", "3.0", "95", "50.0", "alpha"},
	{"B", "", "72", "10.1", ""},
}

func TestBuildReportAndMarkdown(t *testing.T) {
	tab, err := table.FromRecords([]string{"Group", "Concentration", "Temp", "Score", "Category"}, csvRows)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	opt := DefaultOptions()
	opt.SampleRows = 3

	rep := BuildReport("metrics.csv", tab, opt)
	rep.ID = "run-1"
	rep.Figures = []Figure{{Title: "Score Distribution", Path: "Score_distribution.png"}}

	if rep.Rows != 10 {
		t.Fatalf("rows = %d, want 10", rep.Rows)
	}
	if len(rep.Samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(rep.Samples))
	}
	if rep.Corr == nil || len(rep.Corr.Columns) != 3 {
		t.Fatalf("expected 3x3 correlation matrix, got %#v", rep.Corr)
	}
	conc := rep.Cols[1]
	if conc.Kind != table.Numeric || conc.Missing != 1 || conc.Stats == nil || conc.Stats.Count != 9 {
		t.Fatalf("unexpected concentration summary: %#v", conc)
	}
	if conc.OutliersCount != 1 {
		t.Fatalf("outliers = %d, want 1", conc.OutliersCount)
	}
	cat := rep.Cols[4]
	if cat.Kind != table.Text || cat.Unique != 3 || cat.TopValues[0].Value != "alpha" {
		t.Fatalf("unexpected category summary: %#v", cat)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: metrics.csv",
		"Run: run-1",
		"Rows: 10",
		"- Concentration: numeric (non-null 9, missing 10.0%)",
		"outliers: 1 above |z|>3.5",
		"- Category: text",
		"alpha(5)",
		"[CORRELATIONS]",
		"~ Score: r=",
		"[CORRELATION MATRIX]",
		"| Temp | ",
		"[HEAD AND SAMPLE ROWS]",
		"| Group | Concentration | Temp | Score | Category |",
		"[FIGURES]",
		"- Score Distribution: Score_distribution.png",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "[NOTES]") {
		t.Fatalf("unexpected notes section:\n%s", md)
	}
}

func TestBuildReportEmptyNumericColumnWarns(t *testing.T) {
	tab, err := table.FromRecords([]string{"x", "y"}, [][]string{{"", "1"}, {"", "2"}})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	opt := DefaultOptions()
	opt.Correlations = false
	rep := BuildReport("", tab, opt)
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "column x has no values") {
		t.Fatalf("warnings = %#v", rep.Warnings)
	}
	if rep.Corr != nil {
		t.Fatalf("correlations should be disabled")
	}
	md := rep.Markdown()
	if !strings.Contains(md, "[NOTES]") {
		t.Fatalf("markdown missing notes:\n%s", md)
	}
	if strings.Contains(md, "File:") {
		t.Fatalf("unnamed report should omit file line:\n%s", md)
	}
}

func TestFormatCoef(t *testing.T) {
	if got := FormatCoef(0.12345); got != "0.123" {
		t.Fatalf("FormatCoef = %q", got)
	}
}

func TestMarkdownClipsLongSampleValuesByRune(t *testing.T) {
	long := strings.Repeat("é", 100)
	tab, err := table.FromRecords([]string{"note"}, [][]string{{long}})
	if err != nil {
		t.Fatal(err)
	}
	md := BuildReport("", tab, DefaultOptions()).Markdown()
	want := strings.Repeat("é", 77) + "..."
	if !strings.Contains(md, "| "+want+" |") {
		t.Fatalf("sample value not clipped to 80 runes:\n%s", md)
	}
	if strings.Contains(md, "�") {
		t.Fatalf("sample value split a multi-byte rune:\n%s", md)
	}
	if got := clip("short", 80); got != "short" {
		t.Fatalf("clip(short) = %q", got)
	}
}
