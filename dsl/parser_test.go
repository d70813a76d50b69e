package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/examsheet/dsl"
)

const sampleQuery = `
# 行政警察三等
years 110-113, 108
subjects "刑法", "憲法"
keyword "毒品"
title "刑法與憲法"
no-answers
`

func TestParseQuery(t *testing.T) {
	q, err := dsl.ParseString(sampleQuery)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(q.Clauses) != 5 {
		t.Fatalf("expected 5 clauses, got %d", len(q.Clauses))
	}
	years, err := q.Years()
	if err != nil {
		t.Fatalf("Years: %v", err)
	}
	if got := strings.Join(years, ","); got != "110,111,112,113,108" {
		t.Fatalf("unexpected years %s", got)
	}
	if got := strings.Join(q.Subjects(), ","); got != "刑法,憲法" {
		t.Fatalf("unexpected subjects %s", got)
	}
	if q.Title() != "刑法與憲法" {
		t.Fatalf("unexpected title %q", q.Title())
	}
}

func TestSelectionFromQuery(t *testing.T) {
	sel, _, err := dsl.ParseSelection(sampleQuery, true)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if sel.IncludeAnswers {
		t.Fatalf("no-answers should disable answers")
	}
	if !sel.Years["111"] || sel.Years["109"] {
		t.Fatalf("unexpected year set %v", sel.Years)
	}
	if !sel.Subjects["憲法"] || sel.Keyword != "毒品" {
		t.Fatalf("unexpected selection %+v", sel)
	}

	sel, _, err = dsl.ParseSelection("years 112; answers", false)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if !sel.IncludeAnswers || len(sel.Years) != 1 {
		t.Fatalf("unexpected selection %+v", sel)
	}
}

func TestEmptyQueryMeansEverything(t *testing.T) {
	sel, q, err := dsl.ParseSelection("", true)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if len(q.Clauses) != 0 || len(sel.Years) != 0 || len(sel.Subjects) != 0 || !sel.IncludeAnswers {
		t.Fatalf("empty query should select everything: %+v", sel)
	}
}

func TestParseQueryErrors(t *testing.T) {
	bad := []string{
		`years`,
		`years 113-110`,
		`subjects 刑法`,
		`keyword`,
		`colors "red"`,
		`years 1-999`,
	}
	for _, in := range bad {
		if _, _, err := dsl.ParseSelection(in, true); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
