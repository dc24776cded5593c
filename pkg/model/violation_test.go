package model

import "testing"

func TestDedupeKeyIncludesSelector(t *testing.T) {
	a := Violation{Code: "x", WCAGCriterion: "1.1.1", Selector: "div"}
	b := Violation{Code: "x", WCAGCriterion: "1.1.1", Selector: "span"}
	if a.DedupeKey() == b.DedupeKey() {
		t.Fatal("per-page dedupe key must include selector")
	}
}

func TestCrossPageKeyIgnoresSelector(t *testing.T) {
	a := Violation{Code: "x", WCAGCriterion: "1.1.1", Selector: "div"}
	b := Violation{Code: "x", WCAGCriterion: "1.1.1", Selector: "span"}
	if a.CrossPageKey() != b.CrossPageKey() {
		t.Fatal("cross-page key must not include selector")
	}
}

func TestSeverityRankOrdersCriticalFirst(t *testing.T) {
	if !(SeverityCritical.Rank() < SeverityHigh.Rank() &&
		SeverityHigh.Rank() < SeverityMedium.Rank() &&
		SeverityMedium.Rank() < SeverityLow.Rank()) {
		t.Fatal("severity rank must order critical < high < medium < low")
	}
}

func TestPrincipleFromCriterion(t *testing.T) {
	cases := map[string]POURPrinciple{
		"1.4.3": Perceivable,
		"2.4.4": Operable,
		"3.1.1": Understandable,
		"4.1.2": Robust,
		"":      Robust,
		"z.y.z": Robust,
	}
	for criterion, want := range cases {
		if got := PrincipleFromCriterion(criterion); got != want {
			t.Errorf("PrincipleFromCriterion(%q) = %s, want %s", criterion, got, want)
		}
	}
}

func TestHasScanner(t *testing.T) {
	v := Violation{Scanners: []ScannerKind{Wave, Axe}}
	if !v.HasScanner(Wave) {
		t.Fatal("expected HasScanner(Wave) to be true")
	}
	if v.HasScanner(Pa11y) {
		t.Fatal("expected HasScanner(Pa11y) to be false")
	}
}
