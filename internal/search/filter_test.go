package search

import (
	"testing"

	"casetrack-backend/internal/cases"
)

func mkCase(id, client, number, court string) cases.Case {
	return cases.Case{ID: id, ClientName: client, CaseNumber: number, CourtName: court}
}

func TestCasesMatchesAnyFieldCaseInsensitively(t *testing.T) {
	list := []cases.Case{
		mkCase("1", "John Smith", "CN-100", "District Court"),
		mkCase("2", "Jane Doe", "SMITH-7", "High Court"),
		mkCase("3", "Acme Corp", "CN-200", "Smithville Court"),
		mkCase("4", "Bob Ray", "CN-300", "County Court"),
	}

	got := Cases(list, "SMITH")
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(got))
	}
	// Result keeps input order.
	if got[0].ID != "1" || got[1].ID != "2" || got[2].ID != "3" {
		t.Fatalf("unexpected order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestCasesEmptyQueryReturnsAll(t *testing.T) {
	list := []cases.Case{
		mkCase("1", "John Smith", "CN-100", "District Court"),
		mkCase("2", "Jane Doe", "CN-200", "High Court"),
	}

	if got := Cases(list, ""); len(got) != 2 {
		t.Fatalf("expected all cases for empty query, got %d", len(got))
	}
	if got := Cases(list, "   "); len(got) != 2 {
		t.Fatalf("expected all cases for blank query, got %d", len(got))
	}
}

func TestCasesNoMatch(t *testing.T) {
	list := []cases.Case{
		mkCase("1", "John Smith", "CN-100", "District Court"),
	}

	got := Cases(list, "zyx")
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestCasesSubstringInCaseNumber(t *testing.T) {
	list := []cases.Case{
		mkCase("1", "John Smith", "2024-CR-0042", "District Court"),
		mkCase("2", "Jane Doe", "2023-CV-0001", "District Court"),
	}

	got := Cases(list, "cr-00")
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected case 1, got %d matches", len(got))
	}
}
