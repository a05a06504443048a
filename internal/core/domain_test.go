package core

import (
	"errors"
	"testing"
)

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"debit", "Debit", "DEBIT", " debit "} {
		d, err := ParseDirection(s)
		if err != nil || d != DirectionDebit {
			t.Fatalf("ParseDirection(%q) = %q, %v", s, d, err)
		}
	}
	if _, err := ParseDirection("sideways"); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestParseFlowAndAccount(t *testing.T) {
	if f, err := ParseFlow("Income"); err != nil || f != FlowIncome {
		t.Fatalf("ParseFlow = %q, %v", f, err)
	}
	if _, err := ParseFlow("credit"); err == nil {
		t.Fatalf("expected error for non-flow direction")
	}
	if a, err := ParseAccount("PETTY"); err != nil || a != AccountPetty {
		t.Fatalf("ParseAccount = %q, %v", a, err)
	}
	if _, err := ParseAccount("vault"); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestParseInvoiceStatus(t *testing.T) {
	for in, want := range map[string]InvoiceStatus{
		"pending": StatusPending,
		"Paid":    StatusPaid,
		"OVERDUE": StatusOverdue,
	} {
		got, err := ParseInvoiceStatus(in)
		if err != nil || got != want {
			t.Fatalf("ParseInvoiceStatus(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseInvoiceStatus("void"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestStatementValidate(t *testing.T) {
	good := Statement{
		BankName:      "ACME Bank",
		SelectedMonth: "2024-03",
		Entries:       []Entry{{Amount: dec("10"), Direction: DirectionDebit}},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Statement{
		{BankName: "", SelectedMonth: "2024-03"},
		{BankName: "b", SelectedMonth: "march"},
		{BankName: "b", SelectedMonth: "2024-03", Entries: []Entry{{Amount: dec("10"), Direction: "?"}}},
		{BankName: "b", SelectedMonth: "2024-03", Entries: []Entry{{Amount: dec("-10"), Direction: DirectionDebit}}},
	}
	for i, s := range bads {
		if err := s.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestInvoiceValidate(t *testing.T) {
	good := Invoice{Vendor: "v", Number: "INV-1", Status: StatusPending, Amount: dec("10")}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Invoice{
		{Vendor: "", Number: "n", Status: StatusPaid},
		{Vendor: "v", Number: "", Status: StatusPaid},
		{Vendor: "v", Number: "n", Status: "Void"},
		{Vendor: "v", Number: "n", Status: StatusPaid, Amount: dec("-1")},
	}
	for i, inv := range bads {
		if err := inv.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
