package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

type memoryRepo struct {
	counts   []models.DenominationAudit
	closings []models.ClosingAudit
	failSave bool
}

func (m *memoryRepo) InsertDenominationAudit(_ context.Context, a models.DenominationAudit) error {
	if m.failSave {
		return errors.New("write rejected")
	}
	m.counts = append(m.counts, a)
	return nil
}

func (m *memoryRepo) ListDenominationAudits(_ context.Context, storeID, month string) ([]models.DenominationAudit, error) {
	var out []models.DenominationAudit
	for _, a := range m.counts {
		if a.StoreID == storeID && a.Month == month {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertClosingAudit(_ context.Context, a models.ClosingAudit) error {
	m.closings = append(m.closings, a)
	return nil
}

func (m *memoryRepo) ListClosingAudits(_ context.Context, storeID, month string) ([]models.ClosingAudit, error) {
	var out []models.ClosingAudit
	for _, a := range m.closings {
		if a.StoreID == storeID && a.Month == month {
			out = append(out, a)
		}
	}
	return out, nil
}

type fixedBalance struct {
	closing float64
}

func (f *fixedBalance) Closing(context.Context, string, string) (float64, error) {
	return f.closing, nil
}

func TestRecordDenominationAuditShortage(t *testing.T) {
	repo := &memoryRepo{}
	r := NewReconciler(repo, &fixedBalance{closing: 120}, nil)

	view, err := r.RecordDenominationAudit(context.Background(), "cesoir", "2025-01", CountInput{
		Date:          "2025-01-31",
		Denominations: models.Denominations{N20: 3},
		Change:        5,
		Actor:         "manager@cesoir",
	})
	if err != nil {
		t.Fatalf("record audit: %v", err)
	}

	if view.Total != 65 {
		t.Errorf("counted total: got %v, want 65", view.Total)
	}
	if view.Variance != -55 {
		t.Errorf("variance: got %v, want -55", view.Variance)
	}
	if len(repo.counts) != 1 || repo.counts[0].Total != 65 {
		t.Fatalf("persisted audits: got %+v", repo.counts)
	}
}

func TestRecordDenominationAuditSurplus(t *testing.T) {
	r := NewReconciler(&memoryRepo{}, &fixedBalance{closing: 99.9}, nil)

	view, err := r.RecordDenominationAudit(context.Background(), "s", "2025-01", CountInput{
		Date:          "2025-01-15",
		Denominations: models.Denominations{N100: 1},
		Change:        0.15,
	})
	if err != nil {
		t.Fatalf("record audit: %v", err)
	}
	if view.Variance != 0.25 {
		t.Errorf("variance: got %v, want 0.25", view.Variance)
	}
}

func TestListUsesLiveClosing(t *testing.T) {
	repo := &memoryRepo{}
	balance := &fixedBalance{closing: 120}
	r := NewReconciler(repo, balance, nil)

	_, err := r.RecordDenominationAudit(context.Background(), "s", "2025-01", CountInput{
		Date:          "2025-01-31",
		Denominations: models.Denominations{N20: 6},
	})
	if err != nil {
		t.Fatalf("record audit: %v", err)
	}

	// A later edit lowers the closing balance.
	balance.closing = 100

	views, err := r.ListDenominationAudits(context.Background(), "s", "2025-01")
	if err != nil {
		t.Fatalf("list audits: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("list audits: got %d, want 1", len(views))
	}
	if views[0].Variance != 20 {
		t.Errorf("live variance: got %v, want 20", views[0].Variance)
	}
	if views[0].VarianceAtAudit != 0 {
		t.Errorf("variance at audit: got %v, want 0", views[0].VarianceAtAudit)
	}
}

func TestRecordDenominationAuditValidation(t *testing.T) {
	r := NewReconciler(&memoryRepo{}, &fixedBalance{}, nil)

	tests := []struct {
		name  string
		month string
		in    CountInput
	}{
		{name: "negative count", month: "2025-01", in: CountInput{Date: "2025-01-02", Denominations: models.Denominations{N5: -1}}},
		{name: "negative change", month: "2025-01", in: CountInput{Date: "2025-01-02", Change: -0.5}},
		{name: "bad date", month: "2025-01", in: CountInput{Date: "02/01/2025"}},
		{name: "bad month", month: "January", in: CountInput{Date: "2025-01-02"}},
		{name: "date outside month", month: "2025-02", in: CountInput{Date: "2025-01-10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.RecordDenominationAudit(context.Background(), "s", tt.month, tt.in); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRecordDenominationAuditRejectsDateOutsideMonth(t *testing.T) {
	repo := &memoryRepo{}
	r := NewReconciler(repo, &fixedBalance{}, nil)

	_, err := r.RecordDenominationAudit(context.Background(), "s", "2025-02", CountInput{Date: "2025-01-10", Change: 1})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if len(repo.counts) != 0 {
		t.Errorf("saved counts: got %d, want 0", len(repo.counts))
	}
}

func TestRecordDenominationAuditSaveFailure(t *testing.T) {
	r := NewReconciler(&memoryRepo{failSave: true}, &fixedBalance{}, nil)

	_, err := r.RecordDenominationAudit(context.Background(), "s", "2025-01", CountInput{Date: "2025-01-02"})
	if err == nil {
		t.Fatal("expected persistence error to surface")
	}
}

func TestClosingAudit(t *testing.T) {
	repo := &memoryRepo{}
	r := NewReconciler(repo, &fixedBalance{}, nil)

	audit, err := r.RecordClosingAudit(context.Background(), "s", ClosingInput{Date: "2025-02-28", Amount: -12.345, Note: "short"})
	if err != nil {
		t.Fatalf("record closing audit: %v", err)
	}
	if audit.Month != "2025-02" || audit.Amount != -12.35 {
		t.Errorf("closing audit: got month %q amount %v", audit.Month, audit.Amount)
	}

	list, err := r.ListClosingAudits(context.Background(), "s", "2025-02")
	if err != nil || len(list) != 1 {
		t.Fatalf("list closing audits: %v (%d)", err, len(list))
	}
}
