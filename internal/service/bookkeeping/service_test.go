package bookkeeping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

type memoryRepo struct {
	entries   map[string]*models.Entry
	cashIns   []*models.CashIn
	deposits  []*models.Deposit
	overrides map[string]models.OpeningOverride
	updates   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		entries:   make(map[string]*models.Entry),
		overrides: make(map[string]models.OpeningOverride),
	}
}

func (m *memoryRepo) InsertEntry(_ context.Context, e *models.Entry) error {
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func (m *memoryRepo) GetEntry(_ context.Context, storeID, id string) (*models.Entry, error) {
	e, ok := m.entries[id]
	if !ok || e.StoreID != storeID {
		return nil, models.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memoryRepo) UpdateEntry(_ context.Context, storeID, id string, u models.EntryUpdate) (*models.Entry, error) {
	e, ok := m.entries[id]
	if !ok || e.StoreID != storeID {
		return nil, models.ErrNotFound
	}
	m.updates++
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.Month != nil {
		e.Month = *u.Month
	}
	if u.Vendor != nil {
		e.Vendor = *u.Vendor
	}
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	if u.HST != nil {
		e.HST = *u.HST
	}
	if u.Net != nil {
		e.Net = *u.Net
	}
	if u.Department != nil {
		e.Department = *u.Department
	}
	if u.InvoiceURL != nil {
		e.InvoiceURL = *u.InvoiceURL
	}
	e.UpdatedBy = u.UpdatedBy
	e.UpdatedAt = u.UpdatedAt
	cp := *e
	return &cp, nil
}

func (m *memoryRepo) SoftDeleteEntry(_ context.Context, storeID, id string, del models.SoftDelete) error {
	e, ok := m.entries[id]
	if !ok || e.StoreID != storeID {
		return models.ErrNotFound
	}
	e.SoftDelete = del
	return nil
}

func (m *memoryRepo) ListEntriesByMonth(_ context.Context, storeID, month string) ([]models.Entry, error) {
	var out []models.Entry
	for _, e := range m.entries {
		if e.StoreID == storeID && e.Month == month {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertCashIn(_ context.Context, c *models.CashIn) error {
	m.cashIns = append(m.cashIns, c)
	return nil
}

func (m *memoryRepo) SoftDeleteCashIn(_ context.Context, storeID, id string, del models.SoftDelete) error {
	for _, c := range m.cashIns {
		if c.ID == id && c.StoreID == storeID {
			c.SoftDelete = del
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memoryRepo) ListCashInsByMonth(_ context.Context, storeID, month string) ([]models.CashIn, error) {
	var out []models.CashIn
	for _, c := range m.cashIns {
		if c.StoreID == storeID && c.Month == month {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertDeposit(_ context.Context, d *models.Deposit) error {
	m.deposits = append(m.deposits, d)
	return nil
}

func (m *memoryRepo) SoftDeleteDeposit(_ context.Context, storeID, id string, del models.SoftDelete) error {
	for _, d := range m.deposits {
		if d.ID == id && d.StoreID == storeID {
			d.SoftDelete = del
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memoryRepo) ListDepositsByMonth(_ context.Context, storeID, month string) ([]models.Deposit, error) {
	var out []models.Deposit
	for _, d := range m.deposits {
		if d.StoreID == storeID && d.Month == month {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpsertOpeningOverride(_ context.Context, o models.OpeningOverride) error {
	m.overrides[o.ID] = o
	return nil
}

func (m *memoryRepo) DeleteOpeningOverride(_ context.Context, storeID, month string) error {
	delete(m.overrides, models.OpeningOverrideID(storeID, month))
	return nil
}

func (m *memoryRepo) GetOpeningOverride(_ context.Context, storeID, month string) (models.OpeningOverride, error) {
	o, ok := m.overrides[models.OpeningOverrideID(storeID, month)]
	if !ok {
		return models.OpeningOverride{}, models.ErrNotFound
	}
	return o, nil
}

func newTestService(repo *memoryRepo) *Service {
	svc := NewService(repo, nil)
	svc.SetClock(func() time.Time { return time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC) })
	return svc
}

func baseEntry() EntryInput {
	return EntryInput{
		Date:       "2025-01-14",
		Vendor:     " Costco ",
		Amount:     50,
		HST:        5.75,
		Account:    "Supplies",
		Department: "boh",
		InvoiceURL: "https://blob.test/invoices/cesoir/a.pdf",
	}
}

func TestCreateEntryDerivesFields(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	e, err := svc.CreateEntry(context.Background(), "cesoir", "u-1", baseEntry())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Month != "2025-01" || e.Net != 44.25 || e.Vendor != "Costco" || e.Department != models.DepartmentBOH {
		t.Errorf("derived fields: got %+v", e)
	}
	if e.CreatedBy != "u-1" || e.CreatedAt.IsZero() {
		t.Errorf("audit stamp: got %+v", e.Audit)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *EntryInput)
		wantErr error
	}{
		{"missing invoice", func(in *EntryInput) { in.InvoiceURL = " " }, models.ErrInvoiceRequired},
		{"bad date", func(in *EntryInput) { in.Date = "2025-13-01" }, models.ErrInvalidDate},
		{"bad department", func(in *EntryInput) { in.Department = "KITCHEN" }, models.ErrValidation},
		{"no vendor", func(in *EntryInput) { in.Vendor = "" }, models.ErrValidation},
		{"zero amount", func(in *EntryInput) { in.Amount = 0 }, models.ErrValidation},
		{"negative hst", func(in *EntryInput) { in.HST = -1 }, models.ErrValidation},
		{"malformed draft id", func(in *EntryInput) { in.ID = "../etc" }, models.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseEntry()
			tt.mutate(&in)
			_, err := newTestService(newMemoryRepo()).CreateEntry(context.Background(), "cesoir", "u-1", in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateEntryNetFloorsAtZero(t *testing.T) {
	in := baseEntry()
	in.Amount = 5
	in.HST = 7
	e, err := newTestService(newMemoryRepo()).CreateEntry(context.Background(), "cesoir", "u-1", in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Net != 0 {
		t.Errorf("net: got %v, want 0", e.Net)
	}
}

func TestPatchEntryRecomputesNetAgainstPersistedCounterpart(t *testing.T) {
	tests := []struct {
		name    string
		update  models.EntryUpdate
		wantNet float64
	}{
		{name: "amount only", update: models.EntryUpdate{Amount: ptr(80.0)}, wantNet: 74.25},
		{name: "hst only", update: models.EntryUpdate{HST: ptr(10.005)}, wantNet: 39.99},
		{name: "both", update: models.EntryUpdate{Amount: ptr(20.0), HST: ptr(2.6)}, wantNet: 17.4},
		{name: "hst above amount", update: models.EntryUpdate{HST: ptr(60.0)}, wantNet: 0},
		{name: "vendor only keeps net", update: models.EntryUpdate{Vendor: ptr("Metro")}, wantNet: 44.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := newTestService(repo)
			e, err := svc.CreateEntry(context.Background(), "cesoir", "u-1", baseEntry())
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			got, err := svc.PatchEntry(context.Background(), "cesoir", e.ID, "u-2", tt.update)
			if err != nil {
				t.Fatalf("patch: %v", err)
			}
			if got.Net != tt.wantNet {
				t.Errorf("net: got %v, want %v", got.Net, tt.wantNet)
			}
			if got.UpdatedBy != "u-2" {
				t.Errorf("updatedBy: got %q, want u-2", got.UpdatedBy)
			}
		})
	}
}

func TestPatchEntryRederivesMonth(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	e, _ := svc.CreateEntry(context.Background(), "cesoir", "u-1", baseEntry())

	got, err := svc.PatchEntry(context.Background(), "cesoir", e.ID, "u-1", models.EntryUpdate{Date: ptr("2025-02-01")})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if got.Month != "2025-02" {
		t.Errorf("month: got %q, want 2025-02", got.Month)
	}
}

func TestPatchEntryRejections(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	e, _ := svc.CreateEntry(ctx, "cesoir", "u-1", baseEntry())

	if _, err := svc.PatchEntry(ctx, "cesoir", e.ID, "u-1", models.EntryUpdate{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("empty update: got %v", err)
	}
	if _, err := svc.PatchEntry(ctx, "midi", e.ID, "u-1", models.EntryUpdate{Vendor: ptr("x")}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("cross-store patch: got %v", err)
	}
	if _, err := svc.PatchEntry(ctx, "cesoir", e.ID, "u-1", models.EntryUpdate{InvoiceURL: ptr("")}); !errors.Is(err, models.ErrInvoiceRequired) {
		t.Errorf("clearing invoice: got %v", err)
	}

	if err := svc.DeleteEntry(ctx, "cesoir", e.ID, "u-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.PatchEntry(ctx, "cesoir", e.ID, "u-1", models.EntryUpdate{Vendor: ptr("x")}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("patch deleted: got %v", err)
	}
}

func TestAttachInvoiceWritesOnce(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	e, _ := svc.CreateEntry(ctx, "cesoir", "u-1", baseEntry())

	if err := svc.AttachInvoice(ctx, "cesoir", e.ID, "https://blob.test/new.pdf", "u-1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	got, _ := repo.GetEntry(ctx, "cesoir", e.ID)
	if got.InvoiceURL != "https://blob.test/new.pdf" {
		t.Errorf("invoice: got %q", got.InvoiceURL)
	}
	if repo.updates != 1 {
		t.Errorf("updates: got %d, want 1", repo.updates)
	}
}

func TestListEntriesHidesDeletedByDefault(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	keep, _ := svc.CreateEntry(ctx, "cesoir", "u-1", baseEntry())
	gone, _ := svc.CreateEntry(ctx, "cesoir", "u-1", baseEntry())
	_ = svc.DeleteEntry(ctx, "cesoir", gone.ID, "u-1")

	live, err := svc.ListEntries(ctx, "cesoir", "2025-01", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(live) != 1 || live[0].ID != keep.ID {
		t.Errorf("live entries: got %+v", live)
	}

	all, _ := svc.ListEntries(ctx, "cesoir", "2025-01", true)
	if len(all) != 2 {
		t.Errorf("all entries: got %d, want 2", len(all))
	}
}

func TestCashInsAndDeposits(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.CreateCashIn(ctx, "cesoir", "u-1", CashInInput{Date: "2025-01-02", Amount: 0}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("zero cash-in: got %v", err)
	}
	c, err := svc.CreateCashIn(ctx, "cesoir", "u-1", CashInInput{Date: "2025-01-02", Amount: 200.004, Source: "bank"})
	if err != nil {
		t.Fatalf("cash-in: %v", err)
	}
	if c.Amount != 200 || c.Month != "2025-01" {
		t.Errorf("cash-in: got %+v", c)
	}
	if err := svc.DeleteCashIn(ctx, "cesoir", c.ID, "u-1"); err != nil {
		t.Fatalf("delete cash-in: %v", err)
	}
	if list, _ := svc.ListCashIns(ctx, "cesoir", "2025-01"); len(list) != 0 {
		t.Errorf("deleted cash-in listed: %+v", list)
	}

	d, err := svc.CreateDeposit(ctx, "cesoir", "u-1", DepositInput{Date: "2025-01-31", Amount: 500, Reference: "DEP-1"})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	list, _ := svc.ListDeposits(ctx, "cesoir", "2025-01")
	if len(list) != 1 || list[0].ID != d.ID {
		t.Errorf("deposits: got %+v", list)
	}
}

func TestOpeningOverrides(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.SetOpeningOverride(ctx, "cesoir", "2025-1", "admin", 10); !errors.Is(err, models.ErrInvalidMonth) {
		t.Errorf("bad month: got %v", err)
	}

	o, err := svc.SetOpeningOverride(ctx, "cesoir", "2025-02", "admin", 300.555)
	if err != nil {
		t.Fatalf("set override: %v", err)
	}
	if o.Amount != 300.56 || o.ID != "cesoir:2025-02" {
		t.Errorf("override: got %+v", o)
	}

	got, ok, err := svc.GetOpeningOverride(ctx, "cesoir", "2025-02")
	if err != nil || !ok || got.Amount != 300.56 {
		t.Errorf("get override: got %+v ok=%v err=%v", got, ok, err)
	}

	if err := svc.ClearOpeningOverride(ctx, "cesoir", "2025-02"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := svc.GetOpeningOverride(ctx, "cesoir", "2025-02"); ok {
		t.Error("override still present after clear")
	}
}

func ptr[T any](v T) *T {
	return &v
}
