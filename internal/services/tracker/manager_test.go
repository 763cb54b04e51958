package tracker

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dreslan/tapfi/internal/models"
	"github.com/dreslan/tapfi/internal/services/storage"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return NewManager(store, dir), dir
}

func TestLoadFirstRunDefaults(t *testing.T) {
	m, _ := newTestManager(t)

	data, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(data.Accounts) != 0 {
		t.Errorf("Expected no accounts on first run, got %d", len(data.Accounts))
	}
	if data.FITarget != 1000000 {
		t.Errorf("Expected default target 1000000, got %v", data.FITarget)
	}
	if data.WithdrawalRate != 4 {
		t.Errorf("Expected default withdrawal rate 4, got %v", data.WithdrawalRate)
	}
	if data.MonthlyContribution != 2000 {
		t.Errorf("Expected default contribution 2000, got %v", data.MonthlyContribution)
	}
	if data.ProjectionYears != nil {
		t.Errorf("Expected no projection override by default, got %v", *data.ProjectionYears)
	}
}

func TestLoadCorruptBlobFallsBackToDefaults(t *testing.T) {
	m, dir := newTestManager(t)
	if err := os.WriteFile(filepath.Join(dir, stateFile), []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to plant corrupt blob: %v", err)
	}

	data, err := m.Load()
	if err != nil {
		t.Fatalf("Expected defaults for a corrupt blob, got error: %v", err)
	}
	if data.FITarget != 1000000 {
		t.Errorf("Expected default target after corrupt blob, got %v", data.FITarget)
	}
}

func TestLoadNormalizesZeroFields(t *testing.T) {
	m, dir := newTestManager(t)
	blob := `{"accounts":[],"fiTarget":0,"withdrawalRate":0,"annualExpenses":0,"currentAge":0,"retirementAge":0}`
	if err := os.WriteFile(filepath.Join(dir, stateFile), []byte(blob), 0644); err != nil {
		t.Fatalf("Failed to plant blob: %v", err)
	}

	data, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data.FITarget != 1000000 || data.WithdrawalRate != 4 || data.AnnualExpenses != 40000 {
		t.Errorf("Expected zero goal fields replaced by defaults, got %v/%v/%v",
			data.FITarget, data.WithdrawalRate, data.AnnualExpenses)
	}
	if data.CurrentAge != 30 || data.RetirementAge != 65 {
		t.Errorf("Expected zero ages replaced by defaults, got %d/%d", data.CurrentAge, data.RetirementAge)
	}
}

func TestSaveGoal(t *testing.T) {
	m, _ := newTestManager(t)

	data, err := m.SaveGoal(1500000, 3.5, 50000)
	if err != nil {
		t.Fatalf("SaveGoal failed: %v", err)
	}
	if data.FITarget != 1500000 || data.WithdrawalRate != 3.5 || data.AnnualExpenses != 50000 {
		t.Errorf("Unexpected saved goal: %+v", data.Assumptions)
	}

	// Survives a reload.
	data, err = m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data.FITarget != 1500000 {
		t.Errorf("Expected goal persisted, got %v", data.FITarget)
	}
}

func TestSaveGoalDerivesExpenses(t *testing.T) {
	m, _ := newTestManager(t)

	data, err := m.SaveGoal(1000000, 4, 0)
	if err != nil {
		t.Fatalf("SaveGoal failed: %v", err)
	}
	if data.AnnualExpenses != 40000 {
		t.Errorf("Expected expenses derived as target*rate, got %v", data.AnnualExpenses)
	}
}

func TestSaveGoalRejectsBadInput(t *testing.T) {
	m, _ := newTestManager(t)

	tests := []struct {
		name    string
		target  float64
		rate    float64
		expense float64
	}{
		{"zero target", 0, 4, 40000},
		{"negative target", -5, 4, 40000},
		{"zero rate", 1000000, 0, 40000},
		{"rate above cap", 1000000, 11, 40000},
		{"NaN target", math.NaN(), 4, 40000},
		{"negative expenses", 1000000, 4, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.SaveGoal(tt.target, tt.rate, tt.expense)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("Expected ValidationError, got %v", err)
			}
		})
	}

	// A failed save must not disturb the stored goal.
	data, _ := m.Load()
	if data.FITarget != 1000000 {
		t.Errorf("Expected defaults untouched after rejected saves, got %v", data.FITarget)
	}
}

func TestUpdateAssumptionsPartial(t *testing.T) {
	m, _ := newTestManager(t)

	contribution := 3000.0
	data, err := m.UpdateAssumptions(AssumptionUpdates{MonthlyContribution: &contribution})
	if err != nil {
		t.Fatalf("UpdateAssumptions failed: %v", err)
	}
	if data.MonthlyContribution != 3000 {
		t.Errorf("Expected contribution updated, got %v", data.MonthlyContribution)
	}
	if data.AnnualReturn != 7 {
		t.Errorf("Expected untouched fields to keep defaults, got %v", data.AnnualReturn)
	}
}

func TestUpdateAssumptionsProjectionYears(t *testing.T) {
	m, _ := newTestManager(t)

	years := 25
	data, err := m.UpdateAssumptions(AssumptionUpdates{ProjectionYears: &years})
	if err != nil {
		t.Fatalf("UpdateAssumptions failed: %v", err)
	}
	if data.ProjectionYears == nil || *data.ProjectionYears != 25 {
		t.Fatalf("Expected projection override 25, got %v", data.ProjectionYears)
	}

	// A zero value clears the override back to the auto horizon.
	zero := 0
	data, err = m.UpdateAssumptions(AssumptionUpdates{ProjectionYears: &zero})
	if err != nil {
		t.Fatalf("UpdateAssumptions failed: %v", err)
	}
	if data.ProjectionYears != nil {
		t.Errorf("Expected override cleared, got %v", *data.ProjectionYears)
	}
}

func TestAddManualAccount(t *testing.T) {
	m, _ := newTestManager(t)

	account, err := m.AddManualAccount("House Fund", models.TypeSavings, 25000)
	if err != nil {
		t.Fatalf("AddManualAccount failed: %v", err)
	}
	if account.ID == "" {
		t.Error("Expected a minted account id")
	}
	if account.Source != models.SourceManual {
		t.Errorf("Expected manual source, got %q", account.Source)
	}
	if len(account.Holdings) != 1 {
		t.Fatalf("Expected one synthetic holding, got %d", len(account.Holdings))
	}
	if account.Holdings[0].Value != 25000 {
		t.Errorf("Expected holding to mirror the balance, got %v", account.Holdings[0].Value)
	}
	if account.Holdings[0].AssetClass != models.ClassCash {
		t.Errorf("Expected savings holding classed as cash, got %q", account.Holdings[0].AssetClass)
	}

	data, _ := m.Load()
	if len(data.Accounts) != 1 {
		t.Errorf("Expected 1 persisted account, got %d", len(data.Accounts))
	}
}

func TestAddManualAccountValidation(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.AddManualAccount("", models.TypeSavings, 100); err == nil {
		t.Error("Expected error for empty name")
	}
	if _, err := m.AddManualAccount("X", models.TypeSavings, -1); err == nil {
		t.Error("Expected error for negative balance")
	}
	if _, err := m.AddManualAccount("X", models.TypeSavings, math.NaN()); err == nil {
		t.Error("Expected error for NaN balance")
	}
	if _, err := m.AddManualAccount("X", "castle", 100); err == nil {
		t.Error("Expected error for unknown type")
	}

	data, _ := m.Load()
	if len(data.Accounts) != 0 {
		t.Errorf("Expected no accounts persisted after rejected adds, got %d", len(data.Accounts))
	}
}

func TestAddBitcoinAccount(t *testing.T) {
	m, _ := newTestManager(t)

	account, err := m.AddBitcoinAccount(0.5, 60000)
	if err != nil {
		t.Fatalf("AddBitcoinAccount failed: %v", err)
	}
	if account.Type != models.TypeCrypto {
		t.Errorf("Expected crypto type, got %q", account.Type)
	}
	if math.Abs(account.Balance-30000) > 0.01 {
		t.Errorf("Expected balance 30000, got %v", account.Balance)
	}
	if account.Name != "Bitcoin (0.50000000 BTC)" {
		t.Errorf("Unexpected name %q", account.Name)
	}
	if account.BTCAmount != 0.5 || account.BTCPrice != 60000 {
		t.Errorf("Expected inputs retained, got %v/%v", account.BTCAmount, account.BTCPrice)
	}

	if _, err := m.AddBitcoinAccount(0, 60000); err == nil {
		t.Error("Expected error for zero amount")
	}
	if _, err := m.AddBitcoinAccount(0.5, 0); err == nil {
		t.Error("Expected error for zero price")
	}
}

func TestDeleteAccount(t *testing.T) {
	m, _ := newTestManager(t)

	account, err := m.AddManualAccount("House Fund", models.TypeSavings, 25000)
	if err != nil {
		t.Fatalf("AddManualAccount failed: %v", err)
	}

	if err := m.DeleteAccount(account.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	data, _ := m.Load()
	if len(data.Accounts) != 0 {
		t.Errorf("Expected account removed, got %d", len(data.Accounts))
	}

	if err := m.DeleteAccount("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

const schwabExport = `Tony_IRA ...6789
"Symbol","Description","Qty (Quantity)","Price","Price Chng $","Price Chng %","Mkt Val (Market Value)"
"VTI","VANGUARD TOTAL STOCK MARKET ETF","20","$250.00","--","--","$5,000.00"
"Cash & Cash Investments","--","--","--","--","--","$5,000.00"
"Account Total","--","--","--","--","--","$10,000.00"
`

func TestImportStatement(t *testing.T) {
	m, _ := newTestManager(t)

	res, err := m.ImportStatement(schwabExport)
	if err != nil {
		t.Fatalf("ImportStatement failed: %v", err)
	}
	if res.Format != "Schwab" {
		t.Errorf("Expected Schwab format, got %q", res.Format)
	}
	if res.Added != 1 || res.Updated != 0 {
		t.Errorf("Expected 1 added / 0 updated, got %d / %d", res.Added, res.Updated)
	}

	// Importing the same statement again updates in place.
	res, err = m.ImportStatement(schwabExport)
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}
	if res.Added != 0 || res.Updated != 1 {
		t.Errorf("Expected 0 added / 1 updated on re-import, got %d / %d", res.Added, res.Updated)
	}

	data, _ := m.Load()
	if len(data.Accounts) != 1 {
		t.Fatalf("Expected 1 account after re-import, got %d", len(data.Accounts))
	}
	if math.Abs(data.Accounts[0].Balance-10000) > 0.01 {
		t.Errorf("Expected balance 10000, got %v", data.Accounts[0].Balance)
	}
}

func TestImportStatementBadFormatCommitsNothing(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.ImportStatement("Date,Payee,Amount\n2024-01-01,Coffee,4.50"); err == nil {
		t.Fatal("Expected an error for an unrecognized statement")
	}

	data, _ := m.Load()
	if len(data.Accounts) != 0 {
		t.Errorf("Expected no accounts after failed import, got %d", len(data.Accounts))
	}
}

func TestHistoryUpsertAndDelete(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.UpsertHistory("2026-08-31", 50000); err != nil {
		t.Fatalf("UpsertHistory failed: %v", err)
	}
	if _, err := m.UpsertHistory("2026-08-30", 49000); err != nil {
		t.Fatalf("UpsertHistory failed: %v", err)
	}
	data, err := m.UpsertHistory("2026-08-31", 51000)
	if err != nil {
		t.Fatalf("UpsertHistory failed: %v", err)
	}

	if len(data.History) != 2 {
		t.Fatalf("Expected one entry per date, got %d", len(data.History))
	}
	if data.History[0].Date != "2026-08-30" || data.History[1].Date != "2026-08-31" {
		t.Errorf("Expected history sorted by date, got %+v", data.History)
	}
	if data.History[1].NetWorth != 51000 {
		t.Errorf("Expected re-upsert to replace the value, got %v", data.History[1].NetWorth)
	}

	if _, err := m.UpsertHistory("31/08/2026", 1); err == nil {
		t.Error("Expected error for a malformed date")
	}

	if err := m.DeleteHistory("2026-08-30"); err != nil {
		t.Fatalf("DeleteHistory failed: %v", err)
	}
	if err := m.DeleteHistory("2026-08-30"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a missing date, got %v", err)
	}
}

func TestRecordSnapshotSkipsUnchanged(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.RecordSnapshot("2026-08-31", 50000); err != nil {
		t.Fatalf("RecordSnapshot failed: %v", err)
	}
	first, _ := m.Load()

	if err := m.RecordSnapshot("2026-08-31", 50000); err != nil {
		t.Fatalf("RecordSnapshot failed: %v", err)
	}
	second, _ := m.Load()

	if len(second.History) != 1 {
		t.Fatalf("Expected a single entry, got %d", len(second.History))
	}
	if !second.LastUpdated.Equal(first.LastUpdated) {
		t.Error("Expected unchanged snapshot to skip the save")
	}

	if err := m.RecordSnapshot("2026-08-31", 52000); err != nil {
		t.Fatalf("RecordSnapshot failed: %v", err)
	}
	third, _ := m.Load()
	if third.History[0].NetWorth != 52000 {
		t.Errorf("Expected changed value recorded, got %v", third.History[0].NetWorth)
	}
}

func TestBackupRoundtrip(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.AddManualAccount("House Fund", models.TypeSavings, 25000); err != nil {
		t.Fatalf("AddManualAccount failed: %v", err)
	}
	if _, err := m.SaveGoal(1500000, 3.5, 50000); err != nil {
		t.Fatalf("SaveGoal failed: %v", err)
	}
	if _, err := m.UpsertHistory("2026-08-31", 25000); err != nil {
		t.Fatalf("UpsertHistory failed: %v", err)
	}

	b, err := m.ExportBackup()
	if err != nil {
		t.Fatalf("ExportBackup failed: %v", err)
	}
	if b.Version != models.BackupVersion {
		t.Errorf("Expected version %q, got %q", models.BackupVersion, b.Version)
	}
	if b.ExportedAt == "" {
		t.Error("Expected an export timestamp")
	}

	// Restore into a fresh tracker.
	m2, _ := newTestManager(t)
	data, err := m2.ImportBackup(*b)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if len(data.Accounts) != 1 || data.Accounts[0].Name != "House Fund" {
		t.Errorf("Expected restored account, got %+v", data.Accounts)
	}
	if data.FITarget != 1500000 {
		t.Errorf("Expected restored goal, got %v", data.FITarget)
	}
	if len(data.History) != 1 {
		t.Errorf("Expected restored history, got %d entries", len(data.History))
	}
}

func TestImportBackupRequiresAccounts(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.ImportBackup(models.Backup{})
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError for a backup without accounts, got %v", err)
	}
}

func TestImportBackupRepairsAccounts(t *testing.T) {
	m, _ := newTestManager(t)

	b := models.Backup{
		Accounts: []models.Account{
			{Name: "No ID", Type: "castle", Balance: 1, Holdings: []models.Holding{{Description: "x", Value: 500}}},
			{Name: "Numbered", Number: "6789", Type: models.TypeIRA, Balance: 9000},
		},
	}
	data, err := m.ImportBackup(b)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}

	if data.Accounts[0].ID == "" {
		t.Error("Expected a minted id for the account without one")
	}
	if data.Accounts[0].Type != models.TypeOther {
		t.Errorf("Expected unknown type coerced to other, got %q", data.Accounts[0].Type)
	}
	if data.Accounts[0].Balance != 500 {
		t.Errorf("Expected balance recomputed from holdings, got %v", data.Accounts[0].Balance)
	}
	if data.Accounts[1].ID != "6789" {
		t.Errorf("Expected vendor number used as id, got %q", data.Accounts[1].ID)
	}
}

func TestClearAll(t *testing.T) {
	m, dir := newTestManager(t)

	if _, err := m.AddManualAccount("House Fund", models.TypeSavings, 25000); err != nil {
		t.Fatalf("AddManualAccount failed: %v", err)
	}
	if err := m.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, stateFile)); !os.IsNotExist(err) {
		t.Error("Expected state blob removed")
	}

	data, err := m.Load()
	if err != nil {
		t.Fatalf("Load after clear failed: %v", err)
	}
	if len(data.Accounts) != 0 || data.FITarget != 1000000 {
		t.Errorf("Expected first-run defaults after clear, got %+v", data)
	}

	// Clearing an already-empty tracker is fine.
	if err := m.ClearAll(); err != nil {
		t.Fatalf("Second ClearAll failed: %v", err)
	}
}
