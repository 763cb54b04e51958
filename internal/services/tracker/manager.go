// Package tracker owns the persisted application state: the account list,
// the FI assumptions, and the net-worth history. State lives in a single
// JSON blob that is read wholesale and rewritten wholesale after every
// mutation; there is only one logical writer.
package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreslan/tapfi/internal/models"
	"github.com/dreslan/tapfi/internal/services/reconcile"
	"github.com/dreslan/tapfi/internal/services/statement"
	"github.com/dreslan/tapfi/internal/services/storage"
)

// stateFile is the fixed storage key for the persisted blob.
const stateFile = "tapfi.json"

// ErrNotFound reports a reference to an account or entry that no longer
// exists.
var ErrNotFound = errors.New("not found")

// Data is the persisted application state. Assumptions embed so the JSON
// shape matches the documented blob: accounts and assumption fields at the
// top level.
type Data struct {
	Accounts []models.Account `json:"accounts"`
	models.Assumptions
	History     []models.HistoryEntry `json:"history,omitempty"`
	LastUpdated time.Time             `json:"lastUpdated"`
}

// Manager loads, mutates, and saves the state blob.
type Manager struct {
	store *storage.Storage
	path  string
	mu    sync.RWMutex
}

// NewManager creates a Manager persisting under dataDir.
func NewManager(store *storage.Storage, dataDir string) *Manager {
	return &Manager{
		store: store,
		path:  filepath.Join(dataDir, stateFile),
	}
}

// Load returns the current state. A missing blob is a valid first run and a
// corrupt one is logged and treated the same way; neither is an error.
func (m *Manager) Load() (*Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadInternal()
}

// loadInternal reads state without acquiring the lock (caller holds it).
func (m *Manager) loadInternal() (*Data, error) {
	if _, err := m.store.Stat(m.path); os.IsNotExist(err) {
		return defaultData(), nil
	}

	raw, err := m.store.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("tracker: state blob is not parseable, falling back to defaults: %v", err)
		return defaultData(), nil
	}

	normalize(&data)
	return &data, nil
}

// saveInternal writes state without acquiring the lock (caller holds it).
func (m *Manager) saveInternal(data *Data) error {
	data.LastUpdated = time.Now()
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return m.store.WriteFile(m.path, raw, 0644)
}

func defaultData() *Data {
	return &Data{
		Accounts:    []models.Account{},
		Assumptions: models.DefaultAssumptions(),
		History:     []models.HistoryEntry{},
	}
}

// normalize fills absent or zero fields with the documented defaults, the
// way the first-run state is defined.
func normalize(data *Data) {
	defaults := models.DefaultAssumptions()
	if data.Accounts == nil {
		data.Accounts = []models.Account{}
	}
	if data.History == nil {
		data.History = []models.HistoryEntry{}
	}
	if data.FITarget == 0 {
		data.FITarget = defaults.FITarget
	}
	if data.WithdrawalRate == 0 {
		data.WithdrawalRate = defaults.WithdrawalRate
	}
	if data.AnnualExpenses == 0 {
		data.AnnualExpenses = defaults.AnnualExpenses
	}
	if data.CurrentAge == 0 {
		data.CurrentAge = defaults.CurrentAge
	}
	if data.RetirementAge == 0 {
		data.RetirementAge = defaults.RetirementAge
	}
}

// SaveGoal validates and stores the FI goal. A zero expenses value is
// derived from the target and withdrawal rate.
func (m *Manager) SaveGoal(target, rate, expenses float64) (*Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expenses == 0 {
		expenses = target * rate / 100
	}
	candidate := models.Assumptions{FITarget: target, WithdrawalRate: rate, AnnualExpenses: expenses}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	data, err := m.loadInternal()
	if err != nil {
		return nil, err
	}
	data.FITarget = target
	data.WithdrawalRate = rate
	data.AnnualExpenses = expenses

	if err := m.saveInternal(data); err != nil {
		return nil, err
	}
	return data, nil
}

// AssumptionUpdates carries live projection-input edits; nil fields are
// left untouched.
type AssumptionUpdates struct {
	MonthlyContribution *float64 `json:"monthlyContribution,omitempty"`
	AnnualReturn        *float64 `json:"annualReturn,omitempty"`
	CurrentAge          *int     `json:"currentAge,omitempty"`
	RetirementAge       *int     `json:"retirementAge,omitempty"`
	ProjectionYears     *int     `json:"projectionYears,omitempty"`
}

// UpdateAssumptions applies live edits to the projection inputs.
func (m *Manager) UpdateAssumptions(u AssumptionUpdates) (*Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.loadInternal()
	if err != nil {
		return nil, err
	}

	if u.MonthlyContribution != nil {
		data.MonthlyContribution = *u.MonthlyContribution
	}
	if u.AnnualReturn != nil {
		data.AnnualReturn = *u.AnnualReturn
	}
	if u.CurrentAge != nil {
		data.CurrentAge = *u.CurrentAge
	}
	if u.RetirementAge != nil {
		data.RetirementAge = *u.RetirementAge
	}
	if u.ProjectionYears != nil {
		if *u.ProjectionYears > 0 {
			data.ProjectionYears = u.ProjectionYears
		} else {
			data.ProjectionYears = nil
		}
	}

	if err := m.saveInternal(data); err != nil {
		return nil, err
	}
	return data, nil
}

// AddManualAccount appends a manually entered account. The account carries
// a single synthetic holding mirroring its balance.
func (m *Manager) AddManualAccount(name string, typ models.AccountType, balance float64) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return models.Account{}, &models.ValidationError{Field: "name", Message: "account name is required"}
	}
	if math.IsNaN(balance) || balance < 0 {
		return models.Account{}, &models.ValidationError{Field: "balance", Message: "balance must be zero or positive"}
	}
	if typ == "" {
		typ = models.TypeBrokerage
	}
	if !typ.Valid() {
		return models.Account{}, &models.ValidationError{Field: "type", Message: fmt.Sprintf("unknown account type %q", typ)}
	}

	class := models.ClassOther
	if typ == models.TypeSavings {
		class = models.ClassCash
	}
	account := models.Account{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        typ,
		Balance:     balance,
		Source:      models.SourceManual,
		Holdings:    []models.Holding{models.SyntheticHolding(name, balance, class)},
		LastUpdated: time.Now(),
	}

	data, err := m.loadInternal()
	if err != nil {
		return models.Account{}, err
	}
	data.Accounts = append(data.Accounts, account)
	if err := m.saveInternal(data); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// AddBitcoinAccount derives and appends a crypto account from an amount and
// a spot price.
func (m *Manager) AddBitcoinAccount(amount, price float64) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if math.IsNaN(amount) || amount <= 0 {
		return models.Account{}, &models.ValidationError{Field: "amount", Message: "bitcoin amount must be positive"}
	}
	if math.IsNaN(price) || price <= 0 {
		return models.Account{}, &models.ValidationError{Field: "price", Message: "bitcoin price must be positive"}
	}

	account := models.NewBitcoinAccount(amount, price, time.Now())
	account.ID = uuid.NewString()

	data, err := m.loadInternal()
	if err != nil {
		return models.Account{}, err
	}
	data.Accounts = append(data.Accounts, account)
	if err := m.saveInternal(data); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// DeleteAccount removes the account with the given id.
func (m *Manager) DeleteAccount(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.loadInternal()
	if err != nil {
		return err
	}

	kept := data.Accounts[:0]
	found := false
	for _, a := range data.Accounts {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("account %q: %w", id, ErrNotFound)
	}
	data.Accounts = kept

	return m.saveInternal(data)
}

// ImportResult summarizes a statement import.
type ImportResult struct {
	Format   string           `json:"format"`
	Added    int              `json:"added"`
	Updated  int              `json:"updated"`
	Accounts []models.Account `json:"accounts"`
}

// ImportStatement detects, parses, and reconciles a statement file. The
// whole import is computed before anything is committed: a parse failure
// leaves the persisted state untouched.
func (m *Manager) ImportStatement(content string) (*ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parsed, format, err := statement.Parse(content)
	if err != nil {
		return nil, err
	}

	data, err := m.loadInternal()
	if err != nil {
		return nil, err
	}

	merged, res := reconcile.Merge(data.Accounts, parsed, time.Now())
	data.Accounts = merged

	if err := m.saveInternal(data); err != nil {
		return nil, err
	}
	log.Printf("tracker: imported %d account(s) from %s statement (%d added, %d updated)",
		len(parsed), format, res.Added, res.Updated)

	return &ImportResult{
		Format:   format.String(),
		Added:    res.Added,
		Updated:  res.Updated,
		Accounts: parsed,
	}, nil
}

// UpsertHistory records a net-worth observation for a calendar date,
// replacing any entry already on that date.
func (m *Manager) UpsertHistory(date string, netWorth float64) (*Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, &models.ValidationError{Field: "date", Message: "date must use the 2006-01-02 form"}
	}
	if math.IsNaN(netWorth) {
		return nil, &models.ValidationError{Field: "netWorth", Message: "net worth must be a number"}
	}

	data, err := m.loadInternal()
	if err != nil {
		return nil, err
	}
	data.History = models.UpsertHistory(data.History, models.HistoryEntry{Date: date, NetWorth: netWorth})

	if err := m.saveInternal(data); err != nil {
		return nil, err
	}
	return data, nil
}

// RecordSnapshot notes the current net worth under the given calendar
// date. Nothing is written when the date already holds the same value, so
// repeated dashboard loads within a day do not rewrite the blob.
func (m *Manager) RecordSnapshot(date string, netWorth float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.loadInternal()
	if err != nil {
		return err
	}
	for _, e := range data.History {
		if e.Date == date && e.NetWorth == netWorth {
			return nil
		}
	}
	data.History = models.UpsertHistory(data.History, models.HistoryEntry{Date: date, NetWorth: netWorth})
	return m.saveInternal(data)
}

// DeleteHistory removes the entry for the given date.
func (m *Manager) DeleteHistory(date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.loadInternal()
	if err != nil {
		return err
	}

	before := len(data.History)
	data.History = models.RemoveHistory(data.History, date)
	if len(data.History) == before {
		return fmt.Errorf("history entry %q: %w", date, ErrNotFound)
	}
	return m.saveInternal(data)
}

// ExportBackup builds the portable backup document.
func (m *Manager) ExportBackup() (*models.Backup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := m.loadInternal()
	if err != nil {
		return nil, err
	}

	return &models.Backup{
		Accounts:            data.Accounts,
		FITarget:            data.FITarget,
		WithdrawalRate:      data.WithdrawalRate,
		AnnualExpenses:      data.AnnualExpenses,
		MonthlyContribution: data.MonthlyContribution,
		AnnualReturn:        data.AnnualReturn,
		CurrentAge:          data.CurrentAge,
		RetirementAge:       data.RetirementAge,
		History:             data.History,
		ExportedAt:          time.Now().Format(time.RFC3339),
		Version:             models.BackupVersion,
	}, nil
}

// ImportBackup replaces all persisted data with the backup's contents.
// Absent assumption fields fall back to defaults.
func (m *Manager) ImportBackup(b models.Backup) (*Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.Accounts == nil {
		return nil, &models.ValidationError{Field: "accounts", Message: "invalid data file format"}
	}

	data := defaultData()
	data.Accounts = sanitizeAccounts(b.Accounts)
	if b.FITarget > 0 {
		data.FITarget = b.FITarget
	}
	if b.WithdrawalRate > 0 {
		data.WithdrawalRate = b.WithdrawalRate
	}
	if b.AnnualExpenses > 0 {
		data.AnnualExpenses = b.AnnualExpenses
	}
	if b.MonthlyContribution > 0 {
		data.MonthlyContribution = b.MonthlyContribution
	}
	if b.AnnualReturn > 0 {
		data.AnnualReturn = b.AnnualReturn
	}
	if b.CurrentAge > 0 {
		data.CurrentAge = b.CurrentAge
	}
	if b.RetirementAge > 0 {
		data.RetirementAge = b.RetirementAge
	}
	if b.History != nil {
		for _, e := range b.History {
			data.History = models.UpsertHistory(data.History, e)
		}
	}

	if err := m.saveInternal(data); err != nil {
		return nil, err
	}
	return data, nil
}

// sanitizeAccounts repairs imported accounts: missing ids are minted,
// unknown types become other, and balances are recomputed from holdings.
func sanitizeAccounts(accounts []models.Account) []models.Account {
	out := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.ID == "" {
			a.ID = a.Number
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if !a.Type.Valid() {
			a.Type = models.TypeOther
		}
		if len(a.Holdings) > 0 {
			a.Balance = a.HoldingsTotal()
		}
		out = append(out, a)
	}
	return out
}

// ClearAll removes the state blob, resetting to first-run defaults.
func (m *Manager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}
