package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennywise-app/pennywise-go/pkg/pennywise"
)

// ValidatorConfig holds configuration for the validator
type ValidatorConfig struct {
	SnapshotPath string
	OutputDir    string
	Verbose      bool
}

// Snapshot is an exported user data set: accounts with their stored
// balances plus the full transaction ledger
type Snapshot struct {
	UserID       string                     `json:"userId"`
	FundSources  []*pennywise.FundSource    `json:"fundSources"`
	CreditCards  []*pennywise.CreditCard    `json:"creditCards"`
	Loans        []*pennywise.Loan          `json:"loans"`
	Debts        []*pennywise.Debt          `json:"debts"`
	Transactions []*pennywise.Transaction   `json:"transactions"`
	Openings     map[string]decimal.Decimal `json:"openingBalances"`
}

// DriftResult reports one account whose stored balance disagrees with
// the ledger replay
type DriftResult struct {
	Collection string          `json:"collection"`
	AccountID  string          `json:"accountId"`
	Name       string          `json:"name"`
	Stored     decimal.Decimal `json:"stored"`
	Replayed   decimal.Decimal `json:"replayed"`
	Drift      decimal.Decimal `json:"drift"`
}

// ValidationReport represents the full replay report
type ValidationReport struct {
	Timestamp    time.Time     `json:"timestamp"`
	UserID       string        `json:"userId"`
	Accounts     int           `json:"accounts"`
	Transactions int           `json:"transactions"`
	Clean        int           `json:"clean"`
	Drifted      int           `json:"drifted"`
	StaleRefs    int           `json:"staleRefs"`
	Results      []DriftResult `json:"results"`
}

func main() {
	config := parseFlags()

	snapshot, err := loadSnapshot(config.SnapshotPath)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}

	report := replay(snapshot, config.Verbose)

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	reportPath := filepath.Join(config.OutputDir, fmt.Sprintf("replay_report_%d.json", time.Now().Unix()))
	if err := saveReport(report, reportPath); err != nil {
		log.Fatalf("Failed to save report: %v", err)
	}

	printSummary(report, reportPath)

	if report.Drifted > 0 {
		os.Exit(1)
	}
}

func parseFlags() *ValidatorConfig {
	config := &ValidatorConfig{}

	flag.StringVar(&config.SnapshotPath, "snapshot", "snapshot.json", "Path to exported user snapshot")
	flag.StringVar(&config.OutputDir, "output", "./replay_results", "Output directory for results")
	flag.BoolVar(&config.Verbose, "verbose", false, "Verbose output")
	flag.Parse()

	return config
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snapshot, nil
}

// replay rebuilds every account from its opening balance by applying
// the full transaction ledger in order, then compares the result to the
// stored balances. A drift means some mutation bypassed propagation.
func replay(snapshot *Snapshot, verbose bool) *ValidationReport {
	reg := pennywise.NewRegistry()

	opening := func(id string) decimal.Decimal {
		if bal, ok := snapshot.Openings[id]; ok {
			return bal
		}
		return decimal.Zero
	}

	// Seed accounts at their opening balances with empty histories
	for _, fs := range snapshot.FundSources {
		reg.FundSources.Insert(&pennywise.FundSource{
			ID: fs.ID, Name: fs.Name, Kind: fs.Kind,
			CurrentBalance: opening(fs.ID),
		})
	}
	for _, cc := range snapshot.CreditCards {
		reg.CreditCards.Insert(&pennywise.CreditCard{
			ID: cc.ID, Name: cc.Name, Limit: cc.Limit,
			CurrentBalance: opening(cc.ID),
		})
	}
	for _, loan := range snapshot.Loans {
		reg.Loans.Insert(&pennywise.Loan{
			ID: loan.ID, Name: loan.Name,
			Balance: opening(loan.ID),
		})
	}
	for _, debt := range snapshot.Debts {
		reg.Debts.Insert(&pennywise.Debt{
			ID: debt.ID, Name: debt.Name,
			Balance: opening(debt.ID),
		})
	}

	report := &ValidationReport{
		Timestamp:    time.Now(),
		UserID:       snapshot.UserID,
		Transactions: len(snapshot.Transactions),
	}

	for _, tx := range snapshot.Transactions {
		reg.Transactions.Insert(tx)
		if _, err := pennywise.Apply(tx, reg); err != nil {
			report.StaleRefs++
			if verbose {
				log.Printf("transaction %s: %v", tx.ID, err)
			}
		}
	}

	check := func(collection, id, name string, stored, replayed decimal.Decimal) {
		report.Accounts++
		drift := stored.Sub(replayed)
		if drift.IsZero() {
			report.Clean++
			return
		}
		report.Drifted++
		report.Results = append(report.Results, DriftResult{
			Collection: collection,
			AccountID:  id,
			Name:       name,
			Stored:     stored,
			Replayed:   replayed,
			Drift:      drift,
		})
	}

	for _, fs := range snapshot.FundSources {
		replayed, _ := reg.FundSources.FindByID(fs.ID)
		check(pennywise.CollectionFundSources, fs.ID, fs.Name, fs.CurrentBalance, replayed.CurrentBalance)
	}
	for _, cc := range snapshot.CreditCards {
		replayed, _ := reg.CreditCards.FindByID(cc.ID)
		check(pennywise.CollectionCreditCards, cc.ID, cc.Name, cc.CurrentBalance, replayed.CurrentBalance)
	}
	for _, loan := range snapshot.Loans {
		replayed, _ := reg.Loans.FindByID(loan.ID)
		check(pennywise.CollectionLoans, loan.ID, loan.Name, loan.Balance, replayed.Balance)
	}
	for _, debt := range snapshot.Debts {
		replayed, _ := reg.Debts.FindByID(debt.ID)
		check(pennywise.CollectionDebts, debt.ID, debt.Name, debt.Balance, replayed.Balance)
	}

	return report
}

func saveReport(report *ValidationReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func printSummary(report *ValidationReport, reportPath string) {
	fmt.Println("\n=== Ledger Replay Summary ===")
	fmt.Printf("User:          %s\n", report.UserID)
	fmt.Printf("Accounts:      %d\n", report.Accounts)
	fmt.Printf("Transactions:  %d\n", report.Transactions)
	fmt.Printf("Clean:         %d\n", report.Clean)
	fmt.Printf("Drifted:       %d\n", report.Drifted)
	fmt.Printf("Stale refs:    %d\n", report.StaleRefs)

	for _, r := range report.Results {
		fmt.Printf("  DRIFT %s/%s (%s): stored=%s replayed=%s drift=%s\n",
			r.Collection, r.AccountID, r.Name, r.Stored, r.Replayed, r.Drift)
	}

	fmt.Printf("\nReport saved to %s\n", reportPath)
}
