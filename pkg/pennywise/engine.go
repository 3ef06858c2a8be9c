package pennywise

import (
	"time"

	"github.com/shopspring/decimal"
)

// DirtyRecord identifies a record mutated by propagation. The outbox
// owns getting it to the persistence mirror.
type DirtyRecord struct {
	Collection string
	ID         string
	Record     interface{}
}

// PropagationResult reports the outcome of applying or reversing a
// transaction against the registry.
type PropagationResult struct {
	Dirty   []DirtyRecord
	Missing []MissingReference
}

// refError converts unresolved references into a typed error, nil when
// every reference resolved.
func (r *PropagationResult) refError() error {
	if len(r.Missing) == 0 {
		return nil
	}
	return &ReferenceNotFoundError{Missing: r.Missing}
}

func (r *PropagationResult) markDirty(collection, id string, record interface{}) {
	r.Dirty = append(r.Dirty, DirtyRecord{Collection: collection, ID: id, Record: record})
}

// fundSourceDelta is the balance effect of a transaction on a cash
// account: income adds, expense subtracts, other types pass through
// with no effect.
func fundSourceDelta(txType TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch txType {
	case TransactionIncome:
		return amount
	case TransactionExpense:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

// creditCardDelta is the balance effect on a card: an expense is a
// charge (owed goes up), a debt transaction is a payment (owed goes
// down), other types have no effect.
func creditCardDelta(txType TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch txType {
	case TransactionExpense:
		return amount
	case TransactionDebt:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

// applyTransaction propagates a transaction's monetary effect to every
// account it references and appends it to each account's history.
//
// References to accounts that no longer exist are reported in the
// result and through a *ReferenceNotFoundError; references that do
// resolve are applied regardless, so a caller may inspect the error
// and choose to treat stale references as ignorable.
func applyTransaction(tx *Transaction, reg *Registry) (*PropagationResult, error) {
	result := &PropagationResult{}

	if tx.FundSourceID != "" {
		if fs, ok := reg.FundSources.FindByID(tx.FundSourceID); ok {
			fs.CurrentBalance = fs.CurrentBalance.Add(fundSourceDelta(tx.Type, tx.Amount))
			fs.Transactions = append(fs.Transactions, tx.ID)
			reg.FundSources.Replace(fs)
			result.markDirty(CollectionFundSources, fs.ID, fs)
		} else {
			result.Missing = append(result.Missing, MissingReference{Field: "fundSourceId", ID: tx.FundSourceID})
		}
	}

	if tx.CreditCardID != "" {
		if cc, ok := reg.CreditCards.FindByID(tx.CreditCardID); ok {
			cc.CurrentBalance = cc.CurrentBalance.Add(creditCardDelta(tx.Type, tx.Amount))
			cc.Transactions = append(cc.Transactions, tx.ID)
			reg.CreditCards.Replace(cc)
			result.markDirty(CollectionCreditCards, cc.ID, cc)
		} else {
			result.Missing = append(result.Missing, MissingReference{Field: "creditCardId", ID: tx.CreditCardID})
		}
	}

	if tx.LoanID != "" {
		if loan, ok := reg.Loans.FindByID(tx.LoanID); ok {
			// Any transaction against a loan is principal paydown
			loan.Balance = loan.Balance.Sub(tx.Amount)
			loan.Transactions = append(loan.Transactions, tx.ID)
			reg.Loans.Replace(loan)
			result.markDirty(CollectionLoans, loan.ID, loan)
		} else {
			result.Missing = append(result.Missing, MissingReference{Field: "loanId", ID: tx.LoanID})
		}
	}

	if tx.DebtID != "" {
		if debt, ok := reg.Debts.FindByID(tx.DebtID); ok {
			debt.Balance = debt.Balance.Sub(tx.Amount)
			debt.Transactions = append(debt.Transactions, tx.ID)
			reg.Debts.Replace(debt)
			result.markDirty(CollectionDebts, debt.ID, debt)
		} else {
			result.Missing = append(result.Missing, MissingReference{Field: "debtId", ID: tx.DebtID})
		}
	}

	return result, result.refError()
}

// reverseTransaction undoes a transaction's monetary effect and removes
// it from account histories. Updates and deletions run through this so
// balances always reflect the live ledger.
func reverseTransaction(tx *Transaction, reg *Registry) (*PropagationResult, error) {
	result := &PropagationResult{}

	if tx.FundSourceID != "" {
		if fs, ok := reg.FundSources.FindByID(tx.FundSourceID); ok {
			fs.CurrentBalance = fs.CurrentBalance.Sub(fundSourceDelta(tx.Type, tx.Amount))
			fs.Transactions = removeID(fs.Transactions, tx.ID)
			reg.FundSources.Replace(fs)
			result.markDirty(CollectionFundSources, fs.ID, fs)
		} else {
			result.Missing = append(result.Missing, MissingReference{Field: "fundSourceId", ID: tx.FundSourceID})
		}
	}

	if tx.CreditCardID != "" {
		if cc, ok := reg.CreditCards.FindByID(tx.CreditCardID); ok {
			cc.CurrentBalance = cc.CurrentBalance.Sub(creditCardDelta(tx.Type, tx.Amount))
			cc.Transactions = removeID(cc.Transactions, tx.ID)
			reg.CreditCards.Replace(cc)
			result.markDirty(CollectionCreditCards, cc.ID, cc)
		} else {
			result.Missing = append(result.Missing, MissingReference{Field: "creditCardId", ID: tx.CreditCardID})
		}
	}

	if tx.LoanID != "" {
		if loan, ok := reg.Loans.FindByID(tx.LoanID); ok {
			loan.Balance = loan.Balance.Add(tx.Amount)
			loan.Transactions = removeID(loan.Transactions, tx.ID)
			reg.Loans.Replace(loan)
			result.markDirty(CollectionLoans, loan.ID, loan)
		} else {
			result.Missing = append(result.Missing, MissingReference{Field: "loanId", ID: tx.LoanID})
		}
	}

	if tx.DebtID != "" {
		if debt, ok := reg.Debts.FindByID(tx.DebtID); ok {
			debt.Balance = debt.Balance.Add(tx.Amount)
			debt.Transactions = removeID(debt.Transactions, tx.ID)
			reg.Debts.Replace(debt)
			result.markDirty(CollectionDebts, debt.ID, debt)
		} else {
			result.Missing = append(result.Missing, MissingReference{Field: "debtId", ID: tx.DebtID})
		}
	}

	return result, result.refError()
}

// monthlyFlow computes a fund source's trailing-30-day net movement:
// income minus expense over (now-30d, now]. Derived on every read, the
// window slides with now, so the value is never stored.
func monthlyFlow(source *FundSource, reg *Registry, now time.Time) decimal.Decimal {
	windowStart := now.AddDate(0, 0, -30)
	flow := decimal.Zero

	for _, id := range source.Transactions {
		tx, ok := reg.Transactions.FindByID(id)
		if !ok {
			continue
		}
		d := tx.Date.Time
		if d.Before(windowStart) || d.After(now) {
			continue
		}
		switch tx.Type {
		case TransactionIncome:
			flow = flow.Add(tx.Amount)
		case TransactionExpense:
			flow = flow.Sub(tx.Amount)
		}
	}

	return flow
}

// Apply propagates a transaction against a registry. Exported for
// callers that manage their own registry, such as replay tooling; the
// Store serializes its own calls, external callers own their
// synchronization.
func Apply(tx *Transaction, reg *Registry) (*PropagationResult, error) {
	return applyTransaction(tx, reg)
}

// Reverse undoes a transaction against a registry
func Reverse(tx *Transaction, reg *Registry) (*PropagationResult, error) {
	return reverseTransaction(tx, reg)
}

// MonthlyFlow computes a fund source's trailing-30-day net movement as
// of now
func MonthlyFlow(source *FundSource, reg *Registry, now time.Time) decimal.Decimal {
	return monthlyFlow(source, reg, now)
}

// removeID drops the last occurrence of id from a history slice
func removeID(history []string, id string) []string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i] == id {
			return append(history[:i], history[i+1:]...)
		}
	}
	return history
}
