package pennywise

import (
	"github.com/pennywise-app/pennywise-go/internal/registry"
)

// Registry holds one user's in-memory collections. The propagation
// engine receives it explicitly; there is no ambient global state.
type Registry struct {
	Transactions *registry.Collection[*Transaction]
	FundSources  *registry.Collection[*FundSource]
	CreditCards  *registry.Collection[*CreditCard]
	Loans        *registry.Collection[*Loan]
	Debts        *registry.Collection[*Debt]
	Budgets      *registry.Collection[*Budget]
	Investments  *registry.Collection[*Investment]
	Recurring    *registry.Collection[*RecurringTransaction]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		Transactions: registry.New[*Transaction](),
		FundSources:  registry.New[*FundSource](),
		CreditCards:  registry.New[*CreditCard](),
		Loans:        registry.New[*Loan](),
		Debts:        registry.New[*Debt](),
		Budgets:      registry.New[*Budget](),
		Investments:  registry.New[*Investment](),
		Recurring:    registry.New[*RecurringTransaction](),
	}
}
