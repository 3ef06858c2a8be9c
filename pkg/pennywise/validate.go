package pennywise

// ValidateTransaction performs the structural validation the engine
// itself never does (the engine assumes validated input). Callers that
// trust their input may skip it; the transaction service always runs
// it before propagation.
func ValidateTransaction(params *CreateTransactionParams) error {
	var errs []*ValidationError

	switch params.Type {
	case TransactionIncome, TransactionExpense, TransactionDebt, TransactionInvestment:
	default:
		errs = append(errs, &ValidationError{
			Field:   "type",
			Message: "must be one of income, expense, debt, investment",
			Value:   string(params.Type),
		})
	}

	if !params.Amount.IsPositive() {
		errs = append(errs, &ValidationError{
			Field:   "amount",
			Message: "must be greater than zero",
			Value:   params.Amount.String(),
		})
	}

	if params.Date.IsZero() {
		errs = append(errs, &ValidationError{
			Field:   "date",
			Message: "is required",
		})
	}

	switch params.Type {
	case TransactionIncome:
		if params.FundSourceID == "" {
			errs = append(errs, &ValidationError{
				Field:   "fundSourceId",
				Message: "fund source required for income transactions",
			})
		}
	case TransactionExpense:
		if params.FundSourceID == "" && params.CreditCardID == "" {
			errs = append(errs, &ValidationError{
				Field:   "fundSourceId",
				Message: "fund source or credit card required for expense transactions",
			})
		}
	case TransactionDebt:
		if params.CreditCardID == "" && params.LoanID == "" && params.DebtID == "" {
			errs = append(errs, &ValidationError{
				Field:   "creditCardId",
				Message: "credit card, loan, or debt required for debt transactions",
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return &ValidationErrors{Errors: errs}
}

// validFrequency reports whether f is a supported recurring period
func validFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}
