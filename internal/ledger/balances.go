package ledger

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// AccountBalance is an account's balance as of a date, with a display string
// in the account's currency.
type AccountBalance struct {
	AccountID uint64          `json:"account_id"`
	Name      string          `json:"name"`
	Currency  Currency        `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Formatted string          `json:"formatted"`
}

// AccountSummary aggregates an account's activity. Tax fields are populated
// only for the billing account.
type AccountSummary struct {
	AccountID uint64          `json:"account_id"`
	Name      string          `json:"name"`
	Currency  Currency        `json:"currency"`
	Opening   decimal.Decimal `json:"opening"`
	Income    decimal.Decimal `json:"income"`
	Expense   decimal.Decimal `json:"expense"`
	Balance   decimal.Decimal `json:"balance"`
	Formatted string          `json:"formatted"`

	IvaPurchases *decimal.Decimal `json:"iva_purchases,omitempty"`
	IvaSales     *decimal.Decimal `json:"iva_sales,omitempty"`
	Iibb         *decimal.Decimal `json:"iibb,omitempty"`
}

// FormatAmount renders a decimal amount with the currency's symbol and
// separators.
func FormatAmount(amount decimal.Decimal, currency Currency) string {
	cents := amount.Mul(hundred).Round(0).IntPart()
	m := money.New(cents, string(currency))
	return m.Display()
}

// Balances computes every active account's balance as of asOf (zero date
// means all transactions).
func Balances(accounts *AccountStore, txs *TransactionStore, asOf Date) ([]AccountBalance, error) {
	accts, err := accounts.List(false)
	if err != nil {
		return nil, err
	}
	out := make([]AccountBalance, 0, len(accts))
	for _, acct := range accts {
		bal, err := balanceOf(txs, acct, asOf)
		if err != nil {
			return nil, err
		}
		out = append(out, AccountBalance{
			AccountID: acct.ID,
			Name:      acct.Name,
			Currency:  acct.Currency,
			Balance:   bal,
			Formatted: FormatAmount(bal, acct.Currency),
		})
	}
	return out, nil
}

func balanceOf(txs *TransactionStore, acct Account, asOf Date) (decimal.Decimal, error) {
	list, err := txs.List(acct.ID, 0, 0)
	if err != nil {
		return decimal.Zero, err
	}
	bal := acct.OpeningBalance
	for _, tx := range list {
		if !asOf.IsZero() && tx.Date.After(asOf.Time) {
			continue
		}
		bal = bal.Add(tx.Amount)
	}
	return bal, nil
}

// Summary aggregates one account's activity. For the billing account it also
// totals invoice taxes (IVA split by purchase/sale, IIBB).
func Summary(accounts *AccountStore, txs *TransactionStore, invoices *InvoiceStore, accountID uint64) (AccountSummary, error) {
	acct, err := accounts.Get(accountID)
	if err != nil {
		return AccountSummary{}, err
	}
	list, err := txs.List(accountID, 0, 0)
	if err != nil {
		return AccountSummary{}, err
	}
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range list {
		if tx.Amount.IsPositive() {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount.Neg())
		}
	}
	bal := acct.OpeningBalance.Add(income).Sub(expense)
	sum := AccountSummary{
		AccountID: acct.ID,
		Name:      acct.Name,
		Currency:  acct.Currency,
		Opening:   acct.OpeningBalance,
		Income:    income,
		Expense:   expense,
		Balance:   bal,
		Formatted: FormatAmount(bal, acct.Currency),
	}
	if acct.IsBilling {
		invs, err := invoices.List(accountID)
		if err != nil {
			return AccountSummary{}, err
		}
		ivaP, ivaS, iibb := decimal.Zero, decimal.Zero, decimal.Zero
		for _, inv := range invs {
			switch inv.Type {
			case InvoicePurchase:
				ivaP = ivaP.Add(inv.IvaAmount)
			case InvoiceSale:
				ivaS = ivaS.Add(inv.IvaAmount)
			}
			iibb = iibb.Add(inv.IibbAmount)
		}
		sum.IvaPurchases = &ivaP
		sum.IvaSales = &ivaS
		sum.Iibb = &iibb
	}
	return sum, nil
}

// String implements fmt.Stringer for CLI output.
func (b AccountBalance) String() string {
	return fmt.Sprintf("%s: %s", b.Name, b.Formatted)
}
