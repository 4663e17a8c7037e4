package controllers

import (
	"github.com/shopspring/decimal"
)

// Common request/response types for HTTP controllers

// accountCreateReq represents a request to create an account.
type accountCreateReq struct {
	Name           string          `json:"name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Currency       string          `json:"currency"`
	Color          string          `json:"color"`
	IsBilling      bool            `json:"is_billing"`
	ReplaceBilling bool            `json:"replace_billing"`
}

// accountUpdateReq represents a request to update an account.
type accountUpdateReq struct {
	ID uint64 `json:"id"`
	accountCreateReq
}

// idReq represents a request addressing one entity by id.
type idReq struct {
	ID uint64 `json:"id"`
}

// transactionReq represents a request to create or update a transaction.
type transactionReq struct {
	ID                   uint64          `json:"id,omitempty"`
	Date                 string          `json:"date"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Notes                string          `json:"notes"`
	AccountID            uint64          `json:"account_id"`
	ExportableMovementID uint64          `json:"exportable_movement_id,omitempty"`
}

// invoiceReq represents a request to create or update an invoice.
type invoiceReq struct {
	ID          uint64           `json:"id,omitempty"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
	Number      string           `json:"number"`
	Amount      decimal.Decimal  `json:"amount"`
	IvaPercent  *decimal.Decimal `json:"iva_percent,omitempty"`
	IibbPercent *decimal.Decimal `json:"iibb_percent,omitempty"`
	Type        string           `json:"type"`
	AccountID   uint64           `json:"account_id"`
}

// descriptionReq represents a request carrying a description payload.
type descriptionReq struct {
	ID          uint64 `json:"id,omitempty"`
	Description string `json:"description"`
}

// ackReq represents a consumer's checkpoint confirmation.
type ackReq struct {
	CheckpointID uint64 `json:"checkpoint_id"`
}

// billingAckReq represents the combined billing confirmation: the billing
// window checkpoint plus, optionally, the exportable-changes checkpoint.
type billingAckReq struct {
	CheckpointID        uint64  `json:"checkpoint_id"`
	ChangesCheckpointID *uint64 `json:"changes_checkpoint_id,omitempty"`
}

// ackResp confirms an advanced checkpoint.
type ackResp struct {
	LastChangeID uint64 `json:"last_change_id"`
	UpdatedAt    string `json:"updated_at"`
}
