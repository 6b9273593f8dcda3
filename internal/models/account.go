package models

import "github.com/shopspring/decimal"

// Account holds the balance and static routing metadata for one account.
// Accounts are provisioned out-of-band; this core only ever mutates Balance,
// and only through the account store's atomic adjustments.
type Account struct {
	AccountNumber int64           `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`

	// Routing metadata is carried for callers but never interpreted here.
	RoutingNumber       int64 `json:"routing_number"`
	DirectDepositNumber int64 `json:"direct_deposit_number"`
	WireTransferNumber  int64 `json:"wire_transfer_number"`
}
