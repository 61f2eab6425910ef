package account

import (
	"errors"
	"time"
)

var (
	// Account types as reported by the aggregation provider.
	accountTypes = map[string]struct{}{
		"depository": {},
		"credit":     {},
		"loan":       {},
		"investment": {},
		"other":      {},
	}
	accountSubtypes = map[string]struct{}{
		"checking":    {},
		"savings":     {},
		"credit card": {},
		"money market": {},
		"cd":          {},
		"brokerage":   {},
	}
	// Common ISO 4217 currency codes
	validCurrencies = map[string]struct{}{
		"USD": {}, "EUR": {}, "GBP": {}, "JPY": {}, "BRL": {},
		"CHF": {}, "CAD": {}, "AUD": {}, "NZD": {}, "CNY": {},
		"INR": {}, "MXN": {}, "SEK": {}, "NOK": {}, "DKK": {},
		"PLN": {}, "SGD": {}, "HKD": {}, "KRW": {}, "ZAR": {},
	}
)

// Domain errors
var (
	ErrInvalidAccountType    = errors.New("invalid account type")
	ErrInvalidAccountSubtype = errors.New("invalid account subtype")
	ErrAccountNotFound       = errors.New("account not found")
	ErrForbidden             = errors.New("access forbidden")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidCurrency       = errors.New("valid ISO 4217 currency is required")
)

// Account represents a linked financial account. It is created and refreshed
// by bank-link sync; users never create accounts directly.
type Account struct {
	ID               string    `json:"id"` // provider-issued, stable across syncs
	UserID           int64     `json:"userId"`
	ItemID           string    `json:"itemId"` // bank-link connection this account came through
	Name             string    `json:"name"`
	OfficialName     string    `json:"officialName,omitempty"`
	AccountType      string    `json:"accountType"`
	Subtype          string    `json:"subtype,omitempty"`
	Mask             string    `json:"mask,omitempty"` // last digits of the account number
	InstitutionName  string    `json:"institutionName"`
	Currency         string    `json:"currency"`
	CurrentBalance   float64   `json:"currentBalance"`
	AvailableBalance float64   `json:"availableBalance"`
	LastSync         time.Time `json:"lastSync"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UpsertParams carries one account from a sync pass. Sync runs repeatedly,
// so the same params applied twice must land on the same stored row.
type UpsertParams struct {
	ID               string
	UserID           int64
	ItemID           string
	Name             string
	OfficialName     string
	AccountType      string
	Subtype          string
	Mask             string
	InstitutionName  string
	Currency         string
	CurrentBalance   float64
	AvailableBalance float64
	SyncedAt         time.Time
}

// Validate validates the upsert parameters
func (p UpsertParams) Validate() error {
	if p.ID == "" {
		return errors.New("account ID is required for upsert")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required for upsert")
	}
	if p.Name == "" {
		return errors.New("account name is required")
	}
	if !IsValidAccountType(p.AccountType) {
		return ErrInvalidAccountType
	}
	if p.Subtype != "" && !IsValidAccountSubtype(p.Subtype) {
		return ErrInvalidAccountSubtype
	}
	if p.Currency == "" || !IsValidCurrency(p.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// IsValidAccountType checks if the provided account type is valid.
func IsValidAccountType(t string) bool {
	_, ok := accountTypes[t]
	return ok
}

// IsValidAccountSubtype checks if the provided subtype is valid.
func IsValidAccountSubtype(s string) bool {
	_, ok := accountSubtypes[s]
	return ok
}

// IsValidCurrency checks if the provided currency is a valid ISO 4217 code.
func IsValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	_, ok := validCurrencies[c]
	return ok
}
