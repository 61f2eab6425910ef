package banklink

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrItemNotFound     = errors.New("bank link not found")
	ErrForbidden        = errors.New("access forbidden")
	ErrTokenRequired    = errors.New("public token is required")
	ErrExchangeRejected = errors.New("provider rejected the token exchange")
)

// Item is one linked bank connection. The access token is the credential
// sync uses to pull data for every account under the connection; it never
// leaves the server.
type Item struct {
	ID              string    `json:"id"` // provider-issued item ID
	UserID          int64     `json:"userId"`
	AccessToken     string    `json:"-"`
	InstitutionName string    `json:"institutionName"`
	CreatedAt       time.Time `json:"createdAt"`
	LastSync        time.Time `json:"lastSync"`
}
