package domain

import "github.com/golang-jwt/jwt/v5"

// Claims carries the seller identity extracted from the bearer token. The
// seller id scopes every ledger query and write.
type Claims struct {
	SellerID string `json:"seller_id"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
