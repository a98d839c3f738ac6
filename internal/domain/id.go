package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// legacyNamespace seeds deterministic ids for legacy records that had none.
var legacyNamespace = uuid.MustParse("6f1d8a52-3c4b-4f0e-9a57-2b8e1c0d7a93")

// NewID returns a random 32-character hex token.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// LegacyTransactionID derives a stable id for the index-th transaction of an
// account whose stored record carried no id.
func LegacyTransactionID(accountID string, index int) string {
	u := uuid.NewSHA1(legacyNamespace, []byte(fmt.Sprintf("%s/%d", accountID, index)))
	return hex.EncodeToString(u[:])
}
