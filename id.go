package handlepay

import "github.com/xraph/handlepay/id"

// ID is the primary identifier type for all HandlePay receipts.
type ID = id.ID

// Prefix identifies the receipt type encoded in a TypeID.
type Prefix = id.Prefix
