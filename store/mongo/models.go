package mongo

import "time"

// balanceDoc is the MongoDB document for an escrow balance entry.
// Amounts are stored as int64, so individual entries must stay below 2^63.
type balanceDoc struct {
	Key       string    `bson:"key"`
	Asset     string    `bson:"asset"`
	Amount    int64     `bson:"amount"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// feePoolDoc is the MongoDB document for a fee pool entry.
type feePoolDoc struct {
	Pool      string    `bson:"pool"`
	Asset     string    `bson:"asset"`
	Amount    int64     `bson:"amount"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
