// Package mongo provides a MongoDB-backed Store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/store"
	"github.com/xraph/handlepay/types"
)

// Collection name constants.
const (
	colBalances = "handlepay_balances"
	colFeePools = "handlepay_fee_pools"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store on MongoDB. Batch credits use a
// transaction, so the deployment must be a replica set.
type Store struct {
	db *mongo.Database
}

// New creates a new MongoDB store.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates the unique compound indexes the upserts rely on.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string]mongo.IndexModel{
		colBalances: {
			Keys:    bson.D{{Key: "key", Value: 1}, {Key: "asset", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		colFeePools: {
			Keys:    bson.D{{Key: "pool", Value: 1}, {Key: "asset", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	for col, model := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("handlepay/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	return s.db.Client().Disconnect(context.Background())
}

// ==================== Balances ====================

func (s *Store) Credit(ctx context.Context, key identity.Key, asset types.AssetID, amount uint64) error {
	if err := s.increment(ctx, colBalances, balanceFilter(key, asset), amount); err != nil {
		return fmt.Errorf("handlepay/mongo: credit %s: %w", asset, err)
	}
	return nil
}

func (s *Store) CreditBatch(ctx context.Context, credits []store.Credit) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("handlepay/mongo: credit batch: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		for _, c := range credits {
			if err := s.increment(ctx, colBalances, balanceFilter(c.Key, c.Asset), c.Amount); err != nil {
				return nil, fmt.Errorf("entry %s: %w", c.Asset, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("handlepay/mongo: credit batch: %w", err)
	}
	return nil
}

func (s *Store) Balance(ctx context.Context, key identity.Key, asset types.AssetID) (uint64, error) {
	var doc balanceDoc
	err := s.db.Collection(colBalances).FindOne(ctx, balanceFilter(key, asset)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("handlepay/mongo: balance %s: %w", asset, err)
	}
	return uint64(doc.Amount), nil
}

func (s *Store) Drain(ctx context.Context, key identity.Key, asset types.AssetID) (uint64, error) {
	var doc balanceDoc
	err := s.db.Collection(colBalances).FindOneAndUpdate(ctx,
		balanceFilter(key, asset),
		bson.M{"$set": bson.M{"amount": int64(0), "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("handlepay/mongo: drain %s: %w", asset, err)
	}
	return uint64(doc.Amount), nil
}

func (s *Store) Restore(ctx context.Context, key identity.Key, asset types.AssetID, amount uint64) error {
	if err := s.increment(ctx, colBalances, balanceFilter(key, asset), amount); err != nil {
		return fmt.Errorf("handlepay/mongo: restore %s: %w", asset, err)
	}
	return nil
}

// ==================== Fee pools ====================

func (s *Store) AccrueFee(ctx context.Context, pool store.FeePool, asset types.AssetID, amount uint64) error {
	if err := s.increment(ctx, colFeePools, feeFilter(pool, asset), amount); err != nil {
		return fmt.Errorf("handlepay/mongo: accrue fee %s/%s: %w", pool, asset, err)
	}
	return nil
}

func (s *Store) DebitFee(ctx context.Context, pool store.FeePool, asset types.AssetID, amount uint64) error {
	// The filter only matches when the pool covers the amount, so a debit
	// can never drive a pool negative.
	filter := feeFilter(pool, asset)
	filter["amount"] = bson.M{"$gte": int64(amount)}

	res, err := s.db.Collection(colFeePools).UpdateOne(ctx,
		filter,
		bson.M{
			"$inc": bson.M{"amount": -int64(amount)},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("handlepay/mongo: debit fee %s/%s: %w", pool, asset, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("handlepay/mongo: debit fee %s/%s: pool holds less than %d", pool, asset, amount)
	}
	return nil
}

func (s *Store) FeeBalance(ctx context.Context, pool store.FeePool, asset types.AssetID) (uint64, error) {
	var doc feePoolDoc
	err := s.db.Collection(colFeePools).FindOne(ctx, feeFilter(pool, asset)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("handlepay/mongo: fee balance %s/%s: %w", pool, asset, err)
	}
	return uint64(doc.Amount), nil
}

func (s *Store) DrainFee(ctx context.Context, pool store.FeePool, asset types.AssetID) (uint64, error) {
	var doc feePoolDoc
	err := s.db.Collection(colFeePools).FindOneAndUpdate(ctx,
		feeFilter(pool, asset),
		bson.M{"$set": bson.M{"amount": int64(0), "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("handlepay/mongo: drain fee %s/%s: %w", pool, asset, err)
	}
	return uint64(doc.Amount), nil
}

func (s *Store) RestoreFee(ctx context.Context, pool store.FeePool, asset types.AssetID, amount uint64) error {
	if err := s.increment(ctx, colFeePools, feeFilter(pool, asset), amount); err != nil {
		return fmt.Errorf("handlepay/mongo: restore fee %s/%s: %w", pool, asset, err)
	}
	return nil
}

// ==================== Helpers ====================

// increment upserts an entry and adds amount to it.
func (s *Store) increment(ctx context.Context, col string, filter bson.M, amount uint64) error {
	now := time.Now().UTC()
	_, err := s.db.Collection(col).UpdateOne(ctx,
		filter,
		bson.M{
			"$inc":         bson.M{"amount": int64(amount)},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func balanceFilter(key identity.Key, asset types.AssetID) bson.M {
	return bson.M{"key": key.String(), "asset": string(asset)}
}

func feeFilter(pool store.FeePool, asset types.AssetID) bson.M {
	return bson.M{"pool": string(pool), "asset": string(asset)}
}
