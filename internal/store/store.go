// Package store is the persistence boundary of the billing core: a keyed store organised in
// buckets (charges/{id}, payables/{id}, closures/{year}-{month}, ...).
//
// Each school tenant gets its own Store. Update runs its callback in a single read-write
// transaction, which is what the services use as a compare-and-swap: status guards are read
// and checked inside the callback and any error returned from it discards every write.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Bucket names
const (
	BucketCharges          = "charges"
	BucketCreditLedger     = "credit_ledger"
	BucketPayables         = "payables"
	BucketPaidPayables     = "paid_payables"
	BucketMigratedPayables = "migrated_payables"
	BucketClosures         = "closures"
	BucketStudents         = "students"
)

// Buckets lists every bucket a backend must provide
var Buckets = []string{
	BucketCharges,
	BucketCreditLedger,
	BucketPayables,
	BucketPaidPayables,
	BucketMigratedPayables,
	BucketClosures,
	BucketStudents,
}

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("record not found")

// Tx is a view of the store inside a transaction
type Tx interface {
	// Get returns the raw value or ErrNotFound
	Get(bucket, key string) ([]byte, error)
	Put(bucket, key string, value []byte) error
	// Delete is a no-op when the key does not exist
	Delete(bucket, key string) error
	// ForEach visits every key of a bucket in key order. fn must not write to the same bucket.
	ForEach(bucket string, fn func(key string, value []byte) error) error
}

// Store is a transactional keyed store
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// GetJSON loads and decodes a record
func GetJSON(tx Tx, bucket, key string, v interface{}) error {
	data, err := tx.Get(bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PutJSON encodes and stores a record
func PutJSON(tx Tx, bucket, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", bucket, key, err)
	}
	return tx.Put(bucket, key, data)
}

// Exists reports whether a key is present
func Exists(tx Tx, bucket, key string) (bool, error) {
	_, err := tx.Get(bucket, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EachJSON decodes every record of a bucket into a fresh T and hands it to fn
func EachJSON[T any](tx Tx, bucket string, fn func(key string, v *T) error) error {
	return tx.ForEach(bucket, func(key string, value []byte) error {
		v := new(T)
		if err := json.Unmarshal(value, v); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", bucket, key, err)
		}
		return fn(key, v)
	})
}

func unknownBucket(name string) error {
	return fmt.Errorf("unknown bucket %q", name)
}
