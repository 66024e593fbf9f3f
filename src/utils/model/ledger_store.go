package model

import (
	"context"
	"errors"

	"github.com/kalemarkets/settler/src/utils/host"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore is the database-backed ledger keyspace. Transact maps to a
// database transaction, so contract-call atomicity holds across restarts.
type LedgerStore struct {
	ctx context.Context
	db  *gorm.DB
}

func NewLedgerStore(ctx context.Context, db *gorm.DB) *LedgerStore {
	return &LedgerStore{ctx: ctx, db: db}
}

func (self *LedgerStore) Get(key string) ([]byte, bool, error) {
	var record LedgerRecord
	err := self.db.WithContext(self.ctx).
		First(&record, "key = ?", key).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return record.Value, true, nil
}

func (self *LedgerStore) Set(key string, value []byte) error {
	record := LedgerRecord{Key: key, Value: value}
	return self.db.WithContext(self.ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).
		Error
}

func (self *LedgerStore) Remove(key string) error {
	return self.db.WithContext(self.ctx).
		Delete(&LedgerRecord{}, "key = ?", key).
		Error
}

func (self *LedgerStore) Keys(prefix string) (keys []string, err error) {
	err = self.db.WithContext(self.ctx).
		Model(&LedgerRecord{}).
		Where("key LIKE ?", prefix+"%").
		Order("key ASC").
		Pluck("key", &keys).
		Error
	return
}

func (self *LedgerStore) ExtendTTL(key string, threshold, liveUntil uint64) error {
	return self.db.WithContext(self.ctx).
		Model(&LedgerRecord{}).
		Where("key = ? AND live_until < ?", key, threshold).
		Update("live_until", gorm.Expr("GREATEST(live_until, ?)", liveUntil)).
		Error
}

func (self *LedgerStore) Transact(fn func(host.Store) error) error {
	return self.db.WithContext(self.ctx).
		Transaction(func(tx *gorm.DB) error {
			return fn(&LedgerStore{ctx: self.ctx, db: tx})
		})
}
