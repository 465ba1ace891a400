package store

import (
	"context"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"main/internal/account"
)

var ErrNilDB = errors.New("store: nil database handle")

// AccountRow is the persisted form of an account.
type AccountRow struct {
	AccountID  uint32 `gorm:"column:account_id;primaryKey"`
	InvestorID string `gorm:"column:investor_id;uniqueIndex"`
	Tradable   bool   `gorm:"column:tradable"`
}

// TableName maps AccountRow to its table.
func (AccountRow) TableName() string { return "accounts" }

// SubAccountRow is the persisted form of a sub-account.
type SubAccountRow struct {
	SubAccountID uint32 `gorm:"column:sub_account_id;primaryKey"`
	AccountID    uint32 `gorm:"column:account_id;index"`
	Tradable     bool   `gorm:"column:tradable"`
}

// TableName maps SubAccountRow to its table.
func (SubAccountRow) TableName() string { return "sub_accounts" }

// FleetStore loads the account fleet seed from Postgres. The book-keeping
// core itself stays volatile; the store is read once at process start.
type FleetStore struct {
	db *gorm.DB
}

// NewFleetStore wraps a database handle.
func NewFleetStore(db *gorm.DB) *FleetStore {
	return &FleetStore{db: db}
}

// Migrate creates the seed tables when missing.
func (s *FleetStore) Migrate() error {
	if s.db == nil {
		return ErrNilDB
	}
	return s.db.AutoMigrate(&AccountRow{}, &SubAccountRow{})
}

// LoadFleet assembles the full fleet of sub-accounts, sharing one Account
// entity per account row.
func (s *FleetStore) LoadFleet(ctx context.Context) ([]*account.SubAccount, error) {
	if s.db == nil {
		return nil, ErrNilDB
	}

	var accountRows []AccountRow
	if err := s.db.WithContext(ctx).Find(&accountRows).Error; err != nil {
		return nil, errors.Wrap(err, "load accounts")
	}
	var subRows []SubAccountRow
	if err := s.db.WithContext(ctx).Find(&subRows).Error; err != nil {
		return nil, errors.Wrap(err, "load sub-accounts")
	}

	accounts := make(map[uint32]*account.Account, len(accountRows))
	for _, row := range accountRows {
		acct := account.NewAccount(row.AccountID, row.InvestorID)
		if !row.Tradable {
			acct.Disable()
		}
		accounts[row.AccountID] = acct
	}

	fleet := make([]*account.SubAccount, 0, len(subRows))
	for _, row := range subRows {
		acct, ok := accounts[row.AccountID]
		if !ok {
			return nil, errors.Wrapf(account.ErrAccountNotFound,
				"sub-account %d references account %d", row.SubAccountID, row.AccountID)
		}
		sub := account.NewSubAccount(row.SubAccountID, acct)
		if !row.Tradable {
			sub.Disable()
		}
		fleet = append(fleet, sub)
	}
	return fleet, nil
}
