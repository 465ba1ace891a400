package account

import "sync/atomic"

// ExternalSubAccountID is the reserved sub-account id attributed to orders
// whose true origin is outside this platform.
const ExternalSubAccountID uint32 = 0xFFFFFFFF

// Account is a real trading account identified by accountId and investorId.
// The tradable flag is the only mutable field after registration.
type Account struct {
	accountID  uint32
	investorID string
	tradable   atomic.Bool
}

// NewAccount creates a tradable account.
func NewAccount(accountID uint32, investorID string) *Account {
	a := &Account{accountID: accountID, investorID: investorID}
	a.tradable.Store(true)
	return a
}

// AccountID returns the unique account id.
func (a *Account) AccountID() uint32 {
	return a.accountID
}

// InvestorID returns the unique broker-side investor id.
func (a *Account) InvestorID() string {
	return a.investorID
}

// Enable marks the account tradable and returns it.
func (a *Account) Enable() *Account {
	a.tradable.Store(true)
	return a
}

// Disable marks the account not tradable and returns it.
func (a *Account) Disable() *Account {
	a.tradable.Store(false)
	return a
}

// IsEnabled reports whether the account is tradable.
func (a *Account) IsEnabled() bool {
	return a.tradable.Load()
}

// SubAccount is a sub-ledger under one Account with an independent
// tradable flag. Many sub-accounts may share one account.
type SubAccount struct {
	subAccountID uint32
	account      *Account
	tradable     atomic.Bool
}

// NewSubAccount creates a tradable sub-account owned by the given account.
func NewSubAccount(subAccountID uint32, owner *Account) *SubAccount {
	s := &SubAccount{subAccountID: subAccountID, account: owner}
	s.tradable.Store(true)
	return s
}

// SubAccountID returns the unique sub-account id.
func (s *SubAccount) SubAccountID() uint32 {
	return s.subAccountID
}

// Account returns the owning account.
func (s *SubAccount) Account() *Account {
	return s.account
}

// Enable marks the sub-account tradable and returns it.
func (s *SubAccount) Enable() *SubAccount {
	s.tradable.Store(true)
	return s
}

// Disable marks the sub-account not tradable and returns it.
func (s *SubAccount) Disable() *SubAccount {
	s.tradable.Store(false)
	return s
}

// IsEnabled reports whether the sub-account is tradable.
func (s *SubAccount) IsEnabled() bool {
	return s.tradable.Load()
}
