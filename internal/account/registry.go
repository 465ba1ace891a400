package account

import (
	"errors"
	"sync/atomic"

	"github.com/yanun0323/logs"
)

var (
	ErrNotInitialized      = errors.New("account registry not initialized")
	ErrAlreadyInitialized  = errors.New("account registry already initialized")
	ErrEmptyFleet          = errors.New("fleet must contain at least one sub-account")
	ErrNilSubAccount       = errors.New("sub-account is nil")
	ErrOrphanSubAccount    = errors.New("sub-account has no owning account")
	ErrEmptyInvestorID     = errors.New("account investor id is empty")
	ErrDuplicateSubAccount = errors.New("sub-account id registered twice")
	ErrDuplicateAccount    = errors.New("account id registered twice")
	ErrAccountNotFound     = errors.New("account no mapped instance")
	ErrSubAccountNotFound  = errors.New("sub-account no mapped instance")
)

// Registry holds the account fleet and its lookup indices. It is populated
// exactly once via Initialize; afterwards the indices are read-only and the
// only permitted mutations are the per-entity tradable flags.
type Registry struct {
	// initializing is the one-shot gate; ready flips only after the
	// indices are fully built, so lookups never observe partial state.
	initializing atomic.Bool
	ready        atomic.Bool

	accounts             map[uint32]*Account
	accountsByInvestor   map[string]*Account
	accountsBySubAccount map[uint32]*Account
	subAccounts          map[uint32]*SubAccount
}

type indices struct {
	accounts             map[uint32]*Account
	accountsByInvestor   map[string]*Account
	accountsBySubAccount map[uint32]*Account
	subAccounts          map[uint32]*SubAccount
}

// NewRegistry creates an uninitialized registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Initialize populates the registry from the full fleet of sub-accounts.
// It is one-shot: concurrent callers race on an atomic guard and the losers
// receive ErrAlreadyInitialized. A population failure rolls the guard back
// so the caller may retry after fixing the input.
func (r *Registry) Initialize(subAccounts ...*SubAccount) error {
	if !r.initializing.CompareAndSwap(false, true) {
		logs.Warn("account registry initialized twice")
		return ErrAlreadyInitialized
	}

	idx, err := buildIndices(subAccounts)
	if err != nil {
		r.initializing.Store(false)
		return err
	}

	r.accounts = idx.accounts
	r.accountsByInvestor = idx.accountsByInvestor
	r.accountsBySubAccount = idx.accountsBySubAccount
	r.subAccounts = idx.subAccounts
	r.ready.Store(true)
	return nil
}

// IsInitialized reports whether Initialize has completed successfully.
func (r *Registry) IsInitialized() bool {
	return r.ready.Load()
}

func buildIndices(subAccounts []*SubAccount) (indices, error) {
	idx := indices{
		accounts:             make(map[uint32]*Account, len(subAccounts)),
		accountsByInvestor:   make(map[string]*Account, len(subAccounts)),
		accountsBySubAccount: make(map[uint32]*Account, len(subAccounts)),
		subAccounts:          make(map[uint32]*SubAccount, len(subAccounts)),
	}
	if len(subAccounts) == 0 {
		return idx, ErrEmptyFleet
	}

	// Deduplicate by entity so the same account arriving via several
	// sub-accounts is registered once.
	seenSub := make(map[*SubAccount]struct{}, len(subAccounts))
	seenAcct := make(map[*Account]struct{}, len(subAccounts))
	for _, sub := range subAccounts {
		if sub == nil {
			return idx, ErrNilSubAccount
		}
		if _, ok := seenSub[sub]; ok {
			continue
		}
		seenSub[sub] = struct{}{}
		if err := idx.putSubAccount(sub); err != nil {
			return idx, err
		}
		seenAcct[sub.Account()] = struct{}{}
	}
	for acct := range seenAcct {
		if err := idx.putAccount(acct); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

func (idx *indices) putSubAccount(sub *SubAccount) error {
	if sub.Account() == nil {
		return ErrOrphanSubAccount
	}
	if _, ok := idx.subAccounts[sub.SubAccountID()]; ok {
		return ErrDuplicateSubAccount
	}
	idx.subAccounts[sub.SubAccountID()] = sub
	idx.accountsBySubAccount[sub.SubAccountID()] = sub.Account()
	logs.Infof("put sub-account, subAccountId: %d, accountId: %d",
		sub.SubAccountID(), sub.Account().AccountID())
	return nil
}

func (idx *indices) putAccount(acct *Account) error {
	if acct.InvestorID() == "" {
		return ErrEmptyInvestorID
	}
	if _, ok := idx.accounts[acct.AccountID()]; ok {
		return ErrDuplicateAccount
	}
	if _, ok := idx.accountsByInvestor[acct.InvestorID()]; ok {
		return ErrDuplicateAccount
	}
	idx.accounts[acct.AccountID()] = acct
	idx.accountsByInvestor[acct.InvestorID()] = acct
	logs.Infof("put account, accountId: %d, investorId: %s",
		acct.AccountID(), acct.InvestorID())
	return nil
}

// Account returns the account mapped to accountId.
func (r *Registry) Account(accountID uint32) (*Account, error) {
	if !r.ready.Load() {
		return nil, ErrNotInitialized
	}
	acct, ok := r.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// AccountBySubAccountID returns the account owning subAccountId.
func (r *Registry) AccountBySubAccountID(subAccountID uint32) (*Account, error) {
	if !r.ready.Load() {
		return nil, ErrNotInitialized
	}
	acct, ok := r.accountsBySubAccount[subAccountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// AccountByInvestorID returns the account mapped to investorId.
func (r *Registry) AccountByInvestorID(investorID string) (*Account, error) {
	if !r.ready.Load() {
		return nil, ErrNotInitialized
	}
	acct, ok := r.accountsByInvestor[investorID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// SubAccount returns the sub-account mapped to subAccountId.
func (r *Registry) SubAccount(subAccountID uint32) (*SubAccount, error) {
	if !r.ready.Load() {
		return nil, ErrNotInitialized
	}
	sub, ok := r.subAccounts[subAccountID]
	if !ok {
		return nil, ErrSubAccountNotFound
	}
	return sub, nil
}

// SetAccountTradable enables trading on the account and returns it.
func (r *Registry) SetAccountTradable(accountID uint32) (*Account, error) {
	acct, err := r.Account(accountID)
	if err != nil {
		return nil, err
	}
	return acct.Enable(), nil
}

// SetAccountNotTradable disables trading on the account and returns it.
func (r *Registry) SetAccountNotTradable(accountID uint32) (*Account, error) {
	acct, err := r.Account(accountID)
	if err != nil {
		return nil, err
	}
	return acct.Disable(), nil
}

// IsAccountTradable reports whether the account is tradable.
func (r *Registry) IsAccountTradable(accountID uint32) (bool, error) {
	acct, err := r.Account(accountID)
	if err != nil {
		return false, err
	}
	return acct.IsEnabled(), nil
}

// SetSubAccountTradable enables trading on the sub-account and returns it.
func (r *Registry) SetSubAccountTradable(subAccountID uint32) (*SubAccount, error) {
	sub, err := r.SubAccount(subAccountID)
	if err != nil {
		return nil, err
	}
	return sub.Enable(), nil
}

// SetSubAccountNotTradable disables trading on the sub-account and returns it.
func (r *Registry) SetSubAccountNotTradable(subAccountID uint32) (*SubAccount, error) {
	sub, err := r.SubAccount(subAccountID)
	if err != nil {
		return nil, err
	}
	return sub.Disable(), nil
}

// IsSubAccountTradable reports whether the sub-account is tradable.
func (r *Registry) IsSubAccountTradable(subAccountID uint32) (bool, error) {
	sub, err := r.SubAccount(subAccountID)
	if err != nil {
		return false, err
	}
	return sub.IsEnabled(), nil
}
