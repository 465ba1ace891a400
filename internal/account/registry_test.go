package account

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFleet() []*SubAccount {
	acct1 := NewAccount(10, "INV1")
	acct2 := NewAccount(20, "INV2")
	return []*SubAccount{
		NewSubAccount(100, acct1),
		NewSubAccount(101, acct1),
		NewSubAccount(200, acct2),
	}
}

func TestInitialize(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.IsInitialized())

	require.NoError(t, r.Initialize(newTestFleet()...))
	require.True(t, r.IsInitialized())

	err := r.Initialize(newTestFleet()...)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitializeRejectsBadInput(t *testing.T) {
	acct := NewAccount(10, "INV1")
	testCases := []struct {
		desc  string
		fleet []*SubAccount
		want  error
	}{
		{"empty fleet", nil, ErrEmptyFleet},
		{"nil sub-account", []*SubAccount{nil}, ErrNilSubAccount},
		{"orphan sub-account", []*SubAccount{NewSubAccount(100, nil)}, ErrOrphanSubAccount},
		{
			"duplicate sub-account id",
			[]*SubAccount{NewSubAccount(100, acct), NewSubAccount(100, acct)},
			ErrDuplicateSubAccount,
		},
		{
			"empty investor id",
			[]*SubAccount{NewSubAccount(100, NewAccount(10, ""))},
			ErrEmptyInvestorID,
		},
		{
			"duplicate account id",
			[]*SubAccount{
				NewSubAccount(100, NewAccount(10, "INV1")),
				NewSubAccount(101, NewAccount(10, "INV1b")),
			},
			ErrDuplicateAccount,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			r := NewRegistry()
			err := r.Initialize(tc.fleet...)
			require.ErrorIs(t, err, tc.want)
			require.False(t, r.IsInitialized())
		})
	}
}

func TestInitializeRetryAfterFailure(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Initialize())
	require.NoError(t, r.Initialize(newTestFleet()...))
}

func TestInitializeExactlyOnce(t *testing.T) {
	const callers = 16

	r := NewRegistry()
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Initialize(newTestFleet()...)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrAlreadyInitialized)
	}
	require.Equal(t, 1, succeeded)
}

func TestInitializeDeduplicates(t *testing.T) {
	acct := NewAccount(10, "INV1")
	sub := NewSubAccount(100, acct)

	r := NewRegistry()
	// The same entities arriving twice must not trip the duplicate checks.
	require.NoError(t, r.Initialize(sub, sub, NewSubAccount(101, acct)))

	got, err := r.Account(10)
	require.NoError(t, err)
	assert.Same(t, acct, got)
}

func TestLookups(t *testing.T) {
	r := NewRegistry()

	_, err := r.Account(10)
	require.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, r.Initialize(newTestFleet()...))

	acct, err := r.Account(10)
	require.NoError(t, err)
	assert.Equal(t, "INV1", acct.InvestorID())

	bySub, err := r.AccountBySubAccountID(101)
	require.NoError(t, err)
	assert.Same(t, acct, bySub)

	byInvestor, err := r.AccountByInvestorID("INV2")
	require.NoError(t, err)
	assert.Equal(t, uint32(20), byInvestor.AccountID())

	sub, err := r.SubAccount(200)
	require.NoError(t, err)
	assert.Same(t, byInvestor, sub.Account())

	_, err = r.Account(99)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = r.AccountBySubAccountID(999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = r.AccountByInvestorID("NOBODY")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = r.SubAccount(999)
	assert.ErrorIs(t, err, ErrSubAccountNotFound)
}

func TestTradableToggles(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Initialize(newTestFleet()...))

	tradable, err := r.IsAccountTradable(10)
	require.NoError(t, err)
	assert.True(t, tradable)

	acct, err := r.SetAccountNotTradable(10)
	require.NoError(t, err)
	assert.False(t, acct.IsEnabled())

	tradable, err = r.IsAccountTradable(10)
	require.NoError(t, err)
	assert.False(t, tradable)

	_, err = r.SetAccountTradable(10)
	require.NoError(t, err)
	tradable, err = r.IsAccountTradable(10)
	require.NoError(t, err)
	assert.True(t, tradable)

	sub, err := r.SetSubAccountNotTradable(100)
	require.NoError(t, err)
	assert.False(t, sub.IsEnabled())
	// The owning account keeps its own flag.
	tradable, err = r.IsAccountTradable(10)
	require.NoError(t, err)
	assert.True(t, tradable)

	_, err = r.SetSubAccountTradable(100)
	require.NoError(t, err)
	tradable, err = r.IsSubAccountTradable(100)
	require.NoError(t, err)
	assert.True(t, tradable)

	_, err = r.SetAccountNotTradable(99)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = r.SetSubAccountTradable(999)
	assert.ErrorIs(t, err, ErrSubAccountNotFound)
}
