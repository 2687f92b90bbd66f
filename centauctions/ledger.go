package centauctions

import (
	"encoding/binary"
	"errors"

	"go.dedis.ch/cothority/v3/byzcoin"
)

var (
	// ErrUnknownAccount is returned when a transfer names an account the
	// ledger never opened.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrInsufficientCoins is returned when the debited account cannot
	// cover the amount.
	ErrInsufficientCoins = errors.New("not enough coins")
	// ErrCoinOverflow is returned when a credit would wrap the balance.
	ErrCoinOverflow = errors.New("coin overflow")
	// ErrSelfTransfer rejects transfers from an account to itself.
	ErrSelfTransfer = errors.New("cannot transfer to the same account")
)

// Ledger is the in-memory coin store backing the centralized service. It
// plays the part the coin contract plays for the on-chain version: it is
// the only place coins actually move, the auction record just says where
// they should go. The service serializes all access.
type Ledger struct {
	balances map[byzcoin.InstanceID]uint64
	next     uint64
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[byzcoin.InstanceID]uint64)}
}

// NewAccount opens an account with the given starting balance and
// returns its identifier.
func (l *Ledger) NewAccount(balance uint64) byzcoin.InstanceID {
	l.next++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, l.next)
	acc := byzcoin.NewInstanceID(buf)
	l.balances[acc] = balance
	return acc
}

// Balance returns the current balance of the account.
func (l *Ledger) Balance(acc byzcoin.InstanceID) (uint64, error) {
	balance, ok := l.balances[acc]
	if !ok {
		return 0, ErrUnknownAccount
	}
	return balance, nil
}

// Transfer moves amount between two accounts. Either the full amount
// moves or nothing does. An account cannot transfer to itself: the two
// balance writes would overlap and credit the amount twice.
func (l *Ledger) Transfer(from, to byzcoin.InstanceID, amount uint64) error {
	if from == to {
		return ErrSelfTransfer
	}
	src, ok := l.balances[from]
	if !ok {
		return ErrUnknownAccount
	}
	dst, ok := l.balances[to]
	if !ok {
		return ErrUnknownAccount
	}
	if src < amount {
		return ErrInsufficientCoins
	}
	if dst+amount < dst {
		return ErrCoinOverflow
	}
	l.balances[from] = src - amount
	l.balances[to] = dst + amount
	return nil
}
