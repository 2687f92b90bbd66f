package auctions

import (
	"errors"

	"go.dedis.ch/cothority/v3/byzcoin"
)

// The engine below is the whole auction logic, kept free of any ledger or
// network machinery so it can be driven deterministically from tests. The
// byzcoin contract in contract.go and the centralized service both apply
// these operations on a copy of the record and only persist the copy once
// the matching coin movement has gone through, which keeps every call
// all-or-nothing.

var (
	// ErrZeroStartPrice rejects auctions created with a start price of zero.
	ErrZeroStartPrice = errors.New("start price must be positive")
	// ErrZeroBid rejects bids that bring no coins.
	ErrZeroBid = errors.New("bid amount must be positive")
	// ErrBidTooLow rejects bids whose accumulated total does not exceed the
	// current highest bid.
	ErrBidTooLow = errors.New("bid must exceed current highest")
	// ErrSellerBid keeps the seller out of their own auction.
	ErrSellerBid = errors.New("seller cannot bid on own auction")
	// ErrAuctionDone rejects bids once the first finalize went through.
	ErrAuctionDone = errors.New("auction is done, cannot bid")
	// ErrNoStake rejects finalize calls from accounts that never bid and do
	// not sell.
	ErrNoStake = errors.New("account has no stake in this auction")
	// ErrDepositOverflow rejects a bid that would wrap the accumulated
	// deposit around.
	ErrDepositOverflow = errors.New("deposit overflow")
)

// NewAuction returns a fresh open auction for the given seller account.
func NewAuction(seller byzcoin.InstanceID, title string, startPrice uint64,
	description string) (*AuctionData, error) {
	if startPrice == 0 {
		return nil, ErrZeroStartPrice
	}
	return &AuctionData{
		SellerAccount: seller,
		Title:         title,
		StartPrice:    startPrice,
		Description:   description,
		State:         OPEN,
	}, nil
}

// PlaceBid adds amount to the bidder's accumulated deposit. The new total
// must strictly exceed the current highest bid, no matter whose it is, so
// a bidder cannot become highest just by topping up their own deposit.
// On error the auction is left untouched.
func (a *AuctionData) PlaceBid(bidder byzcoin.InstanceID, amount uint64) error {
	if bidder == a.SellerAccount {
		return ErrSellerBid
	}
	if a.State != OPEN {
		return ErrAuctionDone
	}
	if amount == 0 {
		return ErrZeroBid
	}

	newTotal := amount
	found, i := a.searchDeposit(bidder)
	if found {
		newTotal += a.Deposits[i].Amount
		if newTotal < amount {
			return ErrDepositOverflow
		}
	}
	if newTotal <= a.HighestBid {
		return ErrBidTooLow
	}

	if found {
		a.Deposits[i].Amount = newTotal
	} else {
		a.Deposits = append(a.Deposits, DepositData{
			BidderAccount: bidder,
			Amount:        newTotal,
		})
	}
	a.HighestBid = newTotal
	a.HighestBidder = bidder
	return nil
}

// Finalize pays out one participant and, on the first call, closes the
// auction to new bids. Each participant claims independently:
//   - the seller gets the highest bid, exactly once,
//   - the highest bidder gets nothing, their deposit is the sale,
//   - every other bidder gets their remaining deposit back.
//
// A repeated claim yields a zero payout instead of an error, so retrying
// after a lost reply cannot double-pay anyone.
func (a *AuctionData) Finalize(caller byzcoin.InstanceID) (Payout, error) {
	if caller == a.SellerAccount {
		p := Payout{Recipient: a.SellerAccount}
		if !a.SellerPaid {
			p.Amount = a.HighestBid
			a.SellerPaid = true
		}
		a.State = DONE
		return p, nil
	}

	found, i := a.searchDeposit(caller)
	if !found {
		return Payout{}, ErrNoStake
	}

	p := Payout{Recipient: caller}
	if caller != a.HighestBidder {
		p.Amount = a.Deposits[i].Amount
	}
	a.Deposits[i].Amount = 0
	a.State = DONE
	return p, nil
}

// Contents is the read-only view of an auction.
func (a *AuctionData) Contents() (title string, startPrice uint64,
	description string, st state) {
	return a.Title, a.StartPrice, a.Description, a.State
}

func (a *AuctionData) searchDeposit(acc byzcoin.InstanceID) (bool, int) {
	for i, dep := range a.Deposits {
		if dep.BidderAccount == acc {
			return true, i
		}
	}
	return false, 0
}
