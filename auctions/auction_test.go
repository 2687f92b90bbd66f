package auctions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/cothority/v3/byzcoin"
)

var (
	seller = byzcoin.NewInstanceID([]byte("seller"))
	alice  = byzcoin.NewInstanceID([]byte("alice"))
	bob    = byzcoin.NewInstanceID([]byte("bob"))
	carol  = byzcoin.NewInstanceID([]byte("carol"))
)

func newTestAuction(t *testing.T) *AuctionData {
	auction, err := NewAuction(seller, "bananas", 100, "a bunch of bananas")
	require.NoError(t, err)
	require.Equal(t, OPEN, auction.State)
	require.Equal(t, uint64(0), auction.HighestBid)
	require.Empty(t, auction.Deposits)
	return auction
}

// checkInvariants verifies that the highest bid is the maximum deposit,
// that the highest bidder holds it, and that the seller holds nothing.
func checkInvariants(t *testing.T, a *AuctionData) {
	max := uint64(0)
	for _, dep := range a.Deposits {
		require.NotEqual(t, a.SellerAccount, dep.BidderAccount)
		if dep.Amount > max {
			max = dep.Amount
		}
	}
	require.Equal(t, max, a.HighestBid)
	if a.HighestBid > 0 {
		found, i := a.searchDeposit(a.HighestBidder)
		require.True(t, found)
		require.Equal(t, a.HighestBid, a.Deposits[i].Amount)
	}
}

func TestNewAuction(t *testing.T) {
	_, err := NewAuction(seller, "bananas", 0, "")
	require.Equal(t, ErrZeroStartPrice, err)

	newTestAuction(t)
}

func TestPlaceBid_Seller(t *testing.T) {
	auction := newTestAuction(t)

	err := auction.PlaceBid(seller, 500)
	require.Equal(t, ErrSellerBid, err)
	require.Empty(t, auction.Deposits)
}

func TestPlaceBid_Ascending(t *testing.T) {
	auction := newTestAuction(t)

	require.NoError(t, auction.PlaceBid(alice, 150))
	require.Equal(t, uint64(150), auction.HighestBid)
	require.Equal(t, alice, auction.HighestBidder)
	checkInvariants(t, auction)

	require.NoError(t, auction.PlaceBid(bob, 200))
	require.Equal(t, uint64(200), auction.HighestBid)
	require.Equal(t, bob, auction.HighestBidder)
	checkInvariants(t, auction)

	// Alice tops up: 150 + 100 = 250 beats 200.
	require.NoError(t, auction.PlaceBid(alice, 100))
	require.Equal(t, uint64(250), auction.HighestBid)
	require.Equal(t, alice, auction.HighestBidder)
	checkInvariants(t, auction)
}

func TestPlaceBid_TooLow(t *testing.T) {
	auction := newTestAuction(t)

	require.NoError(t, auction.PlaceBid(alice, 150))
	require.NoError(t, auction.PlaceBid(bob, 200))

	before := *auction
	before.Deposits = append([]DepositData{}, auction.Deposits...)

	// Alice's accumulated total 150+50 equals but does not exceed 200.
	err := auction.PlaceBid(alice, 50)
	require.Equal(t, ErrBidTooLow, err)
	require.Equal(t, before.HighestBid, auction.HighestBid)
	require.Equal(t, before.HighestBidder, auction.HighestBidder)
	require.Equal(t, before.Deposits, auction.Deposits)

	err = auction.PlaceBid(carol, 200)
	require.Equal(t, ErrBidTooLow, err)
	require.Equal(t, before.Deposits, auction.Deposits)

	err = auction.PlaceBid(carol, 0)
	require.Equal(t, ErrZeroBid, err)
}

func TestPlaceBid_Done(t *testing.T) {
	auction := newTestAuction(t)
	require.NoError(t, auction.PlaceBid(alice, 150))

	_, err := auction.Finalize(seller)
	require.NoError(t, err)
	require.Equal(t, DONE, auction.State)

	err = auction.PlaceBid(bob, 500)
	require.Equal(t, ErrAuctionDone, err)
}

func TestFinalize_EndToEnd(t *testing.T) {
	auction := newTestAuction(t)
	require.NoError(t, auction.PlaceBid(alice, 150))
	require.NoError(t, auction.PlaceBid(bob, 200))

	escrowed := uint64(150 + 200)

	// The seller collects the winning bid and closes the auction.
	p, err := auction.Finalize(seller)
	require.NoError(t, err)
	require.Equal(t, seller, p.Recipient)
	require.Equal(t, uint64(200), p.Amount)
	require.Equal(t, DONE, auction.State)

	paidOut := p.Amount

	// The winner gets nothing back, their deposit is the sale.
	p, err = auction.Finalize(bob)
	require.NoError(t, err)
	require.Equal(t, bob, p.Recipient)
	require.Equal(t, uint64(0), p.Amount)
	paidOut += p.Amount

	// The losing bidder gets a full refund.
	p, err = auction.Finalize(alice)
	require.NoError(t, err)
	require.Equal(t, alice, p.Recipient)
	require.Equal(t, uint64(150), p.Amount)
	paidOut += p.Amount

	require.Equal(t, escrowed, paidOut)
	for _, dep := range auction.Deposits {
		require.Equal(t, uint64(0), dep.Amount)
	}
}

func TestFinalize_RefundOnce(t *testing.T) {
	auction := newTestAuction(t)
	require.NoError(t, auction.PlaceBid(alice, 150))
	require.NoError(t, auction.PlaceBid(bob, 200))

	p, err := auction.Finalize(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(150), p.Amount)
	require.Equal(t, DONE, auction.State)

	p, err = auction.Finalize(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(0), p.Amount)
}

func TestFinalize_SellerOnce(t *testing.T) {
	auction := newTestAuction(t)
	require.NoError(t, auction.PlaceBid(alice, 150))
	require.NoError(t, auction.PlaceBid(bob, 200))

	p, err := auction.Finalize(seller)
	require.NoError(t, err)
	require.Equal(t, uint64(200), p.Amount)

	// The highest bid is not a balance: a second claim pays nothing.
	p, err = auction.Finalize(seller)
	require.NoError(t, err)
	require.Equal(t, seller, p.Recipient)
	require.Equal(t, uint64(0), p.Amount)
}

func TestFinalize_NoStake(t *testing.T) {
	auction := newTestAuction(t)
	require.NoError(t, auction.PlaceBid(alice, 150))

	_, err := auction.Finalize(carol)
	require.Equal(t, ErrNoStake, err)
	require.Equal(t, OPEN, auction.State)
}

func TestFinalize_NoBids(t *testing.T) {
	auction := newTestAuction(t)

	p, err := auction.Finalize(seller)
	require.NoError(t, err)
	require.Equal(t, uint64(0), p.Amount)
	require.Equal(t, DONE, auction.State)
}
