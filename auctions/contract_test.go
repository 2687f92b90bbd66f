package auctions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContractAuction_Spawn(t *testing.T) {
	bct := newBCTest(t)
	defer bct.Close()

	sellAccInstID := bct.createCoinAccount(t, 0)

	auctInstID, auction := bct.createAuction(t, sellAccInstID, "bananas", 100,
		"a bunch of bananas")

	auctS := bct.proofAndDecodeAuction(t, auctInstID)
	require.Equal(t, auction.Title, auctS.Title)
	require.Equal(t, auction.StartPrice, auctS.StartPrice)
	require.Equal(t, auction.SellerAccount, auctS.SellerAccount)
	require.Equal(t, OPEN, auctS.State)
	require.Equal(t, uint64(0), auctS.HighestBid)
	require.Empty(t, auctS.Deposits)
}

func TestContractAuction_Bid(t *testing.T) {
	bct := newBCTest(t)
	defer bct.Close()

	sellAccInstID := bct.createCoinAccount(t, 500)
	aliceAcc := bct.createCoinAccount(t, 1000)
	bobAcc := bct.createCoinAccount(t, 1000)

	auctInstID, _ := bct.createAuction(t, sellAccInstID, "bananas", 100,
		"a bunch of bananas")

	require.NoError(t, bct.addBid(t, auctInstID, aliceAcc, 150))
	require.NoError(t, bct.addBid(t, auctInstID, bobAcc, 200))

	auctS := bct.proofAndDecodeAuction(t, auctInstID)
	require.Equal(t, uint64(200), auctS.HighestBid)
	require.Equal(t, bobAcc, auctS.HighestBidder)
	require.Len(t, auctS.Deposits, 2)

	// The deposits really left the bidder accounts.
	require.Equal(t, uint64(850), bct.coinBalance(t, aliceAcc))
	require.Equal(t, uint64(800), bct.coinBalance(t, bobAcc))

	// 150 + 30 does not exceed 200, so the fetched coins bounce back.
	require.Error(t, bct.addBid(t, auctInstID, aliceAcc, 30))
	auctS = bct.proofAndDecodeAuction(t, auctInstID)
	require.Equal(t, uint64(200), auctS.HighestBid)
	require.Equal(t, uint64(850), bct.coinBalance(t, aliceAcc))

	// The seller cannot bid on their own auction.
	require.Error(t, bct.addBid(t, auctInstID, sellAccInstID, 300))
}

func TestContractAuction_Finalize(t *testing.T) {
	bct := newBCTest(t)
	defer bct.Close()

	sellAccInstID := bct.createCoinAccount(t, 0)
	aliceAcc := bct.createCoinAccount(t, 1000)
	bobAcc := bct.createCoinAccount(t, 1000)

	auctInstID, _ := bct.createAuction(t, sellAccInstID, "bananas", 100,
		"a bunch of bananas")

	require.NoError(t, bct.addBid(t, auctInstID, aliceAcc, 150))
	require.NoError(t, bct.addBid(t, auctInstID, bobAcc, 200))

	// The seller collects the winning bid; the auction is done.
	require.NoError(t, bct.finalize(t, auctInstID, sellAccInstID))
	auctS := bct.proofAndDecodeAuction(t, auctInstID)
	require.Equal(t, DONE, auctS.State)
	require.Equal(t, uint64(200), bct.coinBalance(t, sellAccInstID))

	// No more bids.
	require.Error(t, bct.addBid(t, auctInstID, aliceAcc, 500))

	// The winner gets nothing back, the loser gets the full refund.
	require.NoError(t, bct.finalize(t, auctInstID, bobAcc))
	require.Equal(t, uint64(800), bct.coinBalance(t, bobAcc))

	require.NoError(t, bct.finalize(t, auctInstID, aliceAcc))
	require.Equal(t, uint64(1000), bct.coinBalance(t, aliceAcc))

	// Repeated claims pay nothing more, for anybody.
	require.NoError(t, bct.finalize(t, auctInstID, sellAccInstID))
	require.Equal(t, uint64(200), bct.coinBalance(t, sellAccInstID))

	require.NoError(t, bct.finalize(t, auctInstID, aliceAcc))
	require.Equal(t, uint64(1000), bct.coinBalance(t, aliceAcc))

	// An account that never bid has nothing to claim.
	stranger := bct.createCoinAccount(t, 0)
	require.Error(t, bct.finalize(t, auctInstID, stranger))
}

func TestContractAuction_SpawnZeroPrice(t *testing.T) {
	bct := newBCTest(t)
	defer bct.Close()

	sellAccInstID := bct.createCoinAccount(t, 0)

	auction := AuctionData{
		SellerAccount: sellAccInstID,
		Title:         "bananas",
		StartPrice:    0,
	}
	require.Error(t, bct.trySpawn(t, auction))
}
