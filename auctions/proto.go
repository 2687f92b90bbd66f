package auctions

import "go.dedis.ch/cothority/v3/byzcoin"

// PROTOSTART
// package escrowauction;
//
// option java_package = "ch.epfl.dedis.template.proto";
// option java_outer_classname = "EscrowAuctionProto";

// AuctionData is the full state of one ascending auction. It is created
// once, mutated only by PlaceBid and Finalize, and kept forever as the
// record of the sale, even after every payout has been made.
type AuctionData struct {
	SellerAccount byzcoin.InstanceID // Where the winning bid is credited.
	Title         string
	StartPrice    uint64
	Description   string
	State         state
	HighestBid    uint64             // Largest accumulated deposit among the bidders.
	HighestBidder byzcoin.InstanceID // Account holding HighestBid; zero until the first bid.
	Deposits      []DepositData
	SellerPaid    bool // The seller's payout happens at most once.
}

// DepositData is the accumulated escrow of one bidder. The entry stays in
// the table with Amount zero once the bidder has been paid out, so a
// second claim is answered with zero instead of a fresh refund.
type DepositData struct {
	BidderAccount byzcoin.InstanceID
	Amount        uint64
}

// BidData names the account a bid is placed from. The amount is not part
// of the message: on chain it is the value of the coins attached to the
// bid instruction.
type BidData struct {
	BidderAccount byzcoin.InstanceID
}

// Payout is the decision Finalize computes: who is owed what. Actually
// moving the coins is the job of whoever hosts the auction.
type Payout struct {
	Recipient byzcoin.InstanceID
	Amount    uint64
}

type state uint32

const (
	// OPEN accepts bids. Every auction starts here.
	OPEN state = 1 + iota
	// DONE is reached by the first finalize call and never left. Bids are
	// refused, remaining participants can still claim their payouts.
	DONE
)

var states = [...]string{
	"OPEN",
	"DONE",
}

func (s state) String() string {
	return states[s-1]
}
