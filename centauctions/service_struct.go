package centauctions

import (
	"go.dedis.ch/cothority/v3/byzcoin"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/network"
)

// ServiceName can be used from other packages to refer to this service.
const ServiceName = "centauctions"

// We need to register all messages so the network knows how to handle them.
func init() {
	network.RegisterMessages(
		CreateAuction{}, CreateAuctionReply{},
		ListAuctions{}, ListAuctionsReply{},
		GetAuction{}, GetAuctionReply{},
		NewAccount{}, NewAccountReply{},
		Balance{}, BalanceReply{},
		Bid{}, BidReply{},
		Finalize{}, FinalizeReply{},
	)
}

// CreateAuction opens a new auction for the seller account and registers
// it in the directory.
type CreateAuction struct {
	Seller      byzcoin.InstanceID
	Title       string
	StartPrice  uint64
	Description string
}

// CreateAuctionReply returns the identifier the directory assigned.
type CreateAuctionReply struct {
	ID uint32
}

// ListAuctions asks for all auction identifiers, in creation order.
type ListAuctions struct {
}

// ListAuctionsReply carries the identifiers in creation order.
type ListAuctionsReply struct {
	IDs []uint32
}

// GetAuction asks for the contents of one auction.
type GetAuction struct {
	ID uint32
}

// GetAuctionReply is a read-only view of the auction.
type GetAuctionReply struct {
	Title       string
	StartPrice  uint64
	Description string
	State       string
}

// NewAccount opens a coin account holding the given balance.
type NewAccount struct {
	Balance uint64
}

// NewAccountReply names the new account.
type NewAccountReply struct {
	Account byzcoin.InstanceID
}

// Balance asks for the current balance of an account.
type Balance struct {
	Account byzcoin.InstanceID
}

// BalanceReply carries the balance.
type BalanceReply struct {
	Balance uint64
}

// Bid places a bid: Amount is moved from the bidder's account into the
// auction's deposit account if the auction accepts it. The optional
// Roster makes the service announce the new highest bid to every node.
type Bid struct {
	ID     uint32
	Bidder byzcoin.InstanceID
	Amount uint64
	Roster *onet.Roster
}

// BidReply reports the state of the race after this bid.
type BidReply struct {
	HighestBid uint64
	// Acks is the number of nodes that saw the announcement, zero when no
	// roster was given.
	Acks int
}

// Finalize claims the payout owed to the given account and, on first
// use, closes the auction to new bids.
type Finalize struct {
	ID     uint32
	Caller byzcoin.InstanceID
}

// FinalizeReply reports who was paid what.
type FinalizeReply struct {
	Recipient byzcoin.InstanceID
	Amount    uint64
}
