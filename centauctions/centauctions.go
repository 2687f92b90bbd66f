package centauctions

import (
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/cothority/v3/byzcoin"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/network"
)

// Client is a structure to communicate with the centralized auction
// service. All calls go to one chosen node: each node keeps its own
// directory and ledger, so mixing nodes mixes worlds.
type Client struct {
	*onet.Client
}

// NewClient instantiates a new centauctions.Client
func NewClient() *Client {
	return &Client{Client: onet.NewClient(cothority.Suite, ServiceName)}
}

// CreateAuction opens a new auction on the given node and returns its
// identifier.
func (c *Client) CreateAuction(si *network.ServerIdentity,
	seller byzcoin.InstanceID, title string, startPrice uint64,
	description string) (uint32, error) {
	log.Lvl4("Creating auction on", si)
	reply := &CreateAuctionReply{}
	err := c.SendProtobuf(si, &CreateAuction{
		Seller:      seller,
		Title:       title,
		StartPrice:  startPrice,
		Description: description,
	}, reply)
	if err != nil {
		return 0, err
	}
	return reply.ID, nil
}

// ListAuctions returns all auction identifiers in creation order.
func (c *Client) ListAuctions(si *network.ServerIdentity) ([]uint32, error) {
	reply := &ListAuctionsReply{}
	err := c.SendProtobuf(si, &ListAuctions{}, reply)
	if err != nil {
		return nil, err
	}
	return reply.IDs, nil
}

// GetAuction returns the contents of one auction.
func (c *Client) GetAuction(si *network.ServerIdentity, id uint32) (
	*GetAuctionReply, error) {
	reply := &GetAuctionReply{}
	err := c.SendProtobuf(si, &GetAuction{ID: id}, reply)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// NewAccount opens a coin account with the given balance.
func (c *Client) NewAccount(si *network.ServerIdentity, balance uint64) (
	byzcoin.InstanceID, error) {
	reply := &NewAccountReply{}
	err := c.SendProtobuf(si, &NewAccount{Balance: balance}, reply)
	if err != nil {
		return byzcoin.InstanceID{}, err
	}
	return reply.Account, nil
}

// Balance returns the current balance of an account.
func (c *Client) Balance(si *network.ServerIdentity,
	account byzcoin.InstanceID) (uint64, error) {
	reply := &BalanceReply{}
	err := c.SendProtobuf(si, &Balance{Account: account}, reply)
	if err != nil {
		return 0, err
	}
	return reply.Balance, nil
}

// Bid places a bid from the given account. With a non-nil roster the
// service announces the accepted bid to every node.
func (c *Client) Bid(si *network.ServerIdentity, id uint32,
	bidder byzcoin.InstanceID, amount uint64, roster *onet.Roster) (
	*BidReply, error) {
	log.Lvl4("Sending bid to", si)
	reply := &BidReply{}
	err := c.SendProtobuf(si, &Bid{
		ID:     id,
		Bidder: bidder,
		Amount: amount,
		Roster: roster,
	}, reply)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Finalize claims the payout owed to the given account.
func (c *Client) Finalize(si *network.ServerIdentity, id uint32,
	caller byzcoin.InstanceID) (*FinalizeReply, error) {
	reply := &FinalizeReply{}
	err := c.SendProtobuf(si, &Finalize{ID: id, Caller: caller}, reply)
	if err != nil {
		return nil, err
	}
	return reply, nil
}
