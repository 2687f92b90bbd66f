package centauctions

import (
	"errors"

	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
)

// BidAnnounceProtocol floods a freshly accepted highest bid to every
// node of the tree and counts, bottom-up, how many nodes saw it. Only
// the root writes to the Seen channel.
type BidAnnounceProtocol struct {
	*onet.TreeNodeInstance
	AuctionID  uint32
	HighestBid uint64
	Seen       chan int
}

// Check that *BidAnnounceProtocol implements onet.ProtocolInstance
var _ onet.ProtocolInstance = (*BidAnnounceProtocol)(nil)

// NewBidAnnounceProtocol initialises the structure for use in one round
func NewBidAnnounceProtocol(n *onet.TreeNodeInstance) (onet.ProtocolInstance, error) {
	p := &BidAnnounceProtocol{
		TreeNodeInstance: n,
		Seen:             make(chan int),
	}
	for _, handler := range []interface{}{p.HandleAnnounce, p.HandleAck} {
		if err := p.RegisterHandler(handler); err != nil {
			return nil, errors.New("couldn't register handler: " + err.Error())
		}
	}
	return p, nil
}

// Start sends the highest bid to all children.
func (p *BidAnnounceProtocol) Start() error {
	log.Lvl3("Starting BidAnnounceProtocol for auction", p.AuctionID)
	return p.HandleAnnounce(StructAnnounce{p.TreeNode(),
		Announce{AuctionID: p.AuctionID, HighestBid: p.HighestBid}})
}

// HandleAnnounce passes the new highest bid down the tree.
func (p *BidAnnounceProtocol) HandleAnnounce(msg StructAnnounce) error {
	log.Lvl3("Auction", msg.AuctionID, "highest bid is now", msg.HighestBid)
	if !p.IsLeaf() {
		// If we have children, send the same message to all of them
		_ = p.SendToChildren(&msg.Announce)
	} else {
		// If we're the leaf, start to reply
		_ = p.HandleAck(nil)
	}
	return nil
}

// HandleAck is the message going up the tree, counting the nodes that
// saw the announcement.
func (p *BidAnnounceProtocol) HandleAck(acks []StructAck) error {
	defer p.Done()

	seen := 1
	for _, ack := range acks {
		seen += ack.Seen
	}

	if !p.IsRoot() {
		log.Lvl3("Sending ack to parent")
		return p.SendTo(p.Parent(), &Ack{Seen: seen})
	}

	log.Lvl3("Root is done,", seen, "nodes saw the bid")
	p.Seen <- seen
	return nil
}
