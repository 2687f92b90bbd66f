package centauctions

import (
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/network"
)

// ProtocolName can be used from other packages to refer to this protocol.
const ProtocolName = "BidAnnounce"

func init() {
	network.RegisterMessage(Announce{})
	network.RegisterMessage(Ack{})
	_, _ = onet.GlobalProtocolRegister(ProtocolName, NewBidAnnounceProtocol)
}

// Announce carries a freshly accepted highest bid down the tree.
type Announce struct {
	AuctionID  uint32
	HighestBid uint64
}

// StructAnnounce just contains Announce and the data necessary to
// identify and process the message in the onet framework.
type StructAnnounce struct {
	*onet.TreeNode
	Announce
}

// Ack counts the nodes that saw the announcement.
type Ack struct {
	Seen int
}

// StructAck just contains Ack and the data necessary to identify and
// process the message in the onet framework.
type StructAck struct {
	*onet.TreeNode
	Ack
}
