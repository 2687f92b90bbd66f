package centauctions

import (
	"errors"
	"sync"

	"github.com/dedis/student_20_escrow_auctions/auctions"
	"go.dedis.ch/cothority/v3/byzcoin"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
)

// Used for tests
var centauctionID onet.ServiceID

func init() {
	var err error
	centauctionID, err = onet.RegisterNewService(ServiceName, newService)
	log.ErrFatal(err)
}

// Service keeps a directory of auctions together with the coin ledger
// they settle on. The directory is append-only: auctions are stored in
// an identifier-keyed table and the creation order is kept as a list of
// identifiers, so references never move even when records are long done.
type Service struct {
	*onet.ServiceProcessor
	sync.Mutex
	ledger   *Ledger
	auctions map[uint32]*auctions.AuctionData
	deposits map[uint32]byzcoin.InstanceID
	order    []uint32
	nextID   uint32
}

// CreateAuction opens a new auction and appends it to the directory.
func (s *Service) CreateAuction(req *CreateAuction) (*CreateAuctionReply, error) {
	s.Lock()
	defer s.Unlock()

	auction, err := auctions.NewAuction(req.Seller, req.Title, req.StartPrice,
		req.Description)
	if err != nil {
		return nil, err
	}

	id := s.nextID
	s.nextID++
	s.auctions[id] = auction
	// Every auction escrows into its own deposit account.
	s.deposits[id] = s.ledger.NewAccount(0)
	s.order = append(s.order, id)

	log.Lvl2("Created auction", id, "for", req.Title)
	return &CreateAuctionReply{ID: id}, nil
}

// ListAuctions returns all auction identifiers in creation order.
func (s *Service) ListAuctions(req *ListAuctions) (*ListAuctionsReply, error) {
	s.Lock()
	defer s.Unlock()

	ids := make([]uint32, len(s.order))
	copy(ids, s.order)
	return &ListAuctionsReply{IDs: ids}, nil
}

// GetAuction returns the contents of one auction.
func (s *Service) GetAuction(req *GetAuction) (*GetAuctionReply, error) {
	s.Lock()
	defer s.Unlock()

	auction, ok := s.auctions[req.ID]
	if !ok {
		return nil, errors.New("no such auction")
	}
	title, startPrice, description, state := auction.Contents()
	return &GetAuctionReply{
		Title:       title,
		StartPrice:  startPrice,
		Description: description,
		State:       state.String(),
	}, nil
}

// NewAccount opens a funded coin account.
func (s *Service) NewAccount(req *NewAccount) (*NewAccountReply, error) {
	s.Lock()
	defer s.Unlock()

	return &NewAccountReply{Account: s.ledger.NewAccount(req.Balance)}, nil
}

// Balance returns the current balance of an account.
func (s *Service) Balance(req *Balance) (*BalanceReply, error) {
	s.Lock()
	defer s.Unlock()

	balance, err := s.ledger.Balance(req.Account)
	if err != nil {
		return nil, err
	}
	return &BalanceReply{Balance: balance}, nil
}

// Bid moves the amount from the bidder's account into the auction's
// deposit account, provided the auction accepts the bid. The record is
// updated on a copy first, so a refused bid or a failed debit leaves
// both the record and the ledger exactly as they were.
func (s *Service) Bid(req *Bid) (*BidReply, error) {
	s.Lock()
	auction, ok := s.auctions[req.ID]
	if !ok {
		s.Unlock()
		return nil, errors.New("no such auction")
	}

	cp := copyAuction(auction)
	if err := cp.PlaceBid(req.Bidder, req.Amount); err != nil {
		s.Unlock()
		return nil, err
	}
	if err := s.ledger.Transfer(req.Bidder, s.deposits[req.ID], req.Amount); err != nil {
		s.Unlock()
		return nil, err
	}
	s.auctions[req.ID] = cp
	highest := cp.HighestBid
	s.Unlock()

	reply := &BidReply{HighestBid: highest}
	if req.Roster == nil {
		return reply, nil
	}

	acks, err := s.announce(req.Roster, req.ID, highest)
	if err != nil {
		// The bid itself stands, the announcement is best effort.
		log.Lvl2("Announcing bid failed:", err)
		return reply, nil
	}
	reply.Acks = acks
	return reply, nil
}

// Finalize pays out one participant. The engine decides who gets what on
// a copy of the record; only when the coins have actually moved does the
// copy replace the stored record, so a failed transfer keeps the claim
// open for a retry.
func (s *Service) Finalize(req *Finalize) (*FinalizeReply, error) {
	s.Lock()
	defer s.Unlock()

	auction, ok := s.auctions[req.ID]
	if !ok {
		return nil, errors.New("no such auction")
	}

	cp := copyAuction(auction)
	payout, err := cp.Finalize(req.Caller)
	if err != nil {
		return nil, err
	}
	if payout.Amount > 0 {
		err = s.ledger.Transfer(s.deposits[req.ID], payout.Recipient, payout.Amount)
		if err != nil {
			return nil, err
		}
	}
	s.auctions[req.ID] = cp

	log.Lvl2("Auction", req.ID, "paid", payout.Amount, "to", payout.Recipient)
	return &FinalizeReply{
		Recipient: payout.Recipient,
		Amount:    payout.Amount,
	}, nil
}

// announce broadcasts the new highest bid over the roster tree and
// waits for the number of nodes that saw it.
func (s *Service) announce(roster *onet.Roster, id uint32, highest uint64) (int, error) {
	tree := roster.GenerateBinaryTree()
	pi, err := s.CreateProtocol(ProtocolName, tree)
	if err != nil {
		return 0, err
	}
	announce := pi.(*BidAnnounceProtocol)
	announce.AuctionID = id
	announce.HighestBid = highest
	if err := pi.Start(); err != nil {
		return 0, err
	}
	return <-announce.Seen, nil
}

func copyAuction(a *auctions.AuctionData) *auctions.AuctionData {
	cp := *a
	cp.Deposits = append([]auctions.DepositData{}, a.Deposits...)
	return &cp
}

// newService receives the context that holds information about the node
// it's running on. The state is in memory only: every node starts with
// an empty directory and an empty ledger.
func newService(c *onet.Context) (onet.Service, error) {
	s := &Service{
		ServiceProcessor: onet.NewServiceProcessor(c),
		ledger:           NewLedger(),
		auctions:         make(map[uint32]*auctions.AuctionData),
		deposits:         make(map[uint32]byzcoin.InstanceID),
	}
	err := s.RegisterHandlers(s.CreateAuction, s.ListAuctions, s.GetAuction,
		s.NewAccount, s.Balance, s.Bid, s.Finalize)
	if err != nil {
		return nil, err
	}
	return s, nil
}
