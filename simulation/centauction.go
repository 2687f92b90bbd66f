package main

import (
	"errors"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/dedis/student_20_escrow_auctions/centauctions"
	"go.dedis.ch/cothority/v3/byzcoin"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/simul/monitor"
)

func init() {
	onet.SimulationRegister("CentAuction", NewSimulationCentAuction)
}

// SimulationCentAuction drives the centralized auction service through
// full create/bid/finalize rounds against one node of the roster.
type SimulationCentAuction struct {
	onet.SimulationBFTree
	Bidders int
	Bids    int
}

// NewSimulationCentAuction returns the new simulation, where all fields
// are initialised using the config-file
func NewSimulationCentAuction(config string) (onet.Simulation, error) {
	es := &SimulationCentAuction{}
	_, err := toml.Decode(config, es)
	if err != nil {
		return nil, err
	}
	return es, nil
}

// Setup creates the tree used for that simulation
func (s *SimulationCentAuction) Setup(dir string, hosts []string) (
	*onet.SimulationConfig, error) {
	sc := &onet.SimulationConfig{}
	s.CreateRoster(sc, hosts, 2000)
	err := s.CreateTree(sc)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// Node can be used to initialize each node before it will be run
// by the server.
func (s *SimulationCentAuction) Node(config *onet.SimulationConfig) error {
	index, _ := config.Roster.Search(config.Server.ServerIdentity.ID)
	if index < 0 {
		log.Fatal("Didn't find this node in roster")
	}
	log.Lvl3("Initializing node-index", index)
	return s.SimulationBFTree.Node(config)
}

// Run is used on the destination machines and runs a number of rounds
func (s *SimulationCentAuction) Run(config *onet.SimulationConfig) error {
	size := config.Tree.Size()
	log.Lvl2("Size is:", size, "rounds:", s.Rounds)

	c := centauctions.NewClient()
	si := config.Roster.List[0]

	startBalance := uint64(100000)

	seller, err := c.NewAccount(si, 0)
	if err != nil {
		return err
	}
	bidderAccounts := make([]byzcoin.InstanceID, s.Bidders)
	expected := make([]uint64, s.Bidders)
	for i := 0; i < s.Bidders; i++ {
		bidderAccounts[i], err = c.NewAccount(si, startBalance)
		if err != nil {
			return err
		}
		expected[i] = startBalance
	}

	var sellerTotal uint64

	for round := 0; round < s.Rounds; round++ {
		log.Lvl1("Starting round", round)
		roundM := monitor.NewTimeMeasure("round")

		id, err := c.CreateAuction(si, seller, "bananas", 1,
			"round "+strconv.Itoa(round))
		if err != nil {
			return err
		}

		// Each pass, every bidder raises their accumulated deposit just
		// above the current highest. The announcement must reach the
		// whole roster.
		totals := make([]uint64, s.Bidders)
		highest := uint64(0)

		send := monitor.NewTimeMeasure("send")
		for pass := 0; pass < s.Bids; pass++ {
			for i := 0; i < s.Bidders; i++ {
				raise := highest - totals[i] + 1
				reply, err := c.Bid(si, id, bidderAccounts[i], raise,
					config.Roster)
				if err != nil {
					return errors.New("couldn't bid: " + err.Error())
				}
				totals[i] += raise
				highest = totals[i]
				if reply.HighestBid != highest {
					return errors.New("service disagrees about highest bid")
				}
				if reply.Acks != size {
					return errors.New("announcement didn't reach all nodes")
				}
			}
		}
		send.Record()

		// Everybody claims: the seller first, then every bidder.
		confirm := monitor.NewTimeMeasure("confirm")

		fin, err := c.Finalize(si, id, seller)
		if err != nil {
			return err
		}
		if fin.Amount != highest {
			return errors.New("seller was paid the wrong amount")
		}
		sellerTotal += fin.Amount

		for i := 0; i < s.Bidders; i++ {
			fin, err := c.Finalize(si, id, bidderAccounts[i])
			if err != nil {
				return err
			}
			if i == s.Bidders-1 {
				// The winner gets nothing back.
				if fin.Amount != 0 {
					return errors.New("winner got a refund")
				}
				expected[i] -= highest
			} else if fin.Amount != totals[i] {
				return errors.New("loser got a partial refund")
			}
		}

		// Check the balances on the ledger itself.
		balance, err := c.Balance(si, seller)
		if err != nil {
			return err
		}
		if balance != sellerTotal {
			return errors.New("seller account has wrong amount")
		}
		for i := 0; i < s.Bidders; i++ {
			balance, err := c.Balance(si, bidderAccounts[i])
			if err != nil {
				return err
			}
			if balance != expected[i] {
				return errors.New("bidder account has wrong amount")
			}
		}

		confirm.Record()
		roundM.Record()
	}

	return nil
}
