package main

import (
	"encoding/binary"
	"errors"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dedis/student_20_escrow_auctions/auctions"
	"go.dedis.ch/cothority/v3/byzcoin"
	"go.dedis.ch/cothority/v3/byzcoin/contracts"
	"go.dedis.ch/cothority/v3/darc"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/simul/monitor"
	"go.dedis.ch/protobuf"
)

func init() {
	onet.SimulationRegister("OpenAuction", NewSimulationOpenAuction)
}

// SimulationOpenAuction drives the on-chain auction contract: every
// round spawns one auction, lets all bidders outbid each other, then has
// the seller and every loser claim their payout, and checks that the
// coins ended up where they should.
type SimulationOpenAuction struct {
	onet.SimulationBFTree
	BlockInterval string
	Bidders       int
	Bids          int
}

// NewSimulationOpenAuction returns the new simulation, where all fields
// are initialised using the config-file
func NewSimulationOpenAuction(config string) (onet.Simulation, error) {
	es := &SimulationOpenAuction{}
	_, err := toml.Decode(config, es)
	if err != nil {
		return nil, err
	}
	return es, nil
}

// Setup creates the tree used for that simulation
func (s *SimulationOpenAuction) Setup(dir string, hosts []string) (
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
func (s *SimulationOpenAuction) Node(config *onet.SimulationConfig) error {
	index, _ := config.Roster.Search(config.Server.ServerIdentity.ID)
	if index < 0 {
		log.Fatal("Didn't find this node in roster")
	}
	log.Lvl3("Initializing node-index", index)
	return s.SimulationBFTree.Node(config)
}

// Run is used on the destination machines and runs a number of rounds
func (s *SimulationOpenAuction) Run(config *onet.SimulationConfig) error {
	size := config.Tree.Size()
	log.Lvl2("Size is:", size, "rounds:", s.Rounds)
	signer := darc.NewSignerEd25519(nil, nil)

	// Create the ledger
	gm, err := byzcoin.DefaultGenesisMsg(byzcoin.CurrentVersion, config.Roster,
		[]string{"spawn:auction", "invoke:auction.bid", "invoke:auction.finalize",
			"spawn:coin", "invoke:coin.mint", "invoke:coin.fetch"},
		signer.Identity())
	if err != nil {
		return errors.New("couldn't setup genesis message: " + err.Error())
	}

	// Set block interval from the simulation config.
	blockInterval, err := time.ParseDuration(s.BlockInterval)
	if err != nil {
		return errors.New("parse duration of BlockInterval failed: " + err.Error())
	}
	gm.BlockInterval = blockInterval

	c, _, err := byzcoin.NewLedger(gm, false)
	if err != nil {
		return errors.New("couldn't create genesis block: " + err.Error())
	}

	startBalance := uint64(100000)
	ct := uint64(1)

	// Create accounts for each bidder plus one for the seller.
	var instr []byzcoin.Instruction
	for i := 0; i < s.Bidders+1; i++ {
		acct := byzcoin.Instruction{
			InstanceID: byzcoin.NewInstanceID(gm.GenesisDarc.GetBaseID()),
			Spawn: &byzcoin.Spawn{
				ContractID: contracts.ContractCoinID,
			},
			SignerIdentities: []darc.Identity{signer.Identity()},
			SignerCounter:    []uint64{ct},
		}
		instr = append(instr, acct)
		ct++
	}

	tx := byzcoin.ClientTransaction{Instructions: instr}
	if err = tx.FillSignersAndSignWith(signer); err != nil {
		return errors.New("signing of instruction failed: " + err.Error())
	}
	if _, err = c.AddTransactionAndWait(tx, 2); err != nil {
		return errors.New("couldn't create accounts: " + err.Error())
	}

	bidderAccounts := make([]byzcoin.InstanceID, s.Bidders)
	for i := 0; i < s.Bidders; i++ {
		bidderAccounts[i] = tx.Instructions[i].DeriveID("")
	}
	sellerAccount := tx.Instructions[s.Bidders].DeriveID("")

	// Now put coins in all the bidder accounts.
	coins := make([]byte, 8)
	binary.LittleEndian.PutUint64(coins, startBalance)

	instr = nil
	for i := 0; i < s.Bidders; i++ {
		mint := byzcoin.Instruction{
			InstanceID: bidderAccounts[i],
			Invoke: &byzcoin.Invoke{
				ContractID: contracts.ContractCoinID,
				Command:    "mint",
				Args: byzcoin.Arguments{{
					Name:  "coins",
					Value: coins}},
			},
			SignerIdentities: []darc.Identity{signer.Identity()},
			SignerCounter:    []uint64{ct},
		}
		instr = append(instr, mint)
		ct++
	}
	tx = byzcoin.ClientTransaction{Instructions: instr}
	if err = tx.FillSignersAndSignWith(signer); err != nil {
		return errors.New("signing of instruction failed: " + err.Error())
	}
	if _, err = c.AddTransactionAndWait(tx, 2); err != nil {
		return errors.New("couldn't mint coins: " + err.Error())
	}

	// For each round, open an auction, have the bidders outbid each
	// other, pay everybody out and confirm the balances.

	var sellerTotal uint64
	expected := make([]uint64, s.Bidders)
	for i := range expected {
		expected[i] = startBalance
	}

	for round := 0; round < s.Rounds; round++ {
		log.Lvl1("Starting round", round)
		roundM := monitor.NewTimeMeasure("round")

		auction := auctions.AuctionData{
			SellerAccount: sellerAccount,
			Title:         "bananas",
			StartPrice:    1,
			Description:   "round " + strconv.Itoa(round),
		}

		auctionBuf, err := protobuf.Encode(&auction)
		if err != nil {
			return err
		}

		tx := byzcoin.ClientTransaction{
			Instructions: []byzcoin.Instruction{{
				InstanceID: byzcoin.NewInstanceID(gm.GenesisDarc.GetBaseID()),
				Spawn: &byzcoin.Spawn{
					ContractID: auctions.ContractAuctionID,
					Args: byzcoin.Arguments{{
						Name:  "auction",
						Value: auctionBuf,
					}},
				},
				SignerIdentities: []darc.Identity{signer.Identity()},
				SignerCounter:    []uint64{ct},
			}},
		}
		ct++

		if err = tx.FillSignersAndSignWith(signer); err != nil {
			return errors.New("signing of instruction failed: " + err.Error())
		}

		log.Lvlf1("Spawn auction")
		send := monitor.NewTimeMeasure("send")
		if _, err = c.AddTransactionAndWait(tx, 10); err != nil {
			return errors.New("couldn't spawn auction: " + err.Error())
		}
		auctionID := tx.Instructions[0].DeriveID("")
		send.Record()

		// Each pass, every bidder raises their accumulated deposit just
		// above the current highest.
		totals := make([]uint64, s.Bidders)
		highest := uint64(0)
		amount := make([]byte, 8)

		bidBufs := make([][]byte, s.Bidders)
		for i := 0; i < s.Bidders; i++ {
			bidBufs[i], err = protobuf.Encode(&auctions.BidData{
				BidderAccount: bidderAccounts[i],
			})
			if err != nil {
				return err
			}
		}

		for pass := 0; pass < s.Bids; pass++ {
			for i := 0; i < s.Bidders; i++ {
				raise := highest - totals[i] + 1
				binary.LittleEndian.PutUint64(amount, raise)

				fetch := byzcoin.Instruction{
					InstanceID: bidderAccounts[i],
					Invoke: &byzcoin.Invoke{
						ContractID: contracts.ContractCoinID,
						Command:    "fetch",
						Args: byzcoin.Arguments{{
							Name:  "coins",
							Value: amount}},
					},
					SignerIdentities: []darc.Identity{signer.Identity()},
					SignerCounter:    []uint64{ct},
				}
				bid := byzcoin.Instruction{
					InstanceID: auctionID,
					Invoke: &byzcoin.Invoke{
						ContractID: auctions.ContractAuctionID,
						Command:    "bid",
						Args: byzcoin.Arguments{{
							Name:  "bid",
							Value: bidBufs[i]}},
					},
					SignerIdentities: []darc.Identity{signer.Identity()},
					SignerCounter:    []uint64{ct + 1},
				}
				ct += 2

				tx = byzcoin.ClientTransaction{
					Instructions: byzcoin.Instructions{fetch, bid},
				}
				if err = tx.FillSignersAndSignWith(signer); err != nil {
					return errors.New("signing of instruction failed: " + err.Error())
				}
				if _, err = c.AddTransactionAndWait(tx, 10); err != nil {
					return errors.New("couldn't bid: " + err.Error())
				}

				totals[i] += raise
				highest = totals[i]
			}
		}

		// Everybody claims: the seller first, then every bidder. The
		// winner's claim pays zero, the losers get refunded.
		confirm := monitor.NewTimeMeasure("confirm")

		claims := append([]byzcoin.InstanceID{sellerAccount}, bidderAccounts...)
		for _, acc := range claims {
			finalize := byzcoin.Instruction{
				InstanceID: auctionID,
				Invoke: &byzcoin.Invoke{
					ContractID: auctions.ContractAuctionID,
					Command:    "finalize",
					Args: byzcoin.Arguments{{
						Name:  "account",
						Value: acc.Slice()}},
				},
				SignerIdentities: []darc.Identity{signer.Identity()},
				SignerCounter:    []uint64{ct},
			}
			ct++

			tx = byzcoin.ClientTransaction{
				Instructions: byzcoin.Instructions{finalize},
			}
			if err = tx.FillSignersAndSignWith(signer); err != nil {
				return errors.New("signing of instruction failed: " + err.Error())
			}
			if _, err = c.AddTransactionAndWait(tx, 10); err != nil {
				return errors.New("couldn't finalize: " + err.Error())
			}
		}

		sellerTotal += highest

		balance, err := readCoin(c, sellerAccount)
		if err != nil {
			return err
		}
		log.Lvlf1("Seller account has %d", balance)
		if balance != sellerTotal {
			return errors.New("seller account has wrong amount")
		}

		// All the losers are whole again, only the winner paid.
		expected[s.Bidders-1] -= highest
		for i := 0; i < s.Bidders; i++ {
			balance, err := readCoin(c, bidderAccounts[i])
			if err != nil {
				return err
			}
			if balance != expected[i] {
				return errors.New("bidder account has wrong amount")
			}
		}

		confirm.Record()
		roundM.Record()

		// This sleep is needed to wait for the propagation to finish
		// on all the nodes. Otherwise the simulation manager
		// (runsimul.go in onet) might close some nodes and cause
		// skipblock propagation to fail.
		time.Sleep(blockInterval)
	}

	// We wait a bit before closing because c.GetProof is sent to the
	// leader, but at this point some of the children might still be doing
	// updateCollection. If we stop the simulation immediately, then the
	// database gets closed and updateCollection on the children fails to
	// complete.
	time.Sleep(time.Second)

	return nil
}

func readCoin(c *byzcoin.Client, acc byzcoin.InstanceID) (uint64, error) {
	reply, err := c.GetProof(acc.Slice())
	if err != nil {
		return 0, errors.New("couldn't get proof for account: " + err.Error())
	}
	_, v0, _, _, err := reply.Proof.KeyValue()
	if err != nil {
		return 0, errors.New("proof doesn't hold account: " + err.Error())
	}
	var account byzcoin.Coin
	if err := protobuf.Decode(v0, &account); err != nil {
		return 0, errors.New("couldn't decode account: " + err.Error())
	}
	return account.Value, nil
}
