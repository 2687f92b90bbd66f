package auctions

import (
	"errors"

	"go.dedis.ch/cothority/v3/byzcoin"
	"go.dedis.ch/cothority/v3/byzcoin/contracts"
	"go.dedis.ch/cothority/v3/darc"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/protobuf"
)

// ContractAuctionID identifies an auction contract
var ContractAuctionID = "auction"

type contractAuction struct {
	byzcoin.BasicContract
	AuctionData
}

func init() {
	err := byzcoin.RegisterGlobalContract(ContractAuctionID, contractAuctionFromBytes)
	log.ErrFatal(err)
}

func contractAuctionFromBytes(in []byte) (byzcoin.Contract, error) {
	cv := &contractAuction{}
	err := protobuf.Decode(in, &cv.AuctionData)
	if err != nil {
		return nil, err
	}
	return cv, nil
}

// VerifyInstruction accepts every instruction. Any account in the system
// may bid on an auction or claim its payout, so the default darc check
// against the instance would lock everybody but the spawner out.
func (c *contractAuction) VerifyInstruction(rst byzcoin.ReadOnlyStateTrie,
	inst byzcoin.Instruction, ctxHash []byte) error {
	return nil
}

// Spawn opens a new auction. The "auction" argument carries the seller
// account and the descriptive fields; bidding state always starts empty,
// whatever the client put in the buffer.
func (c *contractAuction) Spawn(rst byzcoin.ReadOnlyStateTrie,
	inst byzcoin.Instruction, coins []byzcoin.Coin) (sc []byzcoin.StateChange,
	cout []byzcoin.Coin, err error) {

	cout = coins

	var darcID darc.ID
	_, _, _, darcID, err = rst.GetValues(inst.InstanceID.Slice())
	if err != nil {
		return
	}

	if inst.Spawn.ContractID != ContractAuctionID {
		return nil, nil, errors.New("can only spawn auction instances")
	}

	auctionBuf := inst.Spawn.Args.Search("auction")
	if auctionBuf == nil {
		return nil, nil, errors.New("need an argument with name auction")
	}

	req := AuctionData{}
	err = protobuf.Decode(auctionBuf, &req)
	if err != nil {
		return nil, nil, errors.New("not an auction: " + err.Error())
	}

	auction, err := NewAuction(req.SellerAccount, req.Title, req.StartPrice,
		req.Description)
	if err != nil {
		return nil, nil, err
	}

	auctionBuf, err = protobuf.Encode(auction)
	if err != nil {
		return
	}

	instID := inst.DeriveID("")
	sc = []byzcoin.StateChange{
		byzcoin.NewStateChange(byzcoin.Create, instID, ContractAuctionID,
			auctionBuf, darcID),
	}
	return
}

// Invoke provides two commands:
//   - bid: deposits the attached coins as the caller's bid
//   - finalize: pays out one participant and closes the auction
func (c *contractAuction) Invoke(rst byzcoin.ReadOnlyStateTrie,
	inst byzcoin.Instruction, coins []byzcoin.Coin) (sc []byzcoin.StateChange,
	cout []byzcoin.Coin, err error) {

	cout = coins

	var darcID darc.ID
	_, _, _, darcID, err = rst.GetValues(inst.InstanceID.Slice())
	if err != nil {
		return
	}

	var auctionBuf []byte
	auctionBuf, _, _, _, err = rst.GetValues(inst.InstanceID.Slice())
	if err != nil {
		return
	}
	auction := AuctionData{}
	err = protobuf.Decode(auctionBuf, &auction)
	if err != nil {
		return
	}

	switch inst.Invoke.Command {
	case "bid":
		bidBuf := inst.Invoke.Args.Search("bid")
		if bidBuf == nil {
			return nil, nil, errors.New("need an argument with name bid")
		}
		bid := BidData{}
		err = protobuf.Decode(bidBuf, &bid)
		if err != nil {
			return nil, nil, errors.New("not a bid: " + err.Error())
		}

		// The bid amount is whatever the transaction fetched from the
		// bidder's account and attached to this instruction.
		var amount uint64
		for i := range cout {
			if cout[i].Name != contracts.CoinName {
				return nil, nil, errors.New("attached coin has wrong name")
			}
			amount += cout[i].Value
			cout[i].Value = 0
		}

		err = auction.PlaceBid(bid.BidderAccount, amount)
		if err != nil {
			return nil, nil, err
		}

		auctionBuf, err = protobuf.Encode(&auction)
		if err != nil {
			return
		}
		sc = []byzcoin.StateChange{
			byzcoin.NewStateChange(byzcoin.Update, inst.InstanceID,
				ContractAuctionID, auctionBuf, darcID),
		}

	case "finalize":
		accountBuf := inst.Invoke.Args.Search("account")
		if accountBuf == nil {
			return nil, nil, errors.New("need an argument with name account")
		}
		if len(accountBuf) != 32 {
			return nil, nil, errors.New("account argument must be an instance ID")
		}
		caller := byzcoin.NewInstanceID(accountBuf)

		var payout Payout
		payout, err = auction.Finalize(caller)
		if err != nil {
			return nil, nil, err
		}

		auctionBuf, err = protobuf.Encode(&auction)
		if err != nil {
			return
		}
		sc = []byzcoin.StateChange{
			byzcoin.NewStateChange(byzcoin.Update, inst.InstanceID,
				ContractAuctionID, auctionBuf, darcID),
		}

		// The credit is part of the same instruction: if it cannot be
		// built, the whole invoke fails and the deposit stays claimable.
		if payout.Amount > 0 {
			var credit byzcoin.StateChange
			credit, err = creditAccount(rst, payout)
			if err != nil {
				return nil, nil, err
			}
			sc = append(sc, credit)
		}

	default:
		err = errors.New("auction contract can only bid or finalize")
	}

	return
}

// creditAccount builds the state change adding the payout to the
// recipient's coin instance.
func creditAccount(rst byzcoin.ReadOnlyStateTrie, p Payout) (byzcoin.StateChange,
	error) {
	accBuf, _, cid, coinDarc, err := rst.GetValues(p.Recipient.Slice())
	if err != nil {
		return byzcoin.StateChange{}, errors.New("recipient account not found: " +
			err.Error())
	}
	if cid != contracts.ContractCoinID {
		return byzcoin.StateChange{}, errors.New("recipient is not a coin instance")
	}

	var account byzcoin.Coin
	err = protobuf.Decode(accBuf, &account)
	if err != nil {
		return byzcoin.StateChange{}, errors.New("couldn't decode recipient account: " +
			err.Error())
	}
	err = account.SafeAdd(p.Amount)
	if err != nil {
		return byzcoin.StateChange{}, err
	}

	accBuf, err = protobuf.Encode(&account)
	if err != nil {
		return byzcoin.StateChange{}, err
	}
	return byzcoin.NewStateChange(byzcoin.Update, p.Recipient,
		contracts.ContractCoinID, accBuf, coinDarc), nil
}
