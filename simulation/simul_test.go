package main_test

import (
	"testing"

	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/simul"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

func Test_OpenAuction(t *testing.T) {
	simul.Start("open_auction.toml")
}

func Test_CentAuction(t *testing.T) {
	simul.Start("centauction.toml")
}
