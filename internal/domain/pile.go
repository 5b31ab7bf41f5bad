package domain

import "github.com/ethereum/go-ethereum/common"

// Pile is one market contract. Each pile has its own event stream, positions,
// and limit orders; the keeper replays them independently per pass.
type Pile struct {
	Address common.Address
	Name    string
	Symbol  string
}
