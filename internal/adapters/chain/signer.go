package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is one funded keeper account. Order in the slice is priority order:
// liquidations walk the list until a submission confirms.
type Signer struct {
	Address common.Address
	opts    *bind.TransactOpts
}

// ParseSigners builds signers from comma-separated hex private keys, in the
// order given. A "0x" prefix on a key is tolerated.
func ParseSigners(raw string, chainID *big.Int) ([]Signer, error) {
	var signers []Signer
	for i, part := range strings.Split(raw, ",") {
		hexKey := strings.TrimPrefix(strings.TrimSpace(part), "0x")
		if hexKey == "" {
			continue
		}

		key, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return nil, fmt.Errorf("chain.ParseSigners: key %d: %w", i, err)
		}
		opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
		if err != nil {
			return nil, fmt.Errorf("chain.ParseSigners: key %d: %w", i, err)
		}
		signers = append(signers, Signer{
			Address: crypto.PubkeyToAddress(key.PublicKey),
			opts:    opts,
		})
	}

	if len(signers) == 0 {
		return nil, fmt.Errorf("chain.ParseSigners: no private keys provided")
	}
	return signers, nil
}
