package models

import "fmt"

// Blockchain identifies which ledger backend an election lives on.
// It is chosen once at election creation and never changes.
type Blockchain string

const (
	BlockchainEthereum    Blockchain = "ETH"
	BlockchainHyperledger Blockchain = "HLF"
)

func ParseBlockchain(s string) (Blockchain, error) {
	switch Blockchain(s) {
	case BlockchainEthereum:
		return BlockchainEthereum, nil
	case BlockchainHyperledger:
		return BlockchainHyperledger, nil
	}

	return "", fmt.Errorf("unknown blockchain %q", s)
}
