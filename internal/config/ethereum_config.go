package config

import (
	"math/big"
	"time"

	"gopkg.in/yaml.v2"
)

type EthereumConfig struct {
	Enabled             bool
	RpcUrl              string
	ContractAddress     string
	PrivateKey          string //hex encoded, no 0x prefix
	ChainId             *big.Int
	ConfirmationTimeout time.Duration
}

func (e *EthereumConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		Enabled                    bool   `yaml:"enabled"`
		RpcUrl                     string `yaml:"rpc-url"`
		ContractAddress            string `yaml:"contract-address"`
		PrivateKey                 string `yaml:"private-key"`
		ChainId                    int64  `yaml:"chain-id"`
		ConfirmationTimeoutSeconds uint32 `yaml:"confirmation-timeout-seconds"`
	}

	if err := unmarshal(&raw); err != nil {
		return err
	}

	if raw.Enabled && raw.ContractAddress == "" {
		return &yaml.TypeError{Errors: []string{"ethereum contract-address is required"}}
	}

	e.Enabled = raw.Enabled
	e.RpcUrl = raw.RpcUrl
	e.ContractAddress = raw.ContractAddress
	e.PrivateKey = raw.PrivateKey
	e.ChainId = big.NewInt(raw.ChainId)
	e.ConfirmationTimeout = time.Duration(raw.ConfirmationTimeoutSeconds) * time.Second

	if e.ConfirmationTimeout == 0 {
		e.ConfirmationTimeout = 90 * time.Second
	}

	return nil
}
