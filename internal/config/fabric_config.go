package config

import (
	"time"

	"gopkg.in/yaml.v2"
)

type FabricConfig struct {
	Enabled             bool
	PeerBinary          string
	Channel             string
	Chaincode           string
	OrdererAddress      string
	OrdererTlsHostname  string
	OrdererTlsCaFile    string
	MspId               string
	MspConfigPath       string
	TlsRootCertFile     string
	PeerAddress         string
	FabricCfgPath       string
	ConfirmationTimeout time.Duration
}

func (f *FabricConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		Enabled                    bool   `yaml:"enabled"`
		PeerBinary                 string `yaml:"peer-binary"`
		Channel                    string `yaml:"channel"`
		Chaincode                  string `yaml:"chaincode"`
		OrdererAddress             string `yaml:"orderer-address"`
		OrdererTlsHostname         string `yaml:"orderer-tls-hostname"`
		OrdererTlsCaFile           string `yaml:"orderer-tls-ca-file"`
		MspId                      string `yaml:"msp-id"`
		MspConfigPath              string `yaml:"msp-config-path"`
		TlsRootCertFile            string `yaml:"tls-root-cert-file"`
		PeerAddress                string `yaml:"peer-address"`
		FabricCfgPath              string `yaml:"fabric-cfg-path"`
		ConfirmationTimeoutSeconds uint32 `yaml:"confirmation-timeout-seconds"`
	}

	if err := unmarshal(&raw); err != nil {
		return err
	}

	if raw.Enabled && (raw.Channel == "" || raw.Chaincode == "") {
		return &yaml.TypeError{Errors: []string{"fabric channel and chaincode are required"}}
	}

	f.Enabled = raw.Enabled
	f.PeerBinary = raw.PeerBinary
	f.Channel = raw.Channel
	f.Chaincode = raw.Chaincode
	f.OrdererAddress = raw.OrdererAddress
	f.OrdererTlsHostname = raw.OrdererTlsHostname
	f.OrdererTlsCaFile = raw.OrdererTlsCaFile
	f.MspId = raw.MspId
	f.MspConfigPath = raw.MspConfigPath
	f.TlsRootCertFile = raw.TlsRootCertFile
	f.PeerAddress = raw.PeerAddress
	f.FabricCfgPath = raw.FabricCfgPath
	f.ConfirmationTimeout = time.Duration(raw.ConfirmationTimeoutSeconds) * time.Second

	if f.PeerBinary == "" {
		f.PeerBinary = "peer"
	}

	if f.ConfirmationTimeout == 0 {
		f.ConfirmationTimeout = 90 * time.Second
	}

	return nil
}
