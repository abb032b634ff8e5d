package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	ServerConfig     ServerConfig     `yaml:"server"`
	DatabaseConfig   DatabaseConfig   `yaml:"database"`
	EthereumConfig   EthereumConfig   `yaml:"ethereum"`
	FabricConfig     FabricConfig     `yaml:"fabric"`
	IpfsConfig       IpfsConfig       `yaml:"ipfs"`
	AuthConfig       AuthConfig       `yaml:"auth"`
	ReconcilerConfig ReconcilerConfig `yaml:"reconciler"`
}

func LoadConfigFile(path string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)

	if err := d.Decode(&config); err != nil {
		return nil, err
	}

	return config, nil
}
