package config

type IpfsConfig struct {
	Enabled bool   `yaml:"enabled"`
	ApiUrl  string `yaml:"api-url"`
}
