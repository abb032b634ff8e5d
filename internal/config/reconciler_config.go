package config

import (
	"time"
)

type ReconcilerConfig struct {
	File     string
	Interval time.Duration
}

func (r *ReconcilerConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		File            string `yaml:"file"`
		IntervalSeconds uint32 `yaml:"interval-seconds"`
	}

	if err := unmarshal(&raw); err != nil {
		return err
	}

	r.File = raw.File
	r.Interval = time.Duration(raw.IntervalSeconds) * time.Second

	if r.File == "" {
		r.File = "databases/reconcile.db"
	}

	if r.Interval == 0 {
		r.Interval = 30 * time.Second
	}

	return nil
}
