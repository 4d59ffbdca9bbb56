package config

import (
	"fmt"
	"time"
)

type Cache struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

func (c *Cache) Preprocess() error {
	errs := make([]error, 0)

	if c.TTL <= 0 {
		errs = append(errs, fmt.Errorf("invalid cache ttl: %s",
			c.TTL,
		))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid cache sweep interval: %s",
			c.SweepInterval,
		))
	}

	return flatten(errs)
}
