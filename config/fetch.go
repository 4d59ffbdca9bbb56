package config

import (
	"fmt"
	"time"
)

type Fetch struct {
	// Timeout bounds a single upstream fetch including the body read.
	// Zero means no timeout.
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

func (c *Fetch) Preprocess() error {
	if c.Timeout < 0 {
		return fmt.Errorf("invalid fetch timeout: %s",
			c.Timeout,
		)
	}
	return nil
}
