package config

import "fmt"

type Render struct {
	// Concurrency caps the number of documents parsed at the same time.
	Concurrency int `yaml:"concurrency"`
}

func (c *Render) Preprocess() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid render concurrency: %d",
			c.Concurrency,
		)
	}
	return nil
}
