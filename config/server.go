package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

type Server struct {
	ListenAddress   string        `yaml:"listen_address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (c *Server) Preprocess() error {
	if c.ListenAddress == "" {
		return errors.New("listen address must not be empty")
	}
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w",
			err,
		)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %s",
			c.ShutdownTimeout,
		)
	}
	return nil
}
