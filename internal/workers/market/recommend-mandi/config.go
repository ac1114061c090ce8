// internal/workers/market/recommend-mandi/config.go
package recommendmandi

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout    time.Duration
	SMSEnabled bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
