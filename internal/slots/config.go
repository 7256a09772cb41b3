package slots

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/brobot-gg/slots/internal/domain"
)

// Config is the symbol-table config file, shaped after slots_config.json
type Config struct {
	Title           string   `json:"title"`
	Instructions    string   `json:"instructions"`
	BigWinThreshold int64    `json:"big_win_threshold" validate:"gte=0"`
	Items           []Symbol `json:"items" validate:"required,min=1,dive"`
}

var validate = validator.New()

// LoadConfig reads and validates a symbol-table config file
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	if cfg.BigWinThreshold == 0 {
		cfg.BigWinThreshold = 1000
	}
	return &cfg, nil
}

// BuildTable constructs the weighted table from the config items
func (c *Config) BuildTable() (*Table, error) {
	return NewTable(c.Items)
}
