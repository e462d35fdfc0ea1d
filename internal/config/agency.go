package config

import (
	"fmt"
	"os"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"

	"gopkg.in/yaml.v3"
)

// LoadAgencyConfig reads the agency seed file at path on top of the built-in
// defaults. Returns the defaults if the file doesn't exist.
func LoadAgencyConfig(path string) (domain.AgencyConfig, error) {
	cfg := domain.DefaultAgencyConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading agency config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.DefaultAgencyConfig(), fmt.Errorf("parsing agency config: %w", err)
	}
	if err := rules.ValidateAgencyConfig(cfg); err != nil {
		return domain.DefaultAgencyConfig(), fmt.Errorf("agency config %s: %w", path, err)
	}
	return cfg, nil
}
