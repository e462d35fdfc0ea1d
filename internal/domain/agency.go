package domain

// ============================================================
// Agency configuration
// ============================================================

// BrandColors holds the agency palette used by the front end.
type BrandColors struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
}

// AgencyConfig is the process-wide, caller-supplied configuration.
// The core only reads it.
type AgencyConfig struct {
	AgencyName               string      `json:"agency_name" yaml:"agency_name"`
	DefaultCommissionPercent float64     `json:"default_commission_percent" yaml:"default_commission_percent"`
	InactivityDays           int         `json:"inactivity_days" yaml:"inactivity_days"`
	BrandColors              BrandColors `json:"brand_colors" yaml:"brand_colors"`
	Origins                  []string    `json:"origins" yaml:"origins"`
	Suppliers                []string    `json:"suppliers" yaml:"suppliers"`
	Services                 []string    `json:"services" yaml:"services"`
	MonthlyValueTarget       *float64    `json:"monthly_value_target,omitempty" yaml:"monthly_value_target,omitempty"`
	MonthlyCommissionTarget  *float64    `json:"monthly_commission_target,omitempty" yaml:"monthly_commission_target,omitempty"`
}

// DefaultAgencyConfig returns the configuration used before the agency
// saves its own.
func DefaultAgencyConfig() AgencyConfig {
	return AgencyConfig{
		AgencyName:               "Agência de Viagens",
		DefaultCommissionPercent: 10,
		InactivityDays:           180,
		BrandColors:              BrandColors{Primary: "#2563eb", Secondary: "#f59e0b"},
		Origins:                  []string{"Instagram", "Indicação", "Google", "Site", "WhatsApp", "Outros"},
		Suppliers:                []string{"CVC", "Decolar", "Azul Viagens", "Latam Travel", "Orinter"},
		Services:                 []string{"Aéreo", "Hotel", "Pacote", "Seguro", "Cruzeiro", "Ingressos"},
	}
}
