package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ValidEmail performs the same loose shape check as the front end.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidCPF checks length and both check digits of a Brazilian CPF.
// Punctuation is ignored.
func ValidCPF(cpf string) bool {
	d := onlyDigits(cpf)
	if len(d) != 11 {
		return false
	}
	if strings.Count(d, d[:1]) == 11 {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		rem := (sum * 10) % 11
		if rem == 10 {
			rem = 0
		}
		if rem != int(d[n]-'0') {
			return false
		}
	}
	return true
}

// FormatCPF renders an 11-digit CPF as 000.000.000-00; other input is returned as-is.
func FormatCPF(cpf string) string {
	d := onlyDigits(cpf)
	if len(d) != 11 {
		return cpf
	}
	return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:])
}

// ValidateAgencyConfig checks the ranges the rules depend on.
func ValidateAgencyConfig(cfg domain.AgencyConfig) error {
	switch {
	case cfg.AgencyName == "":
		return &domain.ErrValidation{Field: "agency_name", Message: "required"}
	case !finite(cfg.DefaultCommissionPercent) || cfg.DefaultCommissionPercent < 0 || cfg.DefaultCommissionPercent > 100:
		return &domain.ErrValidation{Field: "default_commission_percent", Message: "must be between 0 and 100"}
	case cfg.InactivityDays < 1:
		return &domain.ErrValidation{Field: "inactivity_days", Message: "must be at least 1"}
	case cfg.MonthlyValueTarget != nil && *cfg.MonthlyValueTarget < 0:
		return &domain.ErrValidation{Field: "monthly_value_target", Message: "must not be negative"}
	case cfg.MonthlyCommissionTarget != nil && *cfg.MonthlyCommissionTarget < 0:
		return &domain.ErrValidation{Field: "monthly_commission_target", Message: "must not be negative"}
	}
	return nil
}
