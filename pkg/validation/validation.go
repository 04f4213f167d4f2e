package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// Market name must be alphanumeric with hyphens/underscores, 3-100 chars
	marketNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{2,99}$`)
)

// MaxForecastHorizonHours bounds caller-supplied horizons; a week of hourly
// steps is far past the point where the seasonal model has any signal.
const MaxForecastHorizonHours = 168

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateMarketName checks if a market name is valid
func ValidateMarketName(name string) error {
	name = SanitizeString(name)

	if name == "" {
		return errors.New("market name cannot be empty")
	}

	if len(name) < 3 {
		return errors.New("market name must be at least 3 characters")
	}

	if len(name) > 100 {
		return errors.New("market name must not exceed 100 characters")
	}

	if !marketNameRegex.MatchString(name) {
		return errors.New("market name must start with alphanumeric and contain only letters, numbers, hyphens, and underscores")
	}

	reserved := []string{"admin", "root", "system", "default", "test"}
	lowerName := strings.ToLower(name)
	for _, r := range reserved {
		if lowerName == r {
			return errors.New("market name is reserved")
		}
	}

	return nil
}

// ValidateHorizon checks a forecast horizon in hours
func ValidateHorizon(hours int) error {
	if hours <= 0 {
		return errors.New("forecast horizon must be positive")
	}
	if hours > MaxForecastHorizonHours {
		return errors.New("forecast horizon must not exceed 168 hours")
	}
	return nil
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) error {
	username = SanitizeString(username)

	if username == "" {
		return errors.New("username cannot be empty")
	}

	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}

	if len(username) > 50 {
		return errors.New("username must not exceed 50 characters")
	}

	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > 128 {
		return errors.New("password must not exceed 128 characters")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	if !hasSpecial {
		return errors.New("password must contain at least one special character")
	}

	return nil
}
