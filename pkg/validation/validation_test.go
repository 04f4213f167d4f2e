package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims whitespace", "  algebra  ", "algebra"},
		{"strips null bytes", "alge\x00bra", "algebra"},
		{"strips control characters", "alge\x01\x02bra", "algebra"},
		{"keeps newlines and tabs", "line1\n\tline2", "line1\n\tline2"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeString(tt.input))
		})
	}
}

func TestValidateMarketName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple name", "algebra", false},
		{"valid with hyphens", "algebra-tutoring-nyc", false},
		{"valid with underscores", "sat_prep_2026", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 101), true},
		{"leading hyphen", "-algebra", true},
		{"illegal characters", "algebra!", true},
		{"spaces", "algebra tutoring", true},
		{"reserved name", "admin", true},
		{"reserved name mixed case", "Admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarketName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHorizon(t *testing.T) {
	assert.NoError(t, ValidateHorizon(1))
	assert.NoError(t, ValidateHorizon(24))
	assert.NoError(t, ValidateHorizon(MaxForecastHorizonHours))

	assert.Error(t, ValidateHorizon(0))
	assert.Error(t, ValidateHorizon(-5))
	assert.Error(t, ValidateHorizon(MaxForecastHorizonHours+1))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("analyst"))

	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", 51)))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid password", "Str0ng!pass", false},
		{"too short", "S0rt!", true},
		{"missing uppercase", "str0ng!pass", true},
		{"missing lowercase", "STR0NG!PASS", true},
		{"missing number", "Strong!pass", true},
		{"missing special", "Str0ngpass", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
