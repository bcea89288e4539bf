package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PT1H2M3S", "1:02:03"},
		{"PT5M9S", "5:09"},
		{"PT45S", "0:45"},
		{"PT1H", "1:00:00"},
		{"PT10M", "10:00"},
		{"PT2H30S", "2:00:30"},
		{"PT12H5M", "12:05:00"},
		{"PT0S", "0:00"},
		{"PT", "0:00"},
		{"", "0:00"},
		{"garbage", "0:00"},
		{"1:02:03", "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.input))
		})
	}
}
