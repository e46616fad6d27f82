package datenorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zuma-group/bill-integration-platform/internal/datenorm"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// year first
		{"2024-03-07", "2024/03/07"},
		{"2024/3/7", "2024/03/07"},
		{"2024-03-07T10:15:00Z", "2024/03/07"},
		{"2024-02-29", "2024/02/29"},

		// year last, American unless forced
		{"03/07/2024", "2024/03/07"},
		{"3-7-2024", "2024/03/07"},
		{"21/03/2024", "2024/03/21"},
		{"03/21/2024", "2024/03/21"},
		{"12/12/2024", "2024/12/12"},

		// dotted is always day first
		{"07.03.2024", "2024/03/07"},
		{"7.3.2024", "2024/03/07"},

		// verbose
		{"March 7, 2024", "2024/03/07"},
		{"March 7th, 2024", "2024/03/07"},
		{"7 March 2024", "2024/03/07"},

		// surrounding whitespace
		{"  2024-03-07  ", "2024/03/07"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, datenorm.Normalize(tt.in))
		})
	}
}

func TestNormalize_UnparseableReturnsTrimmedInput(t *testing.T) {
	tests := []string{
		"not a date",
		"02/30/2024",
		"13/14/2024",
		"31.02.2024",
		"2023-02-29",
		"2024-13-01",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, in, datenorm.Normalize(" "+in+"\t"))
		})
	}
}

func TestNormalize_Blank(t *testing.T) {
	assert.Equal(t, "", datenorm.Normalize(""))
	assert.Equal(t, "", datenorm.Normalize("   "))
}

func TestParse(t *testing.T) {
	d, ok := datenorm.Parse("21/03/2024")
	assert.True(t, ok)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, 3, int(d.Month()))
	assert.Equal(t, 21, d.Day())

	_, ok = datenorm.Parse("someday")
	assert.False(t, ok)
}
