package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "empty", in: []string{}, want: []string{}},
		{name: "trims and keeps order", in: []string{" idp-2", "idp-1 "}, want: []string{"idp-2", "idp-1"}},
		{name: "drops repeats", in: []string{"bank_statement", "bank_statement ", "customer_info"}, want: []string{"bank_statement", "customer_info"}},
		{name: "drops blanks", in: []string{"", "  ", "as-1"}, want: []string{"as-1"}},
		{name: "case sensitive", in: []string{"AS-1", "as-1"}, want: []string{"AS-1", "as-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dedupe(tt.in))
		})
	}
}
