package senders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsIgnored(t *testing.T) {
	c := NewChecker([]string{" Spam.example ", "@ads.example", "bot@corp.example", ""}, zap.NewNop())

	tests := []struct {
		from string
		want bool
	}{
		{"promo@spam.example", true},
		{"Deals <DEALS@SPAM.EXAMPLE>", true},
		{"x@ads.example", true},
		{"Bot <bot@corp.example>", true},
		{"alice@corp.example", false},
		{"someone@sub.spam.example", false},
		{"not an address", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsIgnored(tt.from), tt.from)
	}
}

func TestEmptyChecker(t *testing.T) {
	c := NewChecker(nil, nil)
	assert.False(t, c.IsIgnored("anyone@example.com"))
}
