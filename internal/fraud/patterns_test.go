package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesSuspiciousPattern(t *testing.T) {
	clean := &PaymentAttempt{
		PaymentMethod: "card_visa",
		Metadata:      map[string]string{"note": "deposit for listing 4411"},
	}
	assert.False(t, MatchesSuspiciousPattern(clean))

	inMethod := &PaymentAttempt{PaymentMethod: "TEST_card"}
	assert.True(t, MatchesSuspiciousPattern(inMethod))

	inMetadata := &PaymentAttempt{
		PaymentMethod: "card_visa",
		Metadata:      map[string]string{"note": "sent via curl"},
	}
	assert.True(t, MatchesSuspiciousPattern(inMetadata))
}

func TestIsRoundAmount(t *testing.T) {
	assert.True(t, IsRoundAmount(500))
	assert.True(t, IsRoundAmount(1200))
	assert.False(t, IsRoundAmount(1200.50))
	assert.False(t, IsRoundAmount(149.99))
	assert.False(t, IsRoundAmount(0))
	assert.False(t, IsRoundAmount(-100))
}
