package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

func TestNewStore_EmptyDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestContainment(t *testing.T) {
	tests := []struct {
		name string
		eq   map[string]string
		want map[string]any
	}{
		{
			name: "empty",
			eq:   map[string]string{},
			want: map[string]any{},
		},
		{
			name: "flat",
			eq:   map[string]string{"team": "eng"},
			want: map[string]any{"team": "eng"},
		},
		{
			name: "nested siblings",
			eq:   map[string]string{"party.name": "Ada", "party.email": "ada@example.com", "state": "Delaware"},
			want: map[string]any{
				"party": map[string]any{"name": "Ada", "email": "ada@example.com"},
				"state": "Delaware",
			},
		},
		{
			name: "colliding paths keep the first",
			eq:   map[string]string{"party": "Ada", "party.name": "Grace"},
			want: map[string]any{"party": "Ada"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containment(tt.eq))
		})
	}
}
