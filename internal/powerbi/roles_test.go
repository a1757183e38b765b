package powerbi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRole(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{"teacher", RLSRoleMentor},
		{"student", RLSRoleStudent},
		{"admin", RLSRoleStudent},
		{"Teacher", RLSRoleStudent}, // role matching is exact
		{"anything-else", RLSRoleStudent},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			got, err := MapRole(tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty role is rejected", func(t *testing.T) {
		_, err := MapRole("")
		assert.Error(t, err)
	})
}
