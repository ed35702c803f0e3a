package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"G1", "g1"},
		{"User Management", "user-management"},
		{"  Créer un Utilisateur!  ", "creer-un-utilisateur"},
		{"Buttons / Primary--Large", "buttons-primary-large"},
		{"2.1.3 Forms", "2-1-3-forms"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Make(tt.in), tt.in)
	}
}
