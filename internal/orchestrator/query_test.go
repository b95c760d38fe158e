package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveQuery(t *testing.T) {
	tests := []struct {
		channel string
		want    string
	}{
		{"deal-acme-corp", "acme corp"},
		{"deal_acme_corp", "acme corp"},
		{"sales-globex", "globex"},
		{"acct-initech-renewal", "initech renewal"},
		{"account-hooli", "hooli"},
		{"random-channel", "random channel"},
		{"Deal-Acme", "acme"},
		{"deal--double", "double"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveQuery(tt.channel))
		})
	}
}
