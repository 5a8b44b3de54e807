package winget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLauncherSource(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"Steam", OriginSteam},
		{"Steam App 440", OriginSteam},
		{"Steam App ", OriginLocalPC},
		{"Steam App beta", OriginLocalPC},
		{"Uplay Install 635", OriginUbisoft},
		{"Uplay Install ", OriginLocalPC},
		{"1207658924_is1", OriginGOG},
		{"_is1", OriginLocalPC},
		{"{8A69D345-D564}", OriginLocalPC},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, launcherSource(tt.id))
		})
	}
}

func TestAllIn(t *testing.T) {
	assert.True(t, allIn("440", "0123456789"))
	assert.False(t, allIn("", "0123456789"))
	assert.False(t, allIn("44a", "0123456789"))
}
