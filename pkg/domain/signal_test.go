package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	assert.Equal(t, []string{"sound:crying:child", "sound:crying", "sound"}, domain.Levels("sound:crying:child"))
	assert.Equal(t, []string{"alarm"}, domain.Levels("alarm"))
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"alarm", true},
		{"sound:crying:child", true},
		{"", false},
		{"   ", false},
		{":sound", false},
		{"sound:", false},
		{"sound::child", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidSignalName)
			var nameErr *domain.SignalNameError
			assert.True(t, errors.As(err, &nameErr))
		})
	}
}

func TestNewSignal_Defaults(t *testing.T) {
	sig := domain.NewSignal("alarm", "e1")
	assert.True(t, sig.Local)
	assert.Equal(t, domain.DefaultPropagation, sig.Propagation)
	assert.NotNil(t, sig.Params)
}

func TestExit_Names(t *testing.T) {
	exit := domain.Exit{Name: "North; n", Aliases: []string{" Up "}}
	assert.Equal(t, []string{"north", "n", "up"}, exit.Names())
}
