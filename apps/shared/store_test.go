package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/user"
)

func TestUsesMemory(t *testing.T) {
	tests := []struct {
		engine string
		want   bool
	}{
		{engine: "", want: true},
		{engine: "memory", want: true},
		{engine: "Memory", want: true},
		{engine: "postgres", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			conf := core.NewTestConfig()
			conf.Database.Engine = tt.engine
			assert.Equal(t, tt.want, UsesMemory(conf))
		})
	}
}

func TestOpenStore_memory(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Database.Engine = EngineMemory

	store, err := OpenStore(context.Background(), conf, true)
	require.NoError(t, err)
	assert.Nil(t, store.DB)
	assert.NoError(t, store.Close())

	_, err = store.UserRepo.GetUser(context.Background(), user.GetFilter{Email: "nobody@test.test"})
	assert.True(t, core.IsNotFound(err))
}

func TestNewValidator(t *testing.T) {
	validate, translator := NewValidator()
	require.NotNil(t, translator)

	nu := user.NewUser{Email: "nope", FirstName: "Jo", LastName: "Doe", Role: "teacher", Password: "x"}
	err := nu.Validate(validate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}
