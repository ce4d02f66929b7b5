package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Kind     string `json:"kind" validate:"omitempty,oneof=CORRECTIVE PREVENTIVE"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(loginBody{Username: "alice"}))

	err := Struct(loginBody{})
	require.Error(t, err)
	assert.Equal(t, "username is required", err.Error())

	err = Struct(loginBody{Username: "a", Email: "nope"})
	assert.Equal(t, "email must be a valid email", err.Error())

	err = Struct(loginBody{Username: "a", Kind: "URGENT"})
	assert.Equal(t, "kind must be one of [CORRECTIVE PREVENTIVE]", err.Error())
}
