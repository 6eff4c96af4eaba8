package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Alice Cooper", Profile{FirstName: "Alice", LastName: "Cooper"}.DisplayName())
	assert.Equal(t, "Alice", Profile{FirstName: "Alice"}.DisplayName())
	assert.Equal(t, "Cooper", Profile{LastName: "Cooper"}.DisplayName())
	assert.Equal(t, "", Profile{}.DisplayName())
}

func TestIdentityKind(t *testing.T) {
	p := &Identity{Kind: KindParticipant}
	assert.True(t, p.IsParticipant())
	assert.False(t, p.IsProxy())

	a := &Identity{Kind: KindAnonymousProxy}
	assert.False(t, a.IsParticipant())
	assert.True(t, a.IsProxy())
}

func TestFieldError(t *testing.T) {
	err := NewFieldError("userid", "too short")
	assert.Equal(t, "invalid userid: too short", err.Error())

	fe, ok := AsFieldError(err)
	assert.True(t, ok)
	assert.Equal(t, "userid", fe.Field)

	_, ok = AsFieldError(ErrDuplicateID)
	assert.False(t, ok)
}
