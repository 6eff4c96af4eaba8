package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmorrell/surveyid/internal/model"
)

func TestUserID(t *testing.T) {
	v := New()

	valid := []string{
		"alice",
		"Alice42",
		"a_b-c",
		"x123",
		"a" + strings.Repeat("b", 31),
	}
	for _, value := range valid {
		assert.NoError(t, v.Validate("userid", value), value)
	}

	invalid := []string{
		"",
		"abc",                          // too short
		"a" + strings.Repeat("b", 32),  // too long
		"1alice",                       // must start with a letter
		"_alice",                       // must start with a letter
		"ali ce",                       // no spaces
		"ali.ce",                       // dots are reserved for reset tokens
		"alice!",                       // punctuation
		"anon-1234",                    // reserved prefix
		"Anon-1234",                    // reserved prefix, case insensitive
	}
	for _, value := range invalid {
		assert.Error(t, v.Validate("userid", value), value)
	}
}

func TestPassword(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate("password", "password1"))
	assert.NoError(t, v.Validate("password", strings.Repeat("x", 128)))
	assert.NoError(t, v.Validate("password", "pä55wörd!"))

	assert.Error(t, v.Validate("password", "short"))
	assert.Error(t, v.Validate("password", strings.Repeat("x", 129)))
	assert.Error(t, v.Validate("password", "with\ttab1"))
	assert.Error(t, v.Validate("password", "with\nnewline"))
}

func TestNames(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate("firstname", "Alice"))
	assert.NoError(t, v.Validate("lastname", "van der Berg"))
	// Last name is optional
	assert.NoError(t, v.Validate("lastname", ""))

	assert.Error(t, v.Validate("firstname", ""))
	assert.Error(t, v.Validate("firstname", "   "))
	assert.Error(t, v.Validate("firstname", strings.Repeat("a", 65)))
	assert.Error(t, v.Validate("lastname", "x\x00y"))
}

func TestEmail(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate("email", "alice@example.com"))
	assert.NoError(t, v.Validate("email", "a.b+c@sub.example.org"))

	assert.Error(t, v.Validate("email", ""))
	assert.Error(t, v.Validate("email", "no-at-sign"))
	assert.Error(t, v.Validate("email", "no@tld"))
	assert.Error(t, v.Validate("email", "two@@example.com"))
	assert.Error(t, v.Validate("email", "spaces in@example.com"))
	assert.Error(t, v.Validate("email", strings.Repeat("a", 250)+"@x.com"))
}

func TestUnknownField(t *testing.T) {
	v := New()
	assert.Error(t, v.Validate("shoe_size", "42"))
}

func TestFailuresAreFieldErrors(t *testing.T) {
	v := New()

	err := v.Validate("userid", "!!")
	fe, ok := model.AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "userid", fe.Field)
}
