package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "maria@example.com", NormalizeEmail("  Maria@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestNewUserValidation(t *testing.T) {
	u, err := NewUser("Maria@Example.com", " Maria ")
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", u.Email)
	assert.Equal(t, "Maria", u.Name)
	assert.True(t, u.IsActive())

	_, err = NewUser("not-an-email", "")
	assert.Error(t, err)
}

func TestHasRestoreBudget(t *testing.T) {
	u := &User{Credits: 0, TrialUsed: false}
	assert.True(t, u.HasRestoreBudget(), "unused trial counts as budget")

	u = &User{Credits: 0, TrialUsed: true}
	assert.False(t, u.HasRestoreBudget())

	u = &User{Credits: 3, TrialUsed: true}
	assert.True(t, u.HasRestoreBudget())
}
