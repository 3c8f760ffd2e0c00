package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestGenerateAndParse(t *testing.T) {
	tok, err := Generate(testSecret, "enf-01", RoleWard, "medstock-test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, role, err := Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "enf-01", userID)
	assert.Equal(t, RoleWard, role)
}

func TestParse_Expired(t *testing.T) {
	tok, err := Generate(testSecret, "enf-01", RoleAdmin, "medstock-test", -1)
	require.NoError(t, err)

	_, _, err = Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := Generate(testSecret, "enf-01", RoleAdmin, "medstock-test", 60)
	require.NoError(t, err)

	_, _, err = Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)
}

func TestEmptySecret(t *testing.T) {
	_, err := Generate("", "enf-01", RoleAdmin, "medstock-test", 60)
	assert.Error(t, err)

	_, _, err = Parse("", "x.y.z")
	assert.Error(t, err)
}
