package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableTimeAbsentKey(t *testing.T) {
	var payload struct {
		ExpiryDate NullableTime `json:"expiryDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &payload))
	assert.False(t, payload.ExpiryDate.Set)
}

func TestNullableTimeExplicitNull(t *testing.T) {
	var payload struct {
		ExpiryDate NullableTime `json:"expiryDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"expiryDate":null}`), &payload))
	assert.True(t, payload.ExpiryDate.Set)
	assert.Nil(t, payload.ExpiryDate.Value)
}

func TestNullableTimeEmptyString(t *testing.T) {
	var payload struct {
		ExpiryDate NullableTime `json:"expiryDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"expiryDate":""}`), &payload))
	assert.True(t, payload.ExpiryDate.Set)
	assert.Nil(t, payload.ExpiryDate.Value)
}

func TestNullableTimeValue(t *testing.T) {
	var payload struct {
		ExpiryDate NullableTime `json:"expiryDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"expiryDate":"2026-12-01T00:00:00Z"}`), &payload))
	assert.True(t, payload.ExpiryDate.Set)
	require.NotNil(t, payload.ExpiryDate.Value)
	assert.Equal(t, 2026, payload.ExpiryDate.Value.Year())
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory("Emergency"))
	assert.True(t, ValidCategory("Utility"))
	assert.False(t, ValidCategory("All"))
	assert.False(t, ValidCategory(""))
}

func TestValidIssueStatus(t *testing.T) {
	assert.True(t, ValidIssueStatus("In Progress"))
	assert.False(t, ValidIssueStatus("Closed"))
}
