package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString(t *testing.T) {
	var p Purchase
	require.NoError(t, json.Unmarshal([]byte(`{"order_id": 536365, "id_customer": "17850"}`), &p))
	assert.Equal(t, FlexString("536365"), p.OrderID)
	assert.Equal(t, FlexString("17850"), p.CustomerID)

	require.NoError(t, json.Unmarshal([]byte(`{"order_id": null}`), &p))
	assert.Equal(t, FlexString(""), p.OrderID)

	assert.Error(t, json.Unmarshal([]byte(`{"order_id": {"a": 1}}`), &p))
}

func TestUserJSON_HidesSecrets(t *testing.T) {
	h := "resethash"
	b, err := json.Marshal(User{ID: "1", Email: "a@b.com", PasswordHash: "bcrypt", ResetTokenHash: &h})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "bcrypt")
	assert.NotContains(t, string(b), "resethash")
	assert.Contains(t, string(b), `"email":"a@b.com"`)
}
