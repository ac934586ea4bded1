package db_test

import (
	"encoding/json"
	"testing"

	"github.com/matt-steen/project-board/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	for _, status := range db.Statuses() {
		parsed, err := db.ParseStatus(status.String())
		assert.NoError(err)
		assert.Equal(status, parsed)
	}

	_, err := db.ParseStatus("archived")
	assert.ErrorIs(err, db.ErrInvalidStatus)
}

func TestParsePaymentStatus(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	for _, status := range db.PaymentStatuses() {
		parsed, err := db.ParsePaymentStatus(status.String())
		assert.NoError(err)
		assert.Equal(status, parsed)
	}

	_, err := db.ParsePaymentStatus("maybe")
	assert.ErrorIs(err, db.ErrInvalidStatus)
}

func TestStatusJSONUsesNames(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(db.Project{ID: "p1", Name: "x", Status: db.StatusInProgress, PaymentStatus: db.PaymentWillPay})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"status":"in_progress"`)
	assert.Contains(t, string(payload), `"payment_status":"will_pay"`)

	var patch db.ProjectPatch

	require.NoError(t, json.Unmarshal([]byte(`{"status":"done"}`), &patch))
	require.NotNil(t, patch.Status)
	assert.Equal(t, db.StatusDone, *patch.Status)
	assert.Nil(t, patch.Name)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"later"}`), &patch))
}
