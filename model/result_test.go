package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/identityops/idassign/model"
)

func TestResultSet_AddBuckets(t *testing.T) {
	rs := &model.ResultSet{TotalRequested: 3}
	rs.Add(model.ItemResult{Status: model.ItemStatusSuccess})
	rs.Add(model.ItemResult{Status: model.ItemStatusFailed})
	rs.Add(model.ItemResult{Status: model.ItemStatusSkipped})

	assert.Len(t, rs.Successful, 1)
	assert.Len(t, rs.Failed, 1)
	assert.Len(t, rs.Skipped, 1)
	assert.Equal(t, 3, rs.Processed())
}

func TestResultSet_SuccessRate(t *testing.T) {
	rs := &model.ResultSet{TotalRequested: 4}
	rs.Add(model.ItemResult{Status: model.ItemStatusSuccess})
	rs.Add(model.ItemResult{Status: model.ItemStatusSuccess})
	rs.Add(model.ItemResult{Status: model.ItemStatusSkipped})
	rs.Add(model.ItemResult{Status: model.ItemStatusFailed})

	// Skipped items count against the denominator, never the numerator.
	assert.InDelta(t, 50.0, rs.SuccessRate(), 0.001)
}

func TestResultSet_SuccessRateEmpty(t *testing.T) {
	rs := &model.ResultSet{}
	assert.Zero(t, rs.SuccessRate())
}

func TestResultSet_Duration(t *testing.T) {
	start := time.Now()
	rs := &model.ResultSet{StartTime: start, EndTime: start.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, rs.Duration())
}
