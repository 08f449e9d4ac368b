package getmyid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerRequestAccumulates(t *testing.T) {
	base := NewRunnerRequest()
	assert.True(t, base.IsEmpty())

	withID := base.WithInstanceID(7)
	id, ok := withID.InstanceID()
	require.True(t, ok)
	assert.Equal(t, uint64(7), id)
	_, ok = withID.Timestamp()
	assert.False(t, ok, "instance id must not set a timestamp")

	// the receiver is untouched
	assert.True(t, base.IsEmpty())
}

func TestWithCurrentTimestampReadsClockAtBuildTime(t *testing.T) {
	restore := nowFn
	defer func() { nowFn = restore }()

	nowFn = func() time.Time { return time.Unix(1700000000, 0) }
	req := NewRunnerRequest().WithCurrentTimestamp()

	nowFn = func() time.Time { return time.Unix(1800000000, 0) }
	ts, ok := req.Timestamp()
	require.True(t, ok)
	assert.Equal(t, uint64(1700000000), ts)
	assert.Equal(t, uint64(1700000000), *req.toWire().Timestamp)
}

func TestWithTimestampClampsPreEpoch(t *testing.T) {
	ts, ok := NewRunnerRequest().WithTimestamp(time.Unix(-5, 0)).Timestamp()
	require.True(t, ok)
	assert.Zero(t, ts)
}

func TestRunnerRequestToWireOmitsUnsetFields(t *testing.T) {
	w := NewRunnerRequest().WithInstanceID(3).toWire()
	require.NotNil(t, w.InstanceID)
	assert.Equal(t, uint64(3), *w.InstanceID)
	assert.Nil(t, w.Timestamp)

	w = NewRunnerRequest().toWire()
	assert.Nil(t, w.InstanceID)
	assert.Nil(t, w.Timestamp)
}
