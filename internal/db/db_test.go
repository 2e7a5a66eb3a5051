package db

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestJobDataScan(t *testing.T) {
	var d JobData
	err := d.Scan([]byte(`{"preset": "tiktok", "clip_id": "abc"}`))
	require.NoError(t, err)
	assert.Equal(t, "tiktok", d["preset"])

	var fromString JobData
	err = fromString.Scan(`{"preset": "generic"}`)
	require.NoError(t, err)
	assert.Equal(t, "generic", fromString["preset"])

	var fromNil JobData
	err = fromNil.Scan(nil)
	require.NoError(t, err)
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)

	var bad JobData
	err = bad.Scan(42)
	assert.Error(t, err)
}

func TestJobDataValue(t *testing.T) {
	d := JobData{"preset": "tiktok"}
	v, err := d.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"preset": "tiktok"}`, string(v.([]byte)))

	var nilData JobData
	v, err = nilData.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}

func TestJobDataResult(t *testing.T) {
	d := JobData{
		"preset": "tiktok",
		"result": map[string]any{"output_path": "/out/clip.mp4"},
	}
	require.NotNil(t, d.Result())
	assert.Equal(t, "/out/clip.mp4", d.Result()["output_path"])

	assert.Nil(t, JobData{"preset": "tiktok"}.Result())
	assert.Nil(t, JobData{"result": "not a map"}.Result())
}

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: "23505", ConstraintName: ActiveClipConstraint}

	assert.True(t, IsUniqueViolation(uniqueErr, ""))
	assert.True(t, IsUniqueViolation(uniqueErr, ActiveClipConstraint))
	assert.False(t, IsUniqueViolation(uniqueErr, "some_other_idx"))

	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("plain error"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestTimeString(t *testing.T) {
	assert.Empty(t, TimeString(pgtype.Timestamptz{}))

	at := time.Date(2025, 11, 3, 17, 42, 9, 0, time.FixedZone("CST", -6*3600))
	got := TimeString(pgtype.Timestamptz{Time: at, Valid: true})
	assert.Equal(t, "2025-11-03T23:42:09Z", got)
}

func TestUUIDRoundTrip(t *testing.T) {
	id, err := ParseUUID("0192a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b")
	require.NoError(t, err)
	assert.True(t, id.Valid)
	assert.Equal(t, "0192a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", UUIDString(id))

	_, err = ParseUUID("not-a-uuid")
	assert.Error(t, err)

	assert.Equal(t, "", UUIDString(pgtype.UUID{}))
}
