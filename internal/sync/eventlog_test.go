package syncx

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-alloy/internal/db"
)

func TestEventRepo_AppendList(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	defer dbh.Close()

	repo := NewEventRepo(dbh)
	repo.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, repo.Append(ctx, Event{Type: "anomaly.detected", Key: "F001", Data: json.RawMessage(`{"value":1700}`)}))
	require.NoError(t, repo.Append(ctx, Event{Type: "recommendation.issued", Key: "Cr"}))
	require.NoError(t, repo.Append(ctx, Event{Type: "anomaly.detected", Key: "F002", SiteID: "plant-2"}))

	all, err := repo.List(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "F002", all[0].Key)
	assert.Equal(t, "plant-2", all[0].SiteID)
	assert.Greater(t, all[0].Seq, all[1].Seq)

	anomalies, err := repo.List(ctx, "anomaly.detected", 10)
	require.NoError(t, err)
	require.Len(t, anomalies, 2)
	assert.Equal(t, DefaultSiteID, anomalies[1].SiteID)
	assert.JSONEq(t, `{"value":1700}`, string(anomalies[1].Data))
	assert.Equal(t, 2025, anomalies[1].CreatedAt.Year())

	one, err := repo.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}
