package syncx

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/evalify/internal/db"
	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/ledger"
	"github.com/mind-engage/evalify/internal/storage"
)

func TestEventRepo_JournalsLedgerAppends(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:eventlog_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	repo := NewEventRepo(h, "")
	l := ledger.New(storage.NewSQLKV(h), "")
	l.OnAppend(repo.RecordResult)

	for _, id := range []string{"t1-1", "t1-2"} {
		require.NoError(t, l.Append(ctx, exam.Result{
			ID: id, TestID: "t1", LearnerName: "Ada", LearnerEmail: "ada@x.com",
			CreatedAt: exam.At(time.Unix(1714564800, 0).UTC()), MCQScore: 1, SubjectiveScore: 14, Total: 15,
		}))
	}

	events, err := repo.Since(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "t1-1", events[0].Key)
	assert.Equal(t, TypeResultRecorded, events[0].Type)
	assert.Equal(t, "local", events[0].SiteID)
	assert.Less(t, events[0].Seq, events[1].Seq)

	var r exam.Result
	require.NoError(t, json.Unmarshal([]byte(events[1].DataJSON), &r))
	assert.Equal(t, 15, r.Total)

	rest, err := repo.Since(ctx, events[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "t1-2", rest[0].Key)
}
