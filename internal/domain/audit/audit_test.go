package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/requestctx"
)

type execRecorder struct {
	sql  string
	args []any
}

func (e *execRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql, e.args = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (e *execRecorder) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (e *execRecorder) QueryRow(context.Context, string, ...any) pgx.Row { return nil }
func (e *execRecorder) Begin(context.Context) (pgx.Tx, error) { return nil, nil }

func TestRecordTakesAttributionFromContext(t *testing.T) {
	db := &execRecorder{}
	ctx := requestctx.WithActorID(context.Background(), "u1")
	ctx = requestctx.WithRequestID(ctx, "req-1")
	ctx = requestctx.WithClientIP(ctx, "192.0.2.1")

	err := New(db).Record(ctx, Entry{
		TenantID:   "t1",
		Action:     "timesheet.approve",
		EntityType: EntityTimesheet,
		EntityID:   "ts1",
		Before:     map[string]string{"status": "submitted"},
		After:      map[string]string{"status": "approved"},
	})
	require.NoError(t, err)
	require.Len(t, db.args, 9)
	assert.Equal(t, "t1", db.args[0])
	assert.Equal(t, "u1", db.args[1])
	assert.Equal(t, "timesheet.approve", db.args[2])
	assert.JSONEq(t, `{"status":"submitted"}`, string(db.args[5].([]byte)))
	assert.Equal(t, "req-1", db.args[7])
	assert.Equal(t, "192.0.2.1", db.args[8])
}

func TestRecordStoresNullsForMissingAttribution(t *testing.T) {
	db := &execRecorder{}
	require.NoError(t, New(db).Record(context.Background(), Entry{TenantID: "t1", Action: "timesheet.delete", EntityType: EntityTimesheet, EntityID: "ts1"}))
	assert.Nil(t, db.args[1])
	assert.Nil(t, db.args[5])
	assert.Nil(t, db.args[6])
	assert.Nil(t, db.args[7])
	assert.Nil(t, db.args[8])
}

func TestWhereClause(t *testing.T) {
	since := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	where, args := whereClause("t1", Filter{EntityType: EntityTimesheet, ActorUser: "u1", Since: since})
	assert.Equal(t, " WHERE tenant_id = $1 AND entity_type = $2 AND actor_user_id = $3 AND created_at >= $4", where)
	assert.Equal(t, []any{"t1", EntityTimesheet, "u1", since}, args)

	where, args = whereClause("t1", Filter{})
	assert.Equal(t, " WHERE tenant_id = $1", where)
	assert.Len(t, args, 1)
}

func TestDiff(t *testing.T) {
	before := json.RawMessage(`{"status":"submitted","totalHours":160}`)
	after := json.RawMessage(`{"status":"rejected","totalHours":160,"rejectionReason":"missing day"}`)
	assert.Equal(t, []string{"rejectionReason", "status"}, Diff(before, after))

	assert.Equal(t, []string{"status"}, Diff(nil, json.RawMessage(`{"status":"draft"}`)))
	assert.Nil(t, Diff(before, before))
}
