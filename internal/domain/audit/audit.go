package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"timesheets/internal/platform/querier"
	"timesheets/internal/requestctx"
)

const (
	EntityTimesheet       = "timesheet"
	EntityPayrollSettings = "payroll_settings"
)

// Entry is one state change to record. Actor, request id and client IP
// are read from the context.
type Entry struct {
	TenantID   string
	Action     string
	EntityType string
	EntityID   string
	Before     any
	After      any
}

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Changed    []string        `json:"changed,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorUser  string
	Since      time.Time
	Until      time.Time
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, e Entry) error {
	before, err := marshalState(e.Before)
	if err != nil {
		return fmt.Errorf("audit %s before: %w", e.Action, err)
	}
	after, err := marshalState(e.After)
	if err != nil {
		return fmt.Errorf("audit %s after: %w", e.Action, err)
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (tenant_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, e.TenantID, nullIfEmpty(requestctx.GetActorID(ctx)), e.Action, e.EntityType, e.EntityID, before, after,
		nullIfEmpty(requestctx.GetRequestID(ctx)), nullIfEmpty(requestctx.GetClientIP(ctx)))
	return err
}

func marshalState(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (s *Service) Count(ctx context.Context, tenantID string, filter Filter) (int, error) {
	where, args := whereClause(tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_events"+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns events newest first. With includeDetails the before and
// after snapshots are loaded and Changed lists the differing fields.
func (s *Service) List(ctx context.Context, tenantID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	cols := "id, COALESCE(actor_user_id, ''), action, entity_type, entity_id, COALESCE(request_id, ''), COALESCE(ip, ''), created_at"
	if includeDetails {
		cols += ", before_json, after_json"
	}
	where, args := whereClause(tenantID, filter)
	query := fmt.Sprintf("SELECT %s FROM audit_events%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		cols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if includeDetails {
			evt.Changed = Diff(evt.Before, evt.After)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func whereClause(tenantID string, filter Filter) (string, []any) {
	conds := []string{"tenant_id = $1"}
	args := []any{tenantID}
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.EntityType != "" {
		add("entity_type = $%d", filter.EntityType)
	}
	if filter.EntityID != "" {
		add("entity_id = $%d", filter.EntityID)
	}
	if filter.ActorUser != "" {
		add("actor_user_id = $%d", filter.ActorUser)
	}
	if !filter.Since.IsZero() {
		add("created_at >= $%d", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("created_at < $%d", filter.Until)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Diff lists the top-level fields whose values differ between two JSON
// object snapshots, sorted. A missing side counts every field of the other.
func Diff(before, after json.RawMessage) []string {
	var b, a map[string]json.RawMessage
	_ = json.Unmarshal(before, &b)
	_ = json.Unmarshal(after, &a)

	changed := map[string]bool{}
	for k, v := range b {
		if w, ok := a[k]; !ok || string(w) != string(v) {
			changed[k] = true
		}
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			changed[k] = true
		}
	}
	if len(changed) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(changed))
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
