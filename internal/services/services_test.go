package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emipilot/internal/amqp"
	"emipilot/internal/core"
	emilog "emipilot/internal/log"
	"emipilot/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func discardLogger() *emilog.Logger {
	return emilog.New(emilog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func patch(t *testing.T, body string) core.EMIPatch {
	t.Helper()
	var p core.EMIPatch
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func incomePatch(t *testing.T, body string) core.IncomePatch {
	t.Helper()
	var p core.IncomePatch
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

var fixedNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func newEMIService(store *memory.Store, pub EventPublisher) *EMIService {
	svc := NewEMIService(store, pub, discardLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestEMIService_CreateAndSummary(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newEMIService(memory.NewStore(), pub)

	created, err := svc.Create(ctx, patch(t, `{"name":"Car Loan","monthlyAmount":5000,"dueDate":5,"tenure":36}`))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, fixedNow, created.CreatedAt)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 5000, summary.TotalEMI, 1e-9)
	assert.Equal(t, []amqp.EventType{amqp.EMICreated}, pub.types())
}

func TestEMIService_CreateInvalidPersistsNothing(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newEMIService(memory.NewStore(), pub)

	_, err := svc.Create(ctx, patch(t, `{"name":"Car Loan","monthlyAmount":5000,"dueDate":40}`))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "dueDate")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, pub.types())
}

func TestEMIService_Update(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newEMIService(memory.NewStore(), pub)

	created, err := svc.Create(ctx, patch(t, `{"name":"Phone","monthlyAmount":1200,"dueDate":12,"tenure":12}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, patch(t, `{"dueDate":20,"tenure":null}`))
	require.NoError(t, err)
	assert.Equal(t, 20, updated.DueDate)
	assert.Nil(t, updated.Tenure)
	assert.Equal(t, "Phone", updated.Name)

	_, err = svc.Update(ctx, created.ID, patch(t, `{"monthlyAmount":0}`))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.MonthlyAmount.Equal(decimal.NewFromInt(1200)))

	_, err = svc.Update(ctx, 999, patch(t, `{"dueDate":3}`))
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t, []amqp.EventType{amqp.EMICreated, amqp.EMIUpdated}, pub.types())
}

func TestEMIService_Delete(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newEMIService(memory.NewStore(), pub)

	created, err := svc.Create(ctx, patch(t, `{"name":"Laptop","monthlyAmount":"2500.75","dueDate":8}`))
	require.NoError(t, err)

	snapshot, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, snapshot)

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t, []amqp.EventType{amqp.EMICreated, amqp.EMIDeleted}, pub.types())
}

func TestEMIService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newEMIService(memory.NewStore(), pub)

	created, err := svc.Create(ctx, patch(t, `{"name":"Bike","monthlyAmount":900,"dueDate":2}`))
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID)
	assert.NoError(t, err)
}

func TestEMIService_Timeline(t *testing.T) {
	ctx := context.Background()
	svc := NewEMIService(memory.NewStore(), nil, discardLogger())

	for _, body := range []string{
		`{"name":"a","monthlyAmount":100,"dueDate":3}`,
		`{"name":"b","monthlyAmount":200,"dueDate":25}`,
	} {
		_, err := svc.Create(ctx, patch(t, body))
		require.NoError(t, err)
	}

	weeks, err := svc.Timeline(ctx)
	require.NoError(t, err)
	require.Len(t, weeks, 4)
	assert.Len(t, weeks[0].EMIs, 1)
	assert.Len(t, weeks[3].EMIs, 1)
	assert.InDelta(t, 200, weeks[3].Total, 1e-9)
}

func newIncomeService(store *memory.Store, pub EventPublisher) *IncomeService {
	svc := NewIncomeService(store, "", pub, discardLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestIncomeService_GetCreatesZeroRow(t *testing.T) {
	ctx := context.Background()
	svc := newIncomeService(memory.NewStore(), nil)
	assert.Equal(t, core.DefaultInstance, svc.Instance())

	first, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, first.MonthlyIncome.IsZero())

	second, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIncomeService_Update(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	store := memory.NewStore()
	svc := newIncomeService(store, pub)

	_, err := svc.Update(ctx, incomePatch(t, `{}`))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{core.MsgRequired}, verr.Fields["monthlyIncome"])

	saved, err := svc.Update(ctx, incomePatch(t, `{"monthlyIncome":85000}`))
	require.NoError(t, err)
	assert.True(t, saved.MonthlyIncome.Equal(decimal.NewFromInt(85000)))

	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	kept, err := svc.Update(ctx, incomePatch(t, `{}`))
	require.NoError(t, err)
	assert.True(t, kept.MonthlyIncome.Equal(decimal.NewFromInt(85000)))
	assert.True(t, kept.UpdatedAt.Equal(fixedNow.Add(time.Hour)))

	_, err = svc.Update(ctx, incomePatch(t, `{"monthlyIncome":-10}`))
	require.ErrorAs(t, err, &verr)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.MonthlyIncome.Equal(decimal.NewFromInt(85000)))

	assert.Equal(t, []amqp.EventType{amqp.IncomeUpdated, amqp.IncomeUpdated}, pub.types())
}

func TestInsightService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	emis := newEMIService(store, nil)
	income := newIncomeService(store, nil)
	svc := NewInsightService(emis, income, discardLogger())

	stress, err := svc.Stress(ctx)
	require.NoError(t, err)
	assert.Zero(t, stress.StressPercentage)
	assert.Equal(t, core.Healthy, stress.HealthStatus)

	_, err = emis.Create(ctx, patch(t, `{"name":"Home","monthlyAmount":40000,"dueDate":1}`))
	require.NoError(t, err)
	_, err = income.Update(ctx, incomePatch(t, `{"monthlyIncome":100000}`))
	require.NoError(t, err)

	stress, err = svc.Stress(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 40, stress.StressPercentage, 1e-9)
	assert.Equal(t, core.Warning, stress.HealthStatus)

	insights, err := svc.Insights(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, insights)
	assert.Equal(t, "Moderate Financial Stress", insights[0].Title)
}

func TestInsightService_LogsUnderInsightComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := emilog.New(emilog.Config{Handler: slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
	store := memory.NewStore()
	svc := NewInsightService(newEMIService(store, nil), newIncomeService(store, nil), logger)

	_, err := svc.Stress(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	assert.Equal(t, "Computed EMI stress", rec["msg"])
	assert.Equal(t, emilog.ComponentInsight, rec[emilog.FieldComponent])
	assert.Equal(t, string(core.Healthy), rec["health_status"])
}
