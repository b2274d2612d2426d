package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/railzwaylabs/wastebill/internal/clock"
	collectiondomain "github.com/railzwaylabs/wastebill/internal/collection/domain"
	collectionrepo "github.com/railzwaylabs/wastebill/internal/collection/repository"
	"github.com/railzwaylabs/wastebill/internal/config"
	"github.com/railzwaylabs/wastebill/internal/events"
	"github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"github.com/railzwaylabs/wastebill/internal/invoice/repository"
	"github.com/railzwaylabs/wastebill/internal/observability"
	"github.com/railzwaylabs/wastebill/internal/redis"
	residentdomain "github.com/railzwaylabs/wastebill/internal/resident/domain"
	residentrepo "github.com/railzwaylabs/wastebill/internal/resident/repository"
	"github.com/railzwaylabs/wastebill/pkg/db/dbtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var octoberFifth = time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	params  Params
	svc     domain.Service
	metrics *observability.Metrics
}

func newFixture(t *testing.T, locker redis.Locker) *fixture {
	t.Helper()
	db := dbtest.Open(t,
		&residentdomain.Resident{},
		&collectiondomain.CollectionEvent{},
		&collectiondomain.RecyclingEvent{},
		&domain.Invoice{},
		&events.Record{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	metrics := observability.NopMetrics()
	params := Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.SystemClock{},
		Cfg:       config.Config{Billing: config.BillingConfig{DueDays: 15}},
		Repo:      repository.Provide(),
		Residents: residentrepo.Provide(),
		Events:    collectionrepo.Provide(),
		Outbox:    events.NewOutbox(node),
		Locker:    locker,
		Metrics:   metrics,
	}
	return &fixture{db: db, node: node, params: params, svc: New(params), metrics: metrics}
}

// withRepo builds a second service over the same database with repo swapped in.
func (f *fixture) withRepo(repo domain.Repository) domain.Service {
	p := f.params
	p.Repo = repo
	return New(p)
}

func at(t time.Time) context.Context {
	return clock.WithTime(context.Background(), t)
}

func (f *fixture) resident(t *testing.T) snowflake.ID {
	t.Helper()
	r := &residentdomain.Resident{
		ID:           f.node.Generate(),
		FirstName:    "Nimal",
		LocalityCode: "COLOMBO",
		CreatedAt:    octoberFifth,
		UpdatedAt:    octoberFifth,
	}
	require.NoError(t, f.db.Create(r).Error)
	return r.ID
}

func (f *fixture) collection(t *testing.T, residentID snowflake.ID, amount int64) snowflake.ID {
	t.Helper()
	ev := &collectiondomain.CollectionEvent{
		ID:             f.node.Generate(),
		ResidentID:     residentID,
		BinID:          1,
		CollectorID:    1,
		BillingModelID: 1,
		CollectedAt:    time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
		WeightKg:       decimal.NewFromInt(10),
		Charge:         decimal.NewFromInt(amount),
		CreatedAt:      octoberFifth,
	}
	require.NoError(t, f.db.Create(ev).Error)
	return ev.ID
}

func (f *fixture) recycling(t *testing.T, residentID snowflake.ID, amount int64) snowflake.ID {
	t.Helper()
	ev := &collectiondomain.RecyclingEvent{
		ID:             f.node.Generate(),
		ResidentID:     residentID,
		BillingModelID: 1,
		Category:       "PLASTIC",
		RecordedAt:     time.Date(2026, 9, 12, 8, 0, 0, 0, time.UTC),
		WeightKg:       decimal.NewFromInt(5),
		Payback:        decimal.NewFromInt(amount),
		CreatedAt:      octoberFifth,
	}
	require.NoError(t, f.db.Create(ev).Error)
	return ev.ID
}

func (f *fixture) invoiceIDOf(t *testing.T, table string, id snowflake.ID) *snowflake.ID {
	t.Helper()
	var row struct{ InvoiceID *snowflake.ID }
	require.NoError(t, f.db.Table(table).Select("invoice_id").Where("id = ?", id).Scan(&row).Error)
	return row.InvoiceID
}

func TestGenerateMonthlyInvoice(t *testing.T) {
	f := newFixture(t, nil)
	residentID := f.resident(t)
	c1 := f.collection(t, residentID, 100)
	c2 := f.collection(t, residentID, 50)
	r1 := f.recycling(t, residentID, 30)

	inv, err := f.svc.GenerateMonthlyInvoice(at(octoberFifth), residentID)
	require.NoError(t, err)

	require.Equal(t, "2026-09", inv.PeriodKey)
	require.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), inv.PeriodStart)
	require.Equal(t, time.Date(2026, 9, 30, 23, 59, 59, 999999999, time.UTC), inv.PeriodEnd)
	require.True(t, inv.TotalCharges.Equal(decimal.NewFromInt(150)))
	require.True(t, inv.TotalCredits.Equal(decimal.NewFromInt(30)))
	require.True(t, inv.FinalAmount.Equal(decimal.NewFromInt(120)))
	require.Equal(t, domain.InvoiceStatusPending, inv.Status)
	require.Equal(t, inv.PeriodEnd.AddDate(0, 0, 15), inv.DueAt)
	require.Regexp(t, regexp.MustCompile(`^INV-202610-[0-9A-Z]{26}$`), inv.InvoiceNumber)
	require.Nil(t, inv.PaidAt)

	for _, id := range []snowflake.ID{c1, c2} {
		claimed := f.invoiceIDOf(t, "collection_events", id)
		require.NotNil(t, claimed)
		require.Equal(t, inv.ID, *claimed)
	}
	claimed := f.invoiceIDOf(t, "recycling_events", r1)
	require.NotNil(t, claimed)
	require.Equal(t, inv.ID, *claimed)

	var outbox []events.Record
	require.NoError(t, f.db.Find(&outbox).Error)
	require.Len(t, outbox, 1)
	require.Equal(t, events.EventInvoiceCreated, outbox[0].EventType)
	require.Equal(t, inv.ID, outbox[0].AggregateID)

	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InvoicesGenerated.WithLabelValues("created")))
}

func TestGenerateMonthlyInvoiceFloorsAtZero(t *testing.T) {
	f := newFixture(t, nil)
	residentID := f.resident(t)
	f.collection(t, residentID, 20)
	f.recycling(t, residentID, 75)

	inv, err := f.svc.GenerateMonthlyInvoice(at(octoberFifth), residentID)
	require.NoError(t, err)
	require.True(t, inv.TotalCredits.Equal(decimal.NewFromInt(75)))
	require.True(t, inv.FinalAmount.IsZero())
}

func TestGenerateMonthlyInvoiceRejectsSecondInvoiceForPeriod(t *testing.T) {
	f := newFixture(t, nil)
	residentID := f.resident(t)
	first := f.collection(t, residentID, 100)

	inv, err := f.svc.GenerateMonthlyInvoice(at(octoberFifth), residentID)
	require.NoError(t, err)

	late := f.collection(t, residentID, 40)

	_, err = f.svc.GenerateMonthlyInvoice(at(octoberFifth.Add(time.Hour)), residentID)
	require.ErrorIs(t, err, domain.ErrDuplicatePeriod)

	claimed := f.invoiceIDOf(t, "collection_events", first)
	require.NotNil(t, claimed)
	require.Equal(t, inv.ID, *claimed)
	require.Nil(t, f.invoiceIDOf(t, "collection_events", late), "rejected attempt must not claim events")

	var count int64
	require.NoError(t, f.db.Model(&domain.Invoice{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InvoicesGenerated.WithLabelValues("duplicate")))

	next, err := f.svc.GenerateMonthlyInvoice(at(time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)), residentID)
	require.NoError(t, err)
	require.Equal(t, "2026-10", next.PeriodKey)
	require.True(t, next.FinalAmount.Equal(decimal.NewFromInt(40)))
}

func TestGenerateMonthlyInvoiceConcurrentCallersCreateOneInvoice(t *testing.T) {
	f := newFixture(t, nil)
	residentID := f.resident(t)
	collected := f.collection(t, residentID, 100)

	const workers = 8
	var (
		wg                  sync.WaitGroup
		mu                  sync.Mutex
		created, duplicates int
		winner              snowflake.ID
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.svc.GenerateMonthlyInvoice(at(octoberFifth), residentID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
				winner = inv.ID
			case errors.Is(err, domain.ErrDuplicatePeriod):
				duplicates++
			default:
				t.Errorf("generate: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Equal(t, workers-1, duplicates)

	var count int64
	require.NoError(t, f.db.Model(&domain.Invoice{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
	claimed := f.invoiceIDOf(t, "collection_events", collected)
	require.NotNil(t, claimed)
	require.Equal(t, winner, *claimed)
}

// staleReadRepo misses invoices on the pre-insert lookup, as a generator does when
// a competing transaction commits between its read and its insert.
type staleReadRepo struct {
	domain.Repository
}

func (staleReadRepo) FindByResidentPeriod(context.Context, *gorm.DB, snowflake.ID, string) (*domain.Invoice, error) {
	return nil, nil
}

func TestGenerateMonthlyInvoiceUniqueIndexRejectsRacingInsert(t *testing.T) {
	f := newFixture(t, nil)
	residentID := f.resident(t)
	first := f.collection(t, residentID, 100)

	inv, err := f.svc.GenerateMonthlyInvoice(at(octoberFifth), residentID)
	require.NoError(t, err)

	late := f.collection(t, residentID, 40)
	lateCredit := f.recycling(t, residentID, 10)

	racer := f.withRepo(staleReadRepo{Repository: repository.Provide()})
	_, err = racer.GenerateMonthlyInvoice(at(octoberFifth), residentID)
	require.ErrorIs(t, err, domain.ErrDuplicatePeriod)

	claimed := f.invoiceIDOf(t, "collection_events", first)
	require.NotNil(t, claimed)
	require.Equal(t, inv.ID, *claimed)
	require.Nil(t, f.invoiceIDOf(t, "collection_events", late))
	require.Nil(t, f.invoiceIDOf(t, "recycling_events", lateCredit))

	var invoices, outboxed int64
	require.NoError(t, f.db.Model(&domain.Invoice{}).Count(&invoices).Error)
	require.NoError(t, f.db.Model(&events.Record{}).Count(&outboxed).Error)
	require.EqualValues(t, 1, invoices)
	require.EqualValues(t, 1, outboxed, "rolled-back attempt must not emit an event")
}

func TestGenerateMonthlyInvoiceNothingToInvoice(t *testing.T) {
	f := newFixture(t, nil)
	residentID := f.resident(t)

	_, err := f.svc.GenerateMonthlyInvoice(at(octoberFifth), residentID)
	require.ErrorIs(t, err, domain.ErrNothingToInvoice)

	var count int64
	require.NoError(t, f.db.Model(&domain.Invoice{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGenerateMonthlyInvoiceUnknownResident(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.GenerateMonthlyInvoice(at(octoberFifth), snowflake.ID(424242))
	require.ErrorIs(t, err, residentdomain.ErrResidentNotFound)
}

type heldLocker struct{}

func (heldLocker) TryLock(context.Context, string) (func(), error) {
	return nil, redis.ErrNotAcquired
}

func TestGenerateMonthlyInvoiceRespectsLock(t *testing.T) {
	f := newFixture(t, heldLocker{})
	residentID := f.resident(t)
	f.collection(t, residentID, 100)

	_, err := f.svc.GenerateMonthlyInvoice(at(octoberFifth), residentID)
	require.ErrorIs(t, err, domain.ErrLockNotAcquired)
}

func TestGenerateForAll(t *testing.T) {
	f := newFixture(t, nil)
	billed := f.resident(t)
	f.collection(t, billed, 100)
	idle := f.resident(t)

	result, err := f.svc.GenerateForAll(at(octoberFifth))
	require.NoError(t, err)
	require.Equal(t, "2026-09", result.PeriodKey)
	require.Len(t, result.Created, 1)
	require.Equal(t, domain.ErrNothingToInvoice.Error(), result.Skipped[idle])
	require.Empty(t, result.Failed)

	again, err := f.svc.GenerateForAll(at(octoberFifth))
	require.NoError(t, err)
	require.Empty(t, again.Created)
	require.Equal(t, domain.ErrDuplicatePeriod.Error(), again.Skipped[billed])
}

func TestInvoiceQueries(t *testing.T) {
	f := newFixture(t, nil)
	residentID := f.resident(t)
	f.collection(t, residentID, 100)

	inv, err := f.svc.GenerateMonthlyInvoice(at(octoberFifth), residentID)
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)

	got, err = f.svc.GetByNumber(context.Background(), inv.InvoiceNumber)
	require.NoError(t, err)
	require.Equal(t, inv.ID, got.ID)

	_, err = f.svc.Get(context.Background(), snowflake.ID(1))
	require.ErrorIs(t, err, domain.ErrInvoiceNotFound)
	_, err = f.svc.GetByNumber(context.Background(), "INV-000000-NOPE")
	require.ErrorIs(t, err, domain.ErrInvoiceNotFound)

	list, err := f.svc.ListByResident(context.Background(), residentID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	pending, err := f.svc.ListByStatus(context.Background(), domain.InvoiceStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	paid, err := f.svc.ListByStatus(context.Background(), domain.InvoiceStatusPaid)
	require.NoError(t, err)
	require.Empty(t, paid)
	_, err = f.svc.ListByStatus(context.Background(), domain.InvoiceStatus("VOID"))
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	overdue, err := f.svc.ListOverdue(at(time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Empty(t, overdue)

	overdue, err = f.svc.ListOverdue(at(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, inv.ID, overdue[0].ID)
}
