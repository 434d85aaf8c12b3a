package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"freight-dispatch/internal/dedup"
	"freight-dispatch/internal/tms"
)

type stubAPI struct {
	list    []tms.Shipment
	listErr error

	details   map[int64]tms.Shipment
	detailErr map[int64]error
	users     map[int64]tms.User
	userErr   error

	detailCalls int
	userCalls   int
}

func (a *stubAPI) ListAllShipments(ctx context.Context, status string, pageSize, maxPages int) ([]tms.Shipment, error) {
	return a.list, a.listErr
}

func (a *stubAPI) GetShipmentDetail(ctx context.Context, id int64) (tms.Shipment, error) {
	a.detailCalls++
	if err := a.detailErr[id]; err != nil {
		return tms.Shipment{}, err
	}
	return a.details[id], nil
}

func (a *stubAPI) GetUserDetail(ctx context.Context, id int64) (tms.User, error) {
	a.userCalls++
	if a.userErr != nil {
		return tms.User{}, a.userErr
	}
	return a.users[id], nil
}

type stubSender struct {
	batches []Batch
	err     error
}

func (s *stubSender) Send(ctx context.Context, b Batch) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, b)
	return nil
}

func sparseShipment(id int64, load, status string) tms.Shipment {
	return tms.Shipment{ID: id, CustomID: load, Status: tms.Status{Code: tms.CodeValue{Key: status}}}
}

func newTestSyncer(store dedup.Store, api *stubAPI, sender *stubSender, now time.Time) *Syncer {
	e := newTestEngine(store, now)
	return &Syncer{
		API:      api,
		Sender:   sender,
		Engine:   e,
		Gate:     e.Gate,
		PageSize: 100,
		MaxPages: 100,
		Log:      slog.Default(),
		Now:      func() time.Time { return now },
	}
}

func TestSyncRun_SendsBatchAndRecords(t *testing.T) {
	store := newMemStore()
	api := &stubAPI{
		list:    []tms.Shipment{sparseShipment(42, "L-42", tms.StatusEnRoute)},
		details: map[int64]tms.Shipment{42: testShipment()},
		users:   map[int64]tms.User{5564: {ID: 5564, Name: "Kyle Patton", Email: []tms.UserEmail{{Email: "kyle@example.com", IsPrimary: true}}}},
	}
	sender := &stubSender{}
	s := newTestSyncer(store, api, sender, testNow)

	res := s.Run(context.Background())
	if !res.Success || len(res.Errors) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.ShipmentsTotal != 1 || res.CheckinCalls != 1 || res.TotalCalls != 1 {
		t.Fatalf("unexpected counters %+v", res)
	}
	if len(sender.batches) != 1 || sender.batches[0].Shipments[0].Owner.Email != "kyle@example.com" {
		t.Fatalf("unexpected batch %+v", sender.batches)
	}
	if len(store.values) != 1 {
		t.Fatalf("expected one dedup marker, got %v", store.values)
	}

	// The next cycle must not re-fire the same check-in.
	res = newTestSyncer(store, api, &stubSender{}, testNow).Run(context.Background())
	if res.TotalCalls != 0 || res.AlreadyCalled != 1 {
		t.Fatalf("expected suppression on repeat run, got %+v", res)
	}
}

func TestSyncRun_WebhookFailureLeavesShipmentsEligible(t *testing.T) {
	store := newMemStore()
	api := &stubAPI{
		list:    []tms.Shipment{sparseShipment(42, "L-42", tms.StatusEnRoute)},
		details: map[int64]tms.Shipment{42: testShipment()},
	}
	sender := &stubSender{err: errors.New("upstream 502")}
	s := newTestSyncer(store, api, sender, testNow)

	res := s.Run(context.Background())
	if !res.Success {
		t.Fatalf("webhook failure is not fatal, got %+v", res)
	}
	if len(res.Errors) != 1 || len(res.Errors[0].Loads) != 1 || res.Errors[0].Loads[0] != "L-42" {
		t.Fatalf("expected a batch error naming the load, got %+v", res.Errors)
	}
	if len(store.values) != 0 {
		t.Fatalf("failed delivery must not write dedup markers, got %v", store.values)
	}

	// Same shipment fires again once delivery recovers.
	ok := &stubSender{}
	res = newTestSyncer(store, api, ok, testNow).Run(context.Background())
	if res.TotalCalls != 1 || len(ok.batches) != 1 {
		t.Fatalf("expected retry on next cycle, got %+v", res)
	}
}

func TestSyncRun_ListFailureIsFatal(t *testing.T) {
	api := &stubAPI{listErr: errors.New("auth expired")}
	res := newTestSyncer(newMemStore(), api, &stubSender{}, testNow).Run(context.Background())
	if res.Success || res.Error == "" {
		t.Fatalf("expected fatal result, got %+v", res)
	}
}

func TestSyncRun_DetailFailureSkipsOnlyThatShipment(t *testing.T) {
	api := &stubAPI{
		list: []tms.Shipment{
			sparseShipment(42, "L-42", tms.StatusEnRoute),
			sparseShipment(43, "L-43", tms.StatusEnRoute),
		},
		details:   map[int64]tms.Shipment{42: testShipment()},
		detailErr: map[int64]error{43: errors.New("timeout")},
	}
	sender := &stubSender{}
	res := newTestSyncer(newMemStore(), api, sender, testNow).Run(context.Background())

	if len(res.Errors) != 1 || res.Errors[0].Load != "L-43" {
		t.Fatalf("expected one per-shipment error, got %+v", res.Errors)
	}
	if res.TotalCalls != 1 || len(sender.batches) != 1 {
		t.Fatalf("healthy shipment must still be called, got %+v", res)
	}
}

func TestSyncRun_DropsTerminalListEntries(t *testing.T) {
	api := &stubAPI{
		list: []tms.Shipment{
			sparseShipment(42, "L-42", tms.StatusEnRoute),
			sparseShipment(50, "L-50", tms.StatusDelivered),
		},
		details: map[int64]tms.Shipment{42: testShipment()},
	}
	res := newTestSyncer(newMemStore(), api, &stubSender{}, testNow).Run(context.Background())
	if res.ShipmentsTotal != 1 {
		t.Fatalf("terminal entries must be dropped before counting, got %+v", res)
	}
	if api.detailCalls != 1 {
		t.Fatalf("terminal entry must not be fetched, got %d detail calls", api.detailCalls)
	}
}

func TestSyncRun_BusinessSkipsDetailWhenBothCallsRecorded(t *testing.T) {
	store := newMemStore()
	api := &stubAPI{
		list:    []tms.Shipment{sparseShipment(42, "L-42", tms.StatusEnRoute)},
		details: map[int64]tms.Shipment{42: testShipment()},
	}
	s := newTestSyncer(store, api, &stubSender{}, testNow)
	ctx := context.Background()
	if err := s.Gate.Record(ctx, string(CallCheckin), 42, "", "L-42"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Gate.Record(ctx, string(CallFinal), 42, "", "L-42"); err != nil {
		t.Fatalf("record: %v", err)
	}

	res := s.Run(ctx)
	if res.AlreadyCalled != 1 {
		t.Fatalf("expected early suppression, got %+v", res)
	}
	if api.detailCalls != 0 {
		t.Fatalf("fully deduped shipment must skip the detail fetch, got %d calls", api.detailCalls)
	}
}

func TestSyncRun_OwnerLookupCachedPerRun(t *testing.T) {
	second := testShipment()
	second.ID = 43
	second.CustomID = "L-43"
	api := &stubAPI{
		list: []tms.Shipment{
			sparseShipment(42, "L-42", tms.StatusEnRoute),
			sparseShipment(43, "L-43", tms.StatusEnRoute),
		},
		details: map[int64]tms.Shipment{42: testShipment(), 43: second},
		users:   map[int64]tms.User{5564: {ID: 5564, Name: "Kyle Patton"}},
	}
	newTestSyncer(newMemStore(), api, &stubSender{}, testNow).Run(context.Background())
	if api.userCalls != 1 {
		t.Fatalf("expected one owner lookup for the run, got %d", api.userCalls)
	}
}

func TestSyncRun_OwnerLookupFailureCachesZeroContact(t *testing.T) {
	second := testShipment()
	second.ID = 43
	second.CustomID = "L-43"
	api := &stubAPI{
		list: []tms.Shipment{
			sparseShipment(42, "L-42", tms.StatusEnRoute),
			sparseShipment(43, "L-43", tms.StatusEnRoute),
		},
		details: map[int64]tms.Shipment{42: testShipment(), 43: second},
		userErr: errors.New("403"),
	}
	sender := &stubSender{}
	res := newTestSyncer(newMemStore(), api, sender, testNow).Run(context.Background())
	if api.userCalls != 1 {
		t.Fatalf("failed lookup must not be retried within the run, got %d calls", api.userCalls)
	}
	if res.TotalCalls != 2 {
		t.Fatalf("missing owner contact must not block calls, got %+v", res)
	}
	if sender.batches[0].Shipments[0].Owner.Name != "" {
		t.Fatalf("expected zero owner contact, got %+v", sender.batches[0].Shipments[0].Owner)
	}
}

func TestSyncRun_ReportsDedupDisabled(t *testing.T) {
	api := &stubAPI{list: []tms.Shipment{}}
	res := newTestSyncer(nil, api, &stubSender{}, testNow).Run(context.Background())
	if !res.DedupDisabled {
		t.Fatalf("nil store must surface dedup_disabled, got %+v", res)
	}
}
