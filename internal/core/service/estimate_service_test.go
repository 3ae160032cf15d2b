package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type estimateFixture struct {
	svc       *EstimateService
	repo      *stubEstimateRepo
	seq       *stubSequence
	items     *stubItemRepo
	customers *stubCustomerRepo
	users     *stubUserRepo
	notifier  *stubNotifier
}

var customerActor = domain.Actor{ID: "cust-user", Role: domain.RoleCustomer}

func newEstimateFixture(t *testing.T) *estimateFixture {
	t.Helper()
	ctx := context.Background()
	f := &estimateFixture{
		repo:      newStubEstimateRepo(),
		seq:       newStubSequence(),
		items:     newStubItemRepo(),
		customers: newStubCustomerRepo(),
		users:     newStubUserRepo(),
		notifier:  &stubNotifier{},
	}
	f.svc = NewEstimateService(f.repo, f.seq, f.items, f.customers, f.users, f.notifier, discardLogger)
	f.svc.now = func() time.Time { return fixedNow }

	_ = f.items.Create(ctx, &domain.Item{ID: "item-a", TraderID: traderA.ID, Name: "Cement", UOM: domain.UOMBag, CurrentRate: d("100")})
	_ = f.items.Create(ctx, &domain.Item{ID: "item-b", TraderID: traderB.ID, Name: "Sand", UOM: domain.UOMTon, CurrentRate: d("900")})
	_ = f.customers.Create(ctx, &domain.Customer{ID: "cust-a", TraderID: traderA.ID, Name: "Ravi", Phone: "111", IsActive: true})
	_ = f.customers.Create(ctx, &domain.Customer{ID: "cust-b", TraderID: traderB.ID, Name: "Meena", Phone: "222", IsActive: true})
	_ = f.customers.Create(ctx, &domain.Customer{ID: "cust-linked", TraderID: traderA.ID, UserID: customerActor.ID, Name: "Asha", Phone: "333", IsActive: true})
	f.users.add(&domain.User{ID: customerActor.ID, Name: "Asha", Email: "asha@example.com", Role: domain.RoleCustomer, IsActive: true})
	f.users.add(&domain.User{ID: "other-cust", Name: "Kiran", Email: "kiran@example.com", Role: domain.RoleCustomer, IsActive: true})
	return f
}

func createInput(customerID string, qty, rate string) ports.CreateEstimateInput {
	return ports.CreateEstimateInput{
		CustomerID:     customerID,
		Items:          []ports.LineInput{{ItemID: "item-a", Quantity: d(qty), Rate: d(rate)}},
		Discount:       d("10"),
		DiscountType:   domain.DiscountPercentage,
		LoadingCharges: d("50"),
		ValidTill:      fixedNow.AddDate(0, 0, 30),
	}
}

func mustCreate(t *testing.T, f *estimateFixture, actor domain.Actor, in ports.CreateEstimateInput) *domain.Estimate {
	t.Helper()
	est, err := f.svc.Create(context.Background(), actor, in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return est
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestEstimateService_Create_Pricing(t *testing.T) {
	f := newEstimateFixture(t)

	est := mustCreate(t, f, traderA, createInput("cust-a", "3", "100"))

	if !est.Subtotal.Equal(d("300")) {
		t.Errorf("subtotal = %s, want 300", est.Subtotal)
	}
	if !est.DiscountAmount.Equal(d("30")) {
		t.Errorf("discountAmount = %s, want 30", est.DiscountAmount)
	}
	if !est.Total.Equal(d("320")) {
		t.Errorf("total = %s, want 320", est.Total)
	}
	if est.Status != domain.EstimateDraft {
		t.Errorf("status = %q, want draft", est.Status)
	}
	if est.Items[0].Name != "Cement" || est.Items[0].UOM != domain.UOMBag {
		t.Errorf("line snapshot = %+v", est.Items[0])
	}
	if est.Customer != (domain.PartyRef{Kind: domain.PartyDirectory, ID: "cust-a"}) {
		t.Errorf("customer ref = %+v", est.Customer)
	}
	if est.Party == nil || est.Party.Name != "Ravi" {
		t.Errorf("party snapshot = %+v", est.Party)
	}
}

func TestEstimateService_Create_RateIsFrozen(t *testing.T) {
	f := newEstimateFixture(t)

	est := mustCreate(t, f, traderA, createInput("cust-a", "2", "95.50"))
	f.items.items["item-a"].CurrentRate = d("120")

	stored, _ := f.repo.FindByID(context.Background(), est.ID)
	if !stored.Items[0].Rate.Equal(d("95.50")) {
		t.Errorf("stored rate = %s, want the rate given at creation", stored.Items[0].Rate)
	}
}

func TestEstimateService_Create_SequentialNumbers(t *testing.T) {
	f := newEstimateFixture(t)

	want := []string{"EST-2025-0001", "EST-2025-0002", "EST-2025-0003"}
	for _, w := range want {
		est := mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))
		if est.EstimateNumber != w {
			t.Errorf("estimate number = %q, want %q", est.EstimateNumber, w)
		}
	}

	other := mustCreate(t, f, traderB, ports.CreateEstimateInput{
		CustomerID: "cust-b",
		Items:      []ports.LineInput{{ItemID: "item-b", Quantity: d("1"), Rate: d("900")}},
		ValidTill:  fixedNow,
	})
	if other.EstimateNumber != "EST-2025-0001" {
		t.Errorf("second trader number = %q, want its own sequence", other.EstimateNumber)
	}
}

func TestEstimateService_Create_RetriesTakenNumber(t *testing.T) {
	f := newEstimateFixture(t)
	f.repo.estimates["legacy"] = &domain.Estimate{ID: "legacy", TraderID: traderA.ID, EstimateNumber: "EST-2025-0001"}

	est := mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))
	if est.EstimateNumber != "EST-2025-0002" {
		t.Errorf("estimate number = %q, want EST-2025-0002", est.EstimateNumber)
	}
}

func TestEstimateService_Create_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newEstimateFixture(t)
	f.repo.createErr = domain.ErrDuplicateEstimateNum

	_, err := f.svc.Create(context.Background(), traderA, createInput("cust-a", "1", "10"))
	if !errors.Is(err, domain.ErrDuplicateEstimateNum) {
		t.Fatalf("expected ErrDuplicateEstimateNum, got %v", err)
	}
	if got := f.seq.counters["trader-a:2025"]; got != maxNumberAttempts {
		t.Errorf("sequence drawn %d times, want %d", got, maxNumberAttempts)
	}
}

func TestEstimateService_Create_FallbackNumber(t *testing.T) {
	f := newEstimateFixture(t)
	f.seq.failWith = errors.New("counter collection unavailable")

	est := mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))
	if want := domain.FallbackEstimateNumber(fixedNow); est.EstimateNumber != want {
		t.Errorf("estimate number = %q, want %q", est.EstimateNumber, want)
	}
}

func TestEstimateService_Create_NegativeTotalAllowed(t *testing.T) {
	f := newEstimateFixture(t)
	in := createInput("cust-a", "1", "100")
	in.Discount = d("500")
	in.DiscountType = domain.DiscountFlat
	in.LoadingCharges = d("0")

	est := mustCreate(t, f, traderA, in)
	if !est.Total.Equal(d("-400")) {
		t.Errorf("total = %s, want -400", est.Total)
	}
}

func TestEstimateService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ports.CreateEstimateInput)
		param  string
	}{
		{"non-draft status", func(in *ports.CreateEstimateInput) { in.Status = domain.EstimateSent }, "status"},
		{"no items", func(in *ports.CreateEstimateInput) { in.Items = nil }, "items"},
		{"no customer", func(in *ports.CreateEstimateInput) { in.CustomerID = "" }, "customer"},
		{"missing validTill", func(in *ports.CreateEstimateInput) { in.ValidTill = time.Time{} }, "validTill"},
		{"negative discount", func(in *ports.CreateEstimateInput) { in.Discount = d("-1") }, "discount"},
		{"bad discount type", func(in *ports.CreateEstimateInput) { in.DiscountType = "bogus" }, "discountType"},
		{"negative quantity", func(in *ports.CreateEstimateInput) { in.Items[0].Quantity = d("-2") }, "items[0].quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEstimateFixture(t)
			in := createInput("cust-a", "1", "10")
			tt.mutate(&in)

			_, err := f.svc.Create(context.Background(), traderA, in)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Fields[0].Param != tt.param {
				t.Errorf("param = %q, want %q", verr.Fields[0].Param, tt.param)
			}
			if len(f.repo.estimates) != 0 {
				t.Error("nothing should be persisted on validation failure")
			}
		})
	}
}

func TestEstimateService_Create_Access(t *testing.T) {
	tests := []struct {
		name    string
		actor   domain.Actor
		mutate  func(*ports.CreateEstimateInput)
		wantErr error
	}{
		{"foreign directory customer", traderA, func(in *ports.CreateEstimateInput) { in.CustomerID = "cust-b" }, domain.ErrForbidden},
		{"foreign item", traderA, func(in *ports.CreateEstimateInput) { in.Items[0].ItemID = "item-b" }, domain.ErrForbidden},
		{"unknown item", traderA, func(in *ports.CreateEstimateInput) { in.Items[0].ItemID = "nope" }, domain.ErrItemNotFound},
		{"unknown customer", traderA, func(in *ports.CreateEstimateInput) { in.CustomerID = "nope" }, domain.ErrCustomerNotFound},
		{"trader is not billable", traderA, func(in *ports.CreateEstimateInput) { in.CustomerID = traderB.ID }, domain.ErrCustomerNotFound},
		{"customer cannot create", customerActor, func(*ports.CreateEstimateInput) {}, domain.ErrForbidden},
		{"directory kind does not fall back", traderA, func(in *ports.CreateEstimateInput) {
			in.CustomerID = customerActor.ID
			in.CustomerKind = domain.PartyDirectory
		}, domain.ErrCustomerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEstimateFixture(t)
			f.users.add(&domain.User{ID: traderB.ID, Role: domain.RoleTrader, IsActive: true})
			in := createInput("cust-a", "1", "10")
			tt.mutate(&in)

			_, err := f.svc.Create(context.Background(), tt.actor, in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(f.repo.estimates) != 0 {
				t.Error("nothing should be persisted on failure")
			}
		})
	}
}

func TestEstimateService_Create_RegisteredCustomer(t *testing.T) {
	f := newEstimateFixture(t)

	est := mustCreate(t, f, traderA, createInput(customerActor.ID, "1", "10"))
	if est.Customer.Kind != domain.PartyRegistered {
		t.Errorf("party kind = %q, want registered", est.Customer.Kind)
	}
	// any trader may bill a registered customer
	est = mustCreate(t, f, traderB, ports.CreateEstimateInput{
		CustomerID: customerActor.ID,
		Items:      []ports.LineInput{{ItemID: "item-b", Quantity: d("1"), Rate: d("1")}},
		ValidTill:  fixedNow,
	})
	if est.TraderID != traderB.ID {
		t.Errorf("trader = %q", est.TraderID)
	}
}

func TestEstimateService_Create_AdminBypassesOwnership(t *testing.T) {
	f := newEstimateFixture(t)
	est := mustCreate(t, f, adminActor, createInput("cust-b", "1", "10"))
	if est.TraderID != adminActor.ID {
		t.Errorf("owner = %q, want the admin", est.TraderID)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestEstimateService_Update_RepricesWithStoredAdjustments(t *testing.T) {
	f := newEstimateFixture(t)
	est := mustCreate(t, f, traderA, createInput("cust-a", "3", "100"))

	updated, err := f.svc.Update(context.Background(), traderA, est.ID, ports.UpdateEstimateInput{
		Items: []ports.LineInput{{ItemID: "item-a", Quantity: d("5"), Rate: d("100")}},
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	// 500 - 10% + 50
	if !updated.Total.Equal(d("500")) {
		t.Errorf("total = %s, want 500", updated.Total)
	}
	if !updated.Discount.Equal(d("10")) || !updated.LoadingCharges.Equal(d("50")) {
		t.Error("omitted adjustments must keep their stored values")
	}
}

func TestEstimateService_Update_DiscountOnlyReprices(t *testing.T) {
	f := newEstimateFixture(t)
	est := mustCreate(t, f, traderA, createInput("cust-a", "3", "100"))

	flat := domain.DiscountFlat
	updated, err := f.svc.Update(context.Background(), traderA, est.ID, ports.UpdateEstimateInput{DiscountType: &flat})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !updated.Total.Equal(d("340")) {
		t.Errorf("total = %s, want 340", updated.Total)
	}
}

func TestEstimateService_Update_Lifecycle(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	est := mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))

	converted := domain.EstimateConverted
	_, err := f.svc.Update(ctx, traderA, est.ID, ports.UpdateEstimateInput{Status: &converted})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("draft -> converted: expected ErrInvalidTransition, got %v", err)
	}

	sent := domain.EstimateSent
	viewed := domain.EstimateViewed
	for _, next := range []*domain.EstimateStatus{&sent, &viewed, &converted} {
		if _, err := f.svc.Update(ctx, traderA, est.ID, ports.UpdateEstimateInput{Status: next}); err != nil {
			t.Fatalf("transition to %s: %v", *next, err)
		}
	}

	stored, _ := f.repo.FindByID(ctx, est.ID)
	if !stored.IsConverted {
		t.Error("isConverted must follow the converted status")
	}

	_, err = f.svc.Update(ctx, traderA, est.ID, ports.UpdateEstimateInput{
		Items: []ports.LineInput{{ItemID: "item-a", Quantity: d("9"), Rate: d("10")}},
	})
	if !errors.Is(err, domain.ErrEstimateLocked) {
		t.Fatalf("expected ErrEstimateLocked, got %v", err)
	}

	invoice := "INV-77"
	updated, err := f.svc.Update(ctx, traderA, est.ID, ports.UpdateEstimateInput{InvoiceNumber: &invoice})
	if err != nil {
		t.Fatalf("invoice number on converted estimate: %v", err)
	}
	if updated.InvoiceNumber != invoice {
		t.Errorf("invoice = %q", updated.InvoiceNumber)
	}
}

func TestEstimateService_Update_CrossTenant(t *testing.T) {
	f := newEstimateFixture(t)
	est := mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))

	notes := "mine now"
	_, err := f.svc.Update(context.Background(), traderB, est.ID, ports.UpdateEstimateInput{Notes: &notes})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	_, err = f.svc.Update(context.Background(), traderB, "missing", ports.UpdateEstimateInput{Notes: &notes})
	if !errors.Is(err, domain.ErrEstimateNotFound) {
		t.Fatalf("expected ErrEstimateNotFound, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), traderB, est.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("delete: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), adminActor, est.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

// racingEstimateRepo lets another writer change an estimate between the
// service's read and its write.
type racingEstimateRepo struct {
	*stubEstimateRepo
	afterFind func(e *domain.Estimate)
}

func (r *racingEstimateRepo) FindByID(ctx context.Context, id string) (*domain.Estimate, error) {
	e, err := r.stubEstimateRepo.FindByID(ctx, id)
	if err == nil && r.afterFind != nil {
		hook := r.afterFind
		r.afterFind = nil
		hook(cloneEstimate(e))
	}
	return e, err
}

func TestEstimateService_Update_StaleCopyCannotOverwrite(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	est := mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))
	sent, viewed := domain.EstimateSent, domain.EstimateViewed
	for _, next := range []*domain.EstimateStatus{&sent, &viewed} {
		if _, err := f.svc.Update(ctx, traderA, est.ID, ports.UpdateEstimateInput{Status: next}); err != nil {
			t.Fatalf("transition to %s: %v", *next, err)
		}
	}

	racing := &racingEstimateRepo{stubEstimateRepo: f.repo}
	svc := NewEstimateService(racing, f.seq, f.items, f.customers, f.users, f.notifier, discardLogger)
	svc.now = func() time.Time { return fixedNow }
	racing.afterFind = func(e *domain.Estimate) {
		if err := e.TransitionTo(domain.EstimateConverted, fixedNow); err != nil {
			t.Fatalf("concurrent convert: %v", err)
		}
		if err := f.repo.Update(ctx, e, domain.EstimateViewed); err != nil {
			t.Fatalf("concurrent convert: %v", err)
		}
	}

	expired := domain.EstimateExpired
	_, err := svc.Update(ctx, traderA, est.ID, ports.UpdateEstimateInput{Status: &expired})
	if !errors.Is(err, domain.ErrEstimateConflict) {
		t.Fatalf("expected ErrEstimateConflict, got %v", err)
	}
	stored, _ := f.repo.FindByID(ctx, est.ID)
	if stored.Status != domain.EstimateConverted || !stored.IsConverted {
		t.Errorf("status=%s isConverted=%v, want converted", stored.Status, stored.IsConverted)
	}
}

func TestEstimateService_MarkSent_StaleCopyKeepsViewedAt(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	est := mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))
	if _, err := f.svc.MarkSent(ctx, traderA, est.ID, []domain.SendChannel{domain.SendEmail}); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	racing := &racingEstimateRepo{stubEstimateRepo: f.repo}
	svc := NewEstimateService(racing, f.seq, f.items, f.customers, f.users, f.notifier, discardLogger)
	svc.now = func() time.Time { return fixedNow }
	racing.afterFind = func(e *domain.Estimate) {
		if _, err := f.repo.MarkViewed(ctx, e.ID, fixedNow); err != nil {
			t.Fatalf("concurrent view: %v", err)
		}
	}

	_, err := svc.MarkSent(ctx, traderA, est.ID, []domain.SendChannel{domain.SendPrint})
	if !errors.Is(err, domain.ErrEstimateConflict) {
		t.Fatalf("expected ErrEstimateConflict, got %v", err)
	}
	stored, _ := f.repo.FindByID(ctx, est.ID)
	if stored.Status != domain.EstimateViewed || stored.ViewedAt == nil {
		t.Errorf("status=%s viewedAt=%v, want viewed with a stamp", stored.Status, stored.ViewedAt)
	}
	if len(f.notifier.events) != 1 {
		t.Errorf("expected only the first send to notify, got %d events", len(f.notifier.events))
	}
}

// ---------------------------------------------------------------------------
// Send / view
// ---------------------------------------------------------------------------

func TestEstimateService_MarkSent(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	est := mustCreate(t, f, traderA, createInput("cust-a", "3", "100"))

	sent, err := f.svc.MarkSent(ctx, traderA, est.ID, []domain.SendChannel{domain.SendWhatsApp, domain.SendWhatsApp, domain.SendEmail})
	if err != nil {
		t.Fatalf("MarkSent returned error: %v", err)
	}
	if sent.Status != domain.EstimateSent || len(sent.SentVia) != 2 {
		t.Errorf("status=%s sentVia=%v", sent.Status, sent.SentVia)
	}
	if len(f.notifier.events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(f.notifier.events))
	}
	ev := f.notifier.events[0]
	if ev.EstimateNumber != est.EstimateNumber || !ev.Total.Equal(d("320")) || ev.Party.Name != "Ravi" {
		t.Errorf("unexpected event %+v", ev)
	}

	// re-sending keeps the estimate in sent
	if _, err := f.svc.MarkSent(ctx, traderA, est.ID, []domain.SendChannel{domain.SendPrint}); err != nil {
		t.Fatalf("re-send: %v", err)
	}

	expired := domain.EstimateExpired
	if _, err := f.svc.Update(ctx, traderA, est.ID, ports.UpdateEstimateInput{Status: &expired}); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if _, err := f.svc.MarkSent(ctx, traderA, est.ID, []domain.SendChannel{domain.SendEmail}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition sending an expired estimate, got %v", err)
	}
}

func TestEstimateService_MarkSent_RejectsUnknownChannel(t *testing.T) {
	f := newEstimateFixture(t)
	est := mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))

	_, err := f.svc.MarkSent(context.Background(), traderA, est.ID, []domain.SendChannel{"pigeon"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestEstimateService_Get_CustomerViewIsIdempotent(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	est := mustCreate(t, f, traderA, createInput(customerActor.ID, "1", "10"))
	if _, err := f.svc.MarkSent(ctx, traderA, est.ID, []domain.SendChannel{domain.SendEmail}); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	first, err := f.svc.Get(ctx, customerActor, est.ID)
	if err != nil {
		t.Fatalf("first view: %v", err)
	}
	if first.Status != domain.EstimateViewed || first.ViewedAt == nil {
		t.Fatalf("first view: status=%s viewedAt=%v", first.Status, first.ViewedAt)
	}
	stamp := *first.ViewedAt

	f.svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := f.svc.Get(ctx, customerActor, est.ID)
	if err != nil {
		t.Fatalf("second view: %v", err)
	}
	if second.Status != domain.EstimateViewed || !second.ViewedAt.Equal(stamp) {
		t.Errorf("second view changed state: status=%s viewedAt=%v", second.Status, second.ViewedAt)
	}
}

func TestEstimateService_Get_TraderDoesNotMarkViewed(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	est := mustCreate(t, f, traderA, createInput(customerActor.ID, "1", "10"))
	_, _ = f.svc.MarkSent(ctx, traderA, est.ID, []domain.SendChannel{domain.SendEmail})

	got, err := f.svc.Get(ctx, traderA, est.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.EstimateSent {
		t.Errorf("status = %s, want sent", got.Status)
	}
}

func TestEstimateService_Get_CustomerAccess(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	linked := mustCreate(t, f, traderA, createInput("cust-linked", "1", "10"))
	foreign := mustCreate(t, f, traderA, createInput("other-cust", "1", "10"))

	if _, err := f.svc.Get(ctx, customerActor, linked.ID); err != nil {
		t.Fatalf("linked directory estimate should be visible: %v", err)
	}
	if _, err := f.svc.Get(ctx, customerActor, foreign.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Get(ctx, traderB, linked.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other trader, got %v", err)
	}
	if _, err := f.svc.Get(ctx, traderA, "missing"); !errors.Is(err, domain.ErrEstimateNotFound) {
		t.Fatalf("expected ErrEstimateNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

func TestEstimateService_ListMine(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	mustCreate(t, f, traderA, createInput("cust-linked", "1", "10"))
	mustCreate(t, f, traderA, createInput(customerActor.ID, "1", "10"))
	mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))

	res, err := f.svc.ListMine(ctx, customerActor, ports.EstimateFilter{})
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("total = %d, want 2", res.Total)
	}
	if res.Page != 1 || res.Limit != ports.DefaultLimit {
		t.Errorf("page=%d limit=%d", res.Page, res.Limit)
	}

	if _, err := f.svc.ListMine(ctx, traderA, ports.EstimateFilter{}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("traders have no own-estimates view, got %v", err)
	}
}

func TestEstimateService_List_CustomerSeesOnlyTheirs(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	mustCreate(t, f, traderA, createInput("cust-linked", "1", "10"))
	mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))

	filter := ports.EstimateFilter{Parties: []domain.PartyRef{{Kind: domain.PartyDirectory, ID: "cust-a"}}}
	res, err := f.svc.List(ctx, customerActor, filter)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Total != 1 || res.Items[0].Customer.ID != "cust-linked" {
		t.Errorf("customer list = %d estimates, want only the linked one", res.Total)
	}
}

func TestEstimateService_List_Scoped(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))
	mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))
	mustCreate(t, f, traderB, ports.CreateEstimateInput{
		CustomerID: "cust-b",
		Items:      []ports.LineInput{{ItemID: "item-b", Quantity: d("1"), Rate: d("1")}},
		ValidTill:  fixedNow,
	})

	res, err := f.svc.List(ctx, traderA, ports.EstimateFilter{Page: ports.Page{Limit: 500}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("trader total = %d, want 2", res.Total)
	}
	if res.Limit != ports.MaxLimit {
		t.Errorf("limit = %d, want capped at %d", res.Limit, ports.MaxLimit)
	}

	res, _ = f.svc.List(ctx, adminActor, ports.EstimateFilter{})
	if res.Total != 3 {
		t.Errorf("admin total = %d, want 3", res.Total)
	}

	_, err = f.svc.List(ctx, traderA, ports.EstimateFilter{Status: "archived"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for unknown status, got %v", err)
	}
}

func TestEstimateService_ListForCustomerAndItem(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		mustCreate(t, f, traderA, createInput("cust-a", "1", "10"))
	}

	got, err := f.svc.ListForCustomer(ctx, traderA, "cust-a", ports.EstimateFilter{})
	if err != nil {
		t.Fatalf("ListForCustomer: %v", err)
	}
	if len(got) != defaultCustomerLimit {
		t.Errorf("got %d estimates, want %d", len(got), defaultCustomerLimit)
	}

	byItem, err := f.svc.ListByItem(ctx, traderA, "item-a")
	if err != nil {
		t.Fatalf("ListByItem: %v", err)
	}
	if len(byItem) != 7 {
		t.Errorf("got %d estimates by item, want 7", len(byItem))
	}
	byItem, _ = f.svc.ListByItem(ctx, traderB, "item-a")
	if len(byItem) != 0 {
		t.Errorf("other trader sees %d estimates", len(byItem))
	}
}
