package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
	"github.com/quotebook/estimate-system/internal/pkg/metrics"
)

const (
	maxNumberAttempts    = 3
	defaultCustomerLimit = 5
)

// EstimateService prices estimates, assigns their numbers and enforces the
// status lifecycle.
type EstimateService struct {
	repo      ports.EstimateRepository
	seq       ports.EstimateSequence
	items     ports.ItemRepository
	customers ports.CustomerRepository
	users     ports.UserRepository
	notifier  ports.Notifier
	logger    zerolog.Logger
	now       func() time.Time
}

func NewEstimateService(
	repo ports.EstimateRepository,
	seq ports.EstimateSequence,
	items ports.ItemRepository,
	customers ports.CustomerRepository,
	users ports.UserRepository,
	notifier ports.Notifier,
	logger zerolog.Logger,
) *EstimateService {
	return &EstimateService{
		repo:      repo,
		seq:       seq,
		items:     items,
		customers: customers,
		users:     users,
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *EstimateService) Create(ctx context.Context, actor domain.Actor, in ports.CreateEstimateInput) (*domain.Estimate, error) {
	owner, err := domain.OwnerFor(actor, "")
	if err != nil {
		return nil, err
	}
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}

	if in.DiscountType == "" {
		in.DiscountType = domain.DiscountPercentage
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	party, err := s.resolveParty(ctx, scope, in.CustomerID, in.CustomerKind)
	if err != nil {
		return nil, err
	}
	lines, err := s.resolveLines(ctx, scope, in.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summary := domain.Summarize(party)
	est := &domain.Estimate{
		TraderID:       owner,
		Customer:       party.PartyRef(),
		Party:          &summary,
		Items:          lines,
		Discount:       in.Discount,
		DiscountType:   in.DiscountType,
		LoadingCharges: in.LoadingCharges,
		ValidTill:      in.ValidTill,
		Status:         domain.EstimateDraft,
		Notes:          in.Notes,
		SentVia:        []domain.SendChannel{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	est.Reprice()

	if err := s.insert(ctx, est); err != nil {
		s.logger.Error().Err(err).Str("trader_id", owner).Msg("failed to create estimate")
		return nil, err
	}

	metrics.EstimatesCreatedTotal.WithLabelValues(string(est.Customer.Kind)).Inc()
	s.logger.Info().
		Str("estimate_id", est.ID).
		Str("estimate_number", est.EstimateNumber).
		Str("trader_id", owner).
		Msg("estimate created")
	return est, nil
}

func validateCreate(in ports.CreateEstimateInput) error {
	var fields []domain.FieldError
	if in.CustomerID == "" {
		fields = append(fields, domain.FieldError{Param: "customer", Msg: "Customer is required"})
	}
	if len(in.Items) == 0 {
		fields = append(fields, domain.FieldError{Param: "items", Msg: "At least one item is required"})
	}
	if in.ValidTill.IsZero() {
		fields = append(fields, domain.FieldError{Param: "validTill", Msg: "Valid till date is required"})
	}
	if in.Status != "" && in.Status != domain.EstimateDraft {
		fields = append(fields, domain.FieldError{Param: "status", Msg: "New estimates must start as draft"})
	}
	fields = append(fields, adjustmentErrors(&in.Discount, &in.DiscountType, &in.LoadingCharges)...)
	fields = append(fields, lineErrors(in.Items)...)
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func adjustmentErrors(discount *decimal.Decimal, kind *domain.DiscountType, loading *decimal.Decimal) []domain.FieldError {
	var fields []domain.FieldError
	if discount != nil && discount.IsNegative() {
		fields = append(fields, domain.FieldError{Param: "discount", Msg: "Discount cannot be negative"})
	}
	if kind != nil && !kind.Valid() {
		fields = append(fields, domain.FieldError{Param: "discountType", Msg: "Discount type must be percentage or amount"})
	}
	if loading != nil && loading.IsNegative() {
		fields = append(fields, domain.FieldError{Param: "loadingCharges", Msg: "Loading charges cannot be negative"})
	}
	return fields
}

func lineErrors(lines []ports.LineInput) []domain.FieldError {
	var fields []domain.FieldError
	for i, l := range lines {
		if l.ItemID == "" {
			fields = append(fields, domain.FieldError{Param: fmt.Sprintf("items[%d].item", i), Msg: "Item is required"})
		}
		if l.Quantity.IsNegative() {
			fields = append(fields, domain.FieldError{Param: fmt.Sprintf("items[%d].quantity", i), Msg: "Quantity cannot be negative"})
		}
		if l.Rate.IsNegative() {
			fields = append(fields, domain.FieldError{Param: fmt.Sprintf("items[%d].rate", i), Msg: "Rate cannot be negative"})
		}
	}
	return fields
}

// insert assigns the next sequence number and stores the estimate, drawing a
// fresh number when the store reports the number as taken. When the sequence
// itself fails a clock-based number is used instead.
func (s *EstimateService) insert(ctx context.Context, est *domain.Estimate) error {
	year := est.CreatedAt.Year()
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		n, err := s.seq.Next(ctx, est.TraderID, year)
		if err != nil {
			metrics.EstimateNumberTotal.WithLabelValues("fallback").Inc()
			s.logger.Warn().Err(err).Str("trader_id", est.TraderID).Msg("estimate sequence unavailable, using fallback number")
			est.EstimateNumber = domain.FallbackEstimateNumber(s.now())
		} else {
			metrics.EstimateNumberTotal.WithLabelValues("sequence").Inc()
			est.EstimateNumber = domain.FormatEstimateNumber(year, n)
		}

		err = s.repo.Create(ctx, est)
		if !errors.Is(err, domain.ErrDuplicateEstimateNum) {
			return err
		}
		metrics.EstimateNumberTotal.WithLabelValues("retry").Inc()
		s.logger.Warn().
			Str("estimate_number", est.EstimateNumber).
			Int("attempt", attempt).
			Msg("estimate number already taken, retrying")
	}
	return fmt.Errorf("assign estimate number after %d attempts: %w", maxNumberAttempts, domain.ErrDuplicateEstimateNum)
}

// resolveParty finds the bill-to party for id. Without an explicit kind the
// directory is searched first, then registered customer accounts. Directory
// customers must be inside scope; registered customers may be billed by any
// trader.
func (s *EstimateService) resolveParty(ctx context.Context, scope domain.Scope, id string, kind domain.PartyKind) (domain.BillableParty, error) {
	if kind == "" || kind == domain.PartyDirectory {
		c, err := s.customers.FindByID(ctx, id)
		switch {
		case err == nil:
			if err := scope.Check(c.TraderID); err != nil {
				return nil, err
			}
			return c, nil
		case !errors.Is(err, domain.ErrCustomerNotFound):
			return nil, err
		case kind == domain.PartyDirectory:
			return nil, err
		}
	}

	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleCustomer {
		return nil, domain.ErrCustomerNotFound
	}
	return u, nil
}

// resolveLines loads every referenced item, checks it is inside scope and
// snapshots its name and unit next to the caller's rate.
func (s *EstimateService) resolveLines(ctx context.Context, scope domain.Scope, in []ports.LineInput) ([]domain.LineItem, error) {
	ids := make([]string, 0, len(in))
	for _, l := range in {
		ids = append(ids, l.ItemID)
	}
	found, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.LineItem, 0, len(in))
	for _, l := range in {
		it, ok := found[l.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, l.ItemID)
		}
		if !scope.Owns(it.TraderID) {
			return nil, fmt.Errorf("%w: item %s belongs to another trader", domain.ErrForbidden, l.ItemID)
		}
		lines = append(lines, domain.LineItem{
			ItemID:   it.ID,
			Name:     it.Name,
			UOM:      it.UOM,
			Quantity: l.Quantity,
			Rate:     l.Rate,
		})
	}
	return lines, nil
}

// loadScoped fetches an estimate for a trader or admin.
func (s *EstimateService) loadScoped(ctx context.Context, actor domain.Actor, id string) (*domain.Estimate, domain.Scope, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, scope, err
	}
	est, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, scope, err
	}
	if err := scope.Check(est.TraderID); err != nil {
		return nil, scope, err
	}
	return est, scope, nil
}

func (s *EstimateService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Estimate, error) {
	if !actor.IsCustomer() {
		est, _, err := s.loadScoped(ctx, actor, id)
		return est, err
	}

	est, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	parties, err := s.customerParties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !billedTo(est, parties) {
		return nil, fmt.Errorf("%w: estimate is billed to another customer", domain.ErrForbidden)
	}
	if est.Status != domain.EstimateSent {
		return est, nil
	}

	now := s.now()
	moved, err := s.repo.MarkViewed(ctx, est.ID, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		// another request moved it first
		return s.repo.FindByID(ctx, id)
	}
	metrics.EstimateTransitionsTotal.WithLabelValues(string(domain.EstimateSent), string(domain.EstimateViewed)).Inc()
	est.Status = domain.EstimateViewed
	est.ViewedAt = &now
	est.UpdatedAt = now
	return est, nil
}

// customerParties lists every reference a customer account is billed under:
// the account itself and any directory entry linked to it.
func (s *EstimateService) customerParties(ctx context.Context, userID string) ([]domain.PartyRef, error) {
	parties := []domain.PartyRef{{Kind: domain.PartyRegistered, ID: userID}}
	linked, _, err := s.customers.List(ctx, ports.CustomerFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	for _, c := range linked {
		parties = append(parties, c.PartyRef())
	}
	return parties, nil
}

func billedTo(est *domain.Estimate, parties []domain.PartyRef) bool {
	for _, p := range parties {
		if est.Customer == p {
			return true
		}
	}
	return false
}

func (s *EstimateService) Update(ctx context.Context, actor domain.Actor, id string, in ports.UpdateEstimateInput) (*domain.Estimate, error) {
	est, scope, err := s.loadScoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	repricing := in.Items != nil || in.Discount != nil || in.DiscountType != nil || in.LoadingCharges != nil
	if repricing || in.CustomerID != nil || in.ValidTill != nil {
		if err := est.CheckEditable(); err != nil {
			return nil, err
		}
	}

	fields := adjustmentErrors(in.Discount, in.DiscountType, in.LoadingCharges)
	if in.Items != nil && len(in.Items) == 0 {
		fields = append(fields, domain.FieldError{Param: "items", Msg: "At least one item is required"})
	}
	fields = append(fields, lineErrors(in.Items)...)
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	if in.CustomerID != nil {
		party, err := s.resolveParty(ctx, scope, *in.CustomerID, in.CustomerKind)
		if err != nil {
			return nil, err
		}
		summary := domain.Summarize(party)
		est.Customer = party.PartyRef()
		est.Party = &summary
	}
	if in.Items != nil {
		lines, err := s.resolveLines(ctx, scope, in.Items)
		if err != nil {
			return nil, err
		}
		est.Items = lines
	}
	if in.Discount != nil {
		est.Discount = *in.Discount
	}
	if in.DiscountType != nil {
		est.DiscountType = *in.DiscountType
	}
	if in.LoadingCharges != nil {
		est.LoadingCharges = *in.LoadingCharges
	}
	if repricing {
		est.Reprice()
	}
	if in.ValidTill != nil {
		est.ValidTill = *in.ValidTill
	}
	if in.Notes != nil {
		est.Notes = *in.Notes
	}
	if in.InvoiceNumber != nil {
		est.InvoiceNumber = *in.InvoiceNumber
	}

	now := s.now()
	from := est.Status
	if in.Status != nil && *in.Status != est.Status {
		if err := est.TransitionTo(*in.Status, now); err != nil {
			return nil, err
		}
	}
	est.UpdatedAt = now

	if err := s.repo.Update(ctx, est, from); err != nil {
		return nil, err
	}
	if from != est.Status {
		metrics.EstimateTransitionsTotal.WithLabelValues(string(from), string(est.Status)).Inc()
		s.logger.Info().
			Str("estimate_id", est.ID).
			Str("from", string(from)).
			Str("to", string(est.Status)).
			Msg("estimate status changed")
	}
	return est, nil
}

func (s *EstimateService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	est, _, err := s.loadScoped(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, est.ID); err != nil {
		return err
	}
	s.logger.Info().Str("estimate_id", est.ID).Str("actor_id", actor.ID).Msg("estimate deleted")
	return nil
}

// List returns estimates visible to the caller. Customers only ever see the
// estimates billed to them.
func (s *EstimateService) List(ctx context.Context, actor domain.Actor, filter ports.EstimateFilter) (*ports.PageResult[*domain.Estimate], error) {
	if actor.IsCustomer() {
		return s.ListMine(ctx, actor, filter)
	}
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	filter.Scope = scope
	return s.list(ctx, filter)
}

func (s *EstimateService) ListMine(ctx context.Context, actor domain.Actor, filter ports.EstimateFilter) (*ports.PageResult[*domain.Estimate], error) {
	if !actor.IsCustomer() {
		return nil, domain.ErrForbidden
	}
	parties, err := s.customerParties(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	filter.Scope = domain.Scope{}
	filter.Parties = parties
	return s.list(ctx, filter)
}

func (s *EstimateService) list(ctx context.Context, filter ports.EstimateFilter) (*ports.PageResult[*domain.Estimate], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("status", "Invalid status")
	}
	filter.Page = ports.NewPage(filter.Page.Number, filter.Page.Limit)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ports.NewPageResult(items, total, filter.Page), nil
}

// ListForCustomer returns the latest estimates billed to customerID, which may
// name either a directory customer or a registered account.
func (s *EstimateService) ListForCustomer(ctx context.Context, actor domain.Actor, customerID string, filter ports.EstimateFilter) ([]*domain.Estimate, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	limit := filter.Page.Limit
	if limit <= 0 {
		limit = defaultCustomerLimit
	}
	filter.Scope = scope
	filter.Parties = []domain.PartyRef{
		{Kind: domain.PartyDirectory, ID: customerID},
		{Kind: domain.PartyRegistered, ID: customerID},
	}
	filter.Page = ports.NewPage(1, limit)
	items, _, err := s.repo.List(ctx, filter)
	return items, err
}

func (s *EstimateService) ListByItem(ctx context.Context, actor domain.Actor, itemID string) ([]*domain.Estimate, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	items, _, err := s.repo.List(ctx, ports.EstimateFilter{Scope: scope, ItemID: itemID})
	return items, err
}

// MarkSent records the delivery channels and moves the estimate to sent.
// Only draft and already-sent estimates can be sent. Delivery notification
// is queued after the write and never fails the call.
func (s *EstimateService) MarkSent(ctx context.Context, actor domain.Actor, id string, via []domain.SendChannel) (*domain.Estimate, error) {
	channels, err := normalizeChannels(via)
	if err != nil {
		return nil, err
	}
	est, _, err := s.loadScoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	from := est.Status
	now := s.now()
	if err := est.TransitionTo(domain.EstimateSent, now); err != nil {
		return nil, err
	}
	est.SentVia = channels
	if err := s.repo.Update(ctx, est, from); err != nil {
		return nil, err
	}
	metrics.EstimateTransitionsTotal.WithLabelValues(string(from), string(est.Status)).Inc()
	s.logger.Info().Str("estimate_id", est.ID).Str("estimate_number", est.EstimateNumber).Msg("estimate sent")

	if s.notifier != nil {
		event := ports.EstimateSentEvent{
			EstimateID:     est.ID,
			EstimateNumber: est.EstimateNumber,
			TraderID:       est.TraderID,
			Channels:       channels,
			Total:          est.Total,
			ValidTill:      est.ValidTill,
			SentAt:         now,
		}
		if est.Party != nil {
			event.Party = *est.Party
		}
		s.notifier.Enqueue(event)
	}
	return est, nil
}

func normalizeChannels(via []domain.SendChannel) ([]domain.SendChannel, error) {
	if via == nil {
		return nil, domain.NewValidationError("sentVia", "Sent via must be an array")
	}
	seen := make(map[domain.SendChannel]struct{}, len(via))
	out := make([]domain.SendChannel, 0, len(via))
	for _, c := range via {
		if !c.Valid() {
			return nil, domain.NewValidationError("sentVia", "Sent via must contain email, whatsapp or print")
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}
