package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/utils"
)

// DefaultQCWindow is how long a party has to inspect a handoff.
const DefaultQCWindow = 30 * time.Minute

// DefaultMaxNights caps the length of a single rental.
const DefaultMaxNights = 90

// issueReportAllowList is used when issue reports are restricted.
var issueReportAllowList = []domain.RentalStatus{
	domain.RentalStatusDelivered,
	domain.RentalStatusInUse,
	domain.RentalStatusReturnDelivered,
}

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	QCWindow  time.Duration
	MaxNights int
	Location  *time.Location
	Fees      *FeeSchedule
	// RestrictIssueReports limits ReportIssue to statuses where a physical
	// problem can actually surface. Off by default: reports force a dispute
	// from any status.
	RestrictIssueReports bool
}

// Engine is the rental lifecycle authority.
type Engine struct {
	clock                Clock
	qcWindow             time.Duration
	maxNights            int
	loc                  *time.Location
	fees                 FeeSchedule
	restrictIssueReports bool
}

// NewEngine creates an engine reading time from clock.
func NewEngine(cfg Config, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	e := &Engine{
		clock:                clock,
		qcWindow:             cfg.QCWindow,
		maxNights:            cfg.MaxNights,
		loc:                  cfg.Location,
		fees:                 DefaultFees,
		restrictIssueReports: cfg.RestrictIssueReports,
	}
	if e.qcWindow <= 0 {
		e.qcWindow = DefaultQCWindow
	}
	if e.maxNights <= 0 {
		e.maxNights = DefaultMaxNights
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if cfg.Fees != nil {
		e.fees = *cfg.Fees
	}
	return e
}

// TransitionOptions carries the optional parts of a status change.
type TransitionOptions struct {
	Note    string
	Link    string
	Payment *domain.PaymentDetails
}

// TransitionResult is the new rental state plus the intents the caller
// must execute alongside persisting it.
type TransitionResult struct {
	Rental      *domain.Rental
	SideEffects []domain.SideEffect
}

// QCResult is returned by quality-control submissions.
type QCResult struct {
	Rental      *domain.Rental
	NextStatus  domain.RentalStatus
	SideEffects []domain.SideEffect
}

// NewRentalInput describes a booking request.
type NewRentalInput struct {
	ID            string
	OutfitID      string
	CuratorID     string
	RenterUserID  string
	StartDate     time.Time
	EndDate       time.Time
	PerNightPrice decimal.Decimal
}

// Now reads the engine's clock.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// Location is the calendar used for date keys.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Pricing computes a snapshot with the engine's fee schedule.
func (e *Engine) Pricing(perNightPrice decimal.Decimal, nights int) (domain.PricingSnapshot, error) {
	return e.fees.Compute(perNightPrice, nights)
}

// DatesToBlock is the blocking window in the engine's calendar.
func (e *Engine) DatesToBlock(r *domain.Rental) []string {
	return DatesToBlock(r.StartDate, r.EndDate, e.loc)
}

// NewRental builds a rental in the requested state with its price snapshot
// and first timeline entry.
func (e *Engine) NewRental(in NewRentalInput) (*domain.Rental, error) {
	switch {
	case in.ID == "":
		return nil, &domain.InputError{Field: "id", Reason: "is required"}
	case in.OutfitID == "":
		return nil, &domain.InputError{Field: "outfit_id", Reason: "is required"}
	case in.CuratorID == "":
		return nil, &domain.InputError{Field: "curator_id", Reason: "is required"}
	case in.RenterUserID == "":
		return nil, &domain.InputError{Field: "renter_user_id", Reason: "is required"}
	}

	start := utils.DateOf(in.StartDate, e.loc).Midnight(e.loc)
	end := utils.DateOf(in.EndDate, e.loc).Midnight(e.loc)
	nights := utils.DaysBetween(start, end, e.loc)
	if nights < 1 {
		return nil, &domain.InputError{Field: "end_date", Reason: "must be at least one night after start_date"}
	}
	if nights > e.maxNights {
		return nil, &domain.InputError{Field: "nights", Reason: fmt.Sprintf("must not exceed %d", e.maxNights)}
	}

	pricing, err := e.fees.Compute(in.PerNightPrice, nights)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	return &domain.Rental{
		ID:           in.ID,
		OutfitID:     in.OutfitID,
		CuratorID:    in.CuratorID,
		RenterUserID: in.RenterUserID,
		StartDate:    start,
		EndDate:      end,
		Nights:       nights,
		Status:       domain.RentalStatusRequested,
		Timeline: []domain.TimelineEntry{
			{Status: domain.RentalStatusRequested, Timestamp: now, Note: "Rental requested"},
		},
		Pricing:         pricing,
		CuratorEarnings: pricing.CuratorEarnings,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// TransitionRental moves the rental to next if the transition table allows
// it. The input rental is not modified.
func (e *Engine) TransitionRental(r *domain.Rental, next domain.RentalStatus, opts TransitionOptions) (*TransitionResult, error) {
	if !IsValidTransition(r.Status, next) {
		return nil, &domain.TransitionError{From: r.Status, To: next}
	}
	return e.apply(r.Clone(), next, opts), nil
}

// SubmitDeliveryQC records the renter's inspection and advances to in_use
// when everything checks out, otherwise to disputed.
func (e *Engine) SubmitDeliveryQC(r *domain.Rental, in domain.DeliveryQCInput) (*QCResult, error) {
	if r.DeliveryQC != nil && !r.DeliveryQC.IsPending() {
		return nil, fmt.Errorf("delivery QC is %s: %w", r.DeliveryQC.Status, domain.ErrQCAlreadySubmitted)
	}
	if r.Status != domain.RentalStatusDelivered || r.DeliveryQC == nil {
		return nil, fmt.Errorf("rental is %s: %w", r.Status, domain.ErrQCNotApplicable)
	}

	c := r.Clone()
	now := e.timestamp(c)
	allOK := in.ItemsReceived && in.ConditionOK && in.SizeOK
	conditionOK := in.ConditionOK

	qc := *c.DeliveryQC
	qc.SubmittedAt = &now
	qc.ConditionOK = &conditionOK
	qc.IssueDescription = in.IssueDescription
	next := domain.RentalStatusInUse
	note := "Delivery confirmed by user"
	qc.Status = domain.QCStatusApproved
	if !allOK {
		next = domain.RentalStatusDisputed
		note = "User reported issue with delivery"
		qc.Status = domain.QCStatusIssueReported
	}
	c.DeliveryQC = &qc

	res := e.apply(c, next, TransitionOptions{Note: note})
	return &QCResult{Rental: res.Rental, NextStatus: next, SideEffects: res.SideEffects}, nil
}

// SubmitReturnQC records the curator's inspection of the returned outfit.
// No or minor damage completes the rental; major or total damage goes to
// dispute. Only an undamaged return refunds the deposit.
func (e *Engine) SubmitReturnQC(r *domain.Rental, in domain.ReturnQCInput) (*QCResult, error) {
	if !in.DamageLevel.Valid() {
		return nil, &domain.InputError{Field: "damage_level", Reason: fmt.Sprintf("unknown value %q", in.DamageLevel)}
	}
	if r.ReturnQC != nil && !r.ReturnQC.IsPending() {
		return nil, fmt.Errorf("return QC is %s: %w", r.ReturnQC.Status, domain.ErrQCAlreadySubmitted)
	}
	if r.Status != domain.RentalStatusReturnDelivered || r.ReturnQC == nil {
		return nil, fmt.Errorf("rental is %s: %w", r.Status, domain.ErrQCNotApplicable)
	}

	c := r.Clone()
	now := e.timestamp(c)
	conditionOK := in.ConditionOK
	refunded := in.DamageLevel == domain.DamageLevelNone

	qc := *c.ReturnQC
	qc.SubmittedAt = &now
	qc.ConditionOK = &conditionOK
	qc.IssueDescription = in.IssueDescription
	qc.DamageLevel = in.DamageLevel
	qc.DepositRefunded = &refunded
	if refunded {
		qc.DepositRefundedAt = &now
	}
	qc.Status = domain.QCStatusIssueReported
	if refunded && in.ConditionOK {
		qc.Status = domain.QCStatusApproved
	}
	c.ReturnQC = &qc

	var next domain.RentalStatus
	var note string
	switch in.DamageLevel {
	case domain.DamageLevelNone:
		next, note = domain.RentalStatusCompleted, "Return inspected by curator, no damage, deposit refunded"
	case domain.DamageLevelMinor:
		next, note = domain.RentalStatusCompleted, "Return inspected by curator, minor damage, deposit retained"
	default:
		next, note = domain.RentalStatusDisputed, fmt.Sprintf("Curator reported %s damage on return", in.DamageLevel)
	}

	res := e.apply(c, next, TransitionOptions{Note: note})
	return &QCResult{Rental: res.Rental, NextStatus: next, SideEffects: res.SideEffects}, nil
}

// AutoApproveQC closes a pending QC whose window has expired. A delivery
// advances to in_use; a return completes with the deposit refunded.
func (e *Engine) AutoApproveQC(r *domain.Rental) (*QCResult, error) {
	now := e.clock.Now()

	switch {
	case r.Status == domain.RentalStatusDelivered && r.DeliveryQC.IsPending():
		if now.Before(r.DeliveryQC.Deadline) {
			return nil, fmt.Errorf("delivery QC open until %s: %w", r.DeliveryQC.Deadline.Format(time.RFC3339), domain.ErrQCNotApplicable)
		}
		c := r.Clone()
		qc := *c.DeliveryQC
		qc.Status = domain.QCStatusAutoApproved
		c.DeliveryQC = &qc
		res := e.apply(c, domain.RentalStatusInUse, TransitionOptions{Note: "Delivery auto-approved after QC window expired"})
		return &QCResult{Rental: res.Rental, NextStatus: domain.RentalStatusInUse, SideEffects: res.SideEffects}, nil

	case r.Status == domain.RentalStatusReturnDelivered && r.ReturnQC.IsPending():
		if now.Before(r.ReturnQC.Deadline) {
			return nil, fmt.Errorf("return QC open until %s: %w", r.ReturnQC.Deadline.Format(time.RFC3339), domain.ErrQCNotApplicable)
		}
		c := r.Clone()
		ts := e.timestamp(c)
		refunded := true
		qc := *c.ReturnQC
		qc.Status = domain.QCStatusAutoApproved
		qc.DamageLevel = domain.DamageLevelNone
		qc.DepositRefunded = &refunded
		qc.DepositRefundedAt = &ts
		c.ReturnQC = &qc
		res := e.apply(c, domain.RentalStatusCompleted, TransitionOptions{Note: "Return auto-approved after QC window expired"})
		return &QCResult{Rental: res.Rental, NextStatus: domain.RentalStatusCompleted, SideEffects: res.SideEffects}, nil
	}

	return nil, fmt.Errorf("rental is %s with no pending QC: %w", r.Status, domain.ErrQCNotApplicable)
}

// ReportIssue forces the rental into dispute and records the report. It is
// not gated by the transition table unless issue reports are restricted.
func (e *Engine) ReportIssue(r *domain.Rental, in domain.IssueReportInput) (*domain.Rental, error) {
	switch {
	case in.ReporterID == "":
		return nil, &domain.InputError{Field: "reporter_id", Reason: "is required"}
	case in.ReporterType != domain.ReporterTypeUser && in.ReporterType != domain.ReporterTypeCurator:
		return nil, &domain.InputError{Field: "reporter_type", Reason: fmt.Sprintf("unknown value %q", in.ReporterType)}
	case strings.TrimSpace(in.Category) == "":
		return nil, &domain.InputError{Field: "category", Reason: "is required"}
	case strings.TrimSpace(in.Description) == "":
		return nil, &domain.InputError{Field: "description", Reason: "is required"}
	}
	if e.restrictIssueReports && !containsStatus(issueReportAllowList, r.Status) {
		return nil, fmt.Errorf("rental is %s: %w", r.Status, domain.ErrIssueReportNotAllowed)
	}

	c := r.Clone()
	now := e.timestamp(c)
	// An open dispute keeps its first report; later reports only go on the timeline.
	if c.Status == domain.RentalStatusDisputed && c.IssueReport != nil && c.IssueReport.ResolvedAt == nil {
		c.Timeline = append(c.Timeline, domain.TimelineEntry{
			Status:    domain.RentalStatusDisputed,
			Timestamp: now,
			Note:      fmt.Sprintf("Further issue reported by %s: %s (%s)", in.ReporterType, in.Category, in.Description),
		})
		c.UpdatedAt = now
		return c, nil
	}
	c.IssueReport = &domain.IssueReport{
		ReporterID:   in.ReporterID,
		ReporterType: in.ReporterType,
		Category:     in.Category,
		Description:  in.Description,
		ImageURLs:    append([]string(nil), in.ImageURLs...),
		ReportedAt:   now,
	}
	c.Timeline = append(c.Timeline, domain.TimelineEntry{
		Status:    domain.RentalStatusDisputed,
		Timestamp: now,
		Note:      fmt.Sprintf("Issue reported by %s: %s", in.ReporterType, in.Category),
	})
	c.Status = domain.RentalStatusDisputed
	c.UpdatedAt = now
	return c, nil
}

// ResolveIssue applies an administrator's decision to a disputed rental.
// The target status is not checked against the transition table.
func (e *Engine) ResolveIssue(r *domain.Rental, res domain.IssueResolution) (*TransitionResult, error) {
	if r.Status != domain.RentalStatusDisputed {
		return nil, fmt.Errorf("rental is %s: %w", r.Status, domain.ErrNotDisputed)
	}
	if !res.NewStatus.Valid() || res.NewStatus == domain.RentalStatusDisputed {
		return nil, &domain.InputError{Field: "status", Reason: fmt.Sprintf("cannot resolve to %q", res.NewStatus)}
	}
	if strings.TrimSpace(res.Note) == "" {
		return nil, &domain.InputError{Field: "note", Reason: "is required"}
	}
	if res.CuratorEarnings != nil {
		if res.CuratorEarnings.IsNegative() || res.CuratorEarnings.GreaterThan(r.Pricing.RentalFee) {
			return nil, &domain.InputError{Field: "curator_earnings", Reason: "must be between 0 and the rental fee"}
		}
	}

	c := r.Clone()
	if res.CuratorEarnings != nil {
		c.CuratorEarnings = *res.CuratorEarnings
	}
	out := e.apply(c, res.NewStatus, TransitionOptions{Note: res.Note})
	if out.Rental.IssueReport != nil {
		last, _ := out.Rental.LastEntry()
		resolvedAt := last.Timestamp
		out.Rental.IssueReport.ResolvedAt = &resolvedAt
		out.Rental.IssueReport.ResolutionNote = res.Note
	}
	return out, nil
}

// Annotate layers an administrative note over an existing timeline entry.
func (e *Engine) Annotate(r *domain.Rental, entryIndex int, note, authorID string) (*domain.Rental, error) {
	if entryIndex < 0 || entryIndex >= len(r.Timeline) {
		return nil, &domain.InputError{Field: "entry_index", Reason: fmt.Sprintf("out of range [0,%d)", len(r.Timeline))}
	}
	if strings.TrimSpace(note) == "" {
		return nil, &domain.InputError{Field: "note", Reason: "is required"}
	}
	if authorID == "" {
		return nil, &domain.InputError{Field: "author_id", Reason: "is required"}
	}

	c := r.Clone()
	now := e.clock.Now()
	c.Annotations = append(c.Annotations, domain.TimelineAnnotation{
		EntryIndex: entryIndex,
		Note:       note,
		AuthorID:   authorID,
		CreatedAt:  now,
	})
	c.UpdatedAt = now
	return c, nil
}

// apply performs an already-authorized move on c, which the caller owns.
func (e *Engine) apply(c *domain.Rental, next domain.RentalStatus, opts TransitionOptions) *TransitionResult {
	prior := c.Timeline
	now := e.timestamp(c)

	c.Timeline = append(c.Timeline, domain.TimelineEntry{
		Status:    next,
		Timestamp: now,
		Note:      opts.Note,
		Link:      opts.Link,
	})
	c.Status = next
	c.UpdatedAt = now

	switch next {
	case domain.RentalStatusDelivered:
		if !c.DeliveryQC.IsPending() {
			c.DeliveryQC = &domain.DeliveryQC{Status: domain.QCStatusPending, Deadline: now.Add(e.qcWindow)}
		}
	case domain.RentalStatusReturnDelivered:
		if !c.ReturnQC.IsPending() {
			c.ReturnQC = &domain.ReturnQC{Status: domain.QCStatusPending, Deadline: now.Add(e.qcWindow)}
		}
	}

	if opts.Payment != nil && c.Payment == nil {
		p := *opts.Payment
		c.Payment = &p
	}

	return &TransitionResult{Rental: c, SideEffects: e.sideEffects(c, prior, next)}
}

// sideEffects derives intents from the move into next, given the timeline
// as it was before the move. Dates are held from the first time the rental
// is paid until the first time it is cancelled or rejected; stats accrue on
// the first completion only.
func (e *Engine) sideEffects(c *domain.Rental, prior []domain.TimelineEntry, next domain.RentalStatus) []domain.SideEffect {
	var effects []domain.SideEffect

	wasPaid := reached(prior, domain.RentalStatusPaid)
	wasReleased := reached(prior, domain.RentalStatusCancelled, domain.RentalStatusRejected)

	switch next {
	case domain.RentalStatusPaid:
		if !wasPaid {
			effects = append(effects, domain.BlockDates{OutfitID: c.OutfitID, Dates: e.DatesToBlock(c)})
		}
	case domain.RentalStatusCancelled, domain.RentalStatusRejected:
		if wasPaid && !wasReleased {
			effects = append(effects, domain.UnblockDates{OutfitID: c.OutfitID, Dates: e.DatesToBlock(c)})
		}
	case domain.RentalStatusCompleted:
		if !reached(prior, domain.RentalStatusCompleted) {
			effects = append(effects,
				domain.IncrementOutfitStats{OutfitID: c.OutfitID, RentalsCount: 1},
				domain.IncrementClosetStats{CuratorID: c.CuratorID, RentalsCount: 1, Earnings: c.CuratorEarnings},
			)
		}
	}
	return effects
}

// timestamp reads the clock, never going behind the latest timeline entry.
func (e *Engine) timestamp(r *domain.Rental) time.Time {
	now := e.clock.Now()
	if last, ok := r.LastEntry(); ok && now.Before(last.Timestamp) {
		return last.Timestamp
	}
	return now
}

func reached(timeline []domain.TimelineEntry, statuses ...domain.RentalStatus) bool {
	for _, entry := range timeline {
		if containsStatus(statuses, entry.Status) {
			return true
		}
	}
	return false
}

func containsStatus(list []domain.RentalStatus, s domain.RentalStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
