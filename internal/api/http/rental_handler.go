package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/lifecycle"
	"closet-rental-backend/internal/security"
	"closet-rental-backend/internal/service"
)

type quoteRequest struct {
	PerNightPrice decimal.Decimal `json:"perNightPrice"`
	Nights        int             `json:"nights" validate:"min=1"`
}

type createRentalRequest struct {
	OutfitID  string `json:"outfitId" validate:"required"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

type paymentRequest struct {
	PaymentID string          `json:"paymentId" validate:"required"`
	Provider  string          `json:"provider" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    *time.Time      `json:"paidAt"`
}

type updateStatusRequest struct {
	Status  string          `json:"status" validate:"required"`
	Note    string          `json:"note" validate:"max=2000"`
	Link    string          `json:"link" validate:"omitempty,url"`
	Payment *paymentRequest `json:"payment"`
}

type deliveryQCRequest struct {
	ItemsReceived    bool   `json:"itemsReceived"`
	ConditionOK      bool   `json:"conditionOk"`
	SizeOK           bool   `json:"sizeOk"`
	IssueDescription string `json:"issueDescription" validate:"max=2000"`
}

type returnQCRequest struct {
	ConditionOK      bool   `json:"conditionOk"`
	DamageLevel      string `json:"damageLevel" validate:"required"`
	IssueDescription string `json:"issueDescription" validate:"max=2000"`
}

type issueRequest struct {
	ReporterType string   `json:"reporterType" validate:"required,oneof=user curator"`
	Category     string   `json:"category" validate:"required"`
	Description  string   `json:"description" validate:"required,max=2000"`
	ImageURLs    []string `json:"imageUrls" validate:"dive,url"`
}

type resolutionRequest struct {
	Status          string           `json:"status" validate:"required"`
	Note            string           `json:"note" validate:"required,max=2000"`
	CuratorEarnings *decimal.Decimal `json:"curatorEarnings"`
}

type annotationRequest struct {
	EntryIndex *int   `json:"entryIndex" validate:"required,min=0"`
	Note       string `json:"note" validate:"required,max=2000"`
}

type listResponse struct {
	Rentals  []domain.Rental `json:"rentals"`
	Total    int32           `json:"total"`
	Page     int32           `json:"page"`
	PageSize int32           `json:"pageSize"`
}

// RentalHandler exposes the rental service over JSON.
type RentalHandler struct {
	svc       service.RentalService
	validator *validator.Validate
	now       func() time.Time
}

func NewRentalHandler(svc service.RentalService) *RentalHandler {
	return &RentalHandler{
		svc:       svc,
		validator: validator.New(),
		now:       time.Now,
	}
}

func (h *RentalHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

// Statuses returns the status display catalog.
func (h *RentalHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	respondOK(w, domain.StatusCatalog())
}

func (h *RentalHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	snapshot, err := h.svc.Quote(req.PerNightPrice, req.Nights)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondOK(w, snapshot)
}

func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	var req createRentalRequest
	if !h.decode(w, r, &req) {
		return
	}
	rental, err := h.svc.CreateRental(r.Context(), service.CreateRentalInput{
		OutfitID:     req.OutfitID,
		RenterUserID: claims.UserID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondCreated(w, rental)
}

func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	q := r.URL.Query()

	var asCurator bool
	switch q.Get("role") {
	case "", "renter":
	case "curator":
		asCurator = true
	default:
		respondError(w, http.StatusBadRequest, "role must be renter or curator", nil)
		return
	}

	page, err1 := queryInt32(q.Get("page"))
	pageSize, err2 := queryInt32(q.Get("pageSize"))
	if err := errors.Join(err1, err2); err != nil {
		respondError(w, http.StatusBadRequest, "invalid paging parameters", err)
		return
	}
	page, pageSize = service.NormalizePage(page, pageSize)

	rentals, total, err := h.svc.ListRentals(r.Context(), claims.UserID, asCurator, domain.RentalStatus(q.Get("status")), page, pageSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondOK(w, listResponse{Rentals: rentals, Total: total, Page: page, PageSize: pageSize})
}

func queryInt32(v string) (int32, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	return int32(n), nil
}

func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	rental, ok := h.loadForParticipant(w, r)
	if !ok {
		return
	}
	respondOK(w, rental)
}

func (h *RentalHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loadForParticipant(w, r); !ok {
		return
	}
	var req updateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	opts := lifecycle.TransitionOptions{Note: req.Note, Link: req.Link}
	if req.Payment != nil {
		paidAt := h.now().UTC()
		if req.Payment.PaidAt != nil {
			paidAt = req.Payment.PaidAt.UTC()
		}
		opts.Payment = &domain.PaymentDetails{
			PaymentID: req.Payment.PaymentID,
			Provider:  req.Payment.Provider,
			Amount:    req.Payment.Amount,
			PaidAt:    paidAt,
		}
	}

	rental, err := h.svc.UpdateStatus(r.Context(), mux.Vars(r)["id"], domain.RentalStatus(req.Status), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondOK(w, rental)
}

func (h *RentalHandler) SubmitDeliveryQC(w http.ResponseWriter, r *http.Request) {
	rental, ok := h.loadForParticipant(w, r)
	if !ok {
		return
	}
	if !h.actsAs(r, rental, domain.ReporterTypeUser) {
		respondError(w, http.StatusForbidden, "only the renter can inspect a delivery", nil)
		return
	}
	var req deliveryQCRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.SubmitDeliveryQC(r.Context(), rental.ID, domain.DeliveryQCInput{
		ItemsReceived:    req.ItemsReceived,
		ConditionOK:      req.ConditionOK,
		SizeOK:           req.SizeOK,
		IssueDescription: req.IssueDescription,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondOK(w, updated)
}

func (h *RentalHandler) SubmitReturnQC(w http.ResponseWriter, r *http.Request) {
	rental, ok := h.loadForParticipant(w, r)
	if !ok {
		return
	}
	if !h.actsAs(r, rental, domain.ReporterTypeCurator) {
		respondError(w, http.StatusForbidden, "only the curator can inspect a return", nil)
		return
	}
	var req returnQCRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.SubmitReturnQC(r.Context(), rental.ID, domain.ReturnQCInput{
		ConditionOK:      req.ConditionOK,
		DamageLevel:      domain.DamageLevel(req.DamageLevel),
		IssueDescription: req.IssueDescription,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondOK(w, updated)
}

func (h *RentalHandler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	rental, ok := h.loadForParticipant(w, r)
	if !ok {
		return
	}
	var req issueRequest
	if !h.decode(w, r, &req) {
		return
	}
	reporterType := domain.ReporterType(req.ReporterType)
	if !h.actsAs(r, rental, reporterType) {
		respondError(w, http.StatusForbidden, fmt.Sprintf("caller cannot report as %s", reporterType), nil)
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	updated, err := h.svc.ReportIssue(r.Context(), rental.ID, domain.IssueReportInput{
		ReporterID:   claims.UserID,
		ReporterType: reporterType,
		Category:     req.Category,
		Description:  req.Description,
		ImageURLs:    req.ImageURLs,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondOK(w, updated)
}

func (h *RentalHandler) ResolveIssue(w http.ResponseWriter, r *http.Request) {
	var req resolutionRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.ResolveIssue(r.Context(), mux.Vars(r)["id"], domain.IssueResolution{
		NewStatus:       domain.RentalStatus(req.Status),
		Note:            req.Note,
		CuratorEarnings: req.CuratorEarnings,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondOK(w, updated)
}

func (h *RentalHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	var req annotationRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.Annotate(r.Context(), mux.Vars(r)["id"], *req.EntryIndex, req.Note, claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondCreated(w, updated)
}

func (h *RentalHandler) ClosetStats(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	curatorID := mux.Vars(r)["curatorId"]
	if claims.UserID != curatorID && !claims.IsAdmin() {
		respondError(w, http.StatusForbidden, "not your closet", nil)
		return
	}
	stats, err := h.svc.ClosetStats(r.Context(), curatorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondOK(w, stats)
}

// loadForParticipant fetches the rental named in the path and rejects
// callers who are neither party to it nor an admin.
func (h *RentalHandler) loadForParticipant(w http.ResponseWriter, r *http.Request) (*domain.Rental, bool) {
	claims, _ := ClaimsFromContext(r.Context())
	rental, err := h.svc.GetRental(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return nil, false
	}
	if !isParticipant(claims, rental) {
		respondError(w, http.StatusForbidden, "not a participant in this rental", domain.ErrUnauthorized)
		return nil, false
	}
	return rental, true
}

func isParticipant(claims *security.UserClaims, rental *domain.Rental) bool {
	return claims.IsAdmin() ||
		claims.UserID == rental.RenterUserID ||
		claims.UserID == rental.CuratorID
}

// actsAs reports whether the caller may act as the given party.
func (h *RentalHandler) actsAs(r *http.Request, rental *domain.Rental, party domain.ReporterType) bool {
	claims, _ := ClaimsFromContext(r.Context())
	if claims.IsAdmin() {
		return true
	}
	switch party {
	case domain.ReporterTypeUser:
		return claims.UserID == rental.RenterUserID
	case domain.ReporterTypeCurator:
		return claims.UserID == rental.CuratorID
	}
	return false
}
