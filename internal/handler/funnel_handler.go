package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/internal/funnel"
	"github.com/locvowork/offer_funnel/internal/logger"
	"github.com/locvowork/offer_funnel/internal/service"
	"github.com/locvowork/offer_funnel/internal/service/serviceutils"
	"github.com/locvowork/offer_funnel/internal/workbook"
)

const workbookField = "workbook"

// FunnelService is what the handler needs from the service layer.
type FunnelService interface {
	RunUpload(ctx context.Context, name string, r io.Reader) (domain.RunResult, error)
	Load(ctx context.Context, result domain.RunResult) error
	ListOffers(ctx context.Context, filter domain.OfferFilter) ([]domain.Offer, error)
	SearchOffers(ctx context.Context, text string, size int) ([]domain.Offer, error)
	GetOffer(ctx context.Context, salesPerson string, slNumber int) (*domain.Offer, error)
	RunLedger(ctx context.Context, runID, salesPerson string) ([]domain.LedgerEntry, error)
}

type FunnelHandler struct {
	svc FunnelService
}

func NewFunnelHandler(svc FunnelService) *FunnelHandler {
	return &FunnelHandler{svc: svc}
}

// runUpload decodes the multipart workbook and runs it. On failure the
// error response has already been written and the returned error is the
// handler's result.
func (h *FunnelHandler) runUpload(c echo.Context) (domain.RunResult, bool, error) {
	fh, err := c.FormFile(workbookField)
	if err != nil {
		return domain.RunResult{}, false, serviceutils.ResponseError(c, http.StatusBadRequest, "Missing workbook upload", err)
	}
	f, err := fh.Open()
	if err != nil {
		return domain.RunResult{}, false, serviceutils.ResponseError(c, http.StatusBadRequest, "Failed to read workbook upload", err)
	}
	defer f.Close()

	ctx := logger.WithLogger(c.Request().Context(), map[string]interface{}{"upload": fh.Filename})
	result, err := h.svc.RunUpload(ctx, fh.Filename, f)
	if err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, workbook.ErrUnsupportedFormat):
			status = http.StatusBadRequest
		case errors.Is(err, funnel.ErrRunAborted):
			status = http.StatusServiceUnavailable
		}
		return domain.RunResult{}, false, serviceutils.ResponseError(c, status, "Failed to process workbook", err)
	}
	return result, true, nil
}

// RunHandler handles POST /runs
func (h *FunnelHandler) RunHandler(c echo.Context) error {
	result, ok, err := h.runUpload(c)
	if !ok {
		return err
	}

	if persist, _ := strconv.ParseBool(c.QueryParam("persist")); persist {
		if err := h.svc.Load(c.Request().Context(), result); err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, service.ErrNoSinks) {
				status = http.StatusServiceUnavailable
			}
			return serviceutils.ResponseError(c, status, "Run completed but could not be stored", err)
		}
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Run completed successfully", result)
}

// LedgerReportHandler handles POST /runs/ledger-report
func (h *FunnelHandler) LedgerReportHandler(c echo.Context) error {
	result, ok, err := h.runUpload(c)
	if !ok {
		return err
	}

	var buf bytes.Buffer
	if c.QueryParam("view") == "reconciliation" {
		err = funnel.WriteReconciliation(&buf, result)
	} else {
		err = funnel.WriteLedgerReport(&buf, result.Report)
	}
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to render report", err)
	}
	return c.String(http.StatusOK, buf.String())
}

// ListOffersHandler handles GET /offers
func (h *FunnelHandler) ListOffersHandler(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	filter := domain.OfferFilter{
		Limit:  limit,
		Offset: offset,
	}
	if st := c.QueryParam("status"); st != "" {
		status, err := domain.ParseStatus(st)
		if err != nil {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid status", err)
		}
		filter.Status = status
	}
	if z := c.QueryParam("zone"); z != "" {
		zone, err := domain.ParseZone(z)
		if err != nil {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid zone", err)
		}
		filter.Zone = zone
	}

	offers, err := h.svc.ListOffers(c.Request().Context(), filter)
	if err != nil {
		return serviceutils.ResponseError(c, sinkStatus(err), "Failed to list offers", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Offers listed successfully", offers)
}

// SearchOffersHandler handles GET /offers/search
func (h *FunnelHandler) SearchOffersHandler(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Query parameter q is required", nil)
	}
	size, _ := strconv.Atoi(c.QueryParam("size"))

	offers, err := h.svc.SearchOffers(c.Request().Context(), q, size)
	if err != nil {
		return serviceutils.ResponseError(c, sinkStatus(err), "Failed to search offers", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Offers found", offers)
}

// GetOfferHandler handles GET /offers/:salesPerson/:sl
func (h *FunnelHandler) GetOfferHandler(c echo.Context) error {
	sl, err := strconv.Atoi(c.Param("sl"))
	if err != nil || sl <= 0 {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid SL number", err)
	}

	offer, err := h.svc.GetOffer(c.Request().Context(), c.Param("salesPerson"), sl)
	if err != nil {
		return serviceutils.ResponseError(c, sinkStatus(err), "Failed to get offer", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Offer found", offer)
}

// RunLedgerHandler handles GET /runs/:id/ledgers/:salesPerson
func (h *FunnelHandler) RunLedgerHandler(c echo.Context) error {
	entries, err := h.svc.RunLedger(c.Request().Context(), c.Param("id"), c.Param("salesPerson"))
	if err != nil {
		return serviceutils.ResponseError(c, sinkStatus(err), "Failed to read run ledger", err)
	}
	if len(entries) == 0 {
		return serviceutils.ResponseError(c, http.StatusNotFound, "No ledger stored for this run and salesperson", nil)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Run ledger found", entries)
}

// HealthHandler handles GET /healthz
func (h *FunnelHandler) HealthHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "ok", nil)
}

func sinkStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrSinkUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
