package handler

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dafteam/facturation-api/internal/application/service"
	"github.com/dafteam/facturation-api/internal/config"
	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/internal/domain/repository"
	"github.com/dafteam/facturation-api/internal/presentation/http/dto/request"
	"github.com/dafteam/facturation-api/internal/presentation/http/dto/response"
	"github.com/dafteam/facturation-api/pkg/apperror"
	"github.com/dafteam/facturation-api/pkg/pagination"
)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	storage        config.StorageConfig
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService, storage config.StorageConfig) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, storage: storage}
}

// Create handles invoice creation
// @Summary Create invoice
// @Description Create a new invoice draft
// @Tags invoices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.InvoiceRequest true "Invoice data"
// @Success 201 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	input, err := req.ToDraftInput()
	if err != nil {
		response.Error(c, err)
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), input, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice created successfully", invoice)
}

// Update handles invoice draft modification
// @Summary Update invoice
// @Description Update an invoice still in SAISIE
// @Tags invoices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body request.InvoiceRequest true "Invoice data"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req request.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	input, err := req.ToDraftInput()
	if err != nil {
		response.Error(c, err)
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice updated successfully", invoice)
}

// Delete handles invoice draft deletion
// @Summary Delete invoice
// @Description Delete an invoice still in SAISIE
// @Tags invoices
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice deleted successfully", nil)
}

// Get handles fetching one invoice
// @Summary Get invoice
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", invoice)
}

// GetByNumber handles fetching one invoice by business number
// @Summary Get invoice by number
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param number path string true "Invoice number"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /invoices/number/{number} [get]
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	invoice, err := h.invoiceService.GetInvoiceByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", invoice)
}

// List handles listing invoices with filters
// @Summary List invoices
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param search query string false "Search term"
// @Param status query string false "Status filter"
// @Success 200 {object} response.APIResponse
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var req request.InvoiceFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	paginationParams := &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage}
	paginationParams.Validate()

	params := &repository.InvoiceFilterParams{
		Pagination:   paginationParams,
		Search:       req.Search,
		SupplierName: req.Supplier,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
	}
	if req.Status != "" {
		status := enum.InvoiceStatus(req.Status)
		if !status.IsValid() {
			response.BadRequest(c, "Unknown status")
			return
		}
		params.Status = &status
	}
	if req.CreatorID != 0 {
		params.CreatorID = &req.CreatorID
	}
	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			response.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		params.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			response.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		params.EndDate = &end
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := pagination.NewPaginatedResult(invoices,
		pagination.NewPagination(paginationParams.Page, paginationParams.PerPage, total))
	response.SuccessWithPagination(c, 200, "Invoices retrieved successfully", result)
}

// Pending handles fetching the caller's work queue
// @Summary Pending invoices
// @Description List the invoices awaiting action by the caller, per role
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /invoices/pending [get]
func (h *InvoiceHandler) Pending(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	invoices, err := h.invoiceService.ListPendingForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Pending invoices retrieved successfully", invoices)
}

// Urgent handles listing unpaid invoices due within 7 days
// @Summary Urgent invoices
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /invoices/urgent [get]
func (h *InvoiceHandler) Urgent(c *gin.Context) {
	invoices, err := h.invoiceService.ListUrgent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Urgent invoices retrieved successfully", invoices)
}

// Overdue handles listing unpaid invoices past their due date
// @Summary Overdue invoices
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /invoices/overdue [get]
func (h *InvoiceHandler) Overdue(c *gin.Context) {
	invoices, err := h.invoiceService.ListOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Overdue invoices retrieved successfully", invoices)
}

// Traces handles fetching the audit trail of one invoice
// @Summary Invoice traces
// @Description List the validation traces of one invoice, oldest first
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Router /invoices/{id}/traces [get]
func (h *InvoiceHandler) Traces(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	traces, err := h.invoiceService.GetTraces(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Traces retrieved successfully", traces)
}

// Submit handles submission of a draft into level-1 validation
// @Summary Submit invoice
// @Tags workflow
// @Security BearerAuth
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/submit [post]
func (h *InvoiceHandler) Submit(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.Submit(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice submitted for validation", invoice)
}

// ApproveV1 handles level-1 approval
// @Summary Approve at level 1
// @Tags workflow
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body request.ValidationRequest false "Optional comment"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/validate-v1 [post]
func (h *InvoiceHandler) ApproveV1(c *gin.Context) {
	h.validate(c, h.invoiceService.ApproveV1)
}

// RejectV1 handles level-1 rejection
// @Summary Reject at level 1
// @Tags workflow
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body request.RejectionRequest true "Rejection reason"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/reject-v1 [post]
func (h *InvoiceHandler) RejectV1(c *gin.Context) {
	h.reject(c, h.invoiceService.RejectV1)
}

// ApproveV2 handles level-2 approval
// @Summary Approve at level 2
// @Tags workflow
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body request.ValidationRequest false "Optional comment"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/validate-v2 [post]
func (h *InvoiceHandler) ApproveV2(c *gin.Context) {
	h.validate(c, h.invoiceService.ApproveV2)
}

// RejectV2 handles level-2 rejection
// @Summary Reject at level 2
// @Tags workflow
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body request.RejectionRequest true "Rejection reason"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/reject-v2 [post]
func (h *InvoiceHandler) RejectV2(c *gin.Context) {
	h.reject(c, h.invoiceService.RejectV2)
}

// Pay handles treasury processing
// @Summary Pay invoice
// @Tags workflow
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body request.PayRequest true "Payment data"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/pay [post]
func (h *InvoiceHandler) Pay(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req request.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	input, err := req.ToPayInput()
	if err != nil {
		response.Error(c, err)
		return
	}

	invoice, err := h.invoiceService.Pay(c.Request.Context(), id, userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice paid successfully", invoice)
}

// UploadAttachment handles uploading the invoice document
// @Summary Upload attachment
// @Description Attach the scanned invoice document to a draft
// @Tags invoices
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Invoice ID"
// @Param file formData file true "Invoice document"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /invoices/{id}/attachment [post]
func (h *InvoiceHandler) UploadAttachment(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Missing file field")
		return
	}
	if file.Size > h.storage.UploadMaxSize {
		response.Error(c, apperror.NewValidationError("File exceeds the maximum upload size"))
		return
	}

	name := filepath.Base(file.Filename)
	stored := filepath.Join(h.storage.Path, "invoices", uuid.New().String()+filepath.Ext(name))
	if err := os.MkdirAll(filepath.Dir(stored), 0o755); err != nil {
		response.InternalServerError(c, "Could not store file")
		return
	}
	if err := c.SaveUploadedFile(file, stored); err != nil {
		response.InternalServerError(c, "Could not store file")
		return
	}

	invoice, err := h.invoiceService.SetAttachment(c.Request.Context(), id, userID, &service.AttachmentInput{
		Name: name,
		Path: stored,
		Mime: file.Header.Get("Content-Type"),
		Size: file.Size,
	})
	if err != nil {
		// Don't keep the orphan file when the service refuses the attachment
		_ = os.Remove(stored)
		response.Error(c, err)
		return
	}

	response.OK(c, "Attachment uploaded successfully", invoice)
}

// DownloadAttachment handles downloading the invoice document
// @Summary Download attachment
// @Tags invoices
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.APIResponse
// @Router /invoices/{id}/attachment [get]
func (h *InvoiceHandler) DownloadAttachment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if invoice.AttachmentPath == nil || invoice.AttachmentName == nil {
		response.NotFound(c, "Invoice has no attachment")
		return
	}

	c.FileAttachment(*invoice.AttachmentPath, *invoice.AttachmentName)
}

type validationAction func(ctx context.Context, invoiceID, callerID uint, comment string) (*entity.Invoice, error)

func (h *InvoiceHandler) validate(c *gin.Context, action validationAction) {
	userID, ok := GetUserID(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req request.ValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "Invalid request body")
		return
	}

	invoice, err := action(c.Request.Context(), id, userID, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice validated successfully", invoice)
}

func (h *InvoiceHandler) reject(c *gin.Context, action validationAction) {
	userID, ok := GetUserID(c)
	if !ok {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req request.RejectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	invoice, err := action(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice rejected", invoice)
}
