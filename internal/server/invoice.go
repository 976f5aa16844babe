package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/teamdesk/internal/invoice/domain"
)

type createInvoiceRequest struct {
	Number      string    `json:"number"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	IssueDate   time.Time `json:"issue_date"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`
}

type updateInvoiceRequest struct {
	ClientName  *string    `json:"client_name"`
	ClientEmail *string    `json:"client_email"`
	IssueDate   *time.Time `json:"issue_date"`
	DueDate     *time.Time `json:"due_date"`
	Status      *string    `json:"status"`
}

type invoiceItemRequest struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	userID, _ := userIDFrom(c)

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), userID, invoicedomain.CreateInvoiceRequest{
		Number:      req.Number,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		IssueDate:   req.IssueDate,
		DueDate:     req.DueDate,
		Status:      req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

func (s *Server) GetInvoice(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) ListInvoices(c *gin.Context) {
	invoices, err := s.invoiceSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	userID, _ := userIDFrom(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.Update(c.Request.Context(), userID, id, invoicedomain.UpdateInvoiceRequest{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		IssueDate:   req.IssueDate,
		DueDate:     req.DueDate,
		Status:      req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	userID, _ := userIDFrom(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.invoiceSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) AddInvoiceItem(c *gin.Context) {
	userID, _ := userIDFrom(c)

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req, err := bindItemRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.AddItem(c.Request.Context(), userID, invoiceID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (s *Server) UpdateInvoiceItem(c *gin.Context) {
	userID, _ := userIDFrom(c)

	itemID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req, err := bindItemRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.UpdateItem(c.Request.Context(), userID, itemID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) RemoveInvoiceItem(c *gin.Context) {
	userID, _ := userIDFrom(c)

	itemID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.invoiceSvc.RemoveItem(c.Request.Context(), userID, itemID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListInvoiceItems(c *gin.Context) {
	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.invoiceSvc.ListItems(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func bindItemRequest(c *gin.Context) (invoicedomain.ItemRequest, error) {
	var req invoiceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return invoicedomain.ItemRequest{}, invalidRequestError()
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return invoicedomain.ItemRequest{}, newValidationError("unit_price", "invalid_unit_price", "invalid decimal amount")
	}

	return invoicedomain.ItemRequest{
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   unitPrice,
	}, nil
}
