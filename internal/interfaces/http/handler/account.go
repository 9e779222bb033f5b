package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/dvd/backend/internal/application/crawlaccount"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/dvd/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// AccountService manages crawl accounts for AccountHandler
type AccountService interface {
	List(ctx context.Context, filter crawlaccount.AccountListFilter) (*shared.Paginated[crawlaccount.AccountResponse], error)
	Get(ctx context.Context, id int64) (*crawlaccount.AccountResponse, error)
	Create(ctx context.Context, req crawlaccount.CreateAccountRequest) (*crawlaccount.AccountResponse, error)
	Update(ctx context.Context, id int64, req crawlaccount.UpdateAccountRequest) (*crawlaccount.AccountResponse, error)
	Delete(ctx context.Context, ids []int64) error
}

// AccountHandler handles crawl account endpoints
type AccountHandler struct {
	BaseHandler
	service AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// List godoc
// @ID           listAccounts
// @Summary      List crawl accounts
// @Description  Returns a page of crawl accounts
// @Tags         account
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        platformId query int false "Platform id"
// @Param        productId query int false "Product id"
// @Param        account query string false "Account name"
// @Param        status query int false "Status" Enums(1, 2, 3)
// @Success      200 {object} dto.Response{data=[]crawlaccount.AccountResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/account [get]
func (h *AccountHandler) List(c *gin.Context) {
	var filter crawlaccount.AccountListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getAccountByID
// @Summary      Get a crawl account
// @Description  Returns one crawl account
// @Tags         account
// @Produce      json
// @Param        id path int true "Account id"
// @Success      200 {object} dto.Response{data=crawlaccount.AccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/account/{id} [get]
func (h *AccountHandler) GetByID(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	account, err := h.service.Get(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Create godoc
// @ID           createAccount
// @Summary      Create a crawl account
// @Description  Registers a crawl account for a platform and product
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        request body crawlaccount.CreateAccountRequest true "Account"
// @Success      201 {object} dto.Response{data=crawlaccount.AccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/account [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req crawlaccount.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	account, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Update godoc
// @ID           updateAccount
// @Summary      Update a crawl account
// @Description  Changes an account's identity or credentials
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        id path int true "Account id"
// @Param        request body crawlaccount.UpdateAccountRequest true "Changes"
// @Success      200 {object} dto.Response{data=crawlaccount.AccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/account/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var req crawlaccount.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	account, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Delete godoc
// @ID           deleteAccounts
// @Summary      Delete crawl accounts
// @Description  Removes one or more accounts given as comma-separated ids
// @Tags         account
// @Produce      json
// @Param        ids path string true "Comma-separated account ids"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dvd/account/{ids} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	ids, err := parseIDList(c.Param("ids"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), ids); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nil)
}

// parseIDList parses "1,2,3" into positive ids
func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, shared.ErrInvalidInput.WithMessage("invalid id: " + part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("at least one id is required")
	}
	return ids, nil
}
