package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

type CustomerHandler struct {
	service ports.CustomerService
	orders  ports.OrderService
	replay  replayGuard
}

func NewCustomerHandler(
	service ports.CustomerService,
	orders ports.OrderService,
	idem ports.IdempotencyStore,
	log zerolog.Logger,
) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		orders:  orders,
		replay:  replayGuard{store: idem, resource: domain.ResourceCustomer, log: log},
	}
}

// List returns all customers sorted by last name.
//
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Success      200  {array}   customerResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	customers, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponses(customers))
}

// Get returns a single customer.
//
// @Summary      Get customer
// @Tags         customers
// @Produce      json
// @Param        id   path      int  true  "Customer ID"
// @Success      200  {object}  customerResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/customers/{id} [get]
func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	customer, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(customer))
}

// ListOrders returns the orders of one customer.
//
// @Summary      List a customer's orders
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Customer ID"
// @Success      200  {array}   orderResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/customers/{id}/orders [get]
func (h *CustomerHandler) ListOrders(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	orders, err := h.orders.GetByCustomer(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponses(orders))
}

// Create registers a new customer. A repeated Idempotency-Key returns the
// customer created by the first request.
//
// @Summary      Create customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string           false  "Client-supplied replay key"
// @Param        body             body      customerRequest  true   "Customer"
// @Success      201              {object}  customerResponse
// @Success      200              {object}  customerResponse  "Replayed"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	var req customerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cl, err := h.replay.reserve(c, &req)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if cl.replayID != 0 {
		existing, err := h.service.GetByID(ctx, cl.replayID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toCustomerResponse(existing))
	}

	customer, err := h.service.Create(ctx, req.toDomain(0))
	if err != nil {
		cl.settle(ctx, 0, err)
		return err
	}
	cl.settle(ctx, customer.ID, nil)
	return created(c, "customers", customer.ID, toCustomerResponse(customer))
}

// Update replaces every field of an existing customer.
//
// @Summary      Update customer
// @Tags         customers
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int              true  "Customer ID"
// @Param        body  body  customerRequest  true  "Customer"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/customers/{id} [put]
func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req customerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.Update(c.Request().Context(), req.toDomain(id)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// PatchStatus toggles the active flag.
//
// @Summary      Patch customer status
// @Tags         customers
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int                    true  "Customer ID"
// @Param        body  body  customerStatusRequest  true  "Status"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/customers/{id} [patch]
func (h *CustomerHandler) PatchStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req customerStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.PatchStatus(c.Request().Context(), id, *req.Active); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a customer without orders.
//
// @Summary      Delete customer
// @Tags         customers
// @Security     BearerAuth
// @Param        id  path  int  true  "Customer ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
