package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

type OrderHandler struct {
	service ports.OrderService
	replay  replayGuard
}

func NewOrderHandler(service ports.OrderService, idem ports.IdempotencyStore, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		replay:  replayGuard{store: idem, resource: domain.ResourceOrder, log: log},
	}
}

// List returns all orders sorted by label.
//
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   orderResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponses(orders))
}

// Get returns a single order.
//
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  orderResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	order, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// Create registers a new order for an existing customer.
//
// @Summary      Create order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string        false  "Client-supplied replay key"
// @Param        body             body      orderRequest  true   "Order"
// @Success      201              {object}  orderResponse
// @Failure      400              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	var req orderRequest
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
		return c.JSON(http.StatusOK, toOrderResponse(existing))
	}

	order, err := h.service.Create(ctx, req.toDomain(0))
	if err != nil {
		cl.settle(ctx, 0, err)
		return err
	}
	cl.settle(ctx, order.ID, nil)
	return created(c, "orders", order.ID, toOrderResponse(order))
}

// Update replaces every field of an existing order.
//
// @Summary      Update order
// @Tags         orders
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int           true  "Order ID"
// @Param        body  body  orderRequest  true  "Order"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/orders/{id} [put]
func (h *OrderHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req orderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.Update(c.Request().Context(), req.toDomain(id)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// PatchLabel replaces the label only.
//
// @Summary      Patch order label
// @Tags         orders
// @Security     BearerAuth
// @Param        id     path   int     true  "Order ID"
// @Param        label  query  string  true  "New label"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/orders/{id} [patch]
func (h *OrderHandler) PatchLabel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	label := strings.TrimSpace(c.QueryParam("label"))
	if label == "" {
		return fmt.Errorf("%w: label is required", domain.ErrInvalidInput)
	}
	if err := h.service.PatchLabel(c.Request().Context(), id, label); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes an order.
//
// @Summary      Delete order
// @Tags         orders
// @Security     BearerAuth
// @Param        id  path  int  true  "Order ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/orders/{id} [delete]
func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
