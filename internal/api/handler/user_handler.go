package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
	replay  replayGuard
}

func NewUserHandler(service ports.UserService, idem ports.IdempotencyStore, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		replay:  replayGuard{store: idem, resource: domain.ResourceUser, log: log},
	}
}

// List returns all users sorted by username.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Get returns a single user.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// GetByUsername looks a user up by name.
//
// @Summary      Get user by username
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  userResponse
// @Failure      404       {object}  errorResponse
// @Router       /v1/users/username/{username} [get]
func (h *UserHandler) GetByUsername(c echo.Context) error {
	user, found, err := h.service.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrUserNotFound
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Lookup returns the user matching a username/password pair.
//
// @Summary      Get user by credentials
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  query     string  true  "Username"
// @Param        password  query     string  true  "Password"
// @Success      200       {object}  userResponse
// @Failure      404       {object}  errorResponse
// @Router       /v1/users/login [get]
func (h *UserHandler) Lookup(c echo.Context) error {
	username, password := c.QueryParam("username"), c.QueryParam("password")
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	user, err := h.service.GetByUsernameAndPassword(c.Request().Context(), username, password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Create registers a new account.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Client-supplied replay key"
// @Param        body             body      createUserRequest  true   "User"
// @Success      201              {object}  userResponse
// @Failure      400              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
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
		return c.JSON(http.StatusOK, toUserResponse(existing))
	}

	user, err := h.service.Create(ctx, req.toDomain(), req.Password)
	if err != nil {
		cl.settle(ctx, 0, err)
		return err
	}
	cl.settle(ctx, user.ID, nil)
	return created(c, "users", user.ID, toUserResponse(user))
}

// Update replaces username, password and mail. Roles are left untouched.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int                true  "User ID"
// @Param        body  body  updateUserRequest  true  "User"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	u := &domain.User{ID: id, Username: req.Username, Mail: req.Mail}
	if err := h.service.Update(c.Request().Context(), u, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// PatchMail replaces the mail address only.
//
// @Summary      Patch user mail
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int              true  "User ID"
// @Param        body  body  userMailRequest  true  "Mail"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id} [patch]
func (h *UserHandler) PatchMail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req userMailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.PatchMail(c.Request().Context(), id, req.Mail); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes an account.
//
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  int  true  "User ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
