package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/listing"
	"github.com/reportcentral/console/internal/core/ports"
	"github.com/reportcentral/console/internal/core/userform"
)

// ConfirmTokenHeader carries the token issued by the delete-confirmation
// endpoint.
const ConfirmTokenHeader = "X-Confirm-Token"

// UserHandler handles HTTP requests for user administration.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// --- Request / Response types ---

// userFieldsRequest carries the fields the client touched. Absent fields
// keep their loaded value.
type userFieldsRequest struct {
	FullName               *string      `json:"full_name"`
	Username               *string      `json:"username"`
	Role                   *domain.Role `json:"role" validate:"omitempty,oneof=admin moderator user"`
	Password               *string      `json:"password"`
	RequirePasswordChange  *bool        `json:"require_password_change"`
	DisablePasswordChange  *bool        `json:"disable_password_change"`
	ShowInSelection        *bool        `json:"show_in_selection"`
	Email                  *string      `json:"email"`
	Phone                  *string      `json:"phone"`
	AdditionalEmail        *string      `json:"additional_email"`
	Comment                *string      `json:"comment"`
	AvailableOrganizations *[]int64     `json:"available_organizations"`
	AccessibleUsers        *[]int64     `json:"accessible_users"`
}

// apply copies the present fields onto the form values.
func (r userFieldsRequest) apply(v *userform.Values) {
	set(&v.FullName, r.FullName)
	set(&v.Username, r.Username)
	set(&v.Role, r.Role)
	set(&v.Password, r.Password)
	set(&v.RequirePasswordChange, r.RequirePasswordChange)
	set(&v.DisablePasswordChange, r.DisablePasswordChange)
	set(&v.ShowInSelection, r.ShowInSelection)
	set(&v.Email, r.Email)
	set(&v.Phone, r.Phone)
	set(&v.AdditionalEmail, r.AdditionalEmail)
	set(&v.Comment, r.Comment)
	set(&v.AvailableOrganizations, r.AvailableOrganizations)
	set(&v.AccessibleUsers, r.AccessibleUsers)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type organizationsResponse struct {
	Organizations []domain.Organization `json:"organizations"`
}

type historyResponse struct {
	Entries []domain.AuditEntry `json:"entries"`
}

// List handles GET /api/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        search     query     string  false  "Substring of full name, username or email"
// @Param        role       query     string  false  "admin, moderator or user"
// @Param        status     query     string  false  "hidden, pending or active"
// @Param        online     query     bool    false  "Online flag"
// @Param        quick      query     string  false  "online, new, inactive or password_change"
// @Param        sort       query     string  false  "Sort column"
// @Param        dir        query     string  false  "asc or desc"
// @Param        page       query     int     false  "1-based page"
// @Param        page_size  query     int     false  "Rows per page"
// @Success      200        {object}  ports.UserListResult
// @Failure      400        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	q, err := parseListQuery(c)
	if err != nil {
		return err
	}

	res, err := h.service.List(c.Request().Context(), sess, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func parseListQuery(c echo.Context) (listing.Query, error) {
	var q listing.Query
	var role, status, quick, sort, dir string
	err := echo.QueryParamsBinder(c).
		String("search", &q.Search).
		String("role", &role).
		String("status", &status).
		String("quick", &quick).
		String("sort", &sort).
		String("dir", &dir).
		Int("page", &q.Page).
		Int("page_size", &q.PageSize).
		BindError()
	if err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	q.Role = domain.Role(role)
	if role != "" && !q.Role.Valid() {
		return q, echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}
	q.Status = domain.Status(status)
	if status != "" && !q.Status.Valid() {
		return q, echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	q.Quick = listing.QuickFilter(quick)
	if !q.Quick.Valid() {
		return q, echo.NewHTTPError(http.StatusBadRequest, "unknown quick filter")
	}
	q.SortField = listing.SortField(sort)
	if sort != "" && !q.SortField.Valid() {
		return q, echo.NewHTTPError(http.StatusBadRequest, "unknown sort column")
	}
	switch listing.Direction(dir) {
	case "", listing.Asc, listing.Desc:
		q.SortDir = listing.Direction(dir)
	default:
		return q, echo.NewHTTPError(http.StatusBadRequest, "dir must be asc or desc")
	}

	if raw := c.QueryParam("online"); raw != "" {
		online, err := strconv.ParseBool(raw)
		if err != nil {
			return q, echo.NewHTTPError(http.StatusBadRequest, "online must be a boolean")
		}
		q.Online = &online
	}
	return q, nil
}

// Form handles GET /api/users/form. Without ?id= it opens the create form.
//
// @Summary      Open the user form
// @Tags         users
// @Produce      json
// @Param        id    query     int     false  "User id to edit"
// @Param        role  query     string  false  "Preselected role"  Enums(admin, moderator, user)
// @Success      200  {object}  ports.FormSnapshot
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/users/form [get]
func (h *UserHandler) Form(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var id int64
	if raw := c.QueryParam("id"); raw != "" {
		if id, err = strconv.ParseInt(raw, 10, 64); err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
		}
	}

	role := domain.Role(c.QueryParam("role"))
	if role != "" && !role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	snap, err := h.service.OpenForm(c.Request().Context(), sess, id, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

// Get handles GET /api/users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.service.Get(c.Request().Context(), sess, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Create handles POST /api/users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      userFieldsRequest  true  "User fields"
// @Success      201   {object}  userResponse
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	req, err := bindFields(c)
	if err != nil {
		return err
	}

	user, err := h.service.Create(c.Request().Context(), sess, req.apply)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Update handles PUT /api/users/:id. Only fields that differ from the
// current backend state are forwarded.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "User id"
// @Param        body  body      userFieldsRequest  true  "Changed fields"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	req, err := bindFields(c)
	if err != nil {
		return err
	}

	user, err := h.service.Update(c.Request().Context(), sess, id, req.apply)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

func bindFields(c echo.Context) (userFieldsRequest, error) {
	var req userFieldsRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return req, err
	}
	return req, nil
}

// RequestDelete handles POST /api/users/:id/delete-confirmation.
//
// @Summary      Request a delete confirmation token
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  ports.DeleteConfirmation
// @Failure      403  {object}  map[string]string
// @Router       /api/users/{id}/delete-confirmation [post]
func (h *UserHandler) RequestDelete(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	conf, err := h.service.RequestDelete(c.Request().Context(), sess, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conf)
}

// Delete handles DELETE /api/users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Param        id              path    int     true  "User id"
// @Param        X-Confirm-Token header  string  true  "Token from delete-confirmation"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      428  {object}  map[string]string
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	token := c.Request().Header.Get(ConfirmTokenHeader)
	if err := h.service.Delete(c.Request().Context(), sess, id, token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Organizations handles GET /api/organizations.
//
// @Summary      List organizations
// @Tags         users
// @Produce      json
// @Success      200  {object}  organizationsResponse
// @Router       /api/organizations [get]
func (h *UserHandler) Organizations(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	orgs, err := h.service.Organizations(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, organizationsResponse{Organizations: orgs})
}

// History handles GET /api/users/:id/history.
//
// @Summary      Administration history of a user
// @Tags         users
// @Produce      json
// @Param        id     path      int  true   "User id"
// @Param        limit  query     int  false  "Max entries (default 50)"
// @Success      200    {object}  historyResponse
// @Router       /api/users/{id}/history [get]
func (h *UserHandler) History(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	entries, err := h.service.History(c.Request().Context(), sess, id, limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return c.JSON(http.StatusOK, historyResponse{Entries: entries})
}
