package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/staffdir/staffdir-backend/internal/directory/service"
	"github.com/staffdir/staffdir-backend/pkg/errors"
	"github.com/staffdir/staffdir-backend/pkg/httputil"
	"github.com/staffdir/staffdir-backend/pkg/logger"
)

// Response texts clients depend on
const (
	ReasonNoEmployee       = "No employee Found"
	ReasonNoSuchEmployee   = "No Such Employee with given id present"
	MessageNoEmployeeForID = "Error: No employee with given ID"
	NoDataFound            = "No Data Found"
)

// levelFailBody keeps the capitalised Reason key of the level lookup
type levelFailBody struct {
	Status string `json:"status"`
	Reason string `json:"Reason"`
}

type updateFailBody struct {
	Error string `json:"error"`
}

type combinedBody struct {
	PersonalDetails   any `json:"PersonalDetails"`
	EmploymentDetails any `json:"EmploymentDetails"`
}

// EmployeeHandler handles employee endpoints
type EmployeeHandler struct {
	service *service.DirectoryService
	logger  *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(svc *service.DirectoryService, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the employee endpoints on r
func (h *EmployeeHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/level", h.ByLevel)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/superiors", h.Superiors)
	r.Get("/{id}/subordinates", h.Subordinates)
	r.Post("/{id}/personaldetails", h.AddPersonalDetails)
	r.Post("/{id}/employmentdetails", h.AddEmploymentDetails)
	r.Get("/{id}/getdetails", h.GetDetails)
}

// idParam parses the id path parameter. A non-numeric id matches nobody.
func idParam(r *http.Request) (string, int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	return raw, id, err == nil
}

func isNotFound(err error) bool {
	return errors.Is(err, errors.ErrNotFound)
}

func validationText(err error) (string, bool) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) && errors.Is(appErr, errors.ErrValidation) {
		return appErr.Message, true
	}
	return "", false
}

func (h *EmployeeHandler) fault(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithRequestID(httputil.GetRequestID(r.Context())).WithError(err).
		Error().Str("path", r.URL.Path).Msg("request failed")
	httputil.Fault(w)
}

// List lists all employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.List(r.Context())
	switch {
	case err == nil:
		httputil.JSON(w, http.StatusOK, employees)
	case isNotFound(err):
		httputil.Fail(w, http.StatusNotFound, ReasonNoEmployee)
	default:
		h.fault(w, r, err)
	}
}

// Get gets an employee by ID
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, id, ok := idParam(r)
	if !ok {
		httputil.Fail(w, http.StatusNotFound, ReasonNoEmployee)
		return
	}

	employee, err := h.service.GetByID(r.Context(), id)
	switch {
	case err == nil:
		httputil.JSON(w, http.StatusOK, employee)
	case isNotFound(err):
		httputil.Fail(w, http.StatusNotFound, ReasonNoEmployee)
	default:
		h.fault(w, r, err)
	}
}

// ByLevel lists employees of the level named by the type query parameter
func (h *EmployeeHandler) ByLevel(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("type")

	employees, err := h.service.GetByLevel(r.Context(), level)
	switch {
	case err == nil:
		httputil.JSON(w, http.StatusOK, employees)
	case isNotFound(err):
		httputil.JSON(w, http.StatusNotFound, levelFailBody{
			Status: httputil.StatusFail,
			Reason: fmt.Sprintf("No Employee with %s type found", level),
		})
	default:
		h.fault(w, r, err)
	}
}

// Create adds an employee. Validation failures are sent as plain text.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, err := httputil.DecodeJSON(w, r)
	if err == nil {
		var created any
		created, err = h.service.Add(r.Context(), payload)
		if err == nil {
			httputil.JSON(w, http.StatusOK, created)
			return
		}
	}

	if msg, ok := validationText(err); ok {
		httputil.Text(w, http.StatusBadRequest, msg)
		return
	}
	h.fault(w, r, err)
}

// Update patches an employee. Validation failures are sent as {"error": ...}.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	payload, err := httputil.DecodeJSON(w, r)
	if err == nil {
		_, id, ok := idParam(r)
		if !ok {
			id = -1
		}
		var updated any
		updated, err = h.service.Update(r.Context(), id, payload)
		if err == nil {
			httputil.JSON(w, http.StatusOK, updated)
			return
		}
	}

	if msg, ok := validationText(err); ok {
		httputil.JSON(w, http.StatusBadRequest, updateFailBody{Error: msg})
		return
	}
	if isNotFound(err) {
		httputil.Fail(w, http.StatusNotFound, ReasonNoSuchEmployee)
		return
	}
	h.fault(w, r, err)
}

// Delete removes an employee and returns the removed record
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, id, ok := idParam(r)
	if !ok {
		httputil.Fail(w, http.StatusNotFound, ReasonNoEmployee)
		return
	}

	removed, err := h.service.Delete(r.Context(), id)
	switch {
	case err == nil:
		httputil.JSON(w, http.StatusOK, removed)
	case isNotFound(err):
		httputil.Fail(w, http.StatusNotFound, ReasonNoEmployee)
	default:
		h.fault(w, r, err)
	}
}

// Superiors lists the chain of superiors above an employee
func (h *EmployeeHandler) Superiors(w http.ResponseWriter, r *http.Request) {
	raw, id, ok := idParam(r)
	reason := fmt.Sprintf("No Superior for %s found", raw)
	if !ok {
		httputil.Fail(w, http.StatusNotFound, reason)
		return
	}

	chain, err := h.service.Superiors(r.Context(), id)
	switch {
	case err == nil:
		httputil.JSON(w, http.StatusOK, chain)
	case isNotFound(err):
		httputil.Fail(w, http.StatusNotFound, reason)
	default:
		h.fault(w, r, err)
	}
}

// Subordinates lists everyone reporting to an employee, directly or not
func (h *EmployeeHandler) Subordinates(w http.ResponseWriter, r *http.Request) {
	raw, id, ok := idParam(r)
	reason := fmt.Sprintf("No Subordinate for %s found", raw)
	if !ok {
		httputil.Fail(w, http.StatusNotFound, reason)
		return
	}

	reports, err := h.service.Subordinates(r.Context(), id)
	switch {
	case err == nil:
		httputil.JSON(w, http.StatusOK, reports)
	case isNotFound(err):
		httputil.Fail(w, http.StatusNotFound, reason)
	default:
		h.fault(w, r, err)
	}
}

// AddPersonalDetails stores personal details for an employee
func (h *EmployeeHandler) AddPersonalDetails(w http.ResponseWriter, r *http.Request) {
	h.storeDetails(w, r, func(id int64, payload map[string]any) (any, error) {
		return h.service.AddPersonalDetails(r.Context(), id, payload)
	})
}

// AddEmploymentDetails stores employment details for an employee
func (h *EmployeeHandler) AddEmploymentDetails(w http.ResponseWriter, r *http.Request) {
	h.storeDetails(w, r, func(id int64, payload map[string]any) (any, error) {
		return h.service.AddEmploymentDetails(r.Context(), id, payload)
	})
}

// storeDetails shares the response mapping of both detail endpoints. An
// unknown employee is a 400 whose body is a bare JSON string.
func (h *EmployeeHandler) storeDetails(w http.ResponseWriter, r *http.Request, store func(int64, map[string]any) (any, error)) {
	_, id, ok := idParam(r)
	if !ok {
		httputil.JSON(w, http.StatusBadRequest, MessageNoEmployeeForID)
		return
	}

	payload, err := httputil.DecodeJSON(w, r)
	if err == nil {
		var stored any
		stored, err = store(id, payload)
		if err == nil {
			httputil.JSON(w, http.StatusOK, stored)
			return
		}
	}

	if isNotFound(err) {
		httputil.JSON(w, http.StatusBadRequest, MessageNoEmployeeForID)
		return
	}
	if msg, ok := validationText(err); ok {
		httputil.Text(w, http.StatusBadRequest, msg)
		return
	}
	h.fault(w, r, err)
}

// GetDetails returns both detail records, each replaced by "No Data Found" when absent
func (h *EmployeeHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	body := combinedBody{PersonalDetails: NoDataFound, EmploymentDetails: NoDataFound}

	_, id, ok := idParam(r)
	if !ok {
		httputil.JSON(w, http.StatusOK, body)
		return
	}

	details, err := h.service.GetCombinedDetails(r.Context(), id)
	if err != nil {
		h.fault(w, r, err)
		return
	}

	if details.Personal != nil {
		body.PersonalDetails = details.Personal
	}
	if details.Employment != nil {
		body.EmploymentDetails = details.Employment
	}
	httputil.JSON(w, http.StatusOK, body)
}
