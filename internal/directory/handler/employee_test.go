package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/staffdir/staffdir-backend/internal/directory/domain"
	"github.com/staffdir/staffdir-backend/internal/directory/repository"
	"github.com/staffdir/staffdir-backend/internal/directory/service"
	"github.com/staffdir/staffdir-backend/internal/directory/validation"
	"github.com/staffdir/staffdir-backend/pkg/httputil"
	"github.com/staffdir/staffdir-backend/pkg/logger"
	"github.com/staffdir/staffdir-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seed = []domain.Employee{
	{ID: 1, FirstName: "Mona", LastName: "Rao", Email: "m@example.com", PhoneNo: "1234567890", Level: domain.LevelManager, Supervisor: domain.NoSupervisor},
	{ID: 2, FirstName: "Dev", LastName: "Shah", Email: "d@example.com", PhoneNo: "1234567891", Level: domain.LevelDeveloper, Supervisor: "1"},
	{ID: 3, FirstName: "Tess", LastName: "Kay", Email: "t@example.com", PhoneNo: "1234567892", Level: domain.LevelTester, Supervisor: "1"},
	{ID: 4, FirstName: "Ivan", LastName: "Lee", Email: "i@example.com", PhoneNo: "1234567893", Level: domain.LevelIntern, Supervisor: "2"},
}

func newRouter(t *testing.T, store repository.Store) http.Handler {
	t.Helper()
	log := logger.Nop()
	svc := service.NewDirectoryService(store, validation.New(), nil, nil, log)
	t.Cleanup(svc.Wait)

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(httputil.Recoverer(log))
	r.Get("/health", Health(svc, nil))
	r.Route("/employees", NewEmployeeHandler(svc, log).Routes)
	return r
}

func seededStore(t *testing.T, employees []domain.Employee) *repository.FileStore {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	if employees != nil {
		require.NoError(t, store.SaveEmployees(context.Background(), employees))
	}
	return store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (int, string) {
	t.Helper()
	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(method, path, body))
	return rr.Code, rr.Body.String()
}

func fail(reason string) string {
	return testutil.MustJSON(httputil.FailBody{Status: "Fail", Reason: reason})
}

func TestList(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	code, body := do(t, h, http.MethodGet, "/employees", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[
		{"id":1,"first_name":"Mona","last_name":"Rao","email":"m@example.com","phone_no":"1234567890","level":"Manager"},
		{"id":2,"first_name":"Dev","last_name":"Shah","email":"d@example.com","phone_no":"1234567891","level":"Developer","supervisor":"1"},
		{"id":3,"first_name":"Tess","last_name":"Kay","email":"t@example.com","phone_no":"1234567892","level":"Tester","supervisor":"1"},
		{"id":4,"first_name":"Ivan","last_name":"Lee","email":"i@example.com","phone_no":"1234567893","level":"Intern","supervisor":"2"}
	]`, body)
}

func TestList_Empty(t *testing.T) {
	h := newRouter(t, seededStore(t, nil))

	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodGet, "/employees", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
	testutil.AssertJSONBody(t, rr, map[string]string{"status": "Fail", "reason": "No employee Found"})
}

func TestGet(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"existing", "/employees/2", http.StatusOK, testutil.MustJSON(seed[1])},
		{"unknown", "/employees/99", http.StatusNotFound, fail(ReasonNoEmployee)},
		{"non numeric", "/employees/abc", http.StatusNotFound, fail(ReasonNoEmployee)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, h, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantCode, code)
			assert.JSONEq(t, tt.wantBody, body)
		})
	}
}

func TestByLevel(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	code, body := do(t, h, http.MethodGet, "/employees/level?type=tester", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "["+testutil.MustJSON(seed[2])+"]", body)

	code, body = do(t, h, http.MethodGet, "/employees/level?type=CEO", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"status":"Fail","Reason":"No Employee with CEO type found"}`, body)
}

func TestCreate(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	code, body := do(t, h, http.MethodPost, "/employees", map[string]any{
		"first_name": "Rahul",
		"last_name":  "Dravid",
		"email":      "rahul@gmail.com",
		"phone_no":   "1234567890",
		"level":      "Manager",
	})
	require.Equal(t, http.StatusOK, code, body)

	var created domain.Employee
	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodGet, "/employees/level?type=Manager", nil))
	var managers []domain.Employee
	testutil.ParseJSONBody(t, rr, &managers)
	require.Len(t, managers, 2)
	created = managers[1]

	assert.NotContains(t, body, "supervisor")
	assert.JSONEq(t, testutil.MustJSON(created), body)
}

func TestCreate_ValidationFailure(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{
			name: "intern without supervisor",
			body: map[string]any{
				"first_name": "Rahul",
				"last_name":  "Dravid",
				"email":      "rahul@gmail.com",
				"phone_no":   "1234567890",
				"level":      "Intern",
			},
			want: "data must have required property 'supervisor'",
		},
		{
			name: "pattern messages are combined",
			body: map[string]any{
				"first_name": "R4hul",
				"last_name":  "Dravid",
				"email":      "rahul@gmail.com",
				"phone_no":   "12345",
				"level":      "Manager",
			},
			want: "first name should be a string containing only alphabets., phone number should be a 10 digit number.",
		},
		{
			name: "not an object",
			body: "[1, 2]",
			want: "data must be object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPost, "/employees", tt.body))
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			assert.Equal(t, tt.want, rr.Body.String())
			assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
		})
	}
}

func TestUpdate(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	code, body := do(t, h, http.MethodPut, "/employees/3", map[string]any{"first_name": "Tina"})
	assert.Equal(t, http.StatusOK, code)
	want := seed[2]
	want.FirstName = "Tina"
	assert.JSONEq(t, testutil.MustJSON(want), body)

	code, body = do(t, h, http.MethodPut, "/employees/3", nil)
	assert.Equal(t, http.StatusOK, code, "an empty body is an empty patch")
	assert.JSONEq(t, testutil.MustJSON(want), body)
}

func TestUpdate_Failures(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	code, body := do(t, h, http.MethodPut, "/employees/99", map[string]any{"first_name": "Nobody"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, fail(ReasonNoSuchEmployee), body)

	code, body = do(t, h, http.MethodPut, "/employees/3", map[string]any{"level": "Developer"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"data must have required property 'supervisor'"}`, body)

	code, body = do(t, h, http.MethodPut, "/employees/3", map[string]any{"salary": "lots"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"data must NOT have additional properties ('salary')"}`, body)
}

func TestDelete(t *testing.T) {
	store := seededStore(t, seed)
	require.NoError(t, store.SavePersonal(context.Background(), map[int64]domain.PersonalDetails{2: {Gender: "Male"}}))
	h := newRouter(t, store)

	code, body := do(t, h, http.MethodDelete, "/employees/2", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, testutil.MustJSON(seed[1]), body)

	code, body = do(t, h, http.MethodGet, "/employees/2", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, fail(ReasonNoEmployee), body)

	code, body = do(t, h, http.MethodDelete, "/employees/2", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, fail(ReasonNoEmployee), body)

	testutil.RequireEventually(t, func() bool {
		personal, err := store.LoadPersonal(context.Background())
		return err == nil && len(personal) == 0
	}, 2*time.Second, 10*time.Millisecond, "personal details of the deleted employee were not pruned")
}

func TestHierarchy(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	code, body := do(t, h, http.MethodGet, "/employees/4/superiors", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[`+testutil.MustJSON(seed[1])+`,`+testutil.MustJSON(seed[0].Visible())+`]`, body)

	code, body = do(t, h, http.MethodGet, "/employees/1/superiors", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, fail("No Superior for 1 found"), body)

	code, body = do(t, h, http.MethodGet, "/employees/2/subordinates", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "["+testutil.MustJSON(seed[3])+"]", body)

	code, body = do(t, h, http.MethodGet, "/employees/4/subordinates", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, fail("No Subordinate for 4 found"), body)

	code, body = do(t, h, http.MethodGet, "/employees/xyz/subordinates", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, fail("No Subordinate for xyz found"), body)
}

func personalPayload() map[string]any {
	return map[string]any{
		"gender":               "Male",
		"blood_group":          "AB-",
		"marital_status":       "Married",
		"international_worker": false,
		"dob":                  "1999-04-07",
		"physically_disabled":  false,
	}
}

func employmentPayload() map[string]any {
	return map[string]any{
		"employer":          "afour",
		"designation":       "Developer",
		"department":        "Development",
		"location":          "Pune",
		"doj":               "2022-03-01",
		"reporting_manager": "Varun",
	}
}

func TestDetails(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	code, body := do(t, h, http.MethodGet, "/employees/2/getdetails", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"PersonalDetails":"No Data Found","EmploymentDetails":"No Data Found"}`, body)

	code, body = do(t, h, http.MethodPost, "/employees/2/employmentdetails", employmentPayload())
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, testutil.MustJSON(employmentPayload()), body)

	code, body = do(t, h, http.MethodGet, "/employees/2/getdetails", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"PersonalDetails":"No Data Found","EmploymentDetails":`+testutil.MustJSON(employmentPayload())+`}`, body)

	code, body = do(t, h, http.MethodPost, "/employees/2/personaldetails", personalPayload())
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, testutil.MustJSON(personalPayload()), body)

	code, body = do(t, h, http.MethodGet, "/employees/2/getdetails", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"PersonalDetails":`+testutil.MustJSON(personalPayload())+`,"EmploymentDetails":`+testutil.MustJSON(employmentPayload())+`}`, body)
}

func TestDetails_Failures(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	for _, path := range []string{"/employees/99/personaldetails", "/employees/99/employmentdetails", "/employees/abc/personaldetails"} {
		code, body := do(t, h, http.MethodPost, path, personalPayload())
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.Equal(t, `"Error: No employee with given ID"`+"\n", body, path)
	}

	p := personalPayload()
	delete(p, "gender")
	code, body := do(t, h, http.MethodPost, "/employees/2/personaldetails", p)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "must have required property 'gender'", body)

	e := employmentPayload()
	e["employer"] = "a4"
	code, body = do(t, h, http.MethodPost, "/employees/2/employmentdetails", e)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, `must match pattern "^[a-zA-Z]+$"`, body)
}

// brokenStore fails every read to exercise the generic fault path
type brokenStore struct {
	repository.Store
}

func (brokenStore) LoadEmployees(context.Context) ([]domain.Employee, error) {
	return nil, errors.New("disk on fire")
}

func TestFault(t *testing.T) {
	h := newRouter(t, brokenStore{Store: seededStore(t, nil)})

	code, body := do(t, h, http.MethodGet, "/employees", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"status":"Fail","reason":"Error"}`, body)
	assert.NotContains(t, body, "disk on fire")
}

func TestCreate_OversizedBody(t *testing.T) {
	h := newRouter(t, seededStore(t, seed))

	body := `{"first_name":"` + strings.Repeat("a", httputil.MaxBodyBytes) + `"}`
	code, got := do(t, h, http.MethodPost, "/employees", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, fail(httputil.ReasonError), got)

	code, _ = do(t, h, http.MethodGet, "/employees", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestHealth(t *testing.T) {
	h := newRouter(t, seededStore(t, nil))

	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body map[string]any
	testutil.ParseJSONBody(t, rr, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{"status": "up", "driver": "file"}, body["storage"])
	assert.NotContains(t, body, "rabbitmq")
}
