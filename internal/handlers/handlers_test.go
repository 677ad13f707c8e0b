package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/models"
	"spendtrack/internal/service"
	"spendtrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// HandlersTestSuite drives the JSON API through an in-memory database.
type HandlersTestSuite struct {
	suite.Suite
	db  *storage.DB
	mux *http.ServeMux
}

func (suite *HandlersTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	h := NewHandlers(db, service.New(db), false)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", h.Register)
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.Logout)
	mux.Handle("GET /api/categories", h.AuthMiddleware(http.HandlerFunc(h.ListCategories)))
	mux.Handle("POST /api/categories", h.AuthMiddleware(http.HandlerFunc(h.CreateCategory)))
	mux.Handle("DELETE /api/categories/{id}", h.AuthMiddleware(http.HandlerFunc(h.DeleteCategory)))
	mux.Handle("GET /api/expenses", h.AuthMiddleware(http.HandlerFunc(h.ListExpenses)))
	mux.Handle("POST /api/expenses", h.AuthMiddleware(http.HandlerFunc(h.CreateExpense)))
	mux.Handle("PUT /api/expenses/{id}", h.AuthMiddleware(http.HandlerFunc(h.UpdateExpense)))
	mux.Handle("DELETE /api/expenses/{id}", h.AuthMiddleware(http.HandlerFunc(h.DeleteExpense)))
	mux.Handle("GET /api/dashboard", h.AuthMiddleware(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /api/monthly_stats", h.AuthMiddleware(http.HandlerFunc(h.MonthlyStats)))
	suite.mux = mux
}

func (suite *HandlersTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

// do performs a request, optionally with a session cookie, and returns the recorder.
func (suite *HandlersTestSuite) do(method, path, body, cookie string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	}
	w := httptest.NewRecorder()
	suite.mux.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates an account and returns its session token.
func (suite *HandlersTestSuite) registerAndLogin(username, email string) string {
	w := suite.do("POST", "/api/register",
		fmt.Sprintf(`{"username":%q,"email":%q,"password":"pw"}`, username, email), "")
	require.Equal(suite.T(), http.StatusCreated, w.Code, "register failed: %s", w.Body.String())

	w = suite.do("POST", "/api/login",
		fmt.Sprintf(`{"username":%q,"password":"pw"}`, username), "")
	require.Equal(suite.T(), http.StatusNoContent, w.Code, "login failed: %s", w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value != "" {
			return c.Value
		}
	}
	suite.T().Fatal("no session cookie set on login")
	return ""
}

func (suite *HandlersTestSuite) categories(token string) []models.Category {
	w := suite.do("GET", "/api/categories", "", token)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var categories []models.Category
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &categories))
	return categories
}

func (suite *HandlersTestSuite) TestRegisterConflicts() {
	w := suite.do("POST", "/api/register", `{"username":"alice","email":"a@x.com","password":"pw"}`, "")
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.do("POST", "/api/register", `{"username":"alice","email":"other@x.com","password":"pw"}`, "")
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "username already exists")

	w = suite.do("POST", "/api/register", `{"username":"bob","email":"a@x.com","password":"pw"}`, "")
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "email already registered")

	w = suite.do("POST", "/api/register", `{"username":"","email":"a@x.com","password":"pw"}`, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestLoginRejectsBadCredentials() {
	suite.registerAndLogin("alice", "a@x.com")

	w := suite.do("POST", "/api/login", `{"username":"alice","password":"wrongpw"}`, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	wrongPw := w.Body.String()

	w = suite.do("POST", "/api/login", `{"username":"nonexistent","password":"x"}`, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(suite.T(), wrongPw, w.Body.String(), "unknown user and wrong password must be indistinguishable")
}

func (suite *HandlersTestSuite) TestProtectedRoutesRequireSession() {
	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/expenses"},
		{"GET", "/api/categories"},
		{"GET", "/api/dashboard"},
		{"GET", "/api/monthly_stats"},
	}
	for _, p := range paths {
		w := suite.do(p.method, p.path, "", "")
		assert.Equal(suite.T(), http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
		assert.Contains(suite.T(), w.Body.String(), "unauthenticated")
	}

	// A bogus token is rejected and the cookie cleared
	w := suite.do("GET", "/api/expenses", "", "not-a-real-token")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(suite.T(), cookies)
	assert.Equal(suite.T(), -1, cookies[0].MaxAge, "invalid session cookie should be cleared")
}

func (suite *HandlersTestSuite) TestLogoutEndsSession() {
	token := suite.registerAndLogin("alice", "a@x.com")

	w := suite.do("GET", "/api/expenses", "", token)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.do("POST", "/api/logout", "", token)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.do("GET", "/api/expenses", "", token)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	// Logout without a session is still fine
	w = suite.do("POST", "/api/logout", "", "")
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)
}

func (suite *HandlersTestSuite) TestCategoryEndpoints() {
	token := suite.registerAndLogin("alice", "a@x.com")

	categories := suite.categories(token)
	require.Len(suite.T(), categories, 6, "registration seeds the default categories")

	w := suite.do("POST", "/api/categories", `{"name":"Coffee"}`, token)
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.do("POST", "/api/categories", `{"name":"Coffee"}`, token)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	w = suite.do("POST", "/api/categories", `{"name":"  "}`, token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	categories = suite.categories(token)
	require.Len(suite.T(), categories, 7)
	coffee := categories[6]

	w = suite.do("DELETE", fmt.Sprintf("/api/categories/%d", coffee.ID), "", token)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.do("DELETE", fmt.Sprintf("/api/categories/%d", coffee.ID), "", token)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.do("DELETE", "/api/categories/abc", "", token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCategoryOwnershipAcrossUsers() {
	aliceToken := suite.registerAndLogin("alice", "a@x.com")
	bobToken := suite.registerAndLogin("bob", "b@x.com")

	aliceFood := suite.categories(aliceToken)[0]

	w := suite.do("DELETE", fmt.Sprintf("/api/categories/%d", aliceFood.ID), "", bobToken)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	// Alice still has all six categories
	assert.Len(suite.T(), suite.categories(aliceToken), 6)
}

func (suite *HandlersTestSuite) TestExpenseEndpoints() {
	token := suite.registerAndLogin("alice", "a@x.com")
	food := suite.categories(token)[0]

	body := fmt.Sprintf(`{"amount":12.5,"description":"groceries","date":"2024-03-05","category_id":%d}`, food.ID)
	w := suite.do("POST", "/api/expenses", body, token)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var created idBody
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &created))

	// Bad inputs
	w = suite.do("POST", "/api/expenses", fmt.Sprintf(`{"amount":10,"description":"x","date":"05/03/2024","category_id":%d}`, food.ID), token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code, "non-ISO dates are rejected")
	w = suite.do("POST", "/api/expenses", fmt.Sprintf(`{"amount":-1,"description":"x","date":"2024-03-05","category_id":%d}`, food.ID), token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code, "negative amounts are rejected")
	w = suite.do("POST", "/api/expenses", `{"amount":10,"description":"x","date":"2024-03-05","category_id":9999}`, token)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	// Update and list
	update := fmt.Sprintf(`{"amount":15,"description":"more groceries","date":"2024-03-06","category_id":%d}`, food.ID)
	w = suite.do("PUT", fmt.Sprintf("/api/expenses/%d", created.ID), update, token)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.do("GET", "/api/expenses", "", token)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var expenses []models.Expense
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &expenses))
	require.Len(suite.T(), expenses, 1)
	assert.Equal(suite.T(), 15.0, expenses[0].Amount)
	assert.Equal(suite.T(), "more groceries", expenses[0].Description)

	// Delete
	w = suite.do("DELETE", fmt.Sprintf("/api/expenses/%d", created.ID), "", token)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)
	w = suite.do("DELETE", fmt.Sprintf("/api/expenses/%d", created.ID), "", token)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestExpenseOwnershipAcrossUsers() {
	aliceToken := suite.registerAndLogin("alice", "a@x.com")
	bobToken := suite.registerAndLogin("bob", "b@x.com")

	aliceFood := suite.categories(aliceToken)[0]

	// Bob cannot attach an expense to Alice's category
	body := fmt.Sprintf(`{"amount":10,"description":"sneaky","date":"2024-03-05","category_id":%d}`, aliceFood.ID)
	w := suite.do("POST", "/api/expenses", body, bobToken)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	// Alice records one; Bob cannot touch it
	w = suite.do("POST", "/api/expenses", fmt.Sprintf(`{"amount":10,"description":"lunch","date":"2024-03-05","category_id":%d}`, aliceFood.ID), aliceToken)
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	var created idBody
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &created))

	w = suite.do("DELETE", fmt.Sprintf("/api/expenses/%d", created.ID), "", bobToken)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestMonthlyStatsShape() {
	token := suite.registerAndLogin("alice", "a@x.com")
	food := suite.categories(token)[0]

	today := time.Now().Format("2006-01-02")
	w := suite.do("POST", "/api/expenses", fmt.Sprintf(`{"amount":12.5,"description":"groceries","date":%q,"category_id":%d}`, today, food.ID), token)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.do("GET", "/api/monthly_stats", "", token)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "application/json", w.Header().Get("Content-Type"))

	var stats struct {
		Total float64 `json:"total"`
		Count int     `json:"count"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(suite.T(), 12.5, stats.Total)
	assert.Equal(suite.T(), 1, stats.Count)
}

func (suite *HandlersTestSuite) TestDashboard() {
	token := suite.registerAndLogin("alice", "a@x.com")
	food := suite.categories(token)[0]

	today := time.Now().Format("2006-01-02")
	w := suite.do("POST", "/api/expenses", fmt.Sprintf(`{"amount":12.5,"description":"groceries","date":%q,"category_id":%d}`, today, food.ID), token)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.do("GET", "/api/dashboard", "", token)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var report models.MonthlyReport
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(suite.T(), 12.5, report.Total)
	require.Len(suite.T(), report.ByCategory, 1)
	assert.Equal(suite.T(), "Food", report.ByCategory[0].Name)
	require.NotNil(suite.T(), report.TopCategory)
	assert.Equal(suite.T(), "Food", report.TopCategory.Name)
	require.Len(suite.T(), report.Recent, 1)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
