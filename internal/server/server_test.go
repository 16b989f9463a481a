package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pettycash/internal/app"
	"pettycash/internal/config"
	"pettycash/internal/database"
	"pettycash/internal/models"
	"pettycash/internal/services"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type ServerTestSuite struct {
	suite.Suite
	app     *app.App
	handler http.Handler
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	privateKey, publicKey, err := config.GenerateRSAKeyPair()
	s.Require().NoError(err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:             "0",
			Host:             "127.0.0.1",
			Environment:      "testing",
			ShutdownTimeout:  time.Second,
			CORSAllowOrigins: []string{"*"},
		},
		JWT: config.JWTConfig{
			AccessTokenDuration: time.Hour,
			Issuer:              "pettycash-test",
			PrivateKey:          privateKey,
			PublicKey:           publicKey,
		},
		Security: config.SecurityConfig{
			BCryptCost:         bcrypt.MinCost,
			RateLimitPerSecond: 1000,
			RateLimitBurst:     1000,
		},
	}

	a, err := app.NewWithDB(cfg, database.SetupTestDB(s.T()), nil)
	s.Require().NoError(err)
	s.T().Cleanup(a.Balance.Close)

	s.app = a
	s.handler = New(a).Handler()
}

func (s *ServerTestSuite) register(username string, role models.Role) {
	_, err := s.app.Auth.RegisterUser(s.T().Context(), services.RegisterUserInput{
		Username:    username,
		DisplayName: strings.ToUpper(username),
		Password:    "Sup3r-Secret!",
		Role:        role,
	})
	s.Require().NoError(err)
}

func (s *ServerTestSuite) token(username string) string {
	result, err := s.app.Auth.IssueToken(s.T().Context(), username)
	s.Require().NoError(err)
	return result.AccessToken
}

func (s *ServerTestSuite) do(method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func (s *ServerTestSuite) TestHealthIsPublic() {
	rec := s.do(http.MethodGet, "/health", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Trace-ID"))
}

func (s *ServerTestSuite) TestMetricsIsPublic() {
	rec := s.do(http.MethodGet, "/metrics", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "go_goroutines")
}

func (s *ServerTestSuite) TestProtectedRoutesRequireToken() {
	routes := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/v1/balance"},
		{http.MethodGet, "/api/v1/transactions"},
		{http.MethodPost, "/api/v1/expenditures"},
		{http.MethodGet, "/api/v1/approvals"},
		{http.MethodGet, "/api/v1/settlements"},
		{http.MethodGet, "/api/v1/cash-counts"},
		{http.MethodGet, "/api/v1/categories"},
		{http.MethodGet, "/api/v1/reports/expense-by-category"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodGet, "/api/v1/invoices"},
		{http.MethodGet, "/api/v1/invoices/report"},
	}

	for _, r := range routes {
		s.Run(r.method+" "+r.target, func() {
			rec := s.do(r.method, r.target, "", "")
			s.Equal(http.StatusUnauthorized, rec.Code)
			s.Equal("AUTH_002", s.errorCode(rec))
		})
	}
}

func (s *ServerTestSuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/api/v1/nowhere", "", "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("SYSTEM_005", s.errorCode(rec))
}

func (s *ServerTestSuite) TestLoginThenBalance() {
	s.register("mei", models.RoleMember)

	rec := s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"mei","password":"Sup3r-Secret!"}`, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var login struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &login))
	s.Require().NotEmpty(login.Data.AccessToken)

	rec = s.do(http.MethodGet, "/api/v1/balance", "", login.Data.AccessToken)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"0.00"`)
}

func (s *ServerTestSuite) TestApproverRoutesRejectMembers() {
	s.register("mei", models.RoleMember)
	s.register("lin", models.RoleApprover)

	member := s.token("mei")
	approver := s.token("lin")

	rec := s.do(http.MethodGet, "/api/v1/approvals", "", member)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("AUTH_005", s.errorCode(rec))

	rec = s.do(http.MethodGet, "/api/v1/approvals", "", approver)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/categories", `{"name":"Office"}`, member)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/categories", `{"name":"Office"}`, approver)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *ServerTestSuite) TestDenominationsRouteIsNotAnID() {
	s.register("mei", models.RoleMember)

	rec := s.do(http.MethodGet, "/api/v1/cash-counts/denominations", "", s.token("mei"))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "1000")
}

func (s *ServerTestSuite) TestLogoutRevokesToken() {
	s.register("mei", models.RoleMember)
	token := s.token("mei")
	other := s.token("mei")

	rec := s.do(http.MethodGet, "/api/v1/balance", "", token)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/logout", "", token)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/balance", "", token)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("AUTH_006", s.errorCode(rec))

	rec = s.do(http.MethodPost, "/api/v1/auth/logout", "", token)
	s.Equal(http.StatusUnauthorized, rec.Code, "a revoked token cannot log out again")

	rec = s.do(http.MethodGet, "/api/v1/balance", "", other)
	s.Equal(http.StatusOK, rec.Code, "other sessions stay valid")
}

func (s *ServerTestSuite) TestInvoiceRoutes() {
	s.register("mei", models.RoleMember)
	token := s.token("mei")

	body := `{"type":"electronic","track":"AB","number":"12345678","invoiceDate":"2025-03-04","salesAmount":"100","taxAmount":"5"}`
	rec := s.do(http.MethodPost, "/api/v1/invoices", body, token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/invoices", body, token)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("INVOICE_002", s.errorCode(rec))

	rec = s.do(http.MethodGet, "/api/v1/invoices/report?year=2025&month=3", "", token)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"105.00"`)
}
