package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	authhttp "bus-tracker/internal/auth/adapter/http"
	"bus-tracker/internal/auth/adapter/security"
	"bus-tracker/internal/auth/config"
	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/testutil"
	"bus-tracker/internal/auth/usecase"
	"bus-tracker/internal/shared/utils"
	"bus-tracker/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "connect.sid"

func testConfig() *config.Config {
	return &config.Config{
		SessionSecret:  "test-session-secret",
		SessionIssuer:  "bus-tracker",
		SessionTTL:     time.Hour,
		CookieName:     cookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		BcryptCost:     bcrypt.MinCost,
		LoginRateLimit: 100,
	}
}

type AuthRouterTestSuite struct {
	suite.Suite
	app      *fiber.App
	users    *testutil.MemoryUserRepository
	sessions *testutil.MemorySessionStore
}

func (suite *AuthRouterTestSuite) SetupTest() {
	cfg := testConfig()
	suite.users = testutil.NewMemoryUserRepository()
	suite.sessions = testutil.NewMemorySessionStore()

	signer, err := security.NewJWTCookieSigner(cfg)
	suite.Require().NoError(err)

	uc := usecase.NewAuthUsecase(suite.users, suite.sessions, nil, nil, usecase.Options{
		BcryptCost: cfg.BcryptCost,
		SessionTTL: cfg.SessionTTL,
	})
	mw := authhttp.NewAuthMiddleware(uc, signer, cfg.CookieName, nil)
	handler := authhttp.NewAuthHTTPHandler(uc, signer, authhttp.CookieOptions{
		Name:     cfg.CookieName,
		Path:     cfg.CookiePath,
		MaxAge:   cfg.SessionTTL,
		HTTPOnly: cfg.CookieHTTPOnly,
		SameSite: cfg.CookieSameSite,
	}, nil)

	suite.app = web.NewApp(web.Options{})
	suite.app.Use(mw.LoadSession())
	handler.SetupAuthRoutes(suite.app, nil)
	suite.app.Get("/driver/dashboard", mw.RequireRole(model.RoleDriver), func(c *fiber.Ctx) error {
		id, _ := utils.GetUserIDFromContext(c.UserContext())
		return c.SendString("driver " + id)
	})
	suite.app.Get("/student/dashboard", mw.RequireRole(model.RoleStudent), func(c *fiber.Ctx) error {
		return c.SendString("student")
	})
	web.RegisterFallback(suite.app)
}

func formRequest(path string, form url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func getRequest(path string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (suite *AuthRouterTestSuite) do(req *http.Request) *http.Response {
	resp, err := suite.app.Test(req, -1)
	suite.Require().NoError(err)
	return resp
}

func (suite *AuthRouterTestSuite) register(username, password, role string) *http.Response {
	return suite.do(formRequest("/register", url.Values{
		"username": {username},
		"password": {password},
		"role":     {role},
	}, nil))
}

func (suite *AuthRouterTestSuite) login(username, password string) *http.Response {
	return suite.do(formRequest("/login", url.Values{
		"username": {username},
		"password": {password},
	}, nil))
}

func (suite *AuthRouterTestSuite) loginAs(username, password, role string) *http.Cookie {
	suite.Require().Equal(fiber.StatusFound, suite.register(username, password, role).StatusCode)
	resp := suite.login(username, password)
	suite.Require().Equal(fiber.StatusFound, resp.StatusCode)
	cookie := sessionCookie(resp)
	suite.Require().NotNil(cookie)
	return cookie
}

func (suite *AuthRouterTestSuite) TestPublicPages() {
	for path, want := range map[string]string{
		"/":       "Campus Bus Tracker",
		"/signup": "Sign up",
		"/login":  "Log in",
	} {
		resp := suite.do(getRequest(path, nil))
		suite.Equal(fiber.StatusOK, resp.StatusCode, path)
		suite.Contains(readBody(suite.T(), resp), want, path)
	}
}

func (suite *AuthRouterTestSuite) TestRegister_RedirectsToLogin() {
	resp := suite.register("alice", "pw1", "driver")

	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/login", resp.Header.Get(fiber.HeaderLocation))
	suite.Equal(1, suite.users.Count())
}

func (suite *AuthRouterTestSuite) TestRegister_LongPasswordAccepted() {
	password := strings.Repeat("x", 80)

	resp := suite.register("erin", password, "student")
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/login", resp.Header.Get(fiber.HeaderLocation))

	resp = suite.login("erin", password)
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/student/dashboard", resp.Header.Get(fiber.HeaderLocation))
}

func (suite *AuthRouterTestSuite) TestRegister_DuplicateRerendersForm() {
	suite.register("alice", "pw1", "driver")

	resp := suite.register("alice", "other", "student")

	suite.Equal(fiber.StatusOK, resp.StatusCode)
	suite.Contains(readBody(suite.T(), resp), "Username already exists. Please choose another one.")
	suite.Equal(1, suite.users.Count())
}

func (suite *AuthRouterTestSuite) TestRegister_InvalidRoleRerendersForm() {
	resp := suite.register("carol", "pw", "admin")

	suite.Equal(fiber.StatusOK, resp.StatusCode)
	suite.Contains(readBody(suite.T(), resp), "pick a role")
	suite.Equal(0, suite.users.Count())
}

func (suite *AuthRouterTestSuite) TestLogin_RedirectsByRole() {
	suite.register("alice", "pw1", "driver")
	suite.register("bob", "pw2", "student")

	resp := suite.login("alice", "pw1")
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/driver/dashboard", resp.Header.Get(fiber.HeaderLocation))
	suite.NotNil(sessionCookie(resp))

	resp = suite.login("bob", "pw2")
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/student/dashboard", resp.Header.Get(fiber.HeaderLocation))
}

func (suite *AuthRouterTestSuite) TestLogin_FailuresAreIndistinguishable() {
	suite.register("alice", "pw1", "driver")

	wrongPassword := suite.login("alice", "nope")
	unknownUser := suite.login("mallory", "pw1")

	for _, resp := range []*http.Response{wrongPassword, unknownUser} {
		suite.Equal(fiber.StatusFound, resp.StatusCode)
		suite.Equal("/login", resp.Header.Get(fiber.HeaderLocation))
		suite.Nil(sessionCookie(resp))
	}
	suite.Equal(0, suite.sessions.Len())
}

func (suite *AuthRouterTestSuite) TestGuard_AllowsMatchingRole() {
	cookie := suite.loginAs("alice", "pw1", "driver")

	resp := suite.do(getRequest("/driver/dashboard", cookie))

	suite.Equal(fiber.StatusOK, resp.StatusCode)
	suite.True(strings.HasPrefix(readBody(suite.T(), resp), "driver "))
}

func (suite *AuthRouterTestSuite) TestGuard_DenialsLookIdentical() {
	student := suite.loginAs("bob", "pw2", "student")
	forged := &http.Cookie{Name: cookieName, Value: "not-a-signed-token"}

	cases := map[string]*http.Cookie{
		"anonymous":  nil,
		"wrong role": student,
		"forged":     forged,
	}
	for name, cookie := range cases {
		resp := suite.do(getRequest("/driver/dashboard", cookie))
		suite.Equal(fiber.StatusFound, resp.StatusCode, name)
		suite.Equal("/", resp.Header.Get(fiber.HeaderLocation), name)
	}
}

func (suite *AuthRouterTestSuite) TestLogout_DestroysSession() {
	cookie := suite.loginAs("alice", "pw1", "driver")
	suite.Equal(1, suite.sessions.Len())

	resp := suite.do(getRequest("/logout", cookie))
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/", resp.Header.Get(fiber.HeaderLocation))
	suite.Equal(0, suite.sessions.Len())

	// The old cookie must behave exactly like no cookie.
	resp = suite.do(getRequest("/driver/dashboard", cookie))
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/", resp.Header.Get(fiber.HeaderLocation))
}

func (suite *AuthRouterTestSuite) TestLogout_WithoutSession() {
	resp := suite.do(getRequest("/logout", nil))

	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/", resp.Header.Get(fiber.HeaderLocation))
}

func (suite *AuthRouterTestSuite) TestLogin_ReplacesPreviousSession() {
	first := suite.loginAs("alice", "pw1", "driver")

	resp := suite.do(formRequest("/login", url.Values{"username": {"alice"}, "password": {"pw1"}}, first))
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal(1, suite.sessions.Len())
}

func (suite *AuthRouterTestSuite) TestUnmatchedRoute() {
	resp := suite.do(getRequest("/nowhere", nil))

	suite.Equal(fiber.StatusNotFound, resp.StatusCode)
	suite.Equal("Page not found", readBody(suite.T(), resp))
}

func TestAuthRouterTestSuite(t *testing.T) {
	suite.Run(t, new(AuthRouterTestSuite))
}

func TestCookieOptions_AppliedToSessionCookie(t *testing.T) {
	cfg := testConfig()
	users := testutil.NewMemoryUserRepository()
	driver := testutil.NewUserFixture().Driver("u1", "alice", "pw1")
	require.NoError(t, users.CreateUser(context.Background(), driver))

	signer, err := security.NewJWTCookieSigner(cfg)
	require.NoError(t, err)
	uc := usecase.NewAuthUsecase(users, testutil.NewMemorySessionStore(), nil, nil, usecase.Options{BcryptCost: bcrypt.MinCost})
	handler := authhttp.NewAuthHTTPHandler(uc, signer, authhttp.CookieOptions{
		Name:     cookieName,
		Path:     "/",
		MaxAge:   2 * time.Hour,
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Strict",
	}, nil)

	app := fiber.New()
	app.Post("/login", handler.Login)

	resp, err := app.Test(formRequest("/login", url.Values{"username": {"alice"}, "password": {"pw1"}}, nil), -1)
	require.NoError(t, err)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 7200, cookie.MaxAge)

	token, err := signer.Verify(cookie.Value)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
