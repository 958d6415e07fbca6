package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	bushttp "bus-tracker/internal/bus/adapter/http"
	"bus-tracker/internal/bus/domain/model"
	"bus-tracker/internal/bus/domain/service"
	"bus-tracker/internal/bus/testutil"
	"bus-tracker/internal/bus/usecase"
	"bus-tracker/internal/shared/utils"
	"bus-tracker/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

const testUserHeader = "X-Test-User"

// guardFor stands in for the session guard: the caller's identity comes from
// a header and only role may pass.
func guardFor(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		parts := strings.SplitN(c.Get(testUserHeader), ":", 2)
		if len(parts) != 2 || parts[1] != role {
			return c.Redirect("/")
		}
		ctx := utils.WithUserID(c.UserContext(), parts[0])
		c.SetUserContext(utils.WithRole(ctx, parts[1]))
		return c.Next()
	}
}

type BusHandlerTestSuite struct {
	suite.Suite
	app  *fiber.App
	repo *testutil.MemoryBusRepository
}

func (suite *BusHandlerTestSuite) SetupTest() {
	policy, err := service.NewOwnershipPolicy("")
	suite.Require().NoError(err)
	suite.repo = testutil.NewMemoryBusRepository()
	uc := usecase.NewBusUsecase(suite.repo, policy, nil, nil)

	suite.app = web.NewApp(web.Options{})
	bushttp.NewBusHTTPHandler(uc, nil).SetupBusRoutes(suite.app, guardFor("driver"), guardFor("student"))
	web.RegisterFallback(suite.app)
}

func (suite *BusHandlerTestSuite) do(method, target, user string, form url.Values) (*http.Response, string) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	resp, err := suite.app.Test(req, -1)
	suite.Require().NoError(err)
	raw, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	return resp, string(raw)
}

func (suite *BusHandlerTestSuite) seed(driverID, name string) *model.Bus {
	bus := &model.Bus{BusName: name, Timings: "8am-6pm", DriverID: driverID}
	suite.Require().NoError(suite.repo.Create(context.Background(), bus))
	return bus
}

func (suite *BusHandlerTestSuite) TestCreateThenDashboard() {
	resp, _ := suite.do(http.MethodPost, "/driver/bus", "alice:driver", url.Values{
		"busName": {"Route 5"},
		"timings": {"8am-6pm"},
	})
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/driver/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp, body := suite.do(http.MethodGet, "/driver/dashboard", "alice:driver", nil)
	suite.Equal(fiber.StatusOK, resp.StatusCode)
	suite.Contains(body, "Route 5")
	suite.Contains(body, "8am-6pm")

	_, body = suite.do(http.MethodGet, "/driver/dashboard", "carol:driver", nil)
	suite.NotContains(body, "Route 5")
}

func (suite *BusHandlerTestSuite) TestCreate_BlankFieldsRerenderForm() {
	resp, body := suite.do(http.MethodPost, "/driver/bus", "alice:driver", url.Values{"busName": {"Route 5"}})

	suite.Equal(fiber.StatusOK, resp.StatusCode)
	suite.Contains(body, "Please enter both a bus name and its timings.")
	suite.Contains(body, `value="Route 5"`)
	suite.Equal(0, suite.repo.Len())
}

func (suite *BusHandlerTestSuite) TestAddPage() {
	resp, body := suite.do(http.MethodGet, "/driver/bus/add", "alice:driver", nil)

	suite.Equal(fiber.StatusOK, resp.StatusCode)
	suite.Contains(body, `action="/driver/bus"`)
}

func (suite *BusHandlerTestSuite) TestEditPage() {
	bus := suite.seed("alice", "Route 5")

	resp, body := suite.do(http.MethodGet, "/driver/bus/"+bus.ID+"/edit", "alice:driver", nil)
	suite.Equal(fiber.StatusOK, resp.StatusCode)
	suite.Contains(body, `value="Route 5"`)

	resp, body = suite.do(http.MethodGet, "/driver/bus/"+bus.ID+"/edit", "carol:driver", nil)
	suite.Equal(fiber.StatusNotFound, resp.StatusCode)
	suite.Equal("Page not found", body)
}

func (suite *BusHandlerTestSuite) TestUpdateThroughMethodOverride() {
	bus := suite.seed("alice", "Route 5")

	resp, _ := suite.do(http.MethodPost, "/driver/bus/"+bus.ID+"?_method=PUT", "alice:driver", url.Values{
		"busName": {"Route 5X"},
		"timings": {"7am-5pm"},
	})
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal("/driver/dashboard", resp.Header.Get(fiber.HeaderLocation))

	stored, err := suite.repo.FindByID(context.Background(), bus.ID)
	suite.Require().NoError(err)
	suite.Equal("Route 5X", stored.BusName)
	suite.Equal("7am-5pm", stored.Timings)
}

func (suite *BusHandlerTestSuite) TestUpdate_ForeignBusIsNotFound() {
	bus := suite.seed("alice", "Route 5")

	resp, _ := suite.do(http.MethodPut, "/driver/bus/"+bus.ID, "carol:driver", url.Values{
		"busName": {"Hijacked"},
		"timings": {"never"},
	})
	suite.Equal(fiber.StatusNotFound, resp.StatusCode)

	stored, err := suite.repo.FindByID(context.Background(), bus.ID)
	suite.Require().NoError(err)
	suite.Equal("Route 5", stored.BusName)
}

func (suite *BusHandlerTestSuite) TestUpdate_BlankFieldsRerenderForm() {
	bus := suite.seed("alice", "Route 5")

	resp, body := suite.do(http.MethodPut, "/driver/bus/"+bus.ID, "alice:driver", url.Values{"busName": {""}, "timings": {"9am"}})
	suite.Equal(fiber.StatusOK, resp.StatusCode)
	suite.Contains(body, "Please enter both a bus name and its timings.")
}

func (suite *BusHandlerTestSuite) TestUpdate_BlankFieldsOnForeignBusIsNotFound() {
	bus := suite.seed("alice", "Route 5")
	blank := url.Values{"busName": {""}, "timings": {""}}

	resp, body := suite.do(http.MethodPut, "/driver/bus/"+bus.ID, "carol:driver", blank)
	suite.Equal(fiber.StatusNotFound, resp.StatusCode)
	suite.Equal("Page not found", body)

	resp, body = suite.do(http.MethodPut, "/driver/bus/missing", "alice:driver", blank)
	suite.Equal(fiber.StatusNotFound, resp.StatusCode)
	suite.Equal("Page not found", body)
}

func (suite *BusHandlerTestSuite) TestDeleteThroughFormField() {
	bus := suite.seed("alice", "Route 5")

	resp, _ := suite.do(http.MethodPost, "/driver/bus/"+bus.ID, "alice:driver", url.Values{"_method": {"DELETE"}})
	suite.Equal(fiber.StatusFound, resp.StatusCode)
	suite.Equal(0, suite.repo.Len())

	resp, _ = suite.do(http.MethodDelete, "/driver/bus/"+bus.ID, "alice:driver", nil)
	suite.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (suite *BusHandlerTestSuite) TestStudentDashboardListsEveryBus() {
	suite.seed("alice", "Route 5")
	suite.seed("carol", "Route 9")

	resp, body := suite.do(http.MethodGet, "/student/dashboard", "bob:student", nil)
	suite.Equal(fiber.StatusOK, resp.StatusCode)
	suite.Contains(body, "Route 5")
	suite.Contains(body, "Route 9")
}

func (suite *BusHandlerTestSuite) TestGuardsRedirectWithoutMutation() {
	bus := suite.seed("alice", "Route 5")

	cases := []struct {
		method, target, user string
	}{
		{http.MethodGet, "/driver/dashboard", ""},
		{http.MethodGet, "/driver/dashboard", "bob:student"},
		{http.MethodPost, "/driver/bus", "bob:student"},
		{http.MethodDelete, "/driver/bus/" + bus.ID, ""},
		{http.MethodGet, "/student/dashboard", "alice:driver"},
	}
	for _, tc := range cases {
		resp, _ := suite.do(tc.method, tc.target, tc.user, url.Values{"busName": {"x"}, "timings": {"y"}})
		suite.Equal(fiber.StatusFound, resp.StatusCode, tc.target)
		suite.Equal("/", resp.Header.Get(fiber.HeaderLocation), tc.target)
	}
	suite.Equal(1, suite.repo.Len())
}

func TestBusHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(BusHandlerTestSuite))
}
