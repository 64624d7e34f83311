package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pacelink.app/relay/internal/activity"
	"pacelink.app/relay/internal/http/handler"
	"pacelink.app/relay/internal/http/router"
	"pacelink.app/relay/internal/service"
)

var _ = Describe("ToolsHandler", func() {
	var (
		engine *gin.Engine
		svc    *mockToolService
	)

	serve := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		svc = &mockToolService{result: service.ToolResult{Status: service.ToolSuccess, Content: "done"}}
		router.ToolsRouter(engine.Group("/api/v1/tools"), handler.NewToolsHandler(svc))
	})

	It("returns the tool result as json", func() {
		w := serve(http.MethodGet, "/api/v1/tools/recent_activities?limit=3")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.limit).To(Equal(3))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["status"]).To(Equal("success"))
		Expect(resp["content"]).To(Equal("done"))
	})

	It("defaults the recent activity limit", func() {
		serve(http.MethodGet, "/api/v1/tools/recent_activities")
		Expect(svc.limit).To(Equal(5))
	})

	It("rejects a non-numeric limit", func() {
		Expect(serve(http.MethodGet, "/api/v1/tools/recent_activities?limit=lots").Code).To(Equal(http.StatusBadRequest))
	})

	It("passes the activity id", func() {
		Expect(serve(http.MethodGet, "/api/v1/tools/analyze_activity/987").Code).To(Equal(http.StatusOK))
		Expect(svc.activityID).To(Equal(int64(987)))
	})

	It("rejects an invalid activity id", func() {
		Expect(serve(http.MethodGet, "/api/v1/tools/analyze_activity/abc").Code).To(Equal(http.StatusBadRequest))
		Expect(svc.called).To(BeEmpty())
	})

	It("omits weekly content unless requested", func() {
		serve(http.MethodGet, "/api/v1/tools/weekly_summary")
		Expect(svc.includeContent).To(BeFalse())

		serve(http.MethodGet, "/api/v1/tools/weekly_summary?include_content=true")
		Expect(svc.includeContent).To(BeTrue())
	})

	It("passes the date query through", func() {
		serve(http.MethodGet, "/api/v1/tools/activities_by_date?start_date=2024-05-01&end_date=2024-05-07")

		Expect(svc.dateQuery).To(Equal(activity.DateQuery{StartDate: "2024-05-01", EndDate: "2024-05-07"}))
		Expect(svc.limit).To(Equal(30))
	})

	It("routes subscription management", func() {
		serve(http.MethodPost, "/api/v1/tools/webhook_subscriptions")
		Expect(svc.called).To(Equal("create_subscription"))

		serve(http.MethodGet, "/api/v1/tools/webhook_subscriptions")
		Expect(svc.called).To(Equal("list_subscriptions"))

		serve(http.MethodDelete, "/api/v1/tools/webhook_subscriptions/44")
		Expect(svc.called).To(Equal("delete_subscription"))
		Expect(svc.subscriptionID).To(Equal(int64(44)))
	})

	It("keeps upstream failures at 200 with an error status", func() {
		svc.result = service.ToolResult{Status: service.ToolError, Error: "strava returned 500: oops"}

		w := serve(http.MethodGet, "/api/v1/tools/athlete")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"status":"error"`))
	})

	It("answers 401 before authorization", func() {
		svc.result = service.ToolResult{
			Status: service.ToolError,
			Error:  "strava not authenticated",
			Err:    &service.CredentialError{Kind: service.CredentialNotAuthenticated},
		}

		w := serve(http.MethodGet, "/api/v1/tools/athlete")

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).ToNot(ContainSubstring("Err"))
	})
})
