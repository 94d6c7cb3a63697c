package application_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-elms/internal/application"
	applicationerrors "go-elms/internal/application/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeApplicationService struct {
	submitFn            func(ctx context.Context, requesterID string, req application.CreateApplicationRequest) (application.ApplicationResponse, error)
	decideFn            func(ctx context.Context, actor application.Actor, id string, req application.DecisionRequest) (application.ApplicationResponse, error)
	cancelFn            func(ctx context.Context, requesterID, id string) (application.ApplicationResponse, error)
	getByIDFn           func(ctx context.Context, id string) (application.ApplicationResponse, error)
	listForRequesterFn  func(ctx context.Context, requesterID string) ([]application.ApplicationResponse, error)
	listApproverQueueFn func(ctx context.Context, actor application.Actor) ([]application.ApplicationResponse, error)
	historyFn           func(ctx context.Context, id string) ([]application.HistoryResponse, error)
}

func (f *fakeApplicationService) Submit(ctx context.Context, requesterID string, req application.CreateApplicationRequest) (application.ApplicationResponse, error) {
	return f.submitFn(ctx, requesterID, req)
}
func (f *fakeApplicationService) Decide(ctx context.Context, actor application.Actor, id string, req application.DecisionRequest) (application.ApplicationResponse, error) {
	return f.decideFn(ctx, actor, id, req)
}
func (f *fakeApplicationService) Cancel(ctx context.Context, requesterID, id string) (application.ApplicationResponse, error) {
	return f.cancelFn(ctx, requesterID, id)
}
func (f *fakeApplicationService) GetByID(ctx context.Context, id string) (application.ApplicationResponse, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeApplicationService) ListForRequester(ctx context.Context, requesterID string) ([]application.ApplicationResponse, error) {
	return f.listForRequesterFn(ctx, requesterID)
}
func (f *fakeApplicationService) ListApproverQueue(ctx context.Context, actor application.Actor) ([]application.ApplicationResponse, error) {
	return f.listApproverQueueFn(ctx, actor)
}
func (f *fakeApplicationService) History(ctx context.Context, id string) ([]application.HistoryResponse, error) {
	return f.historyFn(ctx, id)
}

func TestApplicationHandler_Submit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		requesterID := uuid.New().String()
		leaveTypeID := uuid.New().String()

		svc := &fakeApplicationService{
			submitFn: func(ctx context.Context, rid string, req application.CreateApplicationRequest) (application.ApplicationResponse, error) {
				assert.Equal(t, requesterID, rid)
				assert.Equal(t, leaveTypeID, req.LeaveTypeID)
				return application.ApplicationResponse{
					ID:          uuid.New().String(),
					RequesterID: rid,
					LeaveTypeID: req.LeaveTypeID,
					Status:      application.StatusPending,
				}, nil
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"leave_type_id":"` + leaveTypeID + `","start_date":"2026-06-01","end_date":"2026-06-03","days":3,"reason":"Family wedding out of town"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("user_id", requesterID)

		h.Submit(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
	})

	t.Run("negative missing fields", func(t *testing.T) {
		h := application.NewHandler(&fakeApplicationService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("user_id", uuid.New().String())

		h.Submit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
	})

	t.Run("negative service error carries code", func(t *testing.T) {
		svc := &fakeApplicationService{
			submitFn: func(ctx context.Context, rid string, req application.CreateApplicationRequest) (application.ApplicationResponse, error) {
				return application.ApplicationResponse{}, applicationerrors.ErrRequesterInactive
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"leave_type_id":"` + uuid.New().String() + `","start_date":"2026-06-01","end_date":"2026-06-03","days":3,"reason":"Family wedding out of town"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("user_id", uuid.New().String())

		h.Submit(c)

		assert.Equal(t, applicationerrors.ErrRequesterInactive.HTTPStatus, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		if assert.NotNil(t, env.Error) {
			assert.Equal(t, applicationerrors.ErrRequesterInactive.Code, env.Error.Code)
		}
	})
}

func TestApplicationHandler_Decide(t *testing.T) {
	t.Run("success passes actor from context", func(t *testing.T) {
		appID := uuid.New().String()
		hodID := uuid.New().String()

		svc := &fakeApplicationService{
			decideFn: func(ctx context.Context, actor application.Actor, id string, req application.DecisionRequest) (application.ApplicationResponse, error) {
				assert.Equal(t, appID, id)
				assert.Equal(t, hodID, actor.UserID)
				assert.Equal(t, "cse.hod@college.edu", actor.Email)
				assert.Equal(t, "HOD", actor.Role)
				assert.Equal(t, application.DecisionApprove, req.Decision)
				return application.ApplicationResponse{ID: id, Status: application.StatusHODApproved}, nil
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves/"+appID+"/decision", strings.NewReader(`{"decision":"APPROVE"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: appID}}
		c.Set("user_id", hodID)
		c.Set("email", "cse.hod@college.edu")
		c.Set("role", "HOD")

		h.Decide(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("negative unknown decision value", func(t *testing.T) {
		h := application.NewHandler(&fakeApplicationService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves/x/decision", strings.NewReader(`{"decision":"MAYBE"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Decide(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestApplicationHandler_List(t *testing.T) {
	t.Run("queue flag routes to approver queue", func(t *testing.T) {
		called := false
		svc := &fakeApplicationService{
			listApproverQueueFn: func(ctx context.Context, actor application.Actor) ([]application.ApplicationResponse, error) {
				called = true
				assert.Equal(t, "HOD", actor.Role)
				return nil, nil
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leaves?queue=true", nil)
		c.Set("user_id", uuid.New().String())
		c.Set("email", "cse.hod@college.edu")
		c.Set("role", "HOD")

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)
	})

	t.Run("default lists own applications", func(t *testing.T) {
		requesterID := uuid.New().String()
		svc := &fakeApplicationService{
			listForRequesterFn: func(ctx context.Context, rid string) ([]application.ApplicationResponse, error) {
				assert.Equal(t, requesterID, rid)
				return []application.ApplicationResponse{{ID: uuid.New().String()}}, nil
			},
		}

		h := application.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leaves", nil)
		c.Set("user_id", requesterID)

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
	})
}
