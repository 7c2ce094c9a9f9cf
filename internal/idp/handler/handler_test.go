package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"idsim/internal/backend"
	idmodels "idsim/internal/identity/models"
	"idsim/internal/idp/handler/mocks"
	"idsim/internal/idp/models"
	"idsim/internal/platform/logger"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, logger.Discard(), nil, "").Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	return testutil.ServeJSON(s.T(), s.router, method, path, body)
}

func (s *HandlerSuite) raw(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
	return w
}

func (s *HandlerSuite) TestCreateIdentity() {
	s.Run("pending operation answers 202", func() {
		s.service.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *models.CreateIdentityRequest) (*models.OperationResult, error) {
				s.Equal("citizen_id", req.Namespace)
				s.Equal(idmodels.ResponseAccept, req.Response, "defaults are applied")
				return &models.OperationResult{ReferenceID: "ref-1", RequestID: "req-1"}, nil
			})

		w := s.do(http.MethodPost, "/identity", map[string]any{
			"namespace": " citizen_id ", "identifier": "1234", "mode": 3, "ial": 2.3,
		})
		s.Equal(http.StatusAccepted, w.Code)
		var got models.OperationResult
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
		s.Equal("req-1", got.RequestID)
	})

	s.Run("local commit answers 200", func() {
		s.service.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Return(&models.OperationResult{Committed: true}, nil)
		w := s.do(http.MethodPost, "/identity", map[string]any{"namespace": "ns", "identifier": "1"})
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("validation failure never reaches the service", func() {
		w := s.do(http.MethodPost, "/identity", map[string]any{"namespace": "ns", "mode": 7})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("existing identity", func() {
		s.service.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "identity already exists"))
		w := s.do(http.MethodPost, "/identity", map[string]any{"namespace": "ns", "identifier": "1"})
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("backend rejection is passed through", func() {
		s.service.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Return(nil, &backend.Error{
			Kind: backend.KindBackend, Status: http.StatusBadRequest,
			Body: []byte(`{"error":{"code":20001,"message":"invalid"}}`),
		})
		w := s.do(http.MethodPost, "/identity", map[string]any{"namespace": "ns", "identifier": "1", "mode": 3})
		s.Equal(http.StatusBadRequest, w.Code)
		s.JSONEq(`{"error":{"code":20001,"message":"invalid"}}`, w.Body.String())
	})

	s.Run("unreachable backend is a bad gateway", func() {
		s.service.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).Return(nil, &backend.Error{
			Kind: backend.KindNetwork, Err: errors.New("dial tcp: refused"),
		})
		w := s.do(http.MethodPost, "/identity", map[string]any{"namespace": "ns", "identifier": "1", "mode": 3})
		s.Equal(http.StatusBadGateway, w.Code)
	})
}

func (s *HandlerSuite) TestPathRoutes() {
	s.Run("mode takes the subject from the path", func() {
		s.service.EXPECT().UpdateMode(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *models.UpdateModeRequest) (*models.OperationResult, error) {
				s.Equal("citizen_id", req.Namespace)
				s.Equal("99", req.Identifier)
				s.Equal(3, req.Mode)
				return &models.OperationResult{ReferenceID: "r"}, nil
			})
		w := s.do(http.MethodPost, "/identity/citizen_id/99/mode", map[string]any{"mode": 3})
		s.Equal(http.StatusAccepted, w.Code)
	})

	s.Run("legacy mode route reads the body", func() {
		s.service.EXPECT().UpdateMode(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *models.UpdateModeRequest) (*models.OperationResult, error) {
				s.Equal("ns", req.Namespace)
				return &models.OperationResult{ReferenceID: "r"}, nil
			})
		w := s.do(http.MethodPost, "/updateMode", map[string]any{"namespace": "ns", "identifier": "1", "mode": 2})
		s.Equal(http.StatusAccepted, w.Code)
	})

	s.Run("accessor routes", func() {
		s.service.EXPECT().AddAccessor(gomock.Any(), gomock.Any()).Return(&models.OperationResult{AccessorID: "a"}, nil)
		s.service.EXPECT().RevokeAccessor(gomock.Any(), gomock.Any()).Return(&models.OperationResult{}, nil)
		s.service.EXPECT().RevokeAndAddAccessor(gomock.Any(), gomock.Any()).Return(&models.OperationResult{}, nil)
		s.service.EXPECT().RevokeAssociation(gomock.Any(), gomock.Any()).Return(&models.OperationResult{}, nil)

		for _, path := range []string{"accessors", "accessor_revoke", "accessor_revoke_and_add", "association_revoke"} {
			w := s.do(http.MethodPost, "/identity/ns/1/"+path, map[string]any{"accessor_id": "a"})
			s.Equal(http.StatusAccepted, w.Code, path)
		}
	})

	s.Run("get identity", func() {
		s.service.EXPECT().GetIdentity(gomock.Any(), "ns", "1").
			Return(&idmodels.Subject{Namespace: "ns", Identifier: "1", Mode: 3, AccessorIDs: []string{"a"}}, nil)
		w := s.do(http.MethodGet, "/identity/ns/1", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"accessor_ids":["a"]`)
	})

	s.Run("update identity", func() {
		s.service.EXPECT().UpdateIdentity(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *models.UpdateIdentityRequest) (*idmodels.Subject, error) {
				s.Require().NotNil(req.Delay)
				s.Equal(3, *req.Delay)
				s.Nil(req.AAL)
				return &idmodels.Subject{Delay: 3}, nil
			})
		w := s.do(http.MethodPost, "/updateIdentity", map[string]any{"namespace": "ns", "identifier": "1", "delay": 3})
		s.Equal(http.StatusOK, w.Code)
	})
}

func (s *HandlerSuite) TestWebhooks() {
	s.Run("result callbacks are acknowledged", func() {
		s.service.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cb backend.Callback) error {
				s.Equal(backend.TypeAddAccessorResult, cb.Type)
				s.Equal("ref-1", cb.ReferenceID)
				return nil
			})
		w := s.do(http.MethodPost, "/idp/callback/accessor", map[string]any{
			"type": "add_accessor_result", "reference_id": "ref-1", "success": true,
		})
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("internal failures are still acknowledged", func() {
		s.service.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).Return(errors.New("store down"))
		w := s.do(http.MethodPost, "/idp/callback/identity", map[string]any{"type": "create_identity_result"})
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("unknown type is a 500", func() {
		s.service.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).Return(backend.ErrUnknownCallbackType)
		w := s.do(http.MethodPost, "/idp/callback/identity", map[string]any{"type": "nope"})
		s.Equal(http.StatusInternalServerError, w.Code)
	})

	s.Run("error webhook defaults its type", func() {
		s.service.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cb backend.Callback) error {
				s.Equal(backend.TypeError, cb.Type)
				return nil
			})
		w := s.do(http.MethodPost, "/idp/callback/error", map[string]any{"error": map[string]any{"code": 1}})
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("undecodable webhooks are dropped and acknowledged", func() {
		for _, path := range []string{"/idp/callback/accessor", "/idp/callback/error", "/idp/callback/request"} {
			w := s.raw(http.MethodPost, path, `{"type":"add_accessor_result",`)
			s.Equal(http.StatusNoContent, w.Code, path)
		}
	})

	s.Run("incoming request is acknowledged before answering", func() {
		s.service.EXPECT().HandleIncomingRequest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req backend.IncomingRequest) error {
				s.Equal("req-9", req.RequestID)
				return nil
			})
		w := s.do(http.MethodPost, "/idp/callback/request", map[string]any{"request_id": "req-9", "mode": 3})
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("sign answers inline", func() {
		s.service.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(backend.SignResponse{Signature: "c2ln"}, nil)
		w := s.do(http.MethodPost, "/idp/callback/accessor/sign", map[string]any{"accessor_id": "a", "message": "m"})
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"signature":"c2ln"}`, w.Body.String())
	})

	s.Run("sign failure is a 500", func() {
		s.service.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(backend.SignResponse{},
			dErrors.New(dErrors.CodeNotFound, "accessor key not found"))
		w := s.do(http.MethodPost, "/idp/callback/accessor/sign", map[string]any{"accessor_id": "a"})
		s.Equal(http.StatusInternalServerError, w.Code)
	})
}

func (s *HandlerSuite) TestAdminToken() {
	ctrl := gomock.NewController(s.T())
	svc := mocks.NewMockService(ctrl)
	router := chi.NewRouter()
	New(svc, logger.Discard(), nil, "secret").Register(router)

	req := httptest.NewRequest(http.MethodPost, "/identity", bytes.NewBufferString(`{"namespace":"ns","identifier":"1"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)

	svc.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).Return(nil)
	req = httptest.NewRequest(http.MethodPost, "/idp/callback/mode", bytes.NewBufferString(`{"type":"upgrade_identity_mode_result"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Equal(http.StatusNoContent, w.Code, "webhooks are not behind the admin token")
}
