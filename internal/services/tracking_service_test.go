package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rxtech-lab/deployment-tracker/internal/metrics"
	"github.com/rxtech-lab/deployment-tracker/internal/models"
	"github.com/rxtech-lab/deployment-tracker/internal/transport"
	"github.com/rxtech-lab/deployment-tracker/internal/utils"
	"github.com/stretchr/testify/suite"
)

const testBaseURL = "https://tracker.test/v1"

// mockTransport records every request and answers with a canned response
type mockTransport struct {
	mu         sync.Mutex
	requests   []*transport.Request
	statusCode int
	body       string
	err        error
}

func newMockTransport(statusCode int, body string) *mockTransport {
	return &mockTransport{statusCode: statusCode, body: body}
}

func (m *mockTransport) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &transport.Response{StatusCode: m.statusCode, Body: []byte(m.body)}, nil
}

func (m *mockTransport) lastRequest() *transport.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

func (m *mockTransport) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type TrackingServiceTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (suite *TrackingServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
}

func (suite *TrackingServiceTestSuite) newService(t transport.Transport) DeploymentTrackingService {
	return NewDeploymentTrackingService(t, utils.StaticBaseURL(testBaseURL))
}

func (suite *TrackingServiceTestSuite) decodeBody(req *transport.Request) map[string]any {
	var body map[string]any
	suite.Require().NoError(json.Unmarshal(req.Body, &body))
	return body
}

func (suite *TrackingServiceTestSuite) assertCommonHeaders(req *transport.Request, token string) {
	suite.Equal("application/json", req.Header["Content-Type"])
	suite.Equal(token, req.Header["project-token"])
	suite.NotEmpty(req.Header["X-Request-Id"])
}

func (suite *TrackingServiceTestSuite) TestCreateDeployment() {
	suite.Run("success returns the parsed deployment", func() {
		mock := newMockTransport(http.StatusOK, `{"id":"dep1","environment":"staging"}`)
		service := suite.newService(mock)

		deployment, err := service.CreateDeployment(suite.ctx, "proj1", "tok1", "staging", nil)
		suite.Require().NoError(err)
		suite.Equal("dep1", deployment.ID)
		suite.Equal("staging", deployment.Environment)

		req := mock.lastRequest()
		suite.Equal(http.MethodPost, req.Method)
		suite.Equal(testBaseURL+"/build-configs/proj1/deployments", req.URL)
		suite.assertCommonHeaders(req, "tok1")
		suite.Equal(map[string]any{
			"environment": "staging",
			"type":        "ethereum",
		}, suite.decodeBody(req))
	})

	suite.Run("result keeps every field of the response", func() {
		response := `{"id":"dep3","environment":"staging","status":"active","createdBy":{"name":"ci"},"version":3}`
		mock := newMockTransport(http.StatusOK, response)
		service := suite.newService(mock)

		deployment, err := service.CreateDeployment(suite.ctx, "proj1", "tok1", "staging", models.Metadata{})
		suite.Require().NoError(err)

		var expected map[string]any
		suite.Require().NoError(json.Unmarshal([]byte(response), &expected))
		suite.Equal(expected, deployment.Fields)

		encoded, err := json.Marshal(deployment)
		suite.Require().NoError(err)
		suite.JSONEq(response, string(encoded))

		suite.Equal(map[string]any{}, suite.decodeBody(mock.lastRequest())["metadata"])
	})

	suite.Run("metadata is passed through", func() {
		mock := newMockTransport(http.StatusCreated, `{"id":"dep2","projectId":"proj1","environment":"production","type":"ethereum","metadata":{"commit":"abc"}}`)
		service := suite.newService(mock)

		deployment, err := service.CreateDeployment(suite.ctx, "proj1", "tok1", "production", models.Metadata{"commit": "abc", "nested": map[string]any{"n": float64(1)}})
		suite.Require().NoError(err)
		suite.Equal("dep2", deployment.ID)
		suite.Equal("proj1", deployment.ProjectID)
		suite.Equal(models.TransactionChainTypeEthereum, deployment.Type)
		suite.Equal(models.Metadata{"commit": "abc"}, deployment.Metadata)

		body := suite.decodeBody(mock.lastRequest())
		suite.Equal(map[string]any{"commit": "abc", "nested": map[string]any{"n": float64(1)}}, body["metadata"])
	})

	suite.Run("non-success status is a remote failure with project and body", func() {
		mock := newMockTransport(http.StatusBadRequest, "bad environment")
		service := suite.newService(mock)

		deployment, err := service.CreateDeployment(suite.ctx, "proj1", "tok1", "staging", nil)
		suite.Nil(deployment)
		suite.Require().Error(err)
		suite.ErrorIs(err, ErrRemoteOperationFailed)
		suite.Contains(err.Error(), "proj1")
		suite.Contains(err.Error(), "bad environment")

		var remoteErr *RemoteOperationFailedError
		suite.Require().True(errors.As(err, &remoteErr))
		suite.Equal(OperationCreateDeployment, remoteErr.Operation)
		suite.Equal("proj1", remoteErr.ProjectID)
		suite.Equal(http.StatusBadRequest, remoteErr.StatusCode)
		suite.Equal("bad environment", remoteErr.Body)
	})

	suite.Run("malformed success body is a local error", func() {
		mock := newMockTransport(http.StatusOK, `not json`)
		service := suite.newService(mock)

		_, err := service.CreateDeployment(suite.ctx, "proj1", "tok1", "staging", nil)
		suite.Require().Error(err)
		suite.NotErrorIs(err, ErrRemoteOperationFailed)
		suite.Contains(err.Error(), "failed to decode deployment")
	})

	suite.Run("project id is escaped in the path", func() {
		mock := newMockTransport(http.StatusOK, `{"id":"dep1"}`)
		service := suite.newService(mock)

		_, err := service.CreateDeployment(suite.ctx, "team/proj 1", "tok1", "staging", nil)
		suite.Require().NoError(err)
		suite.Equal(testBaseURL+"/build-configs/team%2Fproj%201/deployments", mock.lastRequest().URL)
	})
}

func (suite *TrackingServiceTestSuite) TestCreateDeploymentInvalidArguments() {
	tests := []struct {
		name        string
		projectID   string
		token       string
		environment string
	}{
		{name: "empty project id", projectID: "", token: "tok1", environment: "staging"},
		{name: "empty token", projectID: "proj1", token: "", environment: "staging"},
		{name: "empty environment", projectID: "proj1", token: "tok1", environment: ""},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			mock := newMockTransport(http.StatusOK, `{"id":"dep1"}`)
			service := suite.newService(mock)

			_, err := service.CreateDeployment(suite.ctx, tt.projectID, tt.token, tt.environment, nil)
			suite.Require().Error(err)
			suite.ErrorIs(err, ErrInvalidArguments)
			suite.NotErrorIs(err, ErrRemoteOperationFailed)
			suite.Equal(0, mock.requestCount())
		})
	}
}

func (suite *TrackingServiceTestSuite) TestSendEthTransaction() {
	suite.Run("success returns the parsed transaction", func() {
		mock := newMockTransport(http.StatusOK, `{"id":"tx1","deploymentId":"dep1","to":"0xabc","value":"1"}`)
		service := suite.newService(mock)

		tx, err := service.SendEthTransaction(suite.ctx, "dep1", "tok1", models.TransactionParams{"to": "0xabc", "value": "1"})
		suite.Require().NoError(err)
		suite.Equal("tx1", tx.ID)
		suite.Equal("dep1", tx.DeploymentID)
		suite.Equal(map[string]any{"id": "tx1", "deploymentId": "dep1", "to": "0xabc", "value": "1"}, tx.Fields)

		req := mock.lastRequest()
		suite.Equal(http.MethodPost, req.Method)
		suite.Equal(testBaseURL+"/deployments/dep1/transactions", req.URL)
		suite.assertCommonHeaders(req, "tok1")
		suite.Equal(map[string]any{"to": "0xabc", "value": "1"}, suite.decodeBody(req))
	})

	suite.Run("transaction contents are not validated", func() {
		mock := newMockTransport(http.StatusOK, `{"id":"tx2"}`)
		service := suite.newService(mock)

		tx, err := service.SendEthTransaction(suite.ctx, "dep1", "tok1", models.TransactionParams{"to": "not-an-address", "value": "-5"})
		suite.Require().NoError(err)
		suite.Equal("tx2", tx.ID)
		suite.Equal(map[string]any{"to": "not-an-address", "value": "-5"}, suite.decodeBody(mock.lastRequest()))
	})

	suite.Run("unknown fields and non-string values are forwarded as-is", func() {
		mock := newMockTransport(http.StatusOK, `{"id":"tx3","status":"pending","gasLimit":"21000"}`)
		service := suite.newService(mock)

		params := `{"to":"0xabc","value":1,"gasLimit":"21000","accessList":[],"type":2}`
		var tx models.TransactionParams
		suite.Require().NoError(json.Unmarshal([]byte(params), &tx))

		registered, err := service.SendEthTransaction(suite.ctx, "dep1", "tok1", tx)
		suite.Require().NoError(err)
		suite.JSONEq(params, string(mock.lastRequest().Body))
		suite.Equal("pending", registered.Fields["status"])
		suite.Equal("21000", registered.Fields["gasLimit"])
	})

	suite.Run("non-success status embeds the status code", func() {
		mock := newMockTransport(http.StatusInternalServerError, "")
		service := suite.newService(mock)

		tx, err := service.SendEthTransaction(suite.ctx, "dep1", "tok1", models.TransactionParams{"to": "0xabc", "value": "1"})
		suite.Nil(tx)
		suite.Require().Error(err)
		suite.ErrorIs(err, ErrRemoteOperationFailed)
		suite.Contains(err.Error(), "500")
	})

	suite.Run("non-success status also reports the body", func() {
		mock := newMockTransport(http.StatusConflict, "deployment is closed")
		service := suite.newService(mock)

		_, err := service.SendEthTransaction(suite.ctx, "dep1", "tok1", models.TransactionParams{})
		suite.Require().Error(err)
		suite.Contains(err.Error(), "409")
		suite.Contains(err.Error(), "deployment is closed")

		var remoteErr *RemoteOperationFailedError
		suite.Require().True(errors.As(err, &remoteErr))
		suite.Equal("dep1", remoteErr.DeploymentID)
	})

	suite.Run("empty deployment id never reaches the transport", func() {
		mock := newMockTransport(http.StatusOK, `{"id":"tx1"}`)
		service := suite.newService(mock)

		_, err := service.SendEthTransaction(suite.ctx, "", "tok1", models.TransactionParams{})
		suite.ErrorIs(err, ErrInvalidArguments)
		suite.Equal(0, mock.requestCount())
	})
}

func (suite *TrackingServiceTestSuite) TestAddTransactionReceipt() {
	suite.Run("success sends the hash as the sole field", func() {
		mock := newMockTransport(http.StatusNoContent, "")
		service := suite.newService(mock)

		txHash := "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"
		err := service.AddTransactionReceipt(suite.ctx, "dep1", "tok1", "tx1", txHash)
		suite.Require().NoError(err)

		req := mock.lastRequest()
		suite.Equal(http.MethodPut, req.Method)
		suite.Equal(testBaseURL+"/deployments/dep1/transactions/tx1", req.URL)
		suite.assertCommonHeaders(req, "tok1")
		suite.Equal(map[string]any{"txHash": txHash}, suite.decodeBody(req))
	})

	suite.Run("hash is sent unmodified", func() {
		hashes := []string{"0xABCDEF", "  spaced  ", "not-hex-at-all", "0x"}
		for _, hash := range hashes {
			mock := newMockTransport(http.StatusOK, "")
			service := suite.newService(mock)

			suite.Require().NoError(service.AddTransactionReceipt(suite.ctx, "dep1", "tok1", "tx1", hash))
			suite.Equal(map[string]any{"txHash": hash}, suite.decodeBody(mock.lastRequest()))
		}
	})

	suite.Run("non-success status embeds the body", func() {
		mock := newMockTransport(http.StatusNotFound, "transaction not found")
		service := suite.newService(mock)

		err := service.AddTransactionReceipt(suite.ctx, "dep1", "tok1", "tx1", "0xabc")
		suite.Require().Error(err)
		suite.ErrorIs(err, ErrRemoteOperationFailed)
		suite.Contains(err.Error(), "transaction not found")

		var remoteErr *RemoteOperationFailedError
		suite.Require().True(errors.As(err, &remoteErr))
		suite.Equal("tx1", remoteErr.TxID)
		suite.Equal(http.StatusNotFound, remoteErr.StatusCode)
	})

	suite.Run("missing arguments never reach the transport", func() {
		mock := newMockTransport(http.StatusOK, "")
		service := suite.newService(mock)

		suite.ErrorIs(service.AddTransactionReceipt(suite.ctx, "dep1", "tok1", "", "0xabc"), ErrInvalidArguments)
		suite.ErrorIs(service.AddTransactionReceipt(suite.ctx, "dep1", "tok1", "tx1", ""), ErrInvalidArguments)
		suite.Equal(0, mock.requestCount())
	})
}

func (suite *TrackingServiceTestSuite) TestTransportErrorsPropagateUnmodified() {
	transportErr := errors.New("connection refused")
	mock := newMockTransport(0, "")
	mock.err = transportErr
	service := suite.newService(mock)

	_, err := service.CreateDeployment(suite.ctx, "proj1", "tok1", "staging", nil)
	suite.Equal(transportErr, err)

	_, err = service.SendEthTransaction(suite.ctx, "dep1", "tok1", models.TransactionParams{})
	suite.Equal(transportErr, err)

	err = service.AddTransactionReceipt(suite.ctx, "dep1", "tok1", "tx1", "0xabc")
	suite.Equal(transportErr, err)
	suite.NotErrorIs(err, ErrRemoteOperationFailed)
}

func (suite *TrackingServiceTestSuite) TestBaseURLResolverError() {
	mock := newMockTransport(http.StatusOK, `{"id":"dep1"}`)
	service := NewDeploymentTrackingService(mock, func() (string, error) {
		return "", fmt.Errorf("invalid TRACKER_API_URL env var")
	})

	_, err := service.CreateDeployment(suite.ctx, "proj1", "tok1", "staging", nil)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "failed to resolve tracking service URL")
	suite.Equal(0, mock.requestCount())
}

func (suite *TrackingServiceTestSuite) TestTokenIsNotCached() {
	mock := newMockTransport(http.StatusOK, `{"id":"tx1"}`)
	service := suite.newService(mock)

	_, err := service.SendEthTransaction(suite.ctx, "dep1", "tok1", models.TransactionParams{})
	suite.Require().NoError(err)
	suite.Equal("tok1", mock.lastRequest().Header["project-token"])

	_, err = service.SendEthTransaction(suite.ctx, "dep1", "tok2", models.TransactionParams{})
	suite.Require().NoError(err)
	suite.Equal("tok2", mock.lastRequest().Header["project-token"])
}

func (suite *TrackingServiceTestSuite) TestFullSequence() {
	// each step uses the identifier returned by the previous one
	mock := transport.TransportFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		switch req.URL {
		case testBaseURL + "/build-configs/proj1/deployments":
			return &transport.Response{StatusCode: http.StatusOK, Body: []byte(`{"id":"dep-42"}`)}, nil
		case testBaseURL + "/deployments/dep-42/transactions":
			return &transport.Response{StatusCode: http.StatusOK, Body: []byte(`{"id":"tx-7","deploymentId":"dep-42"}`)}, nil
		case testBaseURL + "/deployments/dep-42/transactions/tx-7":
			return &transport.Response{StatusCode: http.StatusOK}, nil
		}
		return &transport.Response{StatusCode: http.StatusNotFound, Body: []byte("unexpected " + req.URL)}, nil
	})
	service := suite.newService(mock)

	deployment, err := service.CreateDeployment(suite.ctx, "proj1", "tok1", "staging", nil)
	suite.Require().NoError(err)
	tx, err := service.SendEthTransaction(suite.ctx, deployment.ID, "tok1", models.TransactionParams{"to": "0xabc"})
	suite.Require().NoError(err)
	suite.Require().NoError(service.AddTransactionReceipt(suite.ctx, deployment.ID, "tok1", tx.ID, "0xhash"))
}

func (suite *TrackingServiceTestSuite) TestConcurrentCalls() {
	mock := newMockTransport(http.StatusOK, `{"id":"tx1"}`)
	service := suite.newService(mock)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.SendEthTransaction(suite.ctx, fmt.Sprintf("dep%d", i), "tok1", models.TransactionParams{})
			suite.NoError(err)
		}(i)
	}
	wg.Wait()
	suite.Equal(20, mock.requestCount())
}

func (suite *TrackingServiceTestSuite) TestMetricsRecorded() {
	registry := prometheus.NewRegistry()
	m := metrics.InitMetrics(registry)

	ok := NewDeploymentTrackingService(newMockTransport(http.StatusOK, `{"id":"dep1"}`), utils.StaticBaseURL(testBaseURL), WithTrackingMetrics(m))
	_, err := ok.CreateDeployment(suite.ctx, "proj1", "tok1", "staging", nil)
	suite.Require().NoError(err)

	failing := NewDeploymentTrackingService(newMockTransport(http.StatusBadGateway, "down"), utils.StaticBaseURL(testBaseURL), WithTrackingMetrics(m))
	_, err = failing.CreateDeployment(suite.ctx, "proj1", "tok1", "staging", nil)
	suite.Require().Error(err)

	count, err := testutil.GatherAndCount(registry, "deployment_tracker_requests_total")
	suite.Require().NoError(err)
	suite.Equal(2, count)
}

func TestTrackingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TrackingServiceTestSuite))
}
