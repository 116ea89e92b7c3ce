package services

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteOperationFailed is matched by every RemoteOperationFailedError
	ErrRemoteOperationFailed = errors.New("remote operation failed")
	// ErrInvalidArguments is returned before any request is sent
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrNoActiveChain is returned by the relay when no chain has been selected
	ErrNoActiveChain = errors.New("no active chain selected")
)

// RemoteOperationFailedError is returned when the tracking service answered
// with a non-2xx status. All three operations capture the status code and the
// response body; sending a transaction used to report the status code only.
type RemoteOperationFailedError struct {
	Operation    string
	ProjectID    string
	DeploymentID string
	TxID         string
	StatusCode   int
	Body         string
}

func (e *RemoteOperationFailedError) Error() string {
	var msg string
	switch e.Operation {
	case OperationCreateDeployment:
		msg = fmt.Sprintf("cannot create a deployment for project %s (status code %d)", e.ProjectID, e.StatusCode)
	case OperationSendEthTransaction:
		msg = fmt.Sprintf("the transaction could not be sent to the tracking service for deployment %s. Status Code: %d", e.DeploymentID, e.StatusCode)
	case OperationAddTransactionReceipt:
		msg = fmt.Sprintf("the transaction receipt for tx %s could not be sent to the tracking service (status code %d)", e.TxID, e.StatusCode)
	default:
		msg = fmt.Sprintf("%s failed with status code %d", e.Operation, e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *RemoteOperationFailedError) Unwrap() error {
	return ErrRemoteOperationFailed
}
