package models

import "encoding/json"

// Metadata is the free-form key/value mapping attached to a deployment.
// It is forwarded to the tracking service without validation.
type Metadata map[string]any

// Deployment is a server-tracked record grouping the transactions submitted
// for one project within one environment.
type Deployment struct {
	ID          string               `json:"id"`
	ProjectID   string               `json:"projectId,omitempty"`
	Environment string               `json:"environment,omitempty"`
	Type        TransactionChainType `json:"type,omitempty"`
	Metadata    Metadata             `json:"metadata,omitempty"`
	CreatedAt   string               `json:"createdAt,omitempty"`

	// Fields is the deployment exactly as the tracking service returned it
	Fields map[string]any `json:"-"`
}

type deploymentView Deployment

func (d *Deployment) UnmarshalJSON(data []byte) error {
	var view deploymentView
	fields, err := decodeObject(data, &view)
	if err != nil {
		return err
	}
	*d = Deployment(view)
	d.Fields = fields
	return nil
}

func (d Deployment) MarshalJSON() ([]byte, error) {
	if d.Fields != nil {
		return json.Marshal(d.Fields)
	}
	return json.Marshal(deploymentView(d))
}

// CreateDeploymentRequest is the body sent when creating a deployment
type CreateDeploymentRequest struct {
	Environment string               `json:"environment"`
	Type        TransactionChainType `json:"type"`
	Metadata    Metadata             `json:"metadata,omitzero"`
}
