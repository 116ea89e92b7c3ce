package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_KeepsServerFields(t *testing.T) {
	body := []byte(`{"id":"tx1","deploymentId":"dep1","status":"pending","gasLimit":"21000","value":1}`)

	var tx Transaction
	require.NoError(t, json.Unmarshal(body, &tx))

	assert.Equal(t, "tx1", tx.ID)
	assert.Equal(t, "dep1", tx.DeploymentID)
	assert.Empty(t, tx.TxHash)

	var expected map[string]any
	require.NoError(t, json.Unmarshal(body, &expected))
	assert.Equal(t, expected, tx.Fields)

	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(data))
}

func TestTransaction_MismatchedKnownField(t *testing.T) {
	body := []byte(`{"id":42,"deploymentId":"dep1","extra":true}`)

	var tx Transaction
	require.NoError(t, json.Unmarshal(body, &tx))
	assert.Empty(t, tx.ID)
	assert.Equal(t, "dep1", tx.DeploymentID)
	assert.Equal(t, float64(42), tx.Fields["id"])
	assert.Equal(t, true, tx.Fields["extra"])
}

func TestTransaction_MarshalWithoutFields(t *testing.T) {
	data, err := json.Marshal(Transaction{ID: "tx1", DeploymentID: "dep1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"tx1","deploymentId":"dep1"}`, string(data))
}

func TestDeployment_KeepsServerFields(t *testing.T) {
	body := []byte(`{"id":"dep1","environment":"staging","type":"ethereum","metadata":{"commit":"abc"},"createdAt":"2024-01-01T00:00:00Z","status":"active","owner":{"name":"ci"}}`)

	var deployment Deployment
	require.NoError(t, json.Unmarshal(body, &deployment))

	assert.Equal(t, "dep1", deployment.ID)
	assert.Equal(t, "staging", deployment.Environment)
	assert.Equal(t, TransactionChainTypeEthereum, deployment.Type)
	assert.Equal(t, Metadata{"commit": "abc"}, deployment.Metadata)

	data, err := json.Marshal(&deployment)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(data))
}

func TestDeployment_RejectsNonObject(t *testing.T) {
	var deployment Deployment
	assert.Error(t, json.Unmarshal([]byte(`"dep1"`), &deployment))
}

func TestTransactionParams_PassThrough(t *testing.T) {
	body := `{"to":"0xabc","value":1,"gasLimit":"21000","accessList":[],"type":2}`

	var params TransactionParams
	require.NoError(t, json.Unmarshal([]byte(body), &params))
	assert.Equal(t, "0xabc", params.String(TxParamTo))
	assert.Empty(t, params.String(TxParamValue), "numeric value is not a string")

	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(data))
}

func TestCreateDeploymentRequest(t *testing.T) {
	t.Run("without metadata", func(t *testing.T) {
		data, err := json.Marshal(CreateDeploymentRequest{
			Environment: "staging",
			Type:        TransactionChainTypeEthereum,
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"environment":"staging","type":"ethereum"}`, string(data))
	})

	t.Run("empty metadata is kept", func(t *testing.T) {
		data, err := json.Marshal(CreateDeploymentRequest{
			Environment: "staging",
			Type:        TransactionChainTypeEthereum,
			Metadata:    Metadata{},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"environment":"staging","type":"ethereum","metadata":{}}`, string(data))
	})

	t.Run("with metadata", func(t *testing.T) {
		data, err := json.Marshal(CreateDeploymentRequest{
			Environment: "production",
			Type:        TransactionChainTypeEthereum,
			Metadata:    Metadata{"commit": "abc123", "build": float64(42)},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"environment":"production","type":"ethereum","metadata":{"commit":"abc123","build":42}}`, string(data))
	})
}

func TestTransactionReceiptRequest_SoleField(t *testing.T) {
	data, err := json.Marshal(TransactionReceiptRequest{TxHash: "0xdeadbeef"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"txHash": "0xdeadbeef"}, decoded)
}
