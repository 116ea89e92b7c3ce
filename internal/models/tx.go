package models

import "encoding/json"

type TransactionStatus string

type TransactionChainType string

const (
	TransactionChainTypeEthereum TransactionChainType = "ethereum"
)

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Keys of the transaction parameters this repo writes itself
const (
	TxParamFrom                 = "from"
	TxParamTo                   = "to"
	TxParamValue                = "value"
	TxParamData                 = "data"
	TxParamGas                  = "gas"
	TxParamGasPrice             = "gasPrice"
	TxParamMaxFeePerGas         = "maxFeePerGas"
	TxParamMaxPriorityFeePerGas = "maxPriorityFeePerGas"
	TxParamNonce                = "nonce"
	TxParamChainID              = "chainId"
	TxParamHash                 = "hash"
)

// TransactionParams are the parameters of an on-chain transaction. They are
// opaque to the tracker client and forwarded as-is, whatever their keys or
// value types.
type TransactionParams map[string]any

// String returns the parameter under key when it is a string
func (p TransactionParams) String(key string) string {
	return stringField(p, key)
}

// Transaction is a transaction registered against a deployment
type Transaction struct {
	ID           string `json:"id"`
	DeploymentID string `json:"deploymentId,omitempty"`
	// TxHash is set once the receipt has been attached
	TxHash string `json:"txHash,omitempty"`

	// Fields is the transaction exactly as the tracking service returned it
	Fields map[string]any `json:"-"`
}

type transactionView Transaction

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var view transactionView
	fields, err := decodeObject(data, &view)
	if err != nil {
		return err
	}
	*t = Transaction(view)
	t.Fields = fields
	return nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	if t.Fields != nil {
		return json.Marshal(t.Fields)
	}
	return json.Marshal(transactionView(t))
}

// TransactionReceiptRequest is the body used to attach a mined transaction
// hash to a registered transaction. TxHash is its only field.
type TransactionReceiptRequest struct {
	TxHash string `json:"txHash"`
}
