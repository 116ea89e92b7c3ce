package services

const (
	OperationCreateDeployment      = "create_deployment"
	OperationSendEthTransaction    = "send_eth_transaction"
	OperationAddTransactionReceipt = "add_transaction_receipt"
)

const projectTokenHeader = "project-token"

type CreateDeploymentArgs struct {
	ProjectID   string `validate:"required"`
	Token       string `validate:"required"`
	Environment string `validate:"required"`
}

type SendEthTransactionArgs struct {
	DeploymentID string `validate:"required"`
	Token        string `validate:"required"`
}

type AddTransactionReceiptArgs struct {
	DeploymentID string `validate:"required"`
	Token        string `validate:"required"`
	TxID         string `validate:"required"`
	TxHash       string `validate:"required"`
}
