package logging

const (
	// FieldError can be used instead of Err(err) if you have only the error message string.
	FieldError = "err"

	FieldComponent = "component"
	FieldChainId   = "chainId"

	FieldDuration = "duration"
	FieldUrl      = "url"
	FieldReqId    = "reqId"

	FieldRpcMethod = "rpcMethod"
	FieldRpcParams = "rpcParams"

	FieldTxHash   = "txHash"
	FieldTxSeqno  = "txSeqno"
	FieldTxSender = "txSender"
	FieldTxTo     = "txTo"

	FieldAccountAddress = "accountAddress"
	FieldAccountSeqno   = "accountSeqno"

	FieldBlockHeight = "blockHeight"

	FieldContractName    = "contractName"
	FieldContractAddress = "contractAddress"
	FieldMethod          = "method"
)
