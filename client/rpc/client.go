package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"github.com/kilnforge/kiln/client"
	"github.com/kilnforge/kiln/common/logging"
	"github.com/kilnforge/kiln/internal/types"
	"github.com/rs/zerolog"
)

var (
	ErrChainQuery = errors.New("chain query failed")
	ErrBroadcast  = errors.New("broadcast rejected")

	ErrFailedToMarshalRequest    = errors.New("failed to marshal request")
	ErrFailedToSendRequest       = errors.New("failed to send request")
	ErrUnexpectedStatusCode      = errors.New("unexpected status code")
	ErrFailedToUnmarshalResponse = errors.New("failed to unmarshal response")
)

const methodBroadcastTx = "broadcast_tx"

var _ client.Client = (*Client)(nil)

// Client talks to the node over its HTTP interface: plain GET endpoints for
// chain queries and a JSON-RPC POST for transaction submission.
type Client struct {
	endpoint string
	http     *resty.Client
	seqno    atomic.Uint64
	logger   zerolog.Logger
}

type request struct {
	Version string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	Id      uint64 `json:"id"`
}

func NewClient(endpoint string, logger zerolog.Logger) *Client {
	endpoint = strings.TrimSuffix(endpoint, "/")
	if strings.HasPrefix(endpoint, "tcp://") {
		endpoint = "http://" + strings.TrimPrefix(endpoint, "tcp://")
	}
	return &Client{
		endpoint: endpoint,
		http:     resty.New().SetBaseURL(endpoint),
		logger:   logger,
	}
}

func (c *Client) getNextId() uint64 {
	return c.seqno.Add(1)
}

// get performs a GET request and returns the response payload with the
// node's result envelope removed.
func (c *Client) get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFailedToSendRequest, path, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: %s: %d: %s", ErrUnexpectedStatusCode, path, resp.StatusCode(), resp.Body())
	}
	c.logger.Trace().Str(logging.FieldUrl, path).RawJSON("response", resp.Body()).Send()
	return unwrapResult(resp.Body())
}

// unwrapResult strips the node's {"result": [...], "error": ...} envelope.
// Responses may arrive bare, wrapped in an object, or wrapped in a
// two-element [type, payload] array.
func unwrapResult(body []byte) (json.RawMessage, error) {
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Not an object envelope; treat the body as the payload.
		return body, nil
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("%w: node error: %s", ErrChainQuery, envelope.Error)
	}
	if len(envelope.Result) == 0 {
		return body, nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(envelope.Result, &parts); err == nil && len(parts) == 2 {
		return parts[1], nil
	}
	return envelope.Result, nil
}

func (c *Client) Status(ctx context.Context) (*client.Status, error) {
	raw, err := c.get(ctx, "/status", nil)
	if err != nil {
		return nil, wrapQueryErr("/status", err)
	}

	var status client.Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("%w: /status: %w", ErrChainQuery, err)
	}
	return &status, nil
}

func (c *Client) Genesis(ctx context.Context) (*client.Genesis, error) {
	raw, err := c.get(ctx, "/genesis", nil)
	if err != nil {
		return nil, wrapQueryErr("/genesis", err)
	}

	// The chain id may sit at the top level or under a "genesis" key.
	var payload struct {
		ChainID string          `json:"chain_id"`
		Genesis *client.Genesis `json:"genesis"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: /genesis: %w", ErrChainQuery, err)
	}
	if payload.Genesis != nil && payload.Genesis.ChainID != "" {
		return payload.Genesis, nil
	}
	if payload.ChainID == "" {
		return nil, fmt.Errorf("%w: /genesis: missing chain_id", ErrChainQuery)
	}
	return &client.Genesis{ChainID: payload.ChainID}, nil
}

// accountPayload is the node's account representation. A null account means
// the address has never transacted.
type accountPayload struct {
	Account *struct {
		Address  string      `json:"address"`
		Sequence types.Seqno `json:"sequence"`
		Balance  uint64      `json:"balance"`
		Code     string      `json:"code"`
	} `json:"account"`
}

func (c *Client) GetAccount(ctx context.Context, addr types.Address) (*types.Account, error) {
	raw, err := c.get(ctx, "/get_account", map[string]string{"address": addr.Hex()})
	if err != nil {
		return nil, wrapQueryErr("/get_account", err)
	}

	var payload accountPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: /get_account: %w", ErrChainQuery, err)
	}
	if payload.Account == nil {
		// Never transacted: a valid zero-sequence account.
		return &types.Account{Address: addr}, nil
	}

	code, err := hex.DecodeString(strings.TrimPrefix(payload.Account.Code, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: /get_account: bad code field: %w", ErrChainQuery, err)
	}
	return &types.Account{
		Address:  addr,
		Sequence: payload.Account.Sequence,
		Balance:  payload.Account.Balance,
		Code:     code,
	}, nil
}

func (c *Client) GetCode(ctx context.Context, addr types.Address) ([]byte, error) {
	account, err := c.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	return account.Code, nil
}

type broadcastReceipt struct {
	Receipt struct {
		ContractAddr string `json:"contract_addr"`
		TxHash       string `json:"tx_hash"`
	} `json:"receipt"`
}

func (c *Client) BroadcastTx(ctx context.Context, tx *types.SignedTransaction) (*types.Receipt, error) {
	req := &request{
		Version: "2.0",
		Method:  methodBroadcastTx,
		Params:  []any{tx},
		Id:      c.getNextId(),
	}
	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToMarshalRequest, err)
	}
	c.logger.Trace().RawJSON("request", requestBody).Send()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(requestBody).
		Post("")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToSendRequest, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode(), resp.Body())
	}

	var rpcResponse struct {
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &rpcResponse); err != nil {
		c.logger.Debug().Str("response", string(resp.Body())).Msg("failed to unmarshal response")
		return nil, fmt.Errorf("%w: %w", ErrFailedToUnmarshalResponse, err)
	}
	if len(rpcResponse.Error) != 0 && string(rpcResponse.Error) != "null" && string(rpcResponse.Error) != `""` {
		// The node's rejection reason must reach the caller.
		return nil, fmt.Errorf("%w: %s", ErrBroadcast, rpcResponse.Error)
	}

	var parts []json.RawMessage
	payload := rpcResponse.Result
	if err := json.Unmarshal(rpcResponse.Result, &parts); err == nil && len(parts) == 2 {
		payload = parts[1]
	}

	var br broadcastReceipt
	if err := json.Unmarshal(payload, &br); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToUnmarshalResponse, err)
	}

	receipt := &types.Receipt{TxHash: br.Receipt.TxHash}
	if br.Receipt.ContractAddr != "" {
		if err := receipt.ContractAddress.Set(br.Receipt.ContractAddr); err != nil {
			return nil, fmt.Errorf("%w: bad contract_addr: %w", ErrFailedToUnmarshalResponse, err)
		}
	}
	return receipt, nil
}

func (c *Client) SimulateCall(ctx context.Context, from, to types.Address, data []byte) ([]byte, error) {
	raw, err := c.get(ctx, "/call", map[string]string{
		"fromAddress": from.Hex(),
		"toAddress":   to.Hex(),
		"data":        strings.ToUpper(hex.EncodeToString(data)),
	})
	if err != nil {
		return nil, wrapQueryErr("/call", err)
	}

	var payload struct {
		Return string `json:"return"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: /call: %w", ErrChainQuery, err)
	}
	ret, err := hex.DecodeString(strings.TrimPrefix(payload.Return, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: /call: bad return field: %w", ErrChainQuery, err)
	}
	return ret, nil
}

func wrapQueryErr(endpoint string, err error) error {
	if errors.Is(err, ErrChainQuery) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrChainQuery, endpoint, err)
}
