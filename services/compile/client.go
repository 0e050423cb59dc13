// Package compile is the client for the external compilation service that
// turns contract source text into bytecode and an interface description.
package compile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kilnforge/kiln/common/logging"
	"github.com/rs/zerolog"
)

var ErrCompile = errors.New("compilation failed")

// Language is the language tag submitted with every compile request.
const Language = "solidity"

// Artifact is the immutable output of one compilation.
type Artifact struct {
	Name     string
	Bytecode []byte
	ABI      json.RawMessage
}

type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

func NewClient(endpoint string) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(strings.TrimSuffix(endpoint, "/")),
		logger: logging.NewLogger("compile"),
	}
}

type compileRequest struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Source   string `json:"source"`
}

type compileResponse struct {
	Bytecode string          `json:"bytecode"`
	ABI      json.RawMessage `json:"abi"`
}

// Compile submits source text and decodes the transport-encoded result.
// Compilation failures are fatal for the current deployment attempt; the
// client never retries on its own.
func (c *Client) Compile(ctx context.Context, name, source string) (*Artifact, error) {
	req := compileRequest{
		Name:     name,
		Language: Language,
		Source:   base64.StdEncoding.EncodeToString([]byte(source)),
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/compile")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrCompile, resp.StatusCode(), resp.Body())
	}

	var payload compileResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.logger.Debug().Str("response", string(resp.Body())).Msg("failed to unmarshal compile response")
		return nil, fmt.Errorf("%w: malformed response: %w", ErrCompile, err)
	}

	bytecode, err := base64.StdEncoding.DecodeString(payload.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("%w: bad bytecode encoding: %w", ErrCompile, err)
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("%w: empty bytecode for contract %s", ErrCompile, name)
	}

	abi, err := normalizeABI(payload.ABI)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str(logging.FieldContractName, name).
		Int("bytecodeLen", len(bytecode)).
		Msg("Contract compiled")

	return &Artifact{Name: name, Bytecode: bytecode, ABI: abi}, nil
}

// normalizeABI undoes the service's occasional double-escaping of the
// interface description: the ABI arrives as a JSON string containing JSON.
// Exactly one corrective pass is applied; a well-formed ABI passes through
// untouched.
func normalizeABI(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing interface description", ErrCompile)
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var unescaped string
		if err := json.Unmarshal(raw, &unescaped); err != nil {
			return nil, fmt.Errorf("%w: double-escaped interface description: %w", ErrCompile, err)
		}
		raw = json.RawMessage(unescaped)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: interface description is not valid JSON", ErrCompile)
	}
	return raw, nil
}

var contractNameRe = regexp.MustCompile(`(?m)^\s*contract\s+([A-Za-z_]\w*)`)

// ParseContractName extracts the contract name from source text.
func ParseContractName(source string) (string, error) {
	m := contractNameRe.FindStringSubmatch(source)
	if m == nil {
		return "", fmt.Errorf("%w: no contract declaration found in source", ErrCompile)
	}
	return m[1], nil
}
