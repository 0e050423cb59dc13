// Package keysign is the client for the external signing service. The
// service holds the private keys; the orchestrator only ever sends it the
// hex-rendered canonical sign bytes and receives an opaque signature.
package keysign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kilnforge/kiln/common/logging"
	"github.com/kilnforge/kiln/internal/types"
	"github.com/rs/zerolog"
)

var ErrSigning = errors.New("signing failed")

type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

func NewClient(endpoint string) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(strings.TrimSuffix(endpoint, "/")),
		logger: logging.NewLogger("keysign"),
	}
}

// response is the signer's envelope for both endpoints.
type response struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (c *Client) post(ctx context.Context, path string, body any) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrSigning, path, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: %s: unexpected status code %d: %s",
			ErrSigning, path, resp.StatusCode(), resp.Body())
	}

	var payload response
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("%w: %s: malformed response: %w", ErrSigning, path, err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("%w: %s: %s", ErrSigning, path, payload.Error)
	}
	if payload.Response == "" {
		return "", fmt.Errorf("%w: %s: empty response", ErrSigning, path)
	}
	return payload.Response, nil
}

// Sign requests a signature over hex-rendered canonical sign bytes. The
// request is deterministic, but retrying is left to the caller.
func (c *Client) Sign(ctx context.Context, msgHex string, addr types.Address) (string, error) {
	sig, err := c.post(ctx, "/sign", map[string]string{
		"msg":  msgHex,
		"addr": addr.Hex(),
	})
	if err != nil {
		return "", err
	}
	c.logger.Debug().
		Str(logging.FieldAccountAddress, addr.Hex()).
		Msg("Payload signed")
	return sig, nil
}

// PublicKey fetches the public key the signer holds for an address.
func (c *Client) PublicKey(ctx context.Context, addr types.Address) (string, error) {
	return c.post(ctx, "/pub", map[string]string{
		"addr": addr.Hex(),
	})
}
