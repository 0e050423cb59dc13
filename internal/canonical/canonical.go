// Package canonical produces the deterministic byte encoding of a
// transaction that the external signer signs. The encoding is JSON with
// object keys sorted lexicographically at every nesting level, no
// insignificant whitespace, integers rendered as plain decimals, and byte
// fields rendered as uppercase hex strings. Re-encoding the same logical
// transaction yields byte-identical output on any host.
package canonical

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/kilnforge/kiln/internal/types"
)

var ErrEncoding = errors.New("canonical encoding error")

// Marshal writes v as canonical JSON. Supported values: nil, bool, string,
// []byte (uppercase hex string), integer kinds (plain decimal),
// map[string]any (sorted keys), and slices of the above. Floats are
// rejected: they have no deterministic plain-decimal rendering.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}

	switch val := v.(type) {
	case string:
		return writeString(buf, val)
	case []byte:
		return writeString(buf, strings.ToUpper(hex.EncodeToString(val)))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
		return nil
	case map[string]any:
		return writeObject(buf, val)
	case []any:
		return writeArray(buf, val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
		return nil
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return writeArray(buf, items)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrEncoding, v)
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	// json.Marshal would escape <, > and & for HTML embedding, changing
	// the signed bytes. An encoder with HTML escaping off applies only
	// the escaping JSON itself requires.
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

func writeObject(buf *bytes.Buffer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, m[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeArray(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// SignBytes builds the canonical signing document for an unsigned
// transaction. The chain identifier is part of the signed payload to
// prevent cross-chain replay.
func SignBytes(chainID string, tx *types.Transaction) ([]byte, error) {
	if chainID == "" {
		return nil, fmt.Errorf("%w: chain identifier is empty", ErrEncoding)
	}
	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	recipient := ""
	if !tx.Recipient.IsEmpty() {
		recipient = tx.Recipient.Hex()
	}

	doc := map[string]any{
		"chain_id": chainID,
		"tx": []any{
			types.TransactionKindCall,
			map[string]any{
				"amount":    tx.Amount,
				"data":      tx.Payload,
				"fee":       tx.Fee,
				"gas_limit": tx.GasLimit,
				"recipient": recipient,
				"sender":    tx.Sender.Bytes(),
				"sequence":  tx.Sequence.Uint64(),
			},
		},
	}
	return Marshal(doc)
}

// SignHex renders the sign bytes as an uppercase hexadecimal string, the
// form the textual signing transport carries.
func SignHex(chainID string, tx *types.Transaction) (string, error) {
	b, err := SignBytes(chainID, tx)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
