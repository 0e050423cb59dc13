// Package callenc encodes contract function calls against an interface
// description and decodes scalar return values. Encoding produces the
// standard ABI payload: a 4-byte selector derived from the keccak hash of
// the function signature, followed by arguments padded to 32-byte words.
package callenc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	eth_common "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrArityMismatch   = errors.New("argument count mismatch")
	ErrArgumentType    = errors.New("argument type mismatch")
	ErrBadInterface    = errors.New("malformed interface description")
	ErrBadReturnValue  = errors.New("malformed return value")
)

// Interface is a parsed description of a contract's callable functions.
type Interface struct {
	abi abi.ABI
	raw json.RawMessage
}

// ParseInterface parses a JSON ABI produced by the compile service.
func ParseInterface(raw []byte) (*Interface, error) {
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInterface, err)
	}
	return &Interface{abi: parsed, raw: raw}, nil
}

// Raw returns the interface description exactly as it was parsed, for
// persisting in the contract registry.
func (i *Interface) Raw() json.RawMessage {
	return i.raw
}

// HasFunction reports whether the interface declares the named function.
func (i *Interface) HasFunction(name string) bool {
	_, ok := i.abi.Methods[name]
	return ok
}

// EncodeCall produces the call payload for the named function from
// positional argument literals. It never returns a silently empty payload:
// an unknown name, wrong arity, or uncoercible literal is an error.
func (i *Interface) EncodeCall(name string, args []string) ([]byte, error) {
	method, ok := i.abi.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	if len(args) != len(method.Inputs) {
		return nil, fmt.Errorf("%w: %q expects %d arguments, got %d",
			ErrArityMismatch, name, len(method.Inputs), len(args))
	}

	values := make([]any, len(args))
	for idx, arg := range args {
		val, err := parseArgument(arg, method.Inputs[idx].Type)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d of %q: %w", ErrArgumentType, idx, name, err)
		}
		values[idx] = val
	}

	payload, err := i.abi.Pack(name, values...)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrArgumentType, name, err)
	}
	return payload, nil
}

// parseArgument coerces a literal to the declared ABI type.
func parseArgument(arg string, tp abi.Type) (any, error) {
	refTp := tp.GetType()
	val := reflect.New(refTp).Elem()
	switch tp.T {
	case abi.IntTy, abi.UintTy:
		i, ok := new(big.Int).SetString(arg, 0)
		if !ok {
			return nil, fmt.Errorf("cannot parse integer literal %q", arg)
		}
		if tp.Size > 64 {
			val.Set(reflect.ValueOf(i))
		} else if tp.T == abi.UintTy {
			if i.Sign() < 0 || !i.IsUint64() || val.OverflowUint(i.Uint64()) {
				return nil, fmt.Errorf("integer literal %q out of range for %s", arg, tp.String())
			}
			val.SetUint(i.Uint64())
		} else {
			if !i.IsInt64() || val.OverflowInt(i.Int64()) {
				return nil, fmt.Errorf("integer literal %q out of range for %s", arg, tp.String())
			}
			val.SetInt(i.Int64())
		}
	case abi.StringTy:
		val.SetString(arg)
	case abi.BytesTy:
		data, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
		if err != nil {
			return nil, fmt.Errorf("cannot parse bytes literal %q: %w", arg, err)
		}
		val.SetBytes(data)
	case abi.BoolTy:
		b, err := strconv.ParseBool(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot parse bool literal %q: %w", arg, err)
		}
		val.SetBool(b)
	case abi.AddressTy:
		var address eth_common.Address
		if err := address.UnmarshalText([]byte(normalizeAddressLiteral(arg))); err != nil {
			return nil, fmt.Errorf("cannot parse address literal %q: %w", arg, err)
		}
		val.Set(reflect.ValueOf(address))
	default:
		return nil, fmt.Errorf("unsupported argument type %s", tp.String())
	}
	return val.Interface(), nil
}

func normalizeAddressLiteral(arg string) string {
	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") {
		return arg
	}
	return "0x" + arg
}

// DecodeReturn interprets a raw return value per the declared return type
// of the named function. The baseline supports scalar integers: leading
// zero padding is stripped and the remainder read as a big-endian unsigned
// integer. An all-zero value decodes to 0, not to an error. Functions
// without outputs decode to nil.
func (i *Interface) DecodeReturn(name string, ret []byte) (*uint256.Int, error) {
	method, ok := i.abi.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	if len(method.Outputs) == 0 {
		return nil, nil
	}

	switch method.Outputs[0].Type.T {
	case abi.IntTy, abi.UintTy:
		return decodeInteger(ret)
	default:
		return nil, fmt.Errorf("%w: unsupported return type %s",
			ErrBadReturnValue, method.Outputs[0].Type.String())
	}
}

func decodeInteger(ret []byte) (*uint256.Int, error) {
	// Strip the zero padding down to the last word; values wider than one
	// word are not representable here.
	trimmed := bytes.TrimLeft(ret, "\x00")
	if len(trimmed) > 32 {
		return nil, fmt.Errorf("%w: integer wider than 32 bytes", ErrBadReturnValue)
	}
	return new(uint256.Int).SetBytes(trimmed), nil
}
