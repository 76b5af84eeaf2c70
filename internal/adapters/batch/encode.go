package batch

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

var valueUnits = map[string]int32{
	"wei":   0,
	"gwei":  9,
	"ether": 18,
}

// ParseValue parses a wei integer or a "<decimal> ether|gwei|wei" amount.
// An empty string is a zero-value call.
func ParseValue(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	amount, unit := raw, "wei"
	if fields := strings.Fields(raw); len(fields) == 2 {
		amount, unit = fields[0], strings.ToLower(fields[1])
	}
	shift, ok := valueUnits[unit]
	if !ok {
		return nil, fmt.Errorf("invalid value %q: unknown unit %q", raw, unit)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", raw, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid value %q: must not be negative", raw)
	}
	wei := d.Shift(shift)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("invalid value %q: fractional wei", raw)
	}
	return wei.BigInt(), nil
}

// EncodeCall ABI-encodes a call from a "name(type,...)" signature and arguments
func EncodeCall(signature string, args []any) ([]byte, error) {
	name, typeNames, err := parseSignature(signature)
	if err != nil {
		return nil, err
	}
	if len(args) != len(typeNames) {
		return nil, fmt.Errorf("%s expects %d args, got %d", signature, len(typeNames), len(args))
	}

	inputs := make(abi.Arguments, len(typeNames))
	values := make([]any, len(typeNames))
	for i, typeName := range typeNames {
		t, err := abi.NewType(typeName, "", nil)
		if err != nil {
			return nil, fmt.Errorf("invalid type %q in %s: %w", typeName, signature, err)
		}
		inputs[i] = abi.Argument{Name: fmt.Sprintf("arg%d", i), Type: t}

		v, err := convertArg(t, args[i])
		if err != nil {
			return nil, fmt.Errorf("arg %d (%s): %w", i, typeName, err)
		}
		values[i] = v
	}

	method := abi.NewMethod(name, name, abi.Function, "nonpayable", false, false, inputs, nil)
	packed, err := inputs.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method.Sig, err)
	}
	return append(append([]byte{}, method.ID...), packed...), nil
}

func parseSignature(signature string) (string, []string, error) {
	signature = strings.ReplaceAll(signature, " ", "")
	open := strings.Index(signature, "(")
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return "", nil, fmt.Errorf("invalid function signature %q", signature)
	}
	if strings.ContainsAny(signature[open+1:len(signature)-1], "()") {
		return "", nil, fmt.Errorf("tuple arguments are not supported in %q", signature)
	}

	name := signature[:open]
	params := signature[open+1 : len(signature)-1]
	if params == "" {
		return name, nil, nil
	}
	return name, strings.Split(params, ","), nil
}

// convertArg turns a YAML scalar or list into the Go value abi.Pack expects for t
func convertArg(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		s, ok := v.(string)
		if !ok || !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %v", v)
		}
		return common.HexToAddress(s), nil

	case abi.BoolTy:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if b == "true" || b == "false" {
				return b == "true", nil
			}
		}
		return nil, fmt.Errorf("invalid bool %v", v)

	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprint(v), nil
		}
		return s, nil

	case abi.BytesTy:
		return decodeHex(v)

	case abi.FixedBytesTy:
		b, err := decodeHex(v)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit bytes%d", len(b), t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(common.RightPadBytes(b, t.Size)))
		return arr.Interface(), nil

	case abi.UintTy, abi.IntTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return sizedInt(t, n)

	case abi.SliceTy, abi.ArrayTy:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a list, got %T", v)
		}
		if t.T == abi.ArrayTy && len(items) != t.Size {
			return nil, fmt.Errorf("expected %d items, got %d", t.Size, len(items))
		}
		var out reflect.Value
		if t.T == abi.SliceTy {
			out = reflect.MakeSlice(t.GetType(), len(items), len(items))
		} else {
			out = reflect.New(t.GetType()).Elem()
		}
		for i, item := range items {
			elem, err := convertArg(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(elem))
		}
		return out.Interface(), nil
	}

	return nil, fmt.Errorf("unsupported type %s", t.String())
}

func decodeHex(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected 0x-prefixed hex, got %T", v)
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return nil, fmt.Errorf("number %v is not an exact integer, quote large values", n)
		}
		return big.NewInt(int64(n)), nil
	case string:
		b, ok := new(big.Int).SetString(n, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", n)
		}
		return b, nil
	}
	return nil, fmt.Errorf("invalid integer %v", v)
}

// sizedInt converts n to the native Go type abi uses for integers of up to 64 bits
func sizedInt(t abi.Type, n *big.Int) (any, error) {
	unsigned := t.T == abi.UintTy
	if unsigned && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for %s", n, t.String())
	}
	if n.BitLen() > t.Size || (!unsigned && n.BitLen() == t.Size) {
		return nil, fmt.Errorf("value %s overflows %s", n, t.String())
	}
	if t.Size > 64 {
		return n, nil
	}

	out := reflect.New(t.GetType()).Elem()
	if unsigned {
		out.SetUint(n.Uint64())
	} else {
		out.SetInt(n.Int64())
	}
	return out.Interface(), nil
}
