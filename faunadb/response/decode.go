// Package response turns server JSON into values and classifies them by
// shape, since the wire format carries no type discriminant.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/krew-solutions/faunadb-go/faunadb/query"
)

// DecodeValue parses raw into a Value. Object key order is kept, integral
// numbers become LongV and numbers with a fraction or exponent DoubleV.
// Single-key "@ref", "@set" and "@ts" objects become RefV, SetRefV and
// TimestampV.
func DecodeValue(raw []byte) (query.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode json: trailing data after value")
	}
	return v, nil
}

// Decode parses raw and classifies the result.
func Decode(raw []byte) (*LazyValue, error) {
	v, err := DecodeValue(raw)
	if err != nil {
		return nil, err
	}
	lv := Wrap(v)
	lv.raw = append([]byte(nil), raw...)
	return lv, nil
}

func decodeValue(dec *json.Decoder) (query.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return query.Null(), nil
	case bool:
		return query.Boolean(t), nil
	case string:
		return query.String(t), nil
	case json.Number:
		return decodeNumber(t)
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec)
		case '{':
			return decodeObject(dec)
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeNumber(n json.Number) (query.Value, error) {
	if strings.ContainsAny(n.String(), ".eE") {
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return query.Double(f), nil
	}
	i, err := n.Int64()
	if err != nil {
		return nil, err
	}
	return query.Long(i), nil
}

func decodeArray(dec *json.Decoder) (query.Value, error) {
	var items []query.Value
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return query.Arr(items...), nil
}

func decodeObject(dec *json.Decoder) (query.Value, error) {
	var fields []query.Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		fields = append(fields, query.F(key, v))
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if len(fields) == 1 {
		if v, ok := unwrap(fields[0]); ok {
			return v, nil
		}
	}
	return query.Obj(fields...), nil
}

// unwrap converts a tagged literal. A wrapper key with a payload of the
// wrong type is left as a plain object.
func unwrap(f query.Field) (query.Value, bool) {
	switch f.Name {
	case query.KeyRef:
		if id, ok := f.Value.(query.StringV); ok {
			return query.Ref(string(id)), true
		}
	case query.KeySet:
		if params, ok := f.Value.(query.ObjectV); ok {
			return query.NewSetRef(params), true
		}
	case query.KeyTimestamp:
		if s, ok := f.Value.(query.StringV); ok {
			if t, err := time.Parse(time.RFC3339Nano, string(s)); err == nil {
				return query.Timestamp(t), true
			}
		}
	}
	return nil, false
}

// unmarshalNumbers keeps numbers as json.Number so their literal form,
// and with it the long or double distinction, survives.
func unmarshalNumbers(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}
