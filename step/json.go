package step

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/goliatone/go-seqtree/internal/hydrate"
)

// MarshalJSON encodes c as a JSON object whose members follow insertion order.
func (c Configuration) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pair := range c.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(pair.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(pair.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "step: marshal value for %q", pair.Key)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping member order.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	record, err := hydrate.NewDecoder().DecodeRecord(data)
	if err != nil {
		return err
	}
	decoded, err := fromRecord(record)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// ParseOption configures ParseSequence.
type ParseOption = hydrate.DecoderOption

// WithSource names the payload in decode errors.
func WithSource(source string) ParseOption {
	return hydrate.WithSource(source)
}

// WithUseNumber keeps JSON numbers as json.Number values.
func WithUseNumber() ParseOption {
	return hydrate.WithUseNumber()
}

// WithKeyRewrite applies fn to every key before the Configuration is built.
func WithKeyRewrite(fn func(string) string) ParseOption {
	return hydrate.WithPreHook(func(_ hydrate.Context, record hydrate.Record) (hydrate.Record, error) {
		if fn == nil {
			return nil, nil
		}
		out := make(hydrate.Record, len(record))
		for i, field := range record {
			out[i] = hydrate.Field{Key: fn(field.Key), Value: field.Value}
		}
		return out, nil
	})
}

// ParseSequence decodes a JSON array of step objects, or an object carrying
// that array under "steps", into Configurations in document order.
func ParseSequence(data []byte, opts ...ParseOption) ([]Configuration, error) {
	records, err := hydrate.NewDecoder(opts...).DecodeRecords(data)
	if err != nil {
		return nil, err
	}
	out := make([]Configuration, 0, len(records))
	for i, record := range records {
		c, err := fromRecord(record)
		if err != nil {
			return nil, errors.Wrapf(err, "step: record %d", i)
		}
		out = append(out, c)
	}
	return out, nil
}

func fromRecord(record hydrate.Record) (Configuration, error) {
	pairs := make([]Pair, len(record))
	for i, field := range record {
		pairs[i] = Pair{Key: field.Key, Value: field.Value}
	}
	return New(pairs...)
}
