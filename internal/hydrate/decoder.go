package hydrate

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

// ErrNotObject is returned when a step record is not a JSON object.
var ErrNotObject = errors.New("hydrate: record must be a JSON object")

// ErrDuplicateField is returned when a JSON object repeats a key.
var ErrDuplicateField = errors.New("hydrate: duplicate field")

// Field is one decoded key/value pair, kept in document order.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered JSON object.
type Record []Field

// Context identifies the record being decoded.
type Context struct {
	Source string
	Index  int
}

// PreHook lets callers rewrite or normalise a record after decoding. Returning
// a nil record keeps the current one.
type PreHook func(Context, Record) (Record, error)

// DecoderOption configures a Decoder instance.
type DecoderOption func(*Decoder)

// Decoder converts JSON step payloads into ordered records.
type Decoder struct {
	source    string
	preHooks  []PreHook
	useNumber bool
}

// WithSource names the payload in error messages.
func WithSource(source string) DecoderOption {
	return func(d *Decoder) {
		d.source = source
	}
}

// WithPreHook applies hook to every decoded record.
func WithPreHook(hook PreHook) DecoderOption {
	return func(d *Decoder) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithUseNumber keeps numbers as json.Number so that "7" and 7.0 stay distinct
// from float rounding.
func WithUseNumber() DecoderOption {
	return func(d *Decoder) {
		d.useNumber = true
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeRecords accepts either a JSON array of objects or an object holding
// such an array under "steps".
func (d *Decoder) DecodeRecords(payload []byte) ([]Record, error) {
	dec := d.newJSONDecoder(bytes.NewReader(payload))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrapf(err, "hydrate: read %s", d.describe())
	}

	var records []Record
	switch tok {
	case json.Delim('['):
		records, err = d.decodeArray(dec)
	case json.Delim('{'):
		records, err = d.decodeEnvelope(dec)
	default:
		return nil, errors.Wrapf(ErrNotObject, "hydrate: %s starts with %v", d.describe(), tok)
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Newf("hydrate: trailing data in %s", d.describe())
	}
	return records, nil
}

// DecodeRecord decodes a single JSON object. Anything after the closing brace
// other than whitespace is rejected.
func (d *Decoder) DecodeRecord(payload []byte) (Record, error) {
	dec := d.newJSONDecoder(bytes.NewReader(payload))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrapf(err, "hydrate: read %s", d.describe())
	}
	if tok != json.Delim('{') {
		return nil, errors.Wrapf(ErrNotObject, "hydrate: %s", d.describe())
	}
	record, err := DecodeObject(dec)
	if err != nil {
		return nil, errors.Wrapf(err, "hydrate: decode %s", d.describe())
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Newf("hydrate: trailing data in %s", d.describe())
	}
	return d.applyHooks(Context{Source: d.source}, record)
}

func (d *Decoder) decodeEnvelope(dec *json.Decoder) ([]Record, error) {
	var records []Record
	found := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrapf(err, "hydrate: read %s", d.describe())
		}
		key, _ := keyTok.(string)
		if key != "steps" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, errors.Wrapf(err, "hydrate: skip %q in %s", key, d.describe())
			}
			continue
		}
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrapf(err, "hydrate: read steps in %s", d.describe())
		}
		if tok != json.Delim('[') {
			return nil, errors.Newf("hydrate: steps in %s must be an array", d.describe())
		}
		if records, err = d.decodeArray(dec); err != nil {
			return nil, err
		}
		found = true
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrapf(err, "hydrate: read %s", d.describe())
	}
	if !found {
		return nil, errors.Newf("hydrate: %s has no steps", d.describe())
	}
	return records, nil
}

func (d *Decoder) decodeArray(dec *json.Decoder) ([]Record, error) {
	var records []Record
	for i := 0; dec.More(); i++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrapf(err, "hydrate: read record %d in %s", i, d.describe())
		}
		if tok != json.Delim('{') {
			return nil, errors.Wrapf(ErrNotObject, "hydrate: record %d in %s", i, d.describe())
		}
		record, err := DecodeObject(dec)
		if err != nil {
			return nil, errors.Wrapf(err, "hydrate: record %d in %s", i, d.describe())
		}
		record, err = d.applyHooks(Context{Source: d.source, Index: i}, record)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrapf(err, "hydrate: read %s", d.describe())
	}
	return records, nil
}

func (d *Decoder) applyHooks(ctx Context, record Record) (Record, error) {
	current := record
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, errors.Wrapf(err, "hydrate: pre-hook for record %d in %s failed", ctx.Index, d.describe())
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

func (d *Decoder) newJSONDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	if d.useNumber {
		dec.UseNumber()
	}
	return dec
}

func (d *Decoder) describe() string {
	if d.source == "" {
		return "payload"
	}
	return d.source
}

// DecodeObject reads the members of an object whose opening brace has already
// been consumed, up to and including the closing brace. Nested values are
// decoded with the json.Decoder defaults.
func DecodeObject(dec *json.Decoder) (Record, error) {
	var record Record
	seen := map[string]struct{}{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.Newf("hydrate: unexpected object key %v", keyTok)
		}
		if _, dup := seen[key]; dup {
			return nil, errors.Wrapf(ErrDuplicateField, "hydrate: %q", key)
		}
		seen[key] = struct{}{}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "hydrate: value for %q", key)
		}
		record = append(record, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return record, nil
}
