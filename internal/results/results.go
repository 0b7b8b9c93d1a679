// Package results filters survey result sets.
//
// A result set is a JSON document of the form {"results": [...]}, where every record is a JSON object.
// Records whose only fields are the user identifier and the start time are empty users: the user
// opened the survey but never answered. FilterEmptyRecords removes them from a result set file in place.
package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/results-tools/filter-empty-users/internal/constants"
	"github.com/results-tools/filter-empty-users/internal/fileutils"
	"github.com/ubuntu/decorate"
)

var (
	// ErrIO is returned when the result set file can't be read or written.
	ErrIO = errors.New("i/o error")

	// ErrParse is returned when the result set file is not valid JSON.
	ErrParse = errors.New("invalid JSON")

	// ErrSchema is returned when the document is valid JSON but not a result set.
	ErrSchema = errors.New("invalid result set")
)

// emptyUserKeys is the exact key set of an empty user record.
var emptyUserKeys = map[string]struct{}{
	constants.UserIDKey:    {},
	constants.StartTimeKey: {},
}

// Record is a single entry of a result set, kept as its original JSON encoding.
type Record json.RawMessage

// MarshalJSON returns the original encoding of the record.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON stores a copy of data as the record.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = append((*r)[0:0], data...)
	return nil
}

// ResultSet is the top-level document holding the records.
type ResultSet struct {
	Results []Record `json:"results"`
}

// Report holds the record counts of a filtering pass.
type Report struct {
	Original int `json:"original" yaml:"original" toml:"original"`
	Retained int `json:"retained" yaml:"retained" toml:"retained"`
	Removed  int `json:"removed" yaml:"removed" toml:"removed"`
}

// Parse decodes a whole result set document.
func Parse(data []byte) (ResultSet, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return ResultSet{}, fmt.Errorf("%w: document is a JSON %s, not an object", ErrSchema, typeErr.Value)
		}
		return ResultSet{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if kind := jsonKind(data); kind != "object" {
		return ResultSet{}, fmt.Errorf("%w: document is a JSON %s, not an object", ErrSchema, kind)
	}

	raw, ok := doc[constants.ResultsKey]
	if !ok {
		return ResultSet{}, fmt.Errorf("%w: missing %q field", ErrSchema, constants.ResultsKey)
	}
	if kind := jsonKind(raw); kind != "array" {
		return ResultSet{}, fmt.Errorf("%w: %q is a JSON %s, not an array", ErrSchema, constants.ResultsKey, kind)
	}

	var rs ResultSet
	if err := json.Unmarshal(raw, &rs.Results); err != nil {
		return ResultSet{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return rs, nil
}

// IsEmptyUser reports whether the key set of r is exactly {userId, startTime}.
// Values and key order are not considered. r must be a JSON object.
func IsEmptyUser(r Record) (bool, error) {
	if kind := jsonKind(r); kind != "object" {
		return false, fmt.Errorf("%w: record is a JSON %s, not an object", ErrSchema, kind)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r, &fields); err != nil {
		return false, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if len(fields) != len(emptyUserKeys) {
		return false, nil
	}
	for k := range fields {
		if _, ok := emptyUserKeys[k]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// Filter returns a result set without its empty user records, in the original order.
func (rs ResultSet) Filter() (ResultSet, Report, error) {
	kept := make([]Record, 0, len(rs.Results))
	for i, r := range rs.Results {
		empty, err := IsEmptyUser(r)
		if err != nil {
			return ResultSet{}, Report{}, fmt.Errorf("record %d: %w", i, err)
		}
		if empty {
			continue
		}
		kept = append(kept, r)
	}

	return ResultSet{Results: kept}, Report{
		Original: len(rs.Results),
		Retained: len(kept),
		Removed:  len(rs.Results) - len(kept),
	}, nil
}

// Encode returns the compact encoding of the result set.
// Records are stripped of insignificant whitespace and keep their keys and values, except that raw
// U+2028 and U+2029 characters inside strings are written as \u2028 and \u2029 escapes.
func (rs ResultSet) Encode() ([]byte, error) {
	if rs.Results == nil {
		rs.Results = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rs); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

type options struct {
	dryRun bool
	log    *slog.Logger
}

// Option configures FilterEmptyRecords.
type Option func(*options)

// WithDryRun computes the report without writing the file back.
func WithDryRun(dryRun bool) Option {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// WithLogger sets the logger used while filtering.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// FilterEmptyRecords removes the empty user records of the result set file at path and overwrites it
// with the compact encoding of the remaining records.
//
// The file is only replaced once it was fully read, parsed and filtered, and the replacement is atomic.
// There is no locking: concurrent runs on the same path are not supported.
func FilterEmptyRecords(path string, args ...Option) (rep Report, err error) {
	defer decorate.OnError(&err, "could not filter empty users")

	opts := options{log: slog.Default()}
	for _, opt := range args {
		opt(&opts)
	}
	log := opts.log.With("file", path)

	// Replace the file a symlink points to, not the link itself.
	path, err = filepath.EvalSymlinks(path)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if fi.IsDir() {
		return Report{}, fmt.Errorf("%w: %q is a directory", ErrIO, path)
	}

	data, err := fileutils.ReadUTF8(path)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	log.Debug("Read result set", "bytes", len(data))

	rs, err := Parse(data)
	if err != nil {
		return Report{}, err
	}

	filtered, rep, err := rs.Filter()
	if err != nil {
		return Report{}, err
	}
	log.Info("Filtered result set", "original", rep.Original, "retained", rep.Retained, "removed", rep.Removed)

	if opts.dryRun {
		log.Info("Dry run, leaving the file untouched")
		return rep, nil
	}

	out, err := filtered.Encode()
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	if err := fileutils.AtomicWriteMode(path, out, fi.Mode().Perm()); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	log.Debug("Wrote result set", "bytes", len(out))

	return rep, nil
}

// jsonKind names the kind of the JSON value starting data, which must be valid JSON.
func jsonKind(data []byte) string {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return "nothing"
	}

	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
