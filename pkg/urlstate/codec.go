// Package urlstate keeps the full diagram state synchronized with a
// shareable URL query parameter.
//
// # Architecture
//
// The package has two halves. The codec ([Encode], [Decode]) turns a store
// snapshot into a compressed, URL-component-safe token and back. The
// [Synchronizer] wires the codec to a live store: it debounces store
// mutations into URL writes and applies external URL changes back into the
// store, tracking last-written and last-applied tokens separately so reads
// and writes never feed each other in a loop.
//
// Corrupt tokens are never fatal: a decode failure is logged, the offending
// parameter is stripped, and the store keeps its prior state.
//
// # Usage
//
//	sync := urlstate.New(st, loc, logger, urlstate.Config{})
//	defer sync.Close()
//	sync.Load() // apply an existing ?canvas= token, if any
package urlstate

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"io"

	"github.com/hwaldner/cloudcanvas/pkg/errors"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// Encode serializes a snapshot into a URL-component-safe token: JSON,
// DEFLATE-compressed, then base64url without padding. Encoding is
// deterministic for a fixed snapshot, so tokens are comparable by string
// equality.
func Encode(snap store.Snapshot) (string, error) {
	data, err := store.MarshalSnapshot(snap)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "marshal snapshot")
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "init compressor")
	}
	if _, err := w.Write(data); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "compress snapshot")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "compress snapshot")
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses [Encode]. Any failure, from bad base64 through invalid
// snapshot structure, returns a decode error so callers can discard the
// token without inspecting the cause.
func Decode(token string) (store.Snapshot, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return store.Snapshot{}, errors.Wrap(errors.ErrCodeDecode, err, "decode token")
	}

	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return store.Snapshot{}, errors.Wrap(errors.ErrCodeDecode, err, "decompress token")
	}

	snap, err := store.UnmarshalSnapshot(data)
	if err != nil {
		return store.Snapshot{}, errors.Wrap(errors.ErrCodeDecode, err, "parse snapshot")
	}
	return snap, nil
}
