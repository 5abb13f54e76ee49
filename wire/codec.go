// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Decoder frames an inbound byte stream into discrete request lines. A
// message boundary is exactly one '\n'; lines split across socket reads
// are reassembled by the buffered reader, and empty lines are skipped.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r for line-at-a-time reading.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next non-empty line without its trailing newline.
// It returns io.EOF when the peer closes the stream. A final unterminated
// fragment is discarded: a line that never saw its '\n' was never a
// complete message.
func (d *Decoder) Next() (string, error) {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		return line, nil
	}
}

// DecodeRequest parses one framed line into a Request.
func DecodeRequest(line string) (*Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return nil, fmt.Errorf("malformed request line: %w", err)
	}
	return &req, nil
}

// DecodeResponse parses one framed line into resp. Clients use it; the
// server only ever decodes requests.
func DecodeResponse(line string, resp *Response) error {
	if err := json.Unmarshal([]byte(line), resp); err != nil {
		return fmt.Errorf("malformed response line: %w", err)
	}
	return nil
}

// EncodeResponse serializes a response as one line, with exactly one
// trailing newline.
func EncodeResponse(resp Response) ([]byte, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return append(b, '\n'), nil
}

// Encoder writes newline-framed JSON values to an underlying writer.
// Used by the example clients; the server queues EncodeResponse output
// on its per-connection writer instead.
type Encoder struct {
	w io.Writer
}

// NewEncoder wraps w for line-at-a-time writing.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode marshals v and writes it as a single newline-terminated line.
func (e *Encoder) Encode(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode line: %w", err)
	}
	b = append(b, '\n')
	if _, err := e.w.Write(b); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}
