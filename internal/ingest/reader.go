// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// errBadRecord marks a single malformed record. The stream stays usable;
// the caller tallies the record and moves on.
var errBadRecord = errors.New("malformed record")

// maxLineBytes bounds a single JSON Lines record. Viewing events are a few
// hundred bytes, so anything near this limit is a corrupt export.
const maxLineBytes = 1 << 20

// rawEvent mirrors one record of the input dataset before validation.
// Required numeric fields use pointers so a missing field is
// distinguishable from an explicit zero.
type rawEvent struct {
	UserID                   *int   `json:"user_id"`
	State                    string `json:"state"`
	Timezone                 string `json:"timezone"`
	CreatedDate              string `json:"created_date"`
	CreatedAt                string `json:"created_at"`
	ShowID                   *int   `json:"show_id"`
	ShowName                 string `json:"show_name"`
	ShowType                 string `json:"show_type"`
	ShowGenre                string `json:"show_genre"`
	ShowRating               string `json:"show_rating"`
	ShowDescription          string `json:"show_description"`
	ShowDurationSeconds      *int   `json:"show_duration_seconds"`
	UserWatchDurationSeconds *int   `json:"user_watch_duration_seconds"`
}

// eventDecoder streams records out of a dataset in either supported shape:
// a JSON array of objects, or JSON Lines (one object per line). The shape
// is detected from the first non-whitespace byte.
type eventDecoder struct {
	// Array mode
	dec *json.Decoder

	// Lines mode
	scanner *bufio.Scanner

	done bool
}

// newEventDecoder wraps r in a decoder for whichever dataset shape it
// contains. An empty stream is valid and yields zero records.
func newEventDecoder(r io.Reader) (*eventDecoder, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	first, err := firstNonSpace(br)
	if errors.Is(err, io.EOF) {
		return &eventDecoder{done: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	if first == '[' {
		dec := json.NewDecoder(br)
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return nil, fmt.Errorf("decode dataset: expected array, got %v", tok)
		}
		return &eventDecoder{dec: dec}, nil
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &eventDecoder{scanner: scanner}, nil
}

// next returns the next record, io.EOF at end of stream, errBadRecord for a
// malformed record that should be skipped, or a fatal stream error.
func (d *eventDecoder) next() (*rawEvent, error) {
	if d.done {
		return nil, io.EOF
	}
	if d.dec != nil {
		return d.nextArrayElement()
	}
	return d.nextLine()
}

func (d *eventDecoder) nextArrayElement() (*rawEvent, error) {
	if !d.dec.More() {
		d.done = true
		if _, err := d.dec.Token(); err != nil {
			// Inside an unclosed array a bare EOF is truncation, not a
			// clean end of stream.
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		return nil, io.EOF
	}

	// Decode into a RawMessage first so a record with mismatched field
	// types is skippable without corrupting the decoder state.
	var rm json.RawMessage
	if err := d.dec.Decode(&rm); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	var raw rawEvent
	if err := json.Unmarshal(rm, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRecord, err)
	}
	return &raw, nil
}

func (d *eventDecoder) nextLine() (*rawEvent, error) {
	for d.scanner.Scan() {
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw rawEvent
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRecord, err)
		}
		return &raw, nil
	}

	d.done = true
	if err := d.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return nil, io.EOF
}

// firstNonSpace peeks past leading JSON whitespace and returns the first
// content byte without consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := br.Discard(1); err != nil {
				return 0, err
			}
		default:
			return b[0], nil
		}
	}
}
