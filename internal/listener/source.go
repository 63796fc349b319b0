/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package listener

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"subscription-ledger-go/internal/models"
)

// EventSource supplies decoded chain events in delivery order. ReadSince
// returns every event strictly after the given position; a nil cursor means
// read from the beginning of the stream.
type EventSource interface {
	ReadSince(ctx context.Context, cursor *models.Cursor) ([]models.ChainEvent, error)
}

// FileSource reads a JSON-lines chain export (one decoded event per line, in
// on-chain order) produced by the upstream extractor. The extractor appends
// to the file; re-reading from a cursor makes restarts cheap without any
// state shared with the extractor.
type FileSource struct {
	path string
}

func NewFileSource(path string) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("events file path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}
	return &FileSource{path: path}, nil
}

func (f *FileSource) ReadSince(ctx context.Context, cursor *models.Cursor) ([]models.ChainEvent, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			// The extractor has not produced the export yet.
			return nil, nil
		}
		return nil, fmt.Errorf("unable to open events file %s: %w", f.path, err)
	}
	defer file.Close()

	var events []models.ChainEvent
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev models.ChainEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("malformed event at %s:%d: %w", f.path, lineNo, err)
		}
		if cursor != nil && !cursor.Before(ev.Meta.Position()) {
			// Already applied in a previous run.
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading events file %s: %w", f.path, err)
	}

	return events, nil
}
