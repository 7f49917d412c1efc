// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package jcampdx

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Shape prefix on the ## line itself: "( 2 )" or "( 1, 9 )"
	shapePattern = regexp.MustCompile(`^\(\s*(\d+(?:\s*,\s*\d+)*)\s*\)\s*(.*)$`)

	// Run-length repeats written by ParaVision 360: "@5*(0)"
	repeatPattern = regexp.MustCompile(`@(\d+)\*\(([^()]*)\)`)

	// One struct row "(5, <FG_SLICE>, <>, 0, 2)"
	groupPattern = regexp.MustCompile(`\(([^()]*)\)`)

	// Angle bracket string "<Head_Supine>"
	stringPattern = regexp.MustCompile(`<([^>]*)>`)

	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?(\d+\.\d*|\.\d+|\d+)([eE][+-]?\d+)?$`)
)

// Parse - reads a whole JCAMP-DX parameter file
func Parse(r io.Reader) (*Params, error) {
	scanner := bufio.NewScanner(r)
	// Diffusion tables and gradient shapes produce very long payload lines
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	params := makeParams()

	curKind := HeaderEntry
	curKey := ""
	curValue := []string{}
	inEntry := false

	flush := func() {
		if !inEntry {
			return
		}
		addEntry(params, curKind, curKey, strings.Join(curValue, " "))
		inEntry = false
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")

		// $$ lines are comments (write time, file path, @vis markers) and can
		// sit in the middle of a multi-line payload without ending it
		if strings.HasPrefix(line, "$$") {
			continue
		}

		if strings.HasPrefix(line, "##") {
			flush()

			body := line[2:]
			eq := strings.Index(body, "=")
			if eq < 0 {
				continue
			}

			key := body[:eq]
			value := strings.TrimSpace(body[eq+1:])

			if strings.HasPrefix(key, "$") {
				curKind = ParameterEntry
				curKey = key[1:]
			} else {
				if key == "END" {
					continue
				}
				curKind = HeaderEntry
				curKey = key
			}

			curValue = []string{}
			if value != "" {
				curValue = append(curValue, value)
			}
			inEntry = true
			continue
		}

		if inEntry {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				curValue = append(curValue, trimmed)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	flush()
	return params, nil
}

// ParseBytes - for payloads already in memory (zip members)
func ParseBytes(data []byte) (*Params, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile - opens and parses a parameter file on disk
func ParseFile(path string) (*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

func addEntry(params *Params, kind EntryKind, key string, payload string) {
	payload = strings.TrimSpace(payload)

	if kind == HeaderEntry {
		params.setHeader(key, payload)
		return
	}

	if params.Contains(key) {
		params.DuplicateKeys = append(params.DuplicateKeys, key)
	}

	entry := &Entry{Kind: ParameterEntry, Key: key}

	// A leading all-integer group on the ## line is the declared shape,
	// anything after it (same line or continuations) is the payload
	if m := shapePattern.FindStringSubmatch(payload); m != nil {
		for _, dim := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(dim))
			if err != nil {
				n = 0
			}
			entry.Shape = append(entry.Shape, n)
		}
		payload = strings.TrimSpace(m[2])
	}

	payload = expandRepeats(payload)

	if payload == "" {
		params.setEntry(entry)
		return
	}

	switch {
	case strings.Contains(payload, "(("):
		// Nested structures (PV360 geometry objects). Nothing downstream
		// reads these so they stay as one raw string cell rather than
		// failing the whole file.
		entry.Cells = []Value{StringValue(payload)}

	case strings.HasPrefix(payload, "(") && groupPattern.MatchString(payload):
		for _, m := range groupPattern.FindAllStringSubmatch(payload, -1) {
			row := []Value{}
			for _, cell := range splitRowCells(m[1]) {
				row = append(row, convertCell(cell))
			}
			entry.Rows = append(entry.Rows, row)
			entry.Cells = append(entry.Cells, row...)
		}

	case strings.Contains(payload, "<"):
		for _, m := range stringPattern.FindAllStringSubmatch(payload, -1) {
			entry.Cells = append(entry.Cells, StringValue(m[1]))
		}

	default:
		for _, tok := range strings.Fields(payload) {
			entry.Cells = append(entry.Cells, convertScalar(tok))
		}
	}

	params.setEntry(entry)
}

// expandRepeats - "@3*(0)" becomes "0 0 0"
func expandRepeats(payload string) string {
	if !strings.Contains(payload, "@") {
		return payload
	}

	return repeatPattern.ReplaceAllStringFunc(payload, func(m string) string {
		sub := repeatPattern.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 {
			return sub[2]
		}
		return strings.TrimSpace(strings.Repeat(sub[2]+" ", n))
	})
}

// splitRowCells - splits struct row contents on commas, but commas inside
// angle bracket strings don't count: "(3, <a, b>, 0)" has 3 cells
func splitRowCells(row string) []string {
	cells := []string{}
	depth := 0
	start := 0

	for i, ch := range row {
		switch ch {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				cells = append(cells, strings.TrimSpace(row[start:i]))
				start = i + 1
			}
		}
	}
	cells = append(cells, strings.TrimSpace(row[start:]))
	return cells
}

// convertCell - one struct row cell, which may be angle bracket wrapped
func convertCell(cell string) Value {
	if m := stringPattern.FindStringSubmatch(cell); m != nil {
		return StringValue(m[1])
	}
	return convertScalar(cell)
}

// convertScalar - types one bare token
func convertScalar(tok string) Value {
	if intPattern.MatchString(tok) {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return IntValue(i)
		}
	}
	if floatPattern.MatchString(tok) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return FloatValue(f)
		}
	}
	return StringValue(tok)
}
