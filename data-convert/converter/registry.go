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

// Package converter holds the registry scan converters plug into. A
// converter claims an import path via Detect and turns its scans into image
// volumes. Converters register themselves from an init func, so callers only
// need a blank import to make a format available.
package converter

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/data-convert/convertModels"
)

// ScanConverter is the interface dataset format support is written against
type ScanConverter interface {
	// Name - how the converter is picked with --format
	Name() string

	// Detect - does the path look like a dataset this converter reads?
	Detect(importPath string) bool

	// Import converts the selected scans into image volumes. OutPath on the
	// results is left empty, writing them is the caller's job.
	Import(importPath string, sel convertModels.Selection, opts convertModels.Options, log logger.ILogger) ([]*convertModels.ConvertResult, error)
}

var (
	regMu      sync.Mutex
	converters []ScanConverter
)

// Register adds a converter. Re-registering a name replaces the previous
// one, everything else keeps registration order.
func Register(c ScanConverter) {
	regMu.Lock()
	defer regMu.Unlock()

	for i, existing := range converters {
		if existing.Name() == c.Name() {
			converters[i] = c
			return
		}
	}
	converters = append(converters, c)
}

// Get - converter by name
func Get(name string) (ScanConverter, bool) {
	regMu.Lock()
	defer regMu.Unlock()

	for _, c := range converters {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Names - registered converter names in registration order
func Names() []string {
	regMu.Lock()
	defer regMu.Unlock()

	names := make([]string, 0, len(converters))
	for _, c := range converters {
		names = append(names, c.Name())
	}
	return names
}

// Select picks the converter for an import path. A non-empty forced name
// bypasses detection.
func Select(importPath string, forced string) (ScanConverter, error) {
	if len(forced) > 0 {
		c, ok := Get(forced)
		if !ok {
			return nil, errors.Errorf("unknown converter %v, registered: %v", forced, strings.Join(Names(), ", "))
		}
		return c, nil
	}

	regMu.Lock()
	defer regMu.Unlock()

	for _, c := range converters {
		if c.Detect(importPath) {
			return c, nil
		}
	}

	return nil, errors.New("Failed to determine dataset type to import.")
}
