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

package converter

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/pvconv/pvconv/data-convert/convertModels"
)

// MetaFilter rewrites acquisition metadata before sidecars are written.
// Filters get the config map passed on the command line and may edit meta
// in place, typically adding Extra entries.
type MetaFilter func(meta *convertModels.AcqMeta, config map[string]string) error

var (
	filterMu    sync.Mutex
	filterOrder []string
	filters     = map[string]MetaFilter{}
)

// RegisterMetaFilter adds a named metadata filter
func RegisterMetaFilter(name string, filter MetaFilter) {
	filterMu.Lock()
	defer filterMu.Unlock()

	if _, ok := filters[name]; !ok {
		filterOrder = append(filterOrder, name)
	}
	filters[name] = filter
}

// MetaFilterNames - registered filter names in registration order
func MetaFilterNames() []string {
	filterMu.Lock()
	defer filterMu.Unlock()

	return append([]string{}, filterOrder...)
}

// ApplyMetaFilter runs one named filter over metadata
func ApplyMetaFilter(name string, meta *convertModels.AcqMeta, config map[string]string) error {
	filterMu.Lock()
	filter, ok := filters[name]
	filterMu.Unlock()

	if !ok {
		return errors.Errorf("unknown metadata filter %v, registered: %v", name, strings.Join(MetaFilterNames(), ", "))
	}

	return filter(meta, config)
}
