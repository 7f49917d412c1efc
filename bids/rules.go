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

package bids

import (
	"os"
	"regexp"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Rule maps scans to a place in the layout. Match is a regexp tried against
// "<protocol>::<sequence>", case insensitively, first matching rule wins.
type Rule struct {
	Match    string `yaml:"match"`
	DataType string `yaml:"datatype"` // anat, func, dwi, fmap...
	Suffix   string `yaml:"suffix"`   // T2w, bold, dwi...
	Acq      string `yaml:"acq,omitempty"`

	matcher *regexp.Regexp
}

// RuleSet is an ordered list of rules as loaded from the rules file
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// compile builds the matchers, erroring on the first bad pattern
func (rs *RuleSet) compile() error {
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if len(r.DataType) <= 0 || len(r.Suffix) <= 0 {
			return errors.Errorf("rule %v (%v) needs both datatype and suffix", i+1, r.Match)
		}
		m, err := regexp.Compile("(?i)" + r.Match)
		if err != nil {
			return errors.Wrapf(err, "rule %v has a bad match pattern", i+1)
		}
		r.matcher = m
	}
	return nil
}

// Match finds the first rule claiming this protocol/sequence pair
func (rs *RuleSet) Match(protocol string, sequence string) *Rule {
	probe := protocol + "::" + sequence
	for i := range rs.Rules {
		if rs.Rules[i].matcher.MatchString(probe) {
			return &rs.Rules[i]
		}
	}
	return nil
}

// DefaultRules covers the protocols Bruker ships sequences for. Studies
// using site-specific protocol names need their own rules file.
func DefaultRules() *RuleSet {
	rs := &RuleSet{Rules: []Rule{
		{Match: `T1|FLASH|MDEFT|RARE.*T1`, DataType: "anat", Suffix: "T1w"},
		{Match: `T2\*|MGE`, DataType: "anat", Suffix: "T2starw"},
		{Match: `T2|TurboRARE|MSME`, DataType: "anat", Suffix: "T2w"},
		{Match: `DtiEpi|DTI|dwi`, DataType: "dwi", Suffix: "dwi"},
		{Match: `FieldMap|B0Map`, DataType: "fmap", Suffix: "fieldmap"},
		{Match: `rsfMRI|fMRI|EPI`, DataType: "func", Suffix: "bold", Acq: "epi"},
	}}
	if err := rs.compile(); err != nil {
		// The built-in table has to compile
		panic(err)
	}
	return rs
}

// LoadRules reads a rules file
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rules file %v", path)
	}

	rs := &RuleSet{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, errors.Wrapf(err, "failed to parse rules file %v", path)
	}
	if len(rs.Rules) <= 0 {
		return nil, errors.Errorf("rules file %v has no rules", path)
	}
	if err := rs.compile(); err != nil {
		return nil, errors.Wrapf(err, "rules file %v", path)
	}
	return rs, nil
}

const rulesTemplate = `# Conversion rules for pvconv bids build.
#
# Rules are tried top to bottom against "<protocol>::<sequence>" of each
# scan (case insensitive regexp), the first match decides where the scan
# lands in the layout. Scans no rule matches are skipped.
#
# datatype: anat | func | dwi | fmap | perf
# suffix:   T1w | T2w | T2starw | bold | dwi | fieldmap | ...
# acq:      optional acq-<label> entity added to the file name
rules:
  - match: T2|TurboRARE|MSME
    datatype: anat
    suffix: T2w
  - match: T1|FLASH
    datatype: anat
    suffix: T1w
  - match: DtiEpi|DTI
    datatype: dwi
    suffix: dwi
  - match: rsfMRI|fMRI|EPI
    datatype: func
    suffix: bold
    acq: epi
`

// WriteRulesTemplate writes a commented starter rules file, refusing to
// clobber an existing one
func WriteRulesTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("%v already exists, not overwriting", path)
	}
	return os.WriteFile(path, []byte(rulesTemplate), 0666)
}
