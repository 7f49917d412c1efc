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

// Parser for JCAMP-DX parameter files as written by Bruker ParaVision
// (subject, acqp, method, visu_pars, reco). These are line oriented:
//
//	##TITLE=Parameter List, ParaVision 6.0.1     <- header entry
//	##$VisuCoreDim=2                             <- parameter, scalar
//	##$VisuCoreSize=( 2 )                        <- parameter with shape...
//	128 128                                      <- ...payload on next line(s)
//	$$ /opt/PV6.0.1/data/...                     <- comment, ignored
//
// Payload cells are typed (string/int/float) on load, callers pull them
// out through the typed getters and never see raw text.
package jcampdx

import (
	"fmt"
	"strconv"
)

// ValueKind - cell type discriminator
type ValueKind int

const (
	// TypeString - cell holds a string
	TypeString ValueKind = iota

	// TypeInt - cell holds an integer
	TypeInt ValueKind = iota

	// TypeFloat - cell holds a float
	TypeFloat ValueKind = iota
)

// Value - one payload cell. Only the field matching Kind is valid.
type Value struct {
	SValue string
	IValue int64
	FValue float64
	Kind   ValueKind
}

func StringValue(s string) Value {
	return Value{SValue: s, Kind: TypeString}
}

func IntValue(i int64) Value {
	return Value{IValue: i, Kind: TypeInt}
}

func FloatValue(f float64) Value {
	return Value{FValue: f, Kind: TypeFloat}
}

// String - formats the cell whatever its kind, mainly for logs and tests
func (v Value) String() string {
	switch v.Kind {
	case TypeInt:
		return strconv.FormatInt(v.IValue, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.FValue, 'g', -1, 64)
	}
	return v.SValue
}

// Int - cell as integer. Floats pass if they carry an integral value,
// strings never do.
func (v Value) Int() (int64, bool) {
	switch v.Kind {
	case TypeInt:
		return v.IValue, true
	case TypeFloat:
		if v.FValue == float64(int64(v.FValue)) {
			return int64(v.FValue), true
		}
	}
	return 0, false
}

// Float - cell as float, ints widen
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case TypeInt:
		return float64(v.IValue), true
	case TypeFloat:
		return v.FValue, true
	}
	return 0, false
}

// EntryKind - the two kinds of ## line
type EntryKind int

const (
	// HeaderEntry - ##KEY=, file level info like TITLE
	HeaderEntry EntryKind = iota

	// ParameterEntry - ##$KEY=, an actual scanner parameter
	ParameterEntry EntryKind = iota
)

// Entry - one parsed ##$ parameter with its shape and payload cells
type Entry struct {
	Kind  EntryKind
	Key   string
	Shape []int     // nil for scalars; char array sizes land here too
	Cells []Value   // flattened payload
	Rows  [][]Value // set when the payload was struct rows "(a, b) (c, d)"
}

// Params - all entries of one parameter file, original order kept
type Params struct {
	entries     map[string]*Entry
	order       []string
	headers     map[string]string
	headerOrder []string

	// Keys that appeared more than once, last one won. Readers log these.
	DuplicateKeys []string
}

func makeParams() *Params {
	return &Params{
		entries: map[string]*Entry{},
		headers: map[string]string{},
	}
}

// Keys - parameter keys in file order
func (p *Params) Keys() []string {
	return p.order
}

// HeaderKeys - header keys in file order
func (p *Params) HeaderKeys() []string {
	return p.headerOrder
}

// Header - value of a ##KEY= header line, eg TITLE
func (p *Params) Header(key string) (string, bool) {
	v, ok := p.headers[key]
	return v, ok
}

// Contains - true if the parameter exists, whatever its payload
func (p *Params) Contains(key string) bool {
	_, ok := p.entries[key]
	return ok
}

// Entry - raw access for callers that need shape and rows together
func (p *Params) Entry(key string) (*Entry, bool) {
	e, ok := p.entries[key]
	return e, ok
}

// Shape - declared array shape, nil for scalars
func (p *Params) Shape(key string) []int {
	if e, ok := p.entries[key]; ok {
		return e.Shape
	}
	return nil
}

// GetString - first payload cell formatted as string
func (p *Params) GetString(key string) (string, bool) {
	e, ok := p.entries[key]
	if !ok || len(e.Cells) < 1 {
		return "", false
	}
	return e.Cells[0].String(), true
}

// GetStrings - all payload cells formatted as strings
func (p *Params) GetStrings(key string) ([]string, bool) {
	e, ok := p.entries[key]
	if !ok || len(e.Cells) < 1 {
		return nil, false
	}
	result := make([]string, 0, len(e.Cells))
	for _, c := range e.Cells {
		result = append(result, c.String())
	}
	return result, true
}

// GetInt - first payload cell as integer
func (p *Params) GetInt(key string) (int64, bool) {
	e, ok := p.entries[key]
	if !ok || len(e.Cells) < 1 {
		return 0, false
	}
	return e.Cells[0].Int()
}

// GetInts - all payload cells as integers, fails if any cell isn't one
func (p *Params) GetInts(key string) ([]int64, bool) {
	e, ok := p.entries[key]
	if !ok || len(e.Cells) < 1 {
		return nil, false
	}
	result := make([]int64, 0, len(e.Cells))
	for _, c := range e.Cells {
		i, ok := c.Int()
		if !ok {
			return nil, false
		}
		result = append(result, i)
	}
	return result, true
}

// GetFloat - first payload cell as float
func (p *Params) GetFloat(key string) (float64, bool) {
	e, ok := p.entries[key]
	if !ok || len(e.Cells) < 1 {
		return 0, false
	}
	return e.Cells[0].Float()
}

// GetFloats - all payload cells as floats, fails if any cell isn't numeric
func (p *Params) GetFloats(key string) ([]float64, bool) {
	e, ok := p.entries[key]
	if !ok || len(e.Cells) < 1 {
		return nil, false
	}
	result := make([]float64, 0, len(e.Cells))
	for _, c := range e.Cells {
		f, ok := c.Float()
		if !ok {
			return nil, false
		}
		result = append(result, f)
	}
	return result, true
}

// GetRows - struct payload rows, eg VisuFGOrderDesc:
// (5, <FG_SLICE>, <>, 0, 2) (3, <FG_MOVIE>, <echo>, 2, 1)
func (p *Params) GetRows(key string) ([][]Value, bool) {
	e, ok := p.entries[key]
	if !ok || len(e.Rows) < 1 {
		return nil, false
	}
	return e.Rows, true
}

func (p *Params) setEntry(e *Entry) {
	if _, exists := p.entries[e.Key]; !exists {
		p.order = append(p.order, e.Key)
	}
	p.entries[e.Key] = e
}

func (p *Params) setHeader(key, value string) {
	if _, exists := p.headers[key]; !exists {
		p.headerOrder = append(p.headerOrder, key)
	}
	p.headers[key] = value
}

// ToString - dump in file order, for test comparisons
func (p *Params) ToString() string {
	result := ""
	for _, key := range p.headerOrder {
		result += fmt.Sprintf("%v=%v\n", key, p.headers[key])
	}
	for _, key := range p.order {
		e := p.entries[key]
		result += fmt.Sprintf("$%v", key)
		if len(e.Shape) > 0 {
			result += fmt.Sprintf(" shape=%v", e.Shape)
		}
		result += "="
		for i, c := range e.Cells {
			if i > 0 {
				result += "|"
			}
			result += c.String()
		}
		result += "\n"
	}
	return result
}
