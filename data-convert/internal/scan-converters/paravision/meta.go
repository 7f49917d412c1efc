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

package paravision

import (
	"github.com/pvconv/pvconv/core/jcampdx"
	"github.com/pvconv/pvconv/data-convert/convertModels"
	"github.com/pvconv/pvconv/pvdataset"
)

// Gyromagnetic ratio of 1H in MHz/T, turns the BF1 base frequency into a
// field strength
const gyromagneticRatio1H = 42.576

// buildMeta collects acquisition metadata for a scan. acqp and method carry
// it normally, exports that only kept pdata fall back to the visu_pars of
// the first reco.
func buildMeta(ds *pvdataset.Dataset, scan *pvdataset.Scan) convertModels.AcqMeta {
	info := ds.Info()

	meta := convertModels.AcqMeta{
		StudyName:       ds.Name(),
		SoftwareVersion: ds.Version(),
		SubjectID:       info.SubjectID,
		SubjectSex:      info.Sex,
		SubjectWeight:   info.Weight,
		Species:         info.SubjectType,
	}

	var visu *jcampdx.Params
	if ids := scan.RecoIDs(); len(ids) > 0 {
		if reco, err := scan.Reco(ids[0]); err == nil {
			visu = reco.VisuPars()
		}
	}

	acqp := scan.Acqp()

	meta.Protocol = stringParam(acqp, "ACQ_protocol_name", stringParam(visu, "VisuAcquisitionProtocol", ""))
	meta.ScanName = stringParam(acqp, "ACQ_scan_name", meta.Protocol)
	meta.Method = stringParam(acqp, "ACQ_method", stringParam(scan.Method(), "Method", ""))

	meta.TRms = floatsParam(acqp, "ACQ_repetition_time")
	if len(meta.TRms) <= 0 {
		meta.TRms = floatsParam(visu, "VisuAcqRepetitionTime")
	}
	meta.TEms = floatsParam(acqp, "ACQ_echo_time")
	if len(meta.TEms) <= 0 {
		meta.TEms = floatsParam(visu, "VisuAcqEchoTime")
	}

	meta.FlipAngle = floatParam(acqp, "ACQ_flip_angle", floatParam(visu, "VisuAcqFlipAngle", 0))
	meta.EffBandwidthHz = floatParam(acqp, "SW_h", 0)
	meta.Averages = intParam(acqp, "NA", 0)
	meta.Repetitions = intParam(acqp, "NR", 0)

	if bf1 := floatParam(acqp, "BF1", 0); bf1 > 0 {
		meta.FieldStrengthT = bf1 / gyromagneticRatio1H
	}

	meta.Operator = stringParam(acqp, "ACQ_operator", info.UserAccount)
	meta.Timestamp = stringParam(acqp, "ACQ_time", stringParam(visu, "VisuAcqDate", ""))

	return meta
}

// Param lookups tolerating a nil file, scans don't always ship every one

func stringParam(p *jcampdx.Params, key string, def string) string {
	if p != nil {
		if v, ok := p.GetString(key); ok && len(v) > 0 {
			return v
		}
	}
	return def
}

func floatParam(p *jcampdx.Params, key string, def float64) float64 {
	if p != nil {
		if v, ok := p.GetFloat(key); ok {
			return v
		}
	}
	return def
}

func floatsParam(p *jcampdx.Params, key string) []float64 {
	if p == nil {
		return nil
	}
	if v, ok := p.GetFloats(key); ok {
		return v
	}
	return nil
}

func intParam(p *jcampdx.Params, key string, def int) int {
	if p != nil {
		if v, ok := p.GetInt(key); ok {
			return int(v)
		}
	}
	return def
}
