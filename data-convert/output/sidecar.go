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

package output

import (
	"fmt"

	"github.com/pvconv/pvconv/data-convert/convertModels"
)

// SidecarFields builds the JSON sidecar content for a converted image. Keys
// follow BIDS naming, times come out in seconds. Fields the acquisition
// didn't record are left out, and plugin Extra entries override everything.
func SidecarFields(meta convertModels.AcqMeta, version string) map[string]interface{} {
	fields := map[string]interface{}{
		"Manufacturer":       "Bruker",
		"ConversionSoftware": "pvconv",
	}

	if len(version) > 0 {
		fields["ConversionSoftwareVersion"] = version
	}
	if len(meta.Protocol) > 0 {
		fields["ProtocolName"] = meta.Protocol
	}
	if len(meta.ScanName) > 0 && meta.ScanName != meta.Protocol {
		fields["SeriesDescription"] = meta.ScanName
	}
	if len(meta.Method) > 0 {
		fields["PulseSequenceType"] = meta.Method
	}
	if len(meta.TRms) > 0 {
		fields["RepetitionTime"] = meta.TRms[0] / 1000
	}
	if len(meta.TEms) > 0 {
		fields["EchoTime"] = meta.TEms[0] / 1000
	}
	if meta.FlipAngle > 0 {
		fields["FlipAngle"] = meta.FlipAngle
	}
	if meta.Averages > 0 {
		fields["NumberOfAverages"] = meta.Averages
	}
	if meta.Repetitions > 0 {
		fields["NumberOfRepetitions"] = meta.Repetitions
	}
	if meta.FieldStrengthT > 0 {
		fields["MagneticFieldStrength"] = meta.FieldStrengthT
	}
	if len(meta.SoftwareVersion) > 0 {
		fields["SoftwareVersions"] = fmt.Sprintf("ParaVision %v", meta.SoftwareVersion)
	}

	for k, v := range meta.Extra {
		fields[k] = v
	}

	return fields
}
