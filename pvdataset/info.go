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

package pvdataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/pvconv/pvconv/core/jcampdx"
)

// StudyInfo is the subject level summary of a study, assembled from the
// subject parameter file.
type StudyInfo struct {
	ParaVision  string
	UserAccount string
	Date        string
	SubjectID   string
	SubjectName string
	SessionID   string
	StudyNumber string
	SubjectType string
	Sex         string
	Weight      float64 // as stored: kg on ParaVision 6+, g on 5
	DOB         string
	Entry       string
	Position    string
}

// Info assembles the study level summary. Fields missing from the subject
// file stay at their zero values, loose file sets usually have none.
func (d *Dataset) Info() StudyInfo {
	info := StudyInfo{ParaVision: d.Version()}

	subj := d.subject
	if subj == nil {
		return info
	}

	if owner, ok := subj.Header("OWNER"); ok {
		info.UserAccount = owner
	}
	info.Date = subjectDate(subj)
	info.SubjectID, _ = subj.GetString("SUBJECT_id")
	info.SubjectName, _ = subj.GetString("SUBJECT_name_string")
	info.SessionID, _ = subj.GetString("SUBJECT_study_name")
	if nr, ok := subj.GetInt("SUBJECT_study_nr"); ok {
		info.StudyNumber = strconv.FormatInt(nr, 10)
	}
	info.SubjectType, _ = subj.GetString("SUBJECT_type")
	info.Sex, _ = subj.GetString("SUBJECT_sex")
	info.Weight, _ = subj.GetFloat("SUBJECT_weight")
	info.DOB, _ = subj.GetString("SUBJECT_dbirth")

	if entry, ok := subj.GetString("SUBJECT_entry"); ok {
		info.Entry = strings.TrimPrefix(entry, "SUBJECT_ENTRY_")
	}
	if position, ok := subj.GetString("SUBJECT_position"); ok {
		info.Position = strings.TrimPrefix(position, "SUBJECT_POS_")
	}

	return info
}

// subjectDate reads the acquisition date. Releases up to 6 store a readable
// string in SUBJECT_date, ParaVision 360 stores epoch seconds in
// SUBJECT_abs_date.
func subjectDate(subj *jcampdx.Params) string {
	if s, ok := subj.GetString("SUBJECT_date"); ok && len(s) > 0 {
		return s
	}
	if epoch, ok := subj.GetFloat("SUBJECT_abs_date"); ok && epoch > 0 {
		return time.Unix(int64(epoch), 0).UTC().Format("15:04:05 02 Jan 2006")
	}
	return ""
}
