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

package nifti

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SetSFormFromAffine - stores a 4x4 voxel-to-world affine in the srow
// fields, marking it scanner anatomical
func SetSFormFromAffine(hdr *Header, affine *mat.Dense) error {
	r, c := affine.Dims()
	if r != 4 || c != 4 {
		return fmt.Errorf("affine must be 4x4, got %vx%v", r, c)
	}

	for j := 0; j < 4; j++ {
		hdr.SrowX[j] = float32(affine.At(0, j))
		hdr.SrowY[j] = float32(affine.At(1, j))
		hdr.SrowZ[j] = float32(affine.At(2, j))
	}
	hdr.SformCode = XFormScannerAnat
	return nil
}

// SFormAffine - srow fields back as a 4x4
func SFormAffine(hdr *Header) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		float64(hdr.SrowX[0]), float64(hdr.SrowX[1]), float64(hdr.SrowX[2]), float64(hdr.SrowX[3]),
		float64(hdr.SrowY[0]), float64(hdr.SrowY[1]), float64(hdr.SrowY[2]), float64(hdr.SrowY[3]),
		float64(hdr.SrowZ[0]), float64(hdr.SrowZ[1]), float64(hdr.SrowZ[2]), float64(hdr.SrowZ[3]),
		0, 0, 0, 1,
	})
}

// SetQFormFromAffine - factors the rotation part of a 4x4 affine into the
// quaternion representation (the mat44_to_quatern construction from the
// NIfTI reference code). Column norms are expected to match pixdim, a
// negative determinant lands in pixdim[0] as qfac=-1.
func SetQFormFromAffine(hdr *Header, affine *mat.Dense) error {
	rows, cols := affine.Dims()
	if rows != 4 || cols != 4 {
		return fmt.Errorf("affine must be 4x4, got %vx%v", rows, cols)
	}

	r := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.Set(i, j, affine.At(i, j))
		}
	}

	// Normalize columns so r is a pure rotation
	for j := 0; j < 3; j++ {
		n := math.Hypot(math.Hypot(r.At(0, j), r.At(1, j)), r.At(2, j))
		if n == 0 {
			return fmt.Errorf("affine column %v has zero length", j)
		}
		for i := 0; i < 3; i++ {
			r.Set(i, j, r.At(i, j)/n)
		}
	}

	qfac := float32(1)
	if mat.Det(r) < 0 {
		qfac = -1
		for i := 0; i < 3; i++ {
			r.Set(i, 2, -r.At(i, 2))
		}
	}

	r11, r12, r13 := r.At(0, 0), r.At(0, 1), r.At(0, 2)
	r21, r22, r23 := r.At(1, 0), r.At(1, 1), r.At(1, 2)
	r31, r32, r33 := r.At(2, 0), r.At(2, 1), r.At(2, 2)

	var a, b, c, d float64

	a = r11 + r22 + r33 + 1
	if a > 0.5 {
		a = 0.5 * math.Sqrt(a)
		b = 0.25 * (r32 - r23) / a
		c = 0.25 * (r13 - r31) / a
		d = 0.25 * (r21 - r12) / a
	} else {
		xd := 1 + r11 - (r22 + r33)
		yd := 1 + r22 - (r11 + r33)
		zd := 1 + r33 - (r11 + r22)
		switch {
		case xd > 1:
			b = 0.5 * math.Sqrt(xd)
			c = 0.25 * (r12 + r21) / b
			d = 0.25 * (r13 + r31) / b
			a = 0.25 * (r32 - r23) / b
		case yd > 1:
			c = 0.5 * math.Sqrt(yd)
			b = 0.25 * (r12 + r21) / c
			d = 0.25 * (r23 + r32) / c
			a = 0.25 * (r13 - r31) / c
		default:
			d = 0.5 * math.Sqrt(zd)
			b = 0.25 * (r13 + r31) / d
			c = 0.25 * (r23 + r32) / d
			a = 0.25 * (r21 - r12) / d
		}
		if a < 0 {
			a, b, c, d = -a, -b, -c, -d
		}
	}

	hdr.QuaternB = float32(b)
	hdr.QuaternC = float32(c)
	hdr.QuaternD = float32(d)
	hdr.QoffsetX = float32(affine.At(0, 3))
	hdr.QoffsetY = float32(affine.At(1, 3))
	hdr.QoffsetZ = float32(affine.At(2, 3))
	hdr.Pixdim[0] = qfac
	hdr.QformCode = XFormScannerAnat

	return nil
}

// QFormAffine - rebuilds the 4x4 affine from the stored quaternion,
// pixdim scaling and qfac
func QFormAffine(hdr *Header) *mat.Dense {
	b := float64(hdr.QuaternB)
	c := float64(hdr.QuaternC)
	d := float64(hdr.QuaternD)

	a := 1.0 - (b*b + c*c + d*d)
	if a < 1e-7 {
		a = 0
	} else {
		a = math.Sqrt(a)
	}

	r := mat.NewDense(3, 3, []float64{
		a*a + b*b - c*c - d*d, 2*b*c - 2*a*d, 2*b*d + 2*a*c,
		2*b*c + 2*a*d, a*a + c*c - b*b - d*d, 2*c*d - 2*a*b,
		2*b*d - 2*a*c, 2*c*d + 2*a*b, a*a + d*d - c*c - b*b,
	})

	qfac := float64(hdr.Pixdim[0])
	if qfac == 0 {
		qfac = 1
	}

	affine := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		affine.Set(i, 0, r.At(i, 0)*float64(hdr.Pixdim[1]))
		affine.Set(i, 1, r.At(i, 1)*float64(hdr.Pixdim[2]))
		affine.Set(i, 2, r.At(i, 2)*float64(hdr.Pixdim[3])*qfac)
	}
	affine.Set(0, 3, float64(hdr.QoffsetX))
	affine.Set(1, 3, float64(hdr.QoffsetY))
	affine.Set(2, 3, float64(hdr.QoffsetZ))
	affine.Set(3, 3, 1)

	return affine
}
