/*
Copyright 2022 The Katalyst Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package common

import (
	"fmt"
	"strconv"
	"strings"
)

const bitmapGroupWidth = 8

// FormatKernelBitmap turns a plain hex mask ("100000000") into the comma
// separated 32-bit groups accepted by /proc/irq/*/smp_affinity
// ("00000001,00000000").
func FormatKernelBitmap(mask string) (string, error) {
	mask = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(mask)), "0x")
	if mask == "" {
		return "", fmt.Errorf("empty mask")
	}
	for _, r := range mask {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return "", fmt.Errorf("invalid hex mask %q", mask)
		}
	}

	if pad := len(mask) % bitmapGroupWidth; pad != 0 {
		mask = strings.Repeat("0", bitmapGroupWidth-pad) + mask
	}

	groups := make([]string, 0, len(mask)/bitmapGroupWidth)
	for i := 0; i < len(mask); i += bitmapGroupWidth {
		groups = append(groups, mask[i:i+bitmapGroupWidth])
	}
	return strings.Join(groups, ","), nil
}

// IsZeroBitmap returns true if every group of the bitmap is zero.
func IsZeroBitmap(bitmapStr string) bool {
	fields := strings.Split(strings.TrimSpace(bitmapStr), ",")
	for _, field := range fields {
		val, err := strconv.ParseUint(field, 16, 32)
		if err != nil {
			return false
		}
		if val != 0 {
			return false
		}
	}

	return true
}

// CompareHexBitmapStrings compares two comma separated hex bitmaps group by
// group from the least significant end; surplus high groups must be zero.
func CompareHexBitmapStrings(a string, b string) bool {
	bitmapAFields := strings.Split(strings.TrimSpace(a), ",")
	bitmapBFields := strings.Split(strings.TrimSpace(b), ",")

	cmpLen := len(bitmapAFields)
	if len(bitmapBFields) < cmpLen {
		cmpLen = len(bitmapBFields)
	}

	aLastIndex := len(bitmapAFields) - 1
	bLastIndex := len(bitmapBFields) - 1
	for i := 0; i < cmpLen; i++ {
		valA, errA := strconv.ParseUint(bitmapAFields[aLastIndex-i], 16, 32)
		valB, errB := strconv.ParseUint(bitmapBFields[bLastIndex-i], 16, 32)
		if errA != nil || errB != nil || valA != valB {
			return false
		}
	}

	if len(bitmapAFields) > cmpLen && !IsZeroBitmap(strings.Join(bitmapAFields[:len(bitmapAFields)-cmpLen], ",")) {
		return false
	}
	if len(bitmapBFields) > cmpLen && !IsZeroBitmap(strings.Join(bitmapBFields[:len(bitmapBFields)-cmpLen], ",")) {
		return false
	}

	return true
}
