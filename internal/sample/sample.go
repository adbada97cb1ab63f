package sample

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldCount is the number of tab-separated fields in one telemetry record
const FieldCount = 7

// ErrMalformedRecord is returned for any record that cannot be turned into a Sample
var ErrMalformedRecord = errors.New("malformed telemetry record")

var fieldNames = [FieldCount]string{
	"tag",
	"pos_north",
	"pos_west",
	"vel_north",
	"vel_west",
	"desired_speed",
	"desired_heading",
}

// Sample is one parsed telemetry record from the variable server
type Sample struct {
	Tag               string
	PosNorth          float64
	PosWest           float64
	VelNorth          float64
	VelWest           float64
	DesiredSpeed      float64
	DesiredHeadingDeg float64
}

// Parse converts one inbound line into a Sample.
//
// The line must hold exactly seven tab-separated fields. The first is an
// opaque tag; the remaining six must be finite floating point numbers.
func Parse(line string) (Sample, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, "\t")
	if len(fields) != FieldCount {
		return Sample{}, fmt.Errorf("%w: got %d fields, expected %d", ErrMalformedRecord, len(fields), FieldCount)
	}

	var values [FieldCount - 1]float64
	for i := 1; i < FieldCount; i++ {
		v, err := parseField(fields[i])
		if err != nil {
			return Sample{}, fmt.Errorf("%w: field %d (%s): %v", ErrMalformedRecord, i, fieldNames[i], err)
		}
		values[i-1] = v
	}

	return Sample{
		Tag:               fields[0],
		PosNorth:          values[0],
		PosWest:           values[1],
		VelNorth:          values[2],
		VelWest:           values[3],
		DesiredSpeed:      values[4],
		DesiredHeadingDeg: values[5],
	}, nil
}

func parseField(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}
