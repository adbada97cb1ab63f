package sample

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_ValidRecords tests parsing of well-formed records
func TestParse_ValidRecords(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Sample
	}{
		{
			name: "Typical record",
			line: "1\t10.0\t0.0\t5.0\t0.0\t120\t30",
			expected: Sample{
				Tag:               "1",
				PosNorth:          10.0,
				PosWest:           0.0,
				VelNorth:          5.0,
				VelWest:           0.0,
				DesiredSpeed:      120,
				DesiredHeadingDeg: 30,
			},
		},
		{
			name: "Trailing newline and carriage return",
			line: "0\t-1.5\t2.25\t3\t4\t0\t-180\r\n",
			expected: Sample{
				Tag:               "0",
				PosNorth:          -1.5,
				PosWest:           2.25,
				VelNorth:          3,
				VelWest:           4,
				DesiredSpeed:      0,
				DesiredHeadingDeg: -180,
			},
		},
		{
			name: "Full double precision",
			line: "tag\t0.1234567890123456\t1e-300\t-9.87654321e12\t6.02214076e23\t250\t179.999999",
			expected: Sample{
				Tag:               "tag",
				PosNorth:          0.1234567890123456,
				PosWest:           1e-300,
				VelNorth:          -9.87654321e12,
				VelWest:           6.02214076e23,
				DesiredSpeed:      250,
				DesiredHeadingDeg: 179.999999,
			},
		},
		{
			name: "Tag is not parsed",
			line: "not-a-number\t1\t2\t3\t4\t5\t6",
			expected: Sample{
				Tag:               "not-a-number",
				PosNorth:          1,
				PosWest:           2,
				VelNorth:          3,
				VelWest:           4,
				DesiredSpeed:      5,
				DesiredHeadingDeg: 6,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
		})
	}
}

// TestParse_MalformedRecords tests that bad records are rejected
func TestParse_MalformedRecords(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "Empty line", line: ""},
		{name: "Too few fields", line: "1\t2\t3\t4\t5\t6"},
		{name: "Too many fields", line: "1\t2\t3\t4\t5\t6\t7\t8"},
		{name: "Space separated", line: "1 2 3 4 5 6 7"},
		{name: "Non-numeric field", line: "1\t2\tabc\t4\t5\t6\t7"},
		{name: "Empty numeric field", line: "1\t2\t\t4\t5\t6\t7"},
		{name: "NaN field", line: "1\tNaN\t3\t4\t5\t6\t7"},
		{name: "Infinity field", line: "1\t2\t3\t+Inf\t5\t6\t7"},
		{name: "Negative infinity field", line: "1\t2\t3\t4\t-Infinity\t6\t7"},
		{name: "Overflowing field", line: "1\t2\t3\t4\t5\t1e400\t7"},
		{name: "Command echo", line: "dyn.aircraft.desired_speed = 120.00 ;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))
			assert.Equal(t, Sample{}, s)
		})
	}
}

// TestParse_ErrorNamesField tests that the error identifies the bad field
func TestParse_ErrorNamesField(t *testing.T) {
	_, err := Parse("1\t2\t3\t4\tx\t6\t7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vel_west")
}

func BenchmarkParse(b *testing.B) {
	line := "1\t1234.5678\t-987.654\t45.5\t-12.25\t120\t30"
	for i := 0; i < b.N; i++ {
		_, _ = Parse(line)
	}
}
