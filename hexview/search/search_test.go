package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr error
	}{
		{in: "FFD8", want: []byte{0xFF, 0xD8}},
		{in: "ff d8 ff", want: []byte{0xFF, 0xD8, 0xFF}},
		{in: "0x4D5A", want: []byte{0x4D, 0x5A}},
		{in: "  00\t01\n", want: []byte{0x00, 0x01}},
		{in: "", wantErr: ErrEmptyPattern},
		{in: "   ", wantErr: ErrEmptyPattern},
		{in: "GG", wantErr: ErrInvalidPattern},
		{in: "FFD", wantErr: ErrOddPattern},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePattern(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestScan_NonOverlapping(t *testing.T) {
	got := Scan(Bytes{0xFF, 0xD8, 0xFF, 0xD8, 0x00}, []byte{0xFF, 0xD8})
	require.Equal(t, []Match{{Start: 0, Length: 2}, {Start: 2, Length: 2}}, got)
}

func TestScan_ConsumesSpan(t *testing.T) {
	// "AAA" searched for "AA" reports only the hit at 0.
	got := Scan(Bytes{0xAA, 0xAA, 0xAA}, []byte{0xAA, 0xAA})
	require.Equal(t, []Match{{Start: 0, Length: 2}}, got)

	got = Scan(Bytes{0xAA, 0xAA, 0xAA, 0xAA}, []byte{0xAA, 0xAA})
	require.Equal(t, []Match{{Start: 0, Length: 2}, {Start: 2, Length: 2}}, got)
}

func TestScan_NoMatches(t *testing.T) {
	got := Scan(Bytes{0x01, 0x02, 0x03}, []byte{0x00, 0x00})
	require.Empty(t, got)
}

func TestScan_PartialMatchAtTail(t *testing.T) {
	got := Scan(Bytes{0x00, 0x01, 0xFF}, []byte{0xFF, 0xD8})
	require.Empty(t, got)
}

func TestScan_PatternLongerThanView(t *testing.T) {
	require.Empty(t, Scan(Bytes{0xFF}, []byte{0xFF, 0xD8}))
	require.Empty(t, Scan(Bytes{}, []byte{0xFF}))
	require.Empty(t, Scan(Bytes{0xFF}, nil))
}

func TestScan_SingleByte(t *testing.T) {
	got := Scan(Bytes{0x00, 0x7F, 0x7F, 0x10, 0x7F}, []byte{0x7F})
	require.Equal(t, []Match{{1, 1}, {2, 1}, {4, 1}}, got)
}
