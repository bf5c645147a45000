package rangle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		input   string
		want    Chunk
		wantErr bool
	}{
		{input: "0-10:8", want: Chunk{From: 0, To: 10, Num: 8, HasNum: true}},
		{input: "10-20", want: Chunk{From: 10, To: 20}},
		{input: "5-5:0", want: Chunk{From: 5, To: 5, Num: 0, HasNum: true}},
		{input: "20-", want: Chunk{From: 20, Open: true}},
		{input: "20->", want: Chunk{From: 20, Open: true}},
		{input: "20-:4", want: Chunk{From: 20, Open: true, Num: 4, HasNum: true}},
		{input: "1730635200000-1730635260000:3", want: Chunk{From: 1730635200000, To: 1730635260000, Num: 3, HasNum: true}},
		{input: "", wantErr: true},
		{input: "10", wantErr: true},
		{input: "a-10", wantErr: true},
		{input: "0-b", wantErr: true},
		{input: "-5-10", wantErr: true},
		{input: "0--10", wantErr: true},
		{input: "+1-10", wantErr: true},
		{input: "0-10-20", wantErr: true},
		{input: "0-10:", wantErr: true},
		{input: "0-10:-1", wantErr: true},
		{input: "0-10:1:2", wantErr: true},
		{input: "0-10: 1", wantErr: true},
		{input: "20-10", wantErr: true},
		{input: "0-99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRange(tt.input)
			if tt.wantErr {
				var rangeErr *MalformedRangeError
				require.True(t, errors.As(err, &rangeErr), "got %v", err)
				require.Equal(t, tt.input, rangeErr.Range)
				require.ErrorIs(t, err, ErrMalformedRange)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseRanges(t *testing.T) {
	chunks, err := ParseRanges([]string{"0-10:2", "10-20:1", "20-"})
	require.NoError(t, err)
	require.Equal(t, []Chunk{
		{From: 0, To: 10, Num: 2, HasNum: true},
		{From: 10, To: 20, Num: 1, HasNum: true},
		{From: 20, Open: true},
	}, chunks)

	chunks, err = ParseRanges(nil)
	require.NoError(t, err)
	require.Empty(t, chunks)

	_, err = ParseRanges([]string{"0-10", "10-", "20-30"})
	require.ErrorContains(t, err, "open-ended range must be last")

	_, err = ParseRanges([]string{"0-10", "11-20"})
	require.ErrorContains(t, err, `malformed range "11-20"`)

	_, err = ParseRanges([]string{"5-10:1", "10-20:2"})
	require.ErrorIs(t, err, ErrMalformedRange)
	require.EqualError(t, err, `malformed range "5-10:1": first range must start at 0`)
}

func TestFormatRanges(t *testing.T) {
	chunks := []Chunk{
		{From: 0, To: 10, Num: 2, HasNum: true},
		{From: 10, To: 20},
		{From: 20, Open: true, Num: 3, HasNum: true},
	}
	require.Equal(t, []string{"0-10", "10-20", "20-"}, FormatRanges(chunks, false))
	require.Equal(t, []string{"0-10:2", "10-20", "20-"}, FormatRanges(chunks, true))
	require.Empty(t, FormatRanges(nil, false))
}
