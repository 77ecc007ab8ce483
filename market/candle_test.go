package market

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCandlesCSV(t *testing.T) {
	t.Parallel()

	in := `time,open,high,low,close,volume
2026-10-19T10:00:00Z,1.1000,1.1010,1.0990,1.1005,120
1760871600,1.1005,1.1020,1.1000,1.1015
`
	got, err := ReadCandlesCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), got[0].Time)
	assert.Equal(t, 1.1010, got[0].High)
	assert.Equal(t, 120.0, got[0].Volume)

	assert.Equal(t, time.Unix(1760871600, 0).UTC(), got[1].Time)
	assert.Equal(t, 1.1015, got[1].Close)
	assert.Equal(t, 0.0, got[1].Volume)
}

func TestReadCandlesCSVShortHeader(t *testing.T) {
	t.Parallel()

	in := "time,price\n1760871600,1.1005,1.1020,1.1000,1.1015\n"
	got, err := ReadCandlesCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.1020, got[0].High)
}

func TestReadCandlesCSVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"short row", "1760871600,1,2,3\n"},
		{"short row after header", "time,o,h,l,c\n1760871600,1,2\n"},
		{"bad number", "1760871600,1,x,0.5,1\n"},
		{"bad time after header", "time,o,h,l,c\nyesterday,1,2,0.5,1\n"},
		{"high below low", "1760871600,1,0.5,2,1\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadCandlesCSV(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}
