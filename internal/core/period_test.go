package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		month   string
		year    string
		want    Period
		wantErr error
	}{
		{"single digit month", "3", "2024", Period{2024, 3}, nil},
		{"padded month", "03", "2024", Period{2024, 3}, nil},
		{"december", "12", "1999", Period{1999, 12}, nil},
		{"missing month", "", "2024", Period{}, ErrMissingPeriod},
		{"missing year", "3", "", Period{}, ErrMissingPeriod},
		{"month zero", "0", "2024", Period{}, ErrInvalidMonth},
		{"month thirteen", "13", "2024", Period{}, ErrInvalidMonth},
		{"non numeric month", "mar", "2024", Period{}, ErrInvalidMonth},
		{"two digit year", "3", "24", Period{}, ErrInvalidYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.month, tt.year)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodRange(t *testing.T) {
	tests := []struct {
		period Period
		from   string
		to     string
	}{
		{Period{2024, 2}, "2024-02-01", "2024-02-29"},
		{Period{2023, 2}, "2023-02-01", "2023-02-28"},
		{Period{2024, 4}, "2024-04-01", "2024-04-30"},
		{Period{2024, 12}, "2024-12-01", "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			r := tt.period.Range()
			assert.Equal(t, tt.from, r.From.String())
			assert.Equal(t, tt.to, r.To.String())
			assert.True(t, r.Contains(r.From))
			assert.True(t, r.Contains(r.To))
			assert.False(t, r.Contains(tt.period.Next().Range().From))
		})
	}
}

func TestPeriodNavigation(t *testing.T) {
	assert.Equal(t, Period{2023, 12}, Period{2024, 1}.Previous())
	assert.Equal(t, Period{2025, 1}, Period{2024, 12}.Next())
	assert.Equal(t, "2024-03", Period{2024, 3}.String())
	assert.True(t, Period{2024, 3}.Contains(NewDate(2024, 3, 31)))
	assert.False(t, Period{2024, 3}.Contains(NewDate(2024, 4, 1)))
}

func TestPeriodClamp(t *testing.T) {
	assert.Equal(t, "2024-02-29", Period{2024, 2}.Clamp(31).String())
	assert.Equal(t, "2023-02-28", Period{2023, 2}.Clamp(30).String())
	assert.Equal(t, "2024-03-15", Period{2024, 3}.Clamp(15).String())
	assert.Equal(t, "2024-03-01", Period{2024, 3}.Clamp(0).String())
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"2024-03-10"`)))
	assert.Equal(t, "2024-03-10", d.String())

	out, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-10"`, string(out))

	require.NoError(t, d.UnmarshalJSON([]byte(`"2024-03-10T15:04:05Z"`)))
	assert.Equal(t, "2024-03-10", d.String())

	assert.ErrorIs(t, d.UnmarshalJSON([]byte(`"10/03/2024"`)), ErrInvalidDate)
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-03-10"))
	assert.Equal(t, NewDate(2024, 3, 10), d)

	require.NoError(t, d.Scan([]byte("2024-01-02")))
	assert.Equal(t, NewDate(2024, 1, 2), d)

	assert.Error(t, d.Scan(42))
}
