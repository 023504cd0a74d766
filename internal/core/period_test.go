package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBucket(t *testing.T) {
	cases := []struct {
		d    Date
		g    Granularity
		want BucketKey
	}{
		{NewDate(2024, 3, 1), Daily, "2024-03-01"},
		{NewDate(2024, 3, 1), Monthly, "2024-03"},
		{NewDate(2024, 3, 1), Yearly, "2024"},
		// Jan 1 2024 is a Monday: (0+1+1)/7 rounds up to week 1
		{NewDate(2024, 1, 1), Weekly, "2024-W01"},
		{NewDate(2024, 1, 6), Weekly, "2024-W01"},
		{NewDate(2024, 1, 7), Weekly, "2024-W02"},
		// day 60, (60+1+1)/7 rounds up to 9
		{NewDate(2024, 3, 1), Weekly, "2024-W09"},
		// Jan 1 2023 is a Sunday
		{NewDate(2023, 1, 1), Weekly, "2023-W01"},
		{NewDate(2023, 1, 7), Weekly, "2023-W01"},
		{NewDate(2023, 1, 8), Weekly, "2023-W02"},
		{NewDate(2024, 12, 31), Weekly, "2024-W53"},
	}
	for _, tc := range cases {
		if got := ResolveBucket(tc.d, tc.g); got != tc.want {
			t.Fatalf("ResolveBucket(%s, %s) = %s, want %s", tc.d, tc.g, got, tc.want)
		}
	}
}

func TestBucketRange(t *testing.T) {
	cases := []struct {
		key        BucketKey
		g          Granularity
		start, end Date
	}{
		{"2024-03-01", Daily, NewDate(2024, 3, 1), NewDate(2024, 3, 1)},
		{"2024-W09", Weekly, NewDate(2024, 2, 26), NewDate(2024, 3, 3)},
		{"2024-W01", Weekly, NewDate(2024, 1, 1), NewDate(2024, 1, 7)},
		{"2024-02", Monthly, NewDate(2024, 2, 1), NewDate(2024, 2, 29)},
		{"2023-12", Monthly, NewDate(2023, 12, 1), NewDate(2023, 12, 31)},
		{"2024", Yearly, NewDate(2024, 1, 1), NewDate(2024, 12, 31)},
	}
	for _, tc := range cases {
		r, err := BucketRange(tc.key, tc.g)
		require.NoError(t, err, tc.key)
		assert.Equal(t, tc.start.String(), r.Start.String(), tc.key)
		assert.Equal(t, tc.end.String(), r.End.String(), tc.key)
	}

	for _, bad := range []struct {
		key BucketKey
		g   Granularity
	}{
		{"2024-W9", Weekly},
		{"2024-W00", Weekly},
		{"2024-09", Weekly},
		{"2024-3", Monthly},
		{"24", Yearly},
		{"2024-02-30", Daily},
	} {
		_, err := BucketRange(bad.key, bad.g)
		assert.ErrorIs(t, err, ErrInvalidPeriod, bad.key)
	}

	_, err := BucketRange("2024", Granularity(9))
	assert.ErrorIs(t, err, ErrInvalidGranularity)
}

func TestInBucket(t *testing.T) {
	assert.True(t, InBucket(NewDate(2024, 3, 1), "2024-03-01", Daily))
	assert.False(t, InBucket(NewDate(2024, 3, 2), "2024-03-01", Daily))
	assert.True(t, InBucket(NewDate(2024, 3, 3), "2024-W09", Weekly))
	assert.False(t, InBucket(NewDate(2024, 3, 4), "2024-W09", Weekly))
	assert.False(t, InBucket(NewDate(2024, 3, 4), "garbage", Weekly))
}

// Monthly and yearly resolution agrees with prefix matching for every day.
func TestInBucketPrefixAgreesWithResolve(t *testing.T) {
	d := NewDate(2023, 1, 1)
	for i := 0; i < 800; i++ {
		for _, g := range []Granularity{Daily, Monthly, Yearly} {
			key := ResolveBucket(d, g)
			if !InBucket(d, key, g) {
				t.Fatalf("%s not in its own %s bucket %s", d, g, key)
			}
		}
		d = d.AddDays(1)
	}
}

func TestCurrentBucket(t *testing.T) {
	now := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, BucketKey("2024-W09"), CurrentBucket(now, Weekly))
	assert.Equal(t, BucketKey("2024-03"), CurrentBucket(now, Monthly))
}

func TestGranularityText(t *testing.T) {
	for _, g := range Granularities {
		b, err := g.MarshalText()
		require.NoError(t, err)
		var back Granularity
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, g, back)
	}
	_, err := ParseGranularity("hourly")
	assert.ErrorIs(t, err, ErrInvalidGranularity)
	_, err = Granularity(0).MarshalText()
	assert.Error(t, err)
}

func TestResolveBucketPanicsOnInvalidGranularity(t *testing.T) {
	assert.Panics(t, func() { ResolveBucket(NewDate(2024, 1, 1), Granularity(0)) })
}
