package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("ATLASX_TEST_STR", "value")
	t.Setenv("ATLASX_TEST_INT", "42")
	t.Setenv("ATLASX_TEST_BAD_INT", "nope")
	t.Setenv("ATLASX_TEST_BOOL", "true")
	t.Setenv("ATLASX_TEST_SECS", "7")
	t.Setenv("ATLASX_TEST_LIST", "http://a, ,http://b/")

	assert.Equal(t, "value", Env("ATLASX_TEST_STR", "def"))
	assert.Equal(t, "def", Env("ATLASX_TEST_MISSING", "def"))
	assert.Equal(t, 42, EnvInt("ATLASX_TEST_INT", 1))
	assert.Equal(t, 1, EnvInt("ATLASX_TEST_BAD_INT", 1))
	assert.True(t, EnvBool("ATLASX_TEST_BOOL", false))
	assert.Equal(t, 7*time.Second, EnvSeconds("ATLASX_TEST_SECS", time.Second))
	assert.Equal(t, []string{"http://a", "http://b/"}, EnvList("ATLASX_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, EnvList("ATLASX_TEST_MISSING", []string{"x"}))
}

func TestEnvLocationFallsBackToLocal(t *testing.T) {
	t.Setenv("ATLASX_TEST_TZ", "Not/AZone")
	assert.Equal(t, time.Local, EnvLocation("ATLASX_TEST_TZ"))

	t.Setenv("ATLASX_TEST_TZ", "UTC")
	assert.Equal(t, "UTC", EnvLocation("ATLASX_TEST_TZ").String())
}

func TestDedupTrimsTrailingSlash(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, Dedup([]string{"http://a/", "http://a", "http://b"}))
}

func TestHashOrRead(t *testing.T) {
	hash, err := HashOrRead("secret")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("secret")))

	again, err := HashOrRead(string(hash))
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestParseTimestamp(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-10T12:00:00Z", time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)},
		{"2024-01-10T12:00:00.250+00:00", time.Date(2024, 1, 10, 12, 0, 0, int(250*time.Millisecond), time.UTC)},
		{"2024-01-10T12:00:00+02", time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)},
		{"2024-01-10 12:00:00+00", time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)},
		{"2024-01-10T12:00:00", time.Date(2024, 1, 10, 12, 0, 0, 0, ny)},
		{"2024-01-10", time.Date(2024, 1, 10, 0, 0, 0, 0, ny)},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in, ny)
		require.NoError(t, err, tc.in)
		assert.True(t, tc.want.Equal(got), "%s: want %s got %s", tc.in, tc.want, got)
	}

	_, err = ParseTimestamp("", ny)
	require.Error(t, err)
	_, err = ParseTimestamp("yesterday", ny)
	require.Error(t, err)
}

func TestDayBounds(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2024-01-10T20:00Z is already 2024-01-11 in Tokyo.
	ts := time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)

	start := StartOfDay(ts, tokyo)
	assert.Equal(t, time.Date(2024, 1, 11, 0, 0, 0, 0, tokyo), start)

	end := EndOfDay(ts, tokyo)
	assert.Equal(t, time.Date(2024, 1, 11, 23, 59, 59, 999000000, tokyo), end)
	assert.Equal(t, 24*time.Hour-time.Millisecond, end.Sub(start))
}
