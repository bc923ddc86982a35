package httphelpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRange_Valid(t *testing.T) {
	cases := []struct {
		header     string
		fileSize   int64
		start, end int64
	}{
		{"bytes=0-499", 1000, 0, 499},
		{"bytes=100-199", 1000, 100, 199},
		{"bytes=500-", 1000, 500, 999},
		{"bytes=0-0", 1000, 0, 0},
		{"bytes=999-999", 1000, 999, 999},
		{"bytes=-200", 1000, 800, 999},  // суффикс: последние N байт
		{"bytes=-2000", 1000, 0, 999},   // суффикс больше файла — весь файл
		{"bytes=-1000", 1000, 0, 999},
	}

	for _, tc := range cases {
		start, end, err := ParseRange(tc.header, tc.fileSize)
		require.NoError(t, err, "header %q", tc.header)
		require.Equal(t, tc.start, start, "header %q", tc.header)
		require.Equal(t, tc.end, end, "header %q", tc.header)
	}
}

func TestParseRange_Invalid(t *testing.T) {
	cases := []struct {
		header   string
		fileSize int64
	}{
		{"", 1000},
		{"bytes=", 1000},
		{"bytes=-", 1000},
		{"bytes=-0", 1000}, // суффикс нулевой длины невыполним
		{"bytes=abc-def", 1000},
		{"bytes=100", 1000},        // нет дефиса
		{"items=0-100", 1000},      // не-байтовые единицы не поддерживаются
		{"bytes=200-100", 1000},    // end < start
		{"bytes=1000-", 1000},      // start за концом файла
		{"bytes=1000-1999", 1000},
		{"bytes=0-1000", 1000},     // end за концом файла — без обрезки
		{"bytes=0-999", 500},
	}

	for _, tc := range cases {
		_, _, err := ParseRange(tc.header, tc.fileSize)
		require.Error(t, err, "header %q", tc.header)
	}
}
