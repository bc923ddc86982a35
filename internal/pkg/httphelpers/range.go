package httphelpers

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRange разбирает заголовок Range (подмножество RFC 7233, одна часть).
// Поддерживается суффиксная форма bytes=-N (последние N байт).
// Выход за границы файла — это ошибка (416), а не повод молча обрезать диапазон.
func ParseRange(rawRange string, fileSize int64) (start int64, end int64, err error) {
	const prefix = "bytes="
	if !strings.HasPrefix(rawRange, prefix) {
		return 0, 0, fmt.Errorf("invalid range format")
	}

	rangeStr := strings.TrimPrefix(rawRange, prefix)
	parts := strings.SplitN(rangeStr, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid range format")
	}

	// Суффиксная форма: bytes=-N
	if parts[0] == "" {
		if parts[1] == "" {
			return 0, 0, fmt.Errorf("empty range")
		}
		suffixLen, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || suffixLen <= 0 {
			return 0, 0, fmt.Errorf("invalid suffix range")
		}
		start = fileSize - suffixLen
		if start < 0 {
			start = 0
		}
		return start, fileSize - 1, nil
	}

	// Парсим start
	start, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("invalid start range")
	}

	// Парсим end; bytes=500- → до конца файла
	if parts[1] == "" {
		end = fileSize - 1
	} else {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid end range")
		}
	}

	if end < start || start >= fileSize || end >= fileSize {
		return 0, 0, fmt.Errorf("range out of bounds")
	}

	return start, end, nil
}
