package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const base62Chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewID generates a record identifier from the current timestamp plus a
// short random suffix. Not guaranteed globally unique under concurrent
// writers; the document store tolerates that.
func NewID() string {
	return IDAt(time.Now())
}

// IDAt generates a record identifier for the given instant.
func IDAt(t time.Time) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(t.UnixMilli(), 36))
	sb.WriteByte('-')

	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(base62Chars))))
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// fall back to a fixed character rather than panic.
			sb.WriteByte('0')
			continue
		}
		sb.WriteByte(base62Chars[num.Int64()])
	}
	return sb.String()
}

// Timestamp renders t the way the tracker persists instants: UTC,
// millisecond precision, trailing Z.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
}

// Date renders t as the tracker's UTC calendar-date form (YYYY-MM-DD),
// comparable lexicographically against planned stage dates.
func Date(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
