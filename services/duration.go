package services

import (
	"regexp"
	"strconv"
)

var isoDuration = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// DecodeDuration converts a "PT#H#M#S" token to seconds. Missing parts count
// as zero and anything unrecognised decodes to 0, so 0 also means "could not
// parse".
func DecodeDuration(token string) int {
	m := isoDuration.FindStringSubmatch(token)
	if m == nil {
		return 0
	}
	return atoiOrZero(m[1])*3600 + atoiOrZero(m[2])*60 + atoiOrZero(m[3])
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
