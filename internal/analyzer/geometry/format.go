package geometry

import (
	"strconv"
	"strings"
)

func upper(s string) string {
	return strings.ToUpper(s)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
