package utils

import "strings"

func ToPointer[T any](v T) *T {
	return &v
}

// NormalizePair upper-cases a pair and strips separators ("eur/usd" -> "EURUSD").
func NormalizePair(pair string) string {
	r := strings.NewReplacer("/", "", "-", "", "_", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(pair)))
}
