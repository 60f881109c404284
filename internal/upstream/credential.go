package upstream

import (
	"strings"
)

const bearerPrefix = "bearer "

func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"`)
	return strings.Trim(v, `'`)
}

// CleanCredential strips whitespace, wrapping quotes and any case-insensitive
// "Bearer " prefix from a configured API key.
func CleanCredential(credential string) string {
	key := cleanValue(credential)
	if len(key) >= len(bearerPrefix) && strings.EqualFold(key[:len(bearerPrefix)], bearerPrefix) {
		key = strings.TrimSpace(key[len(bearerPrefix):])
	}
	return key
}

// AuthorizationHeader builds the header value sent with every upstream call.
func AuthorizationHeader(credential string) string {
	return "Bearer " + CleanCredential(credential)
}

// CleanEndpoint trims whitespace and wrapping quotes from a configured URL.
func CleanEndpoint(endpoint string) string {
	return cleanValue(endpoint)
}

func validEndpoint(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}
