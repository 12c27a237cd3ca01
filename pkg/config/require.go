package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustOneOf fails unless at least one of the values is set.
func MustOneOf(envNames []string, values ...string) {
	for _, v := range values {
		if v != "" {
			return
		}
	}
	log.Fatalf("missing required env: one of %v", envNames)
}
