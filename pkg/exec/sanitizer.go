package exec

import (
	"regexp"
	"strings"
)

const cRedacted = "<redacted>"

// Credential-bearing flags that toolchains in the build path accept on the command line.
var regexpRedactRules = []*regexp.Regexp{
	regexp.MustCompile(`(--ks-pass )\S+`),
	regexp.MustCompile(`(--key-pass )\S+`),
	regexp.MustCompile(`(-storepass )\S+`),
	regexp.MustCompile(`(-keypass )\S+`),
}

// redactSensitiveData redacts explicit sensitive values and any
// credential-bearing flag values from msg. msg is expected to be a whole
// command line or log message, not a single argument, so the flag rules can
// match a flag together with its value.
func redactSensitiveData(msg string, sensitiveDataMatch []string) string {
	for _, sensitiveData := range sensitiveDataMatch {
		if sensitiveData != "" {
			msg = strings.ReplaceAll(msg, sensitiveData, cRedacted)
		}
	}

	for _, rule := range regexpRedactRules {
		msg = rule.ReplaceAllString(msg, "${1}"+cRedacted)
	}

	return msg
}
