package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		arg       string
		wantKey   string
		wantValue string
	}{
		{"--username=admin", "username", "admin"},
		{"--password=a=b", "password", "a=b"},
		{"--json", "json", "true"},
		{"learn/foo", "", ""},
		{"--", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			key, value := parseFlag(tt.arg)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestParseOptions(t *testing.T) {
	opts := parseOptions([]string{
		"learn/foo",
		"--role=Administrator", "--role=Teacher",
		"--limit=5", "--offset=nope",
		"--include-disabled", "--json",
	})

	assert.Equal(t, []string{"learn/foo"}, opts.args)
	assert.Equal(t, []string{"Administrator", "Teacher"}, opts.roles)
	assert.Equal(t, 5, opts.limit)
	assert.Equal(t, 0, opts.offset)
	assert.True(t, opts.includeDisabled)
	assert.True(t, opts.useJSON)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
