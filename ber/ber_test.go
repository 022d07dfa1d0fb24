// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulePattern(t *testing.T) {
	tests := map[string]string{
		"":                       "",
		"version":                "version",
		"extensions/0/extnValue": "extensions/*/extnValue",
		"a/12/b/3":               "a/*/b/*",
		"v2x":                    "v2x",
	}
	for path, want := range tests {
		assert.Equal(t, want, rulePattern(path), "rulePattern(%q)", path)
	}
}

func TestOptions_Rule(t *testing.T) {
	var got string
	rule := func(name string) Rule {
		return func(RuleContext, Value) (Value, error) {
			got = name
			return nil, nil
		}
	}
	opts := &Options{Rules: map[string]Rule{
		"extensions/*/extnValue": rule("full"),
		"extnValue":              rule("name"),
		"*":                      rule("index"),
	}}
	tests := map[string]string{
		"extensions/3/extnValue": "full",
		"other/3/extnValue":      "name",
		"extnValue":              "name",
		"list/7":                 "index",
	}
	for path, want := range tests {
		got = ""
		r := opts.rule(path)
		if assert.NotNil(t, r, "rule(%q)", path) {
			_, _ = r(RuleContext{}, nil)
			assert.Equal(t, want, got, "rule(%q)", path)
		}
	}
	assert.Nil(t, opts.rule("version"))
	assert.Nil(t, (&Options{}).rule("extnValue"))
}

func TestOptions_Default(t *testing.T) {
	var opts *Options
	o := opts.orDefault()
	assert.False(t, o.Tolerant)
	assert.NotNil(t, o.logger())
	assert.Equal(t, 128, o.newGuard().Max())
	o.MaxDepth = 5
	assert.Equal(t, 5, o.newGuard().Max())
}
