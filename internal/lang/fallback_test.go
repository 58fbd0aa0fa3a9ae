package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchSymbolRules(line string) map[string]string {
	found := map[string]string{}
	for _, r := range FallbackRules() {
		if m := r.Pattern.FindStringSubmatch(line); m != nil {
			found[r.ID] = m[1]
		}
	}
	return found
}

func matchRefRules(line string) map[string]string {
	found := map[string]string{}
	for _, r := range FallbackRefRules() {
		if m := r.Pattern.FindStringSubmatch(line); m != nil {
			found[r.ID] = m[1]
		}
	}
	return found
}

// Each declaration line must hit exactly one rule: the scanner records every
// rule that matches, so overlap between shapes would duplicate symbols.
func TestFallbackRules_Declarations(t *testing.T) {
	cases := []struct {
		scenario string
		line     string
		rule     string
		name     string
	}{
		{"js function", "export default async function handler(req) {", "function-declaration", "handler"},
		{"js generator", "function* walk(tree) {", "function-declaration", "walk"},
		{"python def", "  async def fetch(url):", "def-declaration", "fetch"},
		{"go func", "func Run(ctx context.Context) error {", "func-declaration", "Run"},
		{"go method", "func (s *Server) Start() error {", "func-declaration", "Start"},
		{"rust fn", "pub(crate) unsafe fn read(buf: &mut [u8]) {", "fn-declaration", "read"},
		{"java class", "public abstract class Base {", "class-declaration", "Base"},
		{"python class", "class Handler:", "class-declaration", "Handler"},
		{"ts interface", "export interface Shape {", "interface-declaration", "Shape"},
		{"rust type", "pub type Meters = f64;", "type-declaration", "Meters"},
		{"js const", "export const MAX_RETRIES = 3", "variable-declaration", "MAX_RETRIES"},
		{"go var", "var registry = newRegistry()", "variable-declaration", "registry"},
	}
	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			found := matchSymbolRules(tc.line)
			require.Len(t, found, 1, "line matched %v", found)
			assert.Equal(t, tc.name, found[tc.rule])
		})
	}
}

func TestFallbackRules_NonDeclarations(t *testing.T) {
	for _, line := range []string{
		"return handler(x)",
		"x = require('fs')",
		"    if err != nil {",
	} {
		assert.Empty(t, matchSymbolRules(line), "line %q", line)
	}
}

func TestFallbackRefRules_Imports(t *testing.T) {
	cases := []struct {
		scenario string
		line     string
		rule     string
		module   string
	}{
		{"es import", `import { login } from './auth'`, "import-from", "./auth"},
		{"es default import", `import React from "react"`, "import-from", "react"},
		{"bare import", `import './styles.css'`, "import-bare", "./styles.css"},
		{"require", `const fs = require('fs')`, "require-call", "fs"},
		{"python from", "from os import path", "from-import", "os"},
		{"python relative from", "from . import helpers", "from-import", "."},
		{"python import", "import os", "import-module", "os"},
		{"java import", "import java.util.List;", "import-module", "java.util.List"},
		{"java static import", "import static java.lang.Math.max;", "import-module", "java.lang.Math.max"},
		{"rust use", "use std::collections::HashMap;", "use-declaration", "std::collections::HashMap"},
		{"rust pub use", "pub use crate::index::Symbol;", "use-declaration", "crate::index::Symbol"},
	}
	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			found := matchRefRules(tc.line)
			require.Len(t, found, 1, "line matched %v", found)
			assert.Equal(t, tc.module, found[tc.rule])
		})
	}
}

func TestFallbackRefRules_NonImports(t *testing.T) {
	for _, line := range []string{
		`'use strict'`,
		"user.admin = true",
		"console.log(x)",
	} {
		assert.Empty(t, matchRefRules(line), "line %q", line)
	}
}

func TestFallbackRefRules_RequirePerOccurrence(t *testing.T) {
	var requireRule FallbackRefRule
	for _, r := range FallbackRefRules() {
		if r.ID == "require-call" {
			requireRule = r
		}
	}
	require.NotNil(t, requireRule.Pattern)

	matches := requireRule.Pattern.FindAllStringSubmatch(`const a = require('a'), b = require("b")`, -1)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0][1])
	assert.Equal(t, "b", matches[1][1])
}

func TestFallbackLineExported(t *testing.T) {
	assert.True(t, FallbackLineExported("export function login() {"))
	assert.True(t, FallbackLineExported("pub fn run() {"))
	assert.True(t, FallbackLineExported("public class User {"))
	assert.False(t, FallbackLineExported("function hidden() {"))
	assert.False(t, FallbackLineExported("exported = true"))

	// Scoped visibility is left to the per-language heuristics.
	assert.False(t, FallbackLineExported("pub(crate) fn read() {"))
}
