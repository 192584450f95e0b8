// Package grammars holds the grammar descriptions shipped with grammarkeeper.
package grammars

import _ "embed"

// OneC is the base grammar for 1C:Enterprise source code.
//
//go:embed onec.peg
var OneC string

// Placeholder is used when no base grammar is available. It accepts
// identifier statements only and is meant to be extended.
const Placeholder = `start = statement*
statement = IDENTIFIER ";"
IDENTIFIER = ~r"[a-zA-Zа-яА-ЯёЁ_][a-zA-Zа-яА-ЯёЁ0-9_]*"
_ignore = ~r"\s+"
`

// IgnoreRule is the rule name skipped before every token.
const IgnoreRule = "_ignore"
