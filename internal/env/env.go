// Package env tracks variable generations while lowering one function and
// maps each name+generation pair to a collision-free JavaScript identifier.
package env

import (
	"maps"
	"strconv"
)

// TempName is the environment name used for subject temporaries. Source
// identifiers cannot contain '$', so it never collides with a user name.
const TempName = "$"

// jsReserved are words that cannot be used as JavaScript binding names in
// strict module code, plus a few globals the emitted code must not shadow.
var jsReserved = map[string]struct{}{
	"await": {}, "arguments": {}, "break": {}, "case": {}, "catch": {},
	"class": {}, "const": {}, "continue": {}, "debugger": {}, "default": {},
	"delete": {}, "do": {}, "else": {}, "enum": {}, "eval": {},
	"export": {}, "extends": {}, "false": {}, "finally": {}, "for": {},
	"function": {}, "if": {}, "implements": {}, "import": {}, "in": {},
	"instanceof": {}, "interface": {}, "let": {}, "new": {}, "null": {},
	"package": {}, "private": {}, "protected": {}, "public": {}, "return": {},
	"static": {}, "super": {}, "switch": {}, "this": {}, "throw": {},
	"true": {}, "try": {}, "typeof": {}, "var": {}, "void": {},
	"while": {}, "with": {}, "yield": {}, "undefined": {}, "then": {},
	"Error": {},
}

// Env is the binding environment for one function compilation. It is not
// safe for concurrent use; concurrent compilations each get their own.
type Env struct {
	visible map[string]uint32 // name -> generation references resolve to
	next    map[string]uint32 // name -> next generation Bind hands out
}

// New creates an empty environment
func New() *Env {
	return &Env{
		visible: make(map[string]uint32),
		next:    make(map[string]uint32),
	}
}

// Bind introduces a new generation of name and makes it visible. The first
// binding of a name is generation 0; every later one increments, even after
// a Restore has hidden the previous generation.
func (e *Env) Bind(name string) uint32 {
	gen := e.next[name]
	e.next[name] = gen + 1
	e.visible[name] = gen
	return gen
}

// Resolve returns the generation an unqualified reference to name sees.
func (e *Env) Resolve(name string) (uint32, bool) {
	gen, ok := e.visible[name]
	return gen, ok
}

// Lookup resolves name and returns its target identifier.
func (e *Env) Lookup(name string) (string, bool) {
	gen, ok := e.Resolve(name)
	if !ok {
		return "", false
	}
	return Rename(name, gen), true
}

// Temp binds a fresh subject temporary and returns its identifier:
// "$", "$1", "$2", ...
func (e *Env) Temp() string {
	return Rename(TempName, e.Bind(TempName))
}

// Rename returns the target-safe identifier for a name at a generation.
// Generation 0 is the name itself; generation n is name$n. Reserved words
// take a trailing '$' first, so `class` becomes class$ and then class$1.
func Rename(name string, gen uint32) string {
	base := name
	if _, reserved := jsReserved[name]; reserved {
		base = name + "$"
	}
	if gen == 0 {
		return base
	}
	if name == TempName || base != name {
		return base + strconv.FormatUint(uint64(gen), 10)
	}
	return base + "$" + strconv.FormatUint(uint64(gen), 10)
}

// Snapshot captures the environment so a nested scope can be undone.
type Snapshot struct {
	visible map[string]uint32
	next    map[string]uint32
}

// Snapshot records the current visibility and generation counters.
func (e *Env) Snapshot() Snapshot {
	return Snapshot{
		visible: maps.Clone(e.visible),
		next:    maps.Clone(e.next),
	}
}

// Restore closes a scope: names bound since s go out of view, but the
// generation counters keep counting so later bindings stay unique.
func (e *Env) Restore(s Snapshot) {
	e.visible = maps.Clone(s.visible)
}

// Rollback discards everything since s, counters included. It is used when
// a partially lowered expression is thrown away.
func (e *Env) Rollback(s Snapshot) {
	e.visible = maps.Clone(s.visible)
	e.next = maps.Clone(s.next)
}
