package compiler

import "github.com/evie-lang/evie/lang/value"

// beginScope/endScope track lexical block nesting. Leaving a scope pops its
// locals off the compile-time locals[] (and, for any that were captured by
// a nested closure, emits CLOSE_UPVALUE so the runtime upvalue is promoted
// before the stack slot disappears; otherwise a plain POP suffices).
func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

func (c *Compiler) endScope() {
	c.cur.scopeDepth--
	locals := c.cur.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.cur.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			c.emitOp(value.OpCloseUpvalue)
		} else {
			c.emitOp(value.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	c.cur.locals = locals
}

// declareLocal adds name to the current scope's locals with the
// "not-yet-initialized" sentinel depth -1 (spec §4.E "Local resolution").
// Redeclaring a name already present in the *same* scope is a Resolution
// error; shadowing a name from an enclosing scope is fine.
func (c *Compiler) declareLocal(name string) {
	if c.cur.scopeDepth == 0 {
		return // globals are resolved by name at runtime, not tracked here
	}
	for i := len(c.cur.locals) - 1; i >= 0; i-- {
		l := c.cur.locals[i]
		if l.depth != -1 && l.depth < c.cur.scopeDepth {
			break
		}
		if l.name == name {
			c.resolutionError("a variable with this name already exists in this scope")
			return
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.cur.locals) >= maxLocals {
		c.error("too many local variables in function")
		return
	}
	c.cur.locals = append(c.cur.locals, local{name: name, depth: -1})
}

// markInitialized finishes declaring the most recently added local,
// letting later statements in the same scope reference it.
func (c *Compiler) markInitialized() {
	if c.cur.scopeDepth == 0 {
		return
	}
	c.cur.locals[len(c.cur.locals)-1].depth = c.cur.scopeDepth
}

// resolveLocal searches s's locals back to front (so inner shadows outer),
// returning the slot index or -1 if name isn't a local of s. A match whose
// depth is still -1 means the variable is being read from its own
// initializer (`var x = x;`), a Resolution error.
func resolveLocal(s *compilerState, c *Compiler, name string) int {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i].name == name {
			if s.locals[i].depth == -1 {
				c.resolutionError("can't read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue implements the upvalue-resolution chain of spec §4.E: a
// miss in s recurses into s.enclosing; a hit there is captured as an
// upvalue of s (marking the outer local as captured so endScope emits
// CLOSE_UPVALUE for it), and the new upvalue's index is returned.
func resolveUpvalue(s *compilerState, c *Compiler, name string) int {
	if s.enclosing == nil {
		return -1
	}
	if local := resolveLocal(s.enclosing, c, name); local != -1 {
		s.enclosing.locals[local].isCaptured = true
		return addUpvalue(s, c, byte(local), true)
	}
	if up := resolveUpvalue(s.enclosing, c, name); up != -1 {
		return addUpvalue(s, c, byte(up), false)
	}
	return -1
}

func addUpvalue(s *compilerState, c *Compiler, index byte, isLocal bool) int {
	for i, uv := range s.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(s.upvalues) >= maxUpvalues {
		c.error("too many closure variables in function")
		return 0
	}
	s.upvalues = append(s.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(s.upvalues) - 1
}
