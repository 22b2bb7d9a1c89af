package value

import "github.com/dolthub/swiss"

// MethodTable is a class's name -> method lookup table. Backed by a
// SwissTable hash map (the same choice the teacher repo makes for its
// dynamic Map value, github.com/dolthub/swiss) rather than a bare Go map,
// since every property and global lookup in the VM goes through a table
// like this one.
type MethodTable struct {
	m *swiss.Map[string, *ObjClosure]
}

// NewMethodTable returns an empty method table with initial capacity for at
// least size entries.
func NewMethodTable(size int) *MethodTable {
	return &MethodTable{m: swiss.NewMap[string, *ObjClosure](uint32(size))}
}

func (t *MethodTable) Get(name string) (*ObjClosure, bool) { return t.m.Get(name) }
func (t *MethodTable) Set(name string, c *ObjClosure)      { t.m.Put(name, c) }
func (t *MethodTable) Count() int                          { return t.m.Count() }

// FieldTable is an instance's per-object name -> value table.
type FieldTable struct {
	m *swiss.Map[string, Value]
}

// NewFieldTable returns an empty field table with initial capacity for at
// least size entries.
func NewFieldTable(size int) *FieldTable {
	return &FieldTable{m: swiss.NewMap[string, Value](uint32(size))}
}

func (t *FieldTable) Get(name string) (Value, bool) { return t.m.Get(name) }
func (t *FieldTable) Set(name string, v Value)      { t.m.Put(name, v) }
func (t *FieldTable) Has(name string) bool          { _, ok := t.m.Get(name); return ok }
func (t *FieldTable) Count() int                    { return t.m.Count() }

// Iterate calls fn once per entry; iteration order is unspecified, matching
// swiss.Map's own iteration contract.
func (t *FieldTable) Iterate(fn func(name string, v Value) bool) { t.m.Iter(fn) }

// GlobalTable is the VM's process-wide name -> value table, also backed by
// swiss.Map. Kept as a distinct type (rather than reusing FieldTable) so the
// VM's globals and an instance's fields can evolve independently even though
// today they share the same underlying shape.
type GlobalTable struct {
	m *swiss.Map[string, Value]
}

// NewGlobalTable returns an empty globals table.
func NewGlobalTable() *GlobalTable {
	return &GlobalTable{m: swiss.NewMap[string, Value](64)}
}

func (t *GlobalTable) Get(name string) (Value, bool) { return t.m.Get(name) }
func (t *GlobalTable) Set(name string, v Value)      { t.m.Put(name, v) }
func (t *GlobalTable) Has(name string) bool          { _, ok := t.m.Get(name); return ok }
func (t *GlobalTable) Delete(name string)            { t.m.Delete(name) }
func (t *GlobalTable) Count() int                    { return t.m.Count() }
func (t *GlobalTable) Iterate(fn func(name string, v Value) bool) { t.m.Iter(fn) }
