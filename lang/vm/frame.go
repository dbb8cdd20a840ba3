package vm

// CallFrame is the per-invocation execution record: which closure is
// running, where its instruction pointer is, and where its stack slot
// window begins.
type CallFrame struct {
	closure *Closure
	ip      int
	base    int
}
