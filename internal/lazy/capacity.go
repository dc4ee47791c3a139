package lazy

// Capacity carries a fixed array length at the type level, so that the
// footprint of a bounded array is a constant of its type. Define your own by
// declaring an empty struct with a Cap method.
type Capacity interface {
	Cap() uint32
}

type (
	Cap1   struct{}
	Cap2   struct{}
	Cap4   struct{}
	Cap8   struct{}
	Cap16  struct{}
	Cap32  struct{}
	Cap64  struct{}
	Cap128 struct{}
	Cap256 struct{}
)

func (Cap1) Cap() uint32   { return 1 }
func (Cap2) Cap() uint32   { return 2 }
func (Cap4) Cap() uint32   { return 4 }
func (Cap8) Cap() uint32   { return 8 }
func (Cap16) Cap() uint32  { return 16 }
func (Cap32) Cap() uint32  { return 32 }
func (Cap64) Cap() uint32  { return 64 }
func (Cap128) Cap() uint32 { return 128 }
func (Cap256) Cap() uint32 { return 256 }

// CapOf returns the capacity encoded by N.
func CapOf[N Capacity]() uint32 {
	var n N
	return n.Cap()
}
