package query

import (
	"fmt"

	"github.com/ValentinKolb/rKV/rpc/pb"
)

// Function references a server side function, either a named (javascript)
// function or an erlang module and function.
type Function struct {
	Name     string
	Module   string
	Function string
}

// NewNamedFunction creates a reference to a named (javascript) function
func NewNamedFunction(name string) Function {
	return Function{Name: name}
}

// NewModFun creates a reference to an erlang module and function
func NewModFun(module, function string) Function {
	return Function{Module: module, Function: function}
}

// IsNamed reports whether the function is referenced by name
func (f Function) IsNamed() bool {
	return f.Name != ""
}

// String returns "name" or "module:function"
func (f Function) String() string {
	if f.IsNamed() {
		return f.Name
	}
	return fmt.Sprintf("%s:%s", f.Module, f.Function)
}

func (f Function) validate() error {
	if f.IsNamed() {
		return nil
	}
	if f.Module == "" || f.Function == "" {
		return fmt.Errorf("function needs a name or both module and function")
	}
	return nil
}

func (f Function) toModFun() *pb.ModFun {
	return &pb.ModFun{Module: []byte(f.Module), Function: []byte(f.Function)}
}

func (f Function) toHook() pb.CommitHook {
	if f.IsNamed() {
		return pb.CommitHook{Name: []byte(f.Name)}
	}
	return pb.CommitHook{Modfun: f.toModFun()}
}

func functionFromModFun(m *pb.ModFun) Function {
	return NewModFun(string(m.Module), string(m.Function))
}

func functionFromHook(h pb.CommitHook) Function {
	if h.Modfun != nil {
		return functionFromModFun(h.Modfun)
	}
	return NewNamedFunction(string(h.Name))
}
