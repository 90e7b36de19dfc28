package runtime

import (
	"fmt"

	"github.com/kahflane/naml/internal/heap"
)

// describeException renders an uncaught exception value for
// RuntimeUncaughtException's message: its declared type name, plus a
// "message" field's content when the exception declares one (§4.9's
// examples always construct with a message field, e.g. E("boom")).
func (rt *Runtime) describeException(v heap.Value) string {
	if v.Obj == nil {
		return "none"
	}
	t := rt.types.Lookup(v.Type)
	name := rt.types.String(v.Type)
	info := rt.reg.Exception(t.Def)
	for i, f := range info.Fields {
		if f.Name == "message" && i < len(v.Obj.Fields) {
			if msg := v.Obj.Fields[i]; msg.Obj != nil {
				return fmt.Sprintf("%s(%s)", name, msg.Obj.Str)
			}
		}
	}
	return name
}
