package formforest

import (
	"fmt"
	"strings"
)

// String renders the forest for debugging.
func (ff *FormForest) String() string {
	var b strings.Builder
	for _, frame := range ff.Frames() {
		parent := "none"
		if frame.ParentForm != nil {
			parent = frame.ParentForm.String()
		}
		fmt.Fprintf(&b, "frame %s parent=%s driver=%t\n", frame.Token.Short(), parent, frame.Driver != nil)

		for _, f := range frame.Forms {
			kind := "form"
			if ff.root(f.GlobalID()) == f.GlobalID() {
				kind = "root"
			}
			fmt.Fprintf(&b, "  %s %s name=%q children=%d fields=%d\n",
				kind, f.GlobalID(), f.Name, len(f.ChildFrames), len(f.Fields))
			for i, child := range f.ChildFrames {
				target := "unresolved"
				if tok := f.ResolvedChildren[i]; !tok.IsZero() {
					target = tok.Short()
				}
				fmt.Fprintf(&b, "    frame %s after=%d -> %s\n", child.Token, child.Predecessor, target)
			}
			for _, field := range f.Fields {
				fmt.Fprintf(&b, "    field %s from %s name=%q value=%q\n",
					field.GlobalID(), field.HostFormID(), field.Name, field.Value)
			}
		}
	}
	return b.String()
}
