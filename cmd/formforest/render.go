package main

import (
	"fmt"
	"strings"

	"github.com/entrhq/formforest/pkg/autofill/driver"
	"github.com/entrhq/formforest/pkg/autofill/form"
	"github.com/entrhq/formforest/pkg/autofill/formforest"
	"github.com/entrhq/formforest/pkg/scenario"
)

func frameName(tree *driver.FrameTree, tok form.LocalFrameToken) string {
	if tree != nil {
		if d, ok := tree.Driver(tok); ok && d.Name() != "" {
			return d.Name()
		}
	}
	return tok.Short()
}

// renderBrowserForm lists the fields of a browser form with the frame each
// one lives in.
func renderBrowserForm(bf form.FormData, tree *driver.FrameTree) string {
	var b strings.Builder
	name := bf.Name
	if name == "" {
		name = fmt.Sprintf("form %d", bf.RendererID)
	}
	fmt.Fprintf(&b, "%s %s\n", sectionStyle.Render(name), mutedStyle.Render("in "+frameName(tree, bf.HostFrame)))
	for _, field := range bf.Fields {
		label := field.Name
		if label == "" {
			label = field.IDAttribute
		}
		line := fmt.Sprintf("%-20s %-12s %s", label, field.FormControlType, mutedStyle.Render(frameName(tree, field.HostFrame)))
		if field.Value != "" {
			line += " " + okStyle.Render(fmt.Sprintf("%q", field.Value))
		}
		b.WriteString(line + "\n")
	}
	return formBoxStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

// renderForest renders every browser form of ff.
func renderForest(ff *formforest.FormForest, tree *driver.FrameTree) string {
	roots := rootForms(ff)
	if len(roots) == 0 {
		return mutedStyle.Render("no forms") + "\n"
	}
	var b strings.Builder
	for _, root := range roots {
		bf, ok := ff.GetBrowserFormOfRendererForm(root)
		if !ok {
			continue
		}
		b.WriteString(renderBrowserForm(bf, tree))
	}
	return b.String()
}

func renderSteps(results []scenario.StepResult, tree *driver.FrameTree) string {
	var b strings.Builder
	for _, res := range results {
		fmt.Fprintf(&b, "%3d %-9s %-10s %s\n", res.Index, res.Kind, res.Frame, res.Detail)
		if res.Kind == "fill" && res.BrowserForm != nil {
			filled := *res.BrowserForm
			filled.Fields = nil
			for _, rf := range res.RendererForms {
				filled.Fields = append(filled.Fields, rf.Fields...)
			}
			b.WriteString(renderBrowserForm(filled, tree))
		}
	}
	return b.String()
}

func renderError(err error) string {
	return errorStyle.Render(err.Error())
}
