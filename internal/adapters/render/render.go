// Package render prints launch plans and argument listings.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/stagehand/internal/adapters/detector"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/ui/output"
	"go.trai.ch/stagehand/internal/ui/style"
)

// Renderer writes plans and argument listings in one output mode.
type Renderer struct {
	w    io.Writer
	mode detector.OutputMode
	lg   *lipgloss.Renderer
}

// New creates a Renderer writing to w. ModeAuto is treated as ModePlain.
func New(w io.Writer, mode detector.OutputMode) *Renderer {
	profile := termenv.Ascii
	if mode == detector.ModeStyled {
		profile = output.ColorProfile()
	}
	lg := lipgloss.NewRenderer(w)
	lg.SetColorProfile(profile)
	return &Renderer{w: w, mode: mode, lg: lg}
}

// Plan prints a launch plan followed by the resolved arguments, if any.
func (r *Renderer) Plan(plan *domain.LaunchPlan, args []domain.ArgumentEntry) error {
	if r.mode == detector.ModeJSON {
		return r.json(planView{Plan: plan, Arguments: entryViews(args)})
	}

	var b strings.Builder
	b.WriteString(style.Heading(r.lg).Render("Launch plan "+plan.ID) + "\n")
	b.WriteString(r.field("root", plan.Root, 0))
	if len(plan.Processes) == 0 {
		b.WriteString("\n" + style.Label(r.lg).Render("no processes") + "\n")
	}

	for _, ps := range plan.Processes {
		b.WriteString("\n" + style.Bullet + " " + style.Node(r.lg).Render(ps.Name) + "\n")
		b.WriteString(r.field("package", ps.Package, 4))
		b.WriteString(r.field("executable", ps.ExecutablePath, 4))
		if len(ps.Args) > 0 {
			b.WriteString(r.field("args", quoteArgs(ps.Args), 4))
		}
		if ps.WorkingDir != "" {
			b.WriteString(r.field("cwd", ps.WorkingDir, 4))
		}
		for _, k := range slices.Sorted(maps.Keys(ps.Env)) {
			b.WriteString(r.field("env", k+"="+ps.Env[k], 4))
		}
	}

	if len(args) > 0 {
		b.WriteString("\n" + style.Heading(r.lg).Render("Arguments") + "\n")
		for _, a := range args {
			origin := style.Label(r.lg).Render("(" + a.Origin.String() + ", " + a.Scope + ")")
			b.WriteString("  " + a.Name + " = " + a.Value + " " + origin + "\n")
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Arguments prints the arguments declared by the descriptor at source.
func (r *Renderer) Arguments(source string, args []domain.Argument) error {
	if r.mode == detector.ModeJSON {
		views := make([]argumentView, 0, len(args))
		for _, a := range args {
			views = append(views, argumentView{
				Name:        a.Name,
				Default:     a.Default,
				Description: a.Description,
				Required:    !a.HasDefault(),
			})
		}
		return r.json(argumentsView{Source: source, Arguments: views})
	}

	var b strings.Builder
	b.WriteString(style.Heading(r.lg).Render("Arguments of "+source) + "\n")
	b.WriteString(style.Label(r.lg).Render("pass arguments as '<name>:=<value>'") + "\n")
	if len(args) == 0 {
		b.WriteString("\n  " + style.Label(r.lg).Render("no arguments") + "\n")
	}
	for _, a := range args {
		b.WriteString("\n  " + style.Node(r.lg).Render(a.Name) + "\n")
		if a.Description != "" {
			b.WriteString("      " + a.Description + "\n")
		}
		if a.HasDefault() {
			b.WriteString("      " + style.Label(r.lg).Render("default:") + " " + *a.Default + "\n")
		} else {
			b.WriteString("      " + style.Label(r.lg).Render("required") + "\n")
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Saved confirms that a plan was stored.
func (r *Renderer) Saved(id string) error {
	if r.mode == detector.ModeJSON {
		return r.json(struct {
			Saved string `json:"saved"`
		}{Saved: id})
	}
	_, err := fmt.Fprintf(r.w, "%s %s\n", style.Success(r.lg).Render(style.Check+" saved plan"), id)
	return err
}

func (r *Renderer) field(label, value string, indent int) string {
	pad := strings.Repeat(" ", max(1, 12-len(label)))
	return strings.Repeat(" ", indent) + style.Label(r.lg).Render(label+":") + pad + value + "\n"
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func quoteArgs(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\$") {
			out[i] = strconv.Quote(a)
			continue
		}
		out[i] = a
	}
	return strings.Join(out, " ")
}

type planView struct {
	Plan      *domain.LaunchPlan `json:"plan"`
	Arguments []entryView        `json:"arguments,omitempty"`
}

type entryView struct {
	Scope       string `json:"scope"`
	Name        string `json:"name"`
	Value       string `json:"value"`
	Origin      string `json:"origin"`
	Description string `json:"description,omitempty"`
}

func entryViews(entries []domain.ArgumentEntry) []entryView {
	if len(entries) == 0 {
		return nil
	}
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryView{
			Scope:       e.Scope,
			Name:        e.Name,
			Value:       e.Value,
			Origin:      e.Origin.String(),
			Description: e.Description,
		})
	}
	return out
}

type argumentsView struct {
	Source    string         `json:"source"`
	Arguments []argumentView `json:"arguments"`
}

type argumentView struct {
	Name        string  `json:"name"`
	Default     *string `json:"default,omitempty"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required"`
}
