package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles - jet theme
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(JetYellow).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(JetCyan).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(JetCyan).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(JetYellow).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(JetRed).
			Bold(true)

	helpEnvStyle = lipgloss.NewStyle().
			Foreground(JetBlue)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(SlateGray).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// Flags carrying a group tag are listed under their own heading.
func StyledHelpPrinter(options kong.HelpOptions) kong.HelpPrinter {
	return kong.HelpPrinter(func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render(AppName))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render(AppDescription))
		sb.WriteString("\n")

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(usageLine(ctx))
		sb.WriteString("\n")

		if args := ctx.Model.Node.Positional; len(args) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Arguments:"))
			sb.WriteString("\n")
			for _, arg := range args {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(arg.Summary()))
				if arg.Help != "" {
					sb.WriteString("  ")
					sb.WriteString(arg.Help)
				}
				sb.WriteString("\n")
			}
		}

		for _, section := range flagSections(ctx.Model.Node.Flags) {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render(section.title + ":"))
			sb.WriteString("\n")
			for _, f := range section.flags {
				sb.WriteString("  ")
				sb.WriteString(f.render())
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	})
}

func usageLine(ctx *kong.Context) string {
	parts := []string{ctx.Model.Name}
	for _, arg := range ctx.Model.Node.Positional {
		parts = append(parts, arg.Summary())
	}
	return strings.Join(append(parts, "[flags]"), " ")
}

type flagEntry struct {
	flags      string
	help       string
	choices    []string
	envs       []string
	defaultVal string
}

type flagSection struct {
	title string
	flags []flagEntry
}

// flagSections groups flags by their group tag, keeping declaration order.
// Ungrouped flags come first under "Flags".
func flagSections(flags []*kong.Flag) []flagSection {
	sections := []flagSection{{
		title: "Flags",
		flags: []flagEntry{{flags: "-h, --help", help: "Show context-sensitive help."}},
	}}
	index := map[string]int{}

	for _, f := range flags {
		if f.Name == "help" || f.Hidden {
			continue
		}
		i := 0
		if f.Group != nil {
			var ok bool
			if i, ok = index[f.Group.Key]; !ok {
				i = len(sections)
				index[f.Group.Key] = i
				sections = append(sections, flagSection{title: f.Group.Title + " Flags"})
			}
		}
		sections[i].flags = append(sections[i].flags, newFlagEntry(f))
	}
	return sections
}

func newFlagEntry(f *kong.Flag) flagEntry {
	e := flagEntry{help: f.Help, envs: f.Envs}

	if f.Short != 0 {
		e.flags = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
	} else {
		e.flags = "--" + f.Name
	}

	if f.Enum != "" {
		e.choices = f.EnumSlice()
	} else if !f.IsBool() {
		placeholder := f.PlaceHolder
		if placeholder == "" {
			placeholder = f.Name
		}
		e.flags += "=" + strings.ToUpper(placeholder)
	}

	// Booleans always default to false
	if f.HasDefault && !f.IsBool() && f.Default != "" {
		e.defaultVal = f.Default
	}
	return e
}

func (e flagEntry) render() string {
	var sb strings.Builder

	sb.WriteString(helpFlagStyle.Render(e.flags))
	if len(e.choices) > 0 {
		sb.WriteString(helpFlagStyle.Render("=" + strings.Join(e.choices, "|")))
	}
	if e.help != "" {
		sb.WriteString("  ")
		sb.WriteString(e.help)
	}
	if len(e.envs) > 0 {
		sb.WriteString(" ")
		sb.WriteString(helpEnvStyle.Render("($" + strings.Join(e.envs, ", $") + ")"))
	}
	if e.defaultVal != "" {
		sb.WriteString(" ")
		sb.WriteString(helpDefaultStyle.Render("(default: " + e.defaultVal + ")"))
	}
	return sb.String()
}
