package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

type helpFixture struct {
	Image string `arg:"" help:"Input image" optional:""`

	OrtLib string `name:"ort-lib" help:"Runtime library" env:"ONNXRUNTIME_LIB" group:"model"`
	Format string `help:"Output image format" enum:"jpg,png" default:"jpg" group:"output"`
	Prefix string `help:"Name prefix" group:"output"`
	Quiet  bool   `help:"Less output"`
	Secret bool   `hidden:""`
}

func renderHelp(t *testing.T) string {
	t.Helper()

	var out bytes.Buffer
	var fixture helpFixture
	parser, err := kong.New(&fixture,
		kong.Name("patchmap"),
		kong.Writers(&out, &out),
		kong.Exit(func(int) {}),
		kong.ExplicitGroups([]kong.Group{
			{Key: "model", Title: "Model"},
			{Key: "output", Title: "Output"},
		}),
		kong.Help(StyledHelpPrinter(kong.HelpOptions{})),
	)
	if err != nil {
		t.Fatalf("kong.New failed: %v", err)
	}
	_, _ = parser.Parse([]string{"--help"})
	return out.String()
}

func TestHelpShowsEnumsAndEnv(t *testing.T) {
	help := renderHelp(t)

	for _, want := range []string{
		"patchmap [<image>] [flags]",
		"--format=jpg|png",
		"(default: jpg)",
		"($ONNXRUNTIME_LIB)",
		"--prefix=PREFIX",
		"--quiet",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
	if strings.Contains(help, "--secret") {
		t.Errorf("hidden flag listed:\n%s", help)
	}
	if strings.Contains(help, "--quiet=") {
		t.Errorf("boolean flag should not take a value:\n%s", help)
	}
}

func TestHelpGroupsFlags(t *testing.T) {
	help := renderHelp(t)

	flags := strings.Index(help, "Flags:")
	model := strings.Index(help, "Model Flags:")
	output := strings.Index(help, "Output Flags:")
	if flags < 0 || model < 0 || output < 0 {
		t.Fatalf("missing section headings:\n%s", help)
	}
	if !(flags < model && model < output) {
		t.Errorf("sections out of order: flags=%d model=%d output=%d", flags, model, output)
	}
	if i := strings.Index(help, "--ort-lib"); i < model || i > output {
		t.Errorf("--ort-lib not under Model Flags:\n%s", help)
	}
	if i := strings.Index(help, "--quiet"); i > model {
		t.Errorf("--quiet should be ungrouped:\n%s", help)
	}
}
