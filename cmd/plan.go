package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cottand/ovld/backend"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var PlanCmd = &cobra.Command{
	Use:          "plan ./folder|file.decl.yaml|file" + backend.PlanFileSuffix,
	Short:        "Print the dispatch plan of every overload set, or of a saved plan file",
	RunE:         runPlan,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	routineColor = color.New(color.FgCyan, color.Bold)
	fieldColor   = color.New(color.FgYellow)
	labelColor   = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
)

func init() {
	PlanCmd.Flags().StringP("format", "f", "text", "output format: text or msgpack")
	addCommonFlags(PlanCmd)
}

func runPlan(c *cobra.Command, args []string) error {
	format, _ := c.Flags().GetString("format")
	if format != "text" && format != "msgpack" {
		return fmt.Errorf("unknown format %q", format)
	}
	if strings.HasSuffix(args[0], backend.PlanFileSuffix) {
		return showPlanFile(c, args[0], format)
	}
	u, cfg, err := loadTarget(c, args[0])
	if err != nil {
		return err
	}

	payloads, compileErr := u.Describe(c.Context(), cfg.Jobs)
	if compileErr != nil && !isCompileError(compileErr) {
		return compileErr
	}
	if err := writePlans(c.OutOrStdout(), payloads, format); err != nil {
		return err
	}
	if compileErr != nil {
		return fmt.Errorf("errors found during compilation:\n%w", compileErr)
	}
	return nil
}

// showPlanFile prints a plan file written by a previous plan --format msgpack
func showPlanFile(c *cobra.Command, path string, format string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open plan file: %w", err)
	}
	defer f.Close()
	file, err := backend.DecodePlanFile(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("could not decode %s: %w", path, err)
	}
	return writePlans(c.OutOrStdout(), file.Routines, format)
}

func writePlans(out io.Writer, payloads []backend.RoutinePayload, format string) error {
	if format == "msgpack" {
		if err := backend.EncodePlanFile(out, backend.NewPlanFile(payloads)); err != nil {
			return fmt.Errorf("could not encode plan: %w", err)
		}
		return nil
	}
	for i, p := range payloads {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		printPlan(out, p)
	}
	return nil
}

func printPlan(w io.Writer, p backend.RoutinePayload) {
	_, _ = fmt.Fprintf(w, "%s %s %s\n", routineColor.Sprint(p.Routine), p.Scope, p.Signature)
	field := func(name string, values ...string) {
		if len(values) == 0 || len(values) == 1 && values[0] == "" {
			return
		}
		_, _ = fmt.Fprintf(w, "  %s %s\n", fieldColor.Sprintf("%-9s", name), strings.Join(values, ", "))
	}
	field("principal", p.Principal)
	field("order", p.Order...)
	field("subsets", p.Subsets...)
	field("throws", p.Throws...)
	for _, c := range p.Candidates {
		for _, inf := range c.Inferences {
			field("infer", fmt.Sprintf("%s %s from slot %d %s", c.Member, inf.StaticParam, inf.Chosen, strings.Join(inf.Checks, " ")))
		}
	}
	for _, line := range p.Listing {
		switch {
		case strings.HasSuffix(line, ":"):
			line = labelColor.Sprint(line)
		case strings.HasPrefix(strings.TrimSpace(line), "fail "):
			line = failColor.Sprint(line)
		}
		_, _ = fmt.Fprintf(w, "  %s\n", line)
	}
}
