package cmd

import (
	"fmt"

	"github.com/cottand/ovld/backend"
	"github.com/cottand/ovld/internal/log"
	"github.com/spf13/cobra"
)

var GenCmd = &cobra.Command{
	Use:          "gen ./folder|file.decl.yaml",
	Short:        "Generate Go dispatch routines for every overload set",
	RunE:         runGen,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

const genFileName = "ovld_dispatch"

func init() {
	GenCmd.Flags().StringP("out", "o", ".", "output directory")
	GenCmd.Flags().StringP("package", "p", "", "Go package of the generated file, overrides [go].package")
	addCommonFlags(GenCmd)
}

func runGen(c *cobra.Command, args []string) error {
	u, cfg, err := loadTarget(c, args[0])
	if err != nil {
		return err
	}
	if c.Flags().Changed("package") {
		cfg.Go.Package, _ = c.Flags().GetString("package")
	}

	em, err := backend.NewGoEmitter(cfg.Go.Package, cfg.Go.Types, u.Hierarchy)
	if err != nil {
		return fmt.Errorf("bad [go.types] in configuration: %w", err)
	}
	em.WithRuntimeImport(cfg.Go.RuntimeImport)

	plans, err := u.Compile(c.Context(), em, cfg.Jobs)
	if err != nil {
		if isCompileError(err) {
			return fmt.Errorf("errors found during compilation:\n%w", err)
		}
		return err
	}

	outDir, _ := c.Flags().GetString("out")
	at, err := backend.WriteFile(outDir, genFileName, em.File())
	if err != nil {
		return err
	}
	log.For(log.SectionBackend).Info("wrote dispatch routines", "routines", len(plans), "file", at)
	_, _ = fmt.Fprintf(c.OutOrStdout(), "%d dispatch routines written to %s\n", len(plans), at)
	return nil
}
