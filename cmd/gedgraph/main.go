// Command gedgraph inspects GEDCOM files and pushes them to a gedgraph
// server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/gedgraph/internal/gedcom"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	lenient bool
	charset string
	json    bool
}

func (o *options) parse(path string) (*gedcom.Document, error) {
	return gedcom.ParseFile(path, gedcom.WithStrict(!o.lenient), gedcom.WithCharset(o.charset))
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "gedgraph",
		Short: "Parse, query and export GEDCOM 5.5 genealogy files",
		Long: `gedgraph reads GEDCOM 5.5 files into a tree of records and answers
questions about them: who matches a set of criteria, who are someone's
ancestors, how two people are related. Trees can be exported as a
person/relationship graph and pushed to a gedgraph server.

Examples:
  gedgraph validate family.ged
  gedgraph query family.ged --criteria surname=doe:birth_range=1900-1950
  gedgraph ancestors family.ged I3 --type NAT
  gedgraph push family.ged --server http://localhost:8090`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.lenient, "lenient", false, "accept malformed lines found in files from older tools")
	root.PersistentFlags().StringVar(&opts.charset, "charset", gedcom.CharsetAuto, "input charset: auto, utf-8 or ansi")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of text")

	root.AddCommand(
		newValidateCmd(opts),
		newQueryCmd(opts),
		newShowCmd(opts),
		newAncestorsCmd(opts),
		newDescendantsCmd(opts),
		newPathCmd(opts),
		newMembersCmd(opts),
		newReportCmd(opts),
		newExportCmd(opts),
		newFmtCmd(opts),
		newPushCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
