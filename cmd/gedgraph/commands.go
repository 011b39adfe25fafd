package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/gedgraph/internal/gedcom"
	"github.com/dgallion1/gedgraph/internal/graph"
	"github.com/dgallion1/gedgraph/internal/report"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Parse a file and check it for ancestry cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.parse(args[0])
			if err != nil {
				return err
			}
			if err := doc.CheckLineage(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d lines, %d individuals, %d families\n",
				doc.Len(), len(doc.Individuals()), len(doc.FamilyRecords()))
			return nil
		},
	}
}

func newQueryCmd(opts *options) *cobra.Command {
	var criteria string
	cmd := &cobra.Command{
		Use:   "query FILE",
		Short: "List individuals, optionally filtered by a criteria expression",
		Long: `List individuals in file order. --criteria takes colon separated terms:

  surname=TEXT  name=TEXT
  birth=YEAR    birth_range=FROM-TO
  death=YEAR    death_range=FROM-TO
  marriage=YEAR marriage_range=FROM-TO`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.parse(args[0])
			if err != nil {
				return err
			}
			people := doc.Individuals()
			if criteria != "" {
				c, err := gedcom.ParseCriteria(criteria)
				if err != nil {
					return err
				}
				people = doc.Filter(c)
			}
			return opts.printPeople(cmd.OutOrStdout(), people)
		},
	}
	cmd.Flags().StringVarP(&criteria, "criteria", "c", "", "criteria expression, e.g. surname=doe:birth_range=1900-1950")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE ID",
		Short: "Print one record and its sub-records as GEDCOM",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.parse(args[0])
			if err != nil {
				return err
			}
			e, err := doc.Resolve(pointer(args[1]))
			if err != nil {
				return err
			}
			return gedcom.NewEncoder(cmd.OutOrStdout()).EncodeElement(e)
		},
	}
}

func newAncestorsCmd(opts *options) *cobra.Command {
	var parentType string
	cmd := &cobra.Command{
		Use:   "ancestors FILE ID",
		Short: "List every ancestor of an individual, nearest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, indi, err := opts.individual(args[0], args[1])
			if err != nil {
				return err
			}
			pt, err := gedcom.ParseParentType(parentType)
			if err != nil {
				return err
			}
			people, err := doc.Ancestors(indi, pt)
			if err != nil {
				return err
			}
			return opts.printPeople(cmd.OutOrStdout(), people)
		},
	}
	cmd.Flags().StringVar(&parentType, "type", "ALL", "ALL or NAT (natural parents only)")
	return cmd
}

func newDescendantsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "descendants FILE ID",
		Short: "List every descendant of an individual, nearest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, indi, err := opts.individual(args[0], args[1])
			if err != nil {
				return err
			}
			people, err := doc.Descendants(indi)
			if err != nil {
				return err
			}
			return opts.printPeople(cmd.OutOrStdout(), people)
		},
	}
}

func newPathCmd(opts *options) *cobra.Command {
	var parentType string
	cmd := &cobra.Command{
		Use:   "path FILE DESCENDANT ANCESTOR",
		Short: "Show the shortest chain of parents from one individual up to another",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, from, err := opts.individual(args[0], args[1])
			if err != nil {
				return err
			}
			to, err := doc.Resolve(pointer(args[2]))
			if err != nil {
				return err
			}
			pt, err := gedcom.ParseParentType(parentType)
			if err != nil {
				return err
			}
			path, err := doc.FindPathToAncestor(from, to, pt)
			if err != nil {
				return err
			}
			if path == nil {
				return fmt.Errorf("%s is not an ancestor of %s", to.Pointer(), from.Pointer())
			}
			return opts.printPeople(cmd.OutOrStdout(), path)
		},
	}
	cmd.Flags().StringVar(&parentType, "type", "ALL", "ALL or NAT (natural parents only)")
	return cmd
}

func newMembersCmd(opts *options) *cobra.Command {
	var memberType string
	cmd := &cobra.Command{
		Use:   "members FILE FAMILY",
		Short: "List the members of a family",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.parse(args[0])
			if err != nil {
				return err
			}
			fam, err := doc.Resolve(pointer(args[1]))
			if err != nil {
				return err
			}
			mt, err := gedcom.ParseMemberType(memberType)
			if err != nil {
				return err
			}
			people, err := doc.FamilyMembers(fam, mt)
			if err != nil {
				return err
			}
			return opts.printPeople(cmd.OutOrStdout(), people)
		},
	}
	cmd.Flags().StringVar(&memberType, "type", "ALL", "ALL, PARENTS, HUSB, WIFE or CHIL")
	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "report FILE ID",
		Short: "Print a family group sheet for an individual",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, indi, err := opts.individual(args[0], args[1])
			if err != nil {
				return err
			}
			sheet, err := report.FamilyGroupSheet(doc, indi)
			if err != nil {
				return err
			}
			out := sheet.Markdown
			if html {
				out = sheet.HTML
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "render HTML instead of Markdown")
	return cmd
}

// exportFlags are shared by export and push.
type exportFlags struct {
	skipPrivate bool
	treeID      string
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.skipPrivate, "skip-private", false, "leave out individuals flagged private")
	cmd.Flags().StringVar(&f.treeID, "tree-id", "", "prefix person ids with TREE_ID:")
}

func (f *exportFlags) tree(doc *gedcom.Document) (graph.Tree, error) {
	var opts []graph.ExportOption
	if f.skipPrivate {
		opts = append(opts, graph.SkipPrivate())
	}
	if f.treeID != "" {
		if !graph.ValidTreeID(f.treeID) {
			return graph.Tree{}, fmt.Errorf("invalid tree id %q", f.treeID)
		}
		opts = append(opts, graph.WithIDPrefix(f.treeID))
	}
	return graph.FromDocument(doc, opts...), nil
}

func newExportCmd(opts *options) *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Print the person/relationship graph of a file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.parse(args[0])
			if err != nil {
				return err
			}
			tree, err := flags.tree(doc)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tree)
		},
	}
	flags.register(cmd)
	return cmd
}

func newFmtCmd(opts *options) *cobra.Command {
	var (
		output string
		crlf   bool
	)
	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a file as well-formed GEDCOM",
		Long: `Parse FILE and write it back out. With --lenient this repairs files
whose notes wrap onto bare lines: they are written as CONT lines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.parse(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := gedcom.NewEncoder(w)
			if crlf {
				enc.SetLineEnding("\r\n")
			}
			return enc.Encode(doc)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&crlf, "crlf", false, "terminate lines with CRLF")
	return cmd
}

func newPushCmd(opts *options) *cobra.Command {
	var (
		flags   exportFlags
		server  string
		apiKey  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Export a file and save the graph on a gedgraph server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.parse(args[0])
			if err != nil {
				return err
			}
			tree, err := flags.tree(doc)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := postTree(ctx, server, apiKey, tree); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d persons, %d relationships\n", len(tree.Persons), len(tree.Relationships))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&server, "server", envOr("GEDGRAPH_URL", "http://localhost:8090"), "gedgraph server URL")
	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("GEDGRAPH_API_KEY"), "bearer token for the server")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")
	return cmd
}

func postTree(ctx context.Context, server, apiKey string, tree graph.Tree) error {
	body, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/tree", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("push tree: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var msg struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &msg) != nil || msg.Error == "" {
			msg.Error = strings.TrimSpace(string(data))
		}
		return fmt.Errorf("push tree: server returned %d: %s", resp.StatusCode, msg.Error)
	}
	return nil
}

func (o *options) individual(path, id string) (*gedcom.Document, *gedcom.Element, error) {
	doc, err := o.parse(path)
	if err != nil {
		return nil, nil, err
	}
	indi, err := doc.Resolve(pointer(id))
	if err != nil {
		return nil, nil, err
	}
	return doc, indi, nil
}

// pointer accepts "I1" as well as "@I1@".
func pointer(id string) string {
	return "@" + strings.Trim(id, "@") + "@"
}

type personLine struct {
	Pointer string `json:"pointer"`
	Name    string `json:"name"`
	Birth   string `json:"birth,omitempty"`
	Death   string `json:"death,omitempty"`
}

func (o *options) printPeople(w io.Writer, people []*gedcom.Element) error {
	lines := make([]personLine, len(people))
	for i, p := range people {
		lines[i] = personLine{
			Pointer: p.Pointer(),
			Name:    p.FullName(),
			Birth:   p.BirthData().Date,
			Death:   p.DeathData().Date,
		}
	}
	if o.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(lines)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Pointer, l.Name, l.Birth, l.Death); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
