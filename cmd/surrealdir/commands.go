package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/surrealdb/surrealdir/pkg/directory"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "surrealdir",
		Short:         "Browse and edit the organisational directory of areas, collections and contacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "store backend (mem or surreal)")
	root.PersistentFlags().StringVar(&a.endpoint, "endpoint", "", "SurrealDB endpoint URL")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "minimum log level")

	root.AddCommand(
		initCmd(a),
		migrateCmd(a),
		treeCmd(a),
		pathCmd(a),
		descendCmd(a),
		childrenCmd(a),
		orphansCmd(a),
		searchCmd(a),
		contactsCmd(a),
		findContactCmd(a),
		addAreaCmd(a),
		renameCmd(a),
		moveCmd(a),
		detachCmd(a),
		removeCmd(a),
		splitCmd(a),
		mergeCmd(a),
	)
	return root
}

func initCmd(a *app) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create the root area of an empty directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.dir.Init(cmd.Context(), args[0], optional(cmd, "note", note))
			if err != nil {
				return err
			}
			return printArea(cmd.OutOrStdout(), root.Area)
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note for the root area")
	return cmd
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Define the directory schema in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.dir.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema defined")
			return nil
		},
	}
}

func treeCmd(a *app) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree [area-id]",
		Short: "Print the subtree below an area, the root by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := a.area(cmd.Context(), first(args))
			if err != nil {
				return err
			}
			var limit *int
			if depth >= 0 {
				limit = &depth
			}
			tree, err := area.Subtree(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tree.Walk(func(t *directory.Tree, d int) {
				fmt.Fprintf(out, "%s%s (%s)\n", strings.Repeat("  ", d), t.Area.Name, t.Area.ID)
			})
			return nil
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", -1, "maximum depth, negative for unbounded")
	return cmd
}

func pathCmd(a *app) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "path <area-id>",
		Short: "Print the ancestor path of an area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := a.area(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var ref directory.Ref
			if base != "" {
				b, err := a.area(cmd.Context(), base)
				if err != nil {
					return err
				}
				ref = b
			}
			path, err := area.Path(cmd.Context(), ref)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), joinPath(path))
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "stop the path at this ancestor")
	return cmd
}

func descendCmd(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "descend <name>...",
		Short: "Follow child names down from an area",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := a.area(cmd.Context(), from)
			if err != nil {
				return err
			}
			area, err := start.Descend(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return printArea(cmd.OutOrStdout(), area.Area)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "area to start from, the root by default")
	return cmd
}

func childrenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "children [area-id]",
		Short: "List the children of an area",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := a.area(cmd.Context(), first(args))
			if err != nil {
				return err
			}
			children, err := area.Children(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range children {
				if err := printArea(cmd.OutOrStdout(), c); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func orphansCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "List areas that are detached from the tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orphans, err := a.dir.OrphanAreas(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range orphans {
				if err := printArea(cmd.OutOrStdout(), o); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search areas by name and contact position",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := a.area(cmd.Context(), from)
			if err != nil {
				return err
			}
			paths, err := start.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range paths {
				line := joinPath(p)
				if c := p[len(p)-1].MatchedContact; c != nil {
					line += fmt.Sprintf(" [%s %s, %s]", c.Field("first_name"), c.Field("last_name"), c.Field("position"))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "area to search below, the root by default")
	return cmd
}

func contactsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contacts <area-id>...",
		Short: "Print the collections and contacts of areas as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			byArea, err := a.dir.BatchContactsByArea(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), byArea)
		},
	}
}

func findContactCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find-contact [query]...",
		Short: "Find contacts by first or last name prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := a.dir.ContactSearch(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range contacts {
				fmt.Fprintf(out, "%s\t%s %s\t%s\n", c.ID, c.Field("first_name"), c.Field("last_name"), c.Field("position"))
			}
			return nil
		},
	}
}

func addAreaCmd(a *app) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "add-area <parent-id> <name>",
		Short: "Create an area below a parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := a.area(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			child, err := parent.NewChild(cmd.Context(), args[1], optional(cmd, "note", note))
			if err != nil {
				return err
			}
			return printArea(cmd.OutOrStdout(), child.Area)
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note for the new area")
	return cmd
}

func renameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <area-id> <name>",
		Short: "Rename an area",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := a.area(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := area.Update(cmd.Context(), map[string]string{"name": args[1]}); err != nil {
				return err
			}
			return printArea(cmd.OutOrStdout(), area.Area)
		},
	}
}

func moveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <area-id> <parent-id>",
		Short: "Move an area below a new parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := a.area(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			parent, err := a.area(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if err := area.Reparent(cmd.Context(), parent); err != nil {
				return err
			}
			path, err := area.Path(cmd.Context(), nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), joinPath(path))
			return nil
		},
	}
}

func detachCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <area-id>",
		Short: "Cut an area from its parent, keeping its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := a.area(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			parent, err := area.Detach(cmd.Context())
			if err != nil {
				return err
			}
			return printFormer(cmd.OutOrStdout(), parent)
		},
	}
}

func removeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <area-id>",
		Short: "Delete an area, its subtree and their collections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := a.area(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			parent, err := area.Remove(cmd.Context())
			if err != nil {
				return err
			}
			return printFormer(cmd.OutOrStdout(), parent)
		},
	}
}

func splitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "split <collection-id> <contact-id>...",
		Short: "Move contacts out of a collection into a new one",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.dir.Collection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			refs := make([]directory.Ref, 0, len(args)-1)
			for _, id := range args[1:] {
				c, err := a.dir.Contact(cmd.Context(), id)
				if err != nil {
					return err
				}
				refs = append(refs, c)
			}
			created, err := col.Split(cmd.Context(), refs...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
}

func mergeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <target-collection-id> <source-collection-id>",
		Short: "Move every contact of source into target and delete source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := a.dir.Collection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			source, err := a.dir.Collection(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if err := target.Merge(cmd.Context(), source); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), target.ID)
			return nil
		},
	}
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// optional returns nil unless the flag was given.
func optional(cmd *cobra.Command, flag, value string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

func joinPath(path []directory.Area) string {
	names := make([]string, len(path))
	for i, a := range path {
		names[i] = a.Name
	}
	return strings.Join(names, " > ")
}

func printArea(w io.Writer, a directory.Area) error {
	_, err := fmt.Fprintf(w, "%s\t%s\n", a.ID, a.Name)
	return err
}

func printFormer(w io.Writer, parent *directory.Area) error {
	if parent == nil {
		_, err := fmt.Fprintln(w, "no former parent")
		return err
	}
	return printArea(w, *parent)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
