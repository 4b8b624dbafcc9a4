package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/cactusfleur/afrispiration/internal/catalog"
	"github.com/cactusfleur/afrispiration/internal/content"
	"github.com/cactusfleur/afrispiration/internal/store"
	"github.com/cactusfleur/afrispiration/internal/writeback"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newContentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Read and edit structured page content",
		Long: `Pages are free-form JSON trees. Paths address nodes with dots and
brackets, e.g. hero.title or sections[2].items[0].`,
	}
	cmd.AddCommand(
		newContentGetCmd(a),
		newContentEditCmd(a, "set <page> <path> <value>", "Set the node at path, creating parents", 3,
			func(tree any, path content.Path, args []string) (any, error) {
				return content.Set(tree, path, parseValue(args[2]))
			}),
		newContentEditCmd(a, "append <page> <path> <value>", "Append to the array at path, creating it if absent", 3,
			func(tree any, path content.Path, args []string) (any, error) {
				return content.AppendToArray(tree, path, parseValue(args[2]))
			}),
		newContentEditCmd(a, "remove <page> <path> <index>", "Remove one element from the array at path", 3,
			func(tree any, path content.Path, args []string) (any, error) {
				i, err := strconv.Atoi(args[2])
				if err != nil {
					return nil, fmt.Errorf("index %q: %w", args[2], err)
				}
				return content.RemoveFromArray(tree, path, i)
			}),
		newContentEditCmd(a, "unset <page> <path>", "Delete the object key or array element at path", 2,
			func(tree any, path content.Path, _ []string) (any, error) {
				return content.Delete(tree, path)
			}),
		newPagesCmd(a),
		newHistoryCmd(a),
		newRevertCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return cmd
}

// parseValue reads a command-line value as JSON, falling back to the raw
// string so that `set home hero.title Welcome` needs no quoting.
func parseValue(s string) any {
	v, err := oj.ParseString(s)
	if err != nil {
		return s
	}
	return v
}

func printTree(w io.Writer, v any) error {
	_, err := w.Write(writeback.FormatPage(v))
	return err
}

func printDiff(w io.Writer, e catalog.Edit) {
	if !e.Changed {
		_, _ = fmt.Fprintln(w, "no change")
		return
	}
	_, _ = fmt.Fprint(w, content.Diff(e.Before, e.After))
}

func newContentGetCmd(a *app) *cobra.Command {
	var keys bool
	cmd := &cobra.Command{
		Use:   "get <page> [path]",
		Short: "Print a page or the node at path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.catalog.Pages.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var path content.Path
			if len(args) == 2 {
				if path, err = content.ParsePath(args[1]); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			if keys {
				names, err := content.Keys(page.Content, path)
				if err != nil {
					return err
				}
				for _, k := range names {
					_, _ = fmt.Fprintln(out, k)
				}
				return nil
			}
			node, err := content.Lookup(page.Content, path)
			if err != nil {
				return err
			}
			return printTree(out, node)
		},
	}
	cmd.Flags().BoolVar(&keys, "keys", false, "List the keys of the object at path")
	return cmd
}

type editFunc func(tree any, path content.Path, args []string) (any, error)

func newContentEditCmd(a *app, use, short string, nargs int, edit editFunc) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := content.ParsePath(args[1])
			if err != nil {
				return err
			}
			fn := func(tree any) (any, error) { return edit(tree, path, args) }
			out := cmd.OutOrStdout()

			if dryRun {
				var before any
				page, err := a.catalog.Pages.Get(cmd.Context(), args[0])
				switch {
				case err == nil:
					before = page.Content
				case !errors.Is(err, store.ErrNotFound):
					return err
				}
				after, err := fn(before)
				if err != nil {
					return err
				}
				printDiff(out, catalog.Edit{Before: before, After: after, Changed: !content.Equal(before, after)})
				return nil
			}

			e, err := a.catalog.Pages.Edit(cmd.Context(), args[0], fn)
			if err != nil {
				return err
			}
			printDiff(out, e)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show the diff without saving")
	return cmd
}

func newPagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List stored pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.catalog.Pages.Names(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <page>",
		Short: "List a page's saved revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			revs, err := a.catalog.Pages.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "REV\tSAVED")
			for _, r := range revs {
				_, _ = fmt.Fprintf(tw, "%d\t%s\n", r.Rev, r.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newRevertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revert <page> <rev>",
		Short: "Save an earlier revision as the newest one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("revision %q: %w", args[1], err)
			}
			e, err := a.catalog.Pages.Revert(cmd.Context(), args[0], rev)
			if err != nil {
				return err
			}
			printDiff(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export [page...]",
		Short: "Write pages to <export_dir>/<page>.json (all pages when none named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.ExportDir
			}
			names := args
			if len(names) == 0 {
				var err error
				if names, err = a.catalog.Pages.Names(cmd.Context()); err != nil {
					return err
				}
			}
			for _, name := range names {
				page, err := a.catalog.Pages.Get(cmd.Context(), name)
				if err != nil {
					return err
				}
				path, err := writeback.WritePage(dir, name, page.Content)
				if err != nil {
					return err
				}
				a.log.Info("exported page", zap.String("page", name), zap.String("path", path))
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Export directory (overrides export_dir)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|dir>...",
		Short: "Replace pages with the content of JSON or JSONC files named <page>.json",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := pageFiles(args)
			if err != nil {
				return err
			}
			for _, f := range files {
				name, tree, err := writeback.ReadPage(f)
				if err != nil {
					return err
				}
				e, err := a.catalog.Pages.Put(cmd.Context(), name, tree)
				if err != nil {
					return err
				}
				status := "unchanged"
				if e.Changed {
					status = "imported"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, status)
			}
			return nil
		},
	}
}

// pageFiles expands directories into the page files they contain.
func pageFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		for _, ext := range []string{writeback.Ext, ".jsonc"} {
			matches, err := filepath.Glob(filepath.Join(arg, "*"+ext))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}
