package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cactusfleur/afrispiration/api"
	"github.com/cactusfleur/afrispiration/internal/catalog"
	"github.com/cactusfleur/afrispiration/internal/filter"
	"github.com/cactusfleur/afrispiration/internal/store"
	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"
)

// entitySpec describes how one collection is exposed on the command line.
type entitySpec[T catalog.Item] struct {
	use     string
	short   string
	coll    func(*catalog.Catalog) *catalog.Collection[T]
	newT    func() T
	order   string
	desc    bool
	columns []string
	row     func(T) []string
	// facets registers the list filter flags and returns a builder that
	// reads them after parsing.
	facets func(cmd *cobra.Command) func() []filter.Facet
}

var designerCommand = entitySpec[*api.Designer]{
	use:     "designers",
	short:   "Manage designers",
	coll:    func(c *catalog.Catalog) *catalog.Collection[*api.Designer] { return c.Designers },
	newT:    func() *api.Designer { return new(api.Designer) },
	order:   "name",
	columns: []string{"SLUG", "NAME", "CATEGORY", "LOCATION", "FLAGS"},
	row: func(d *api.Designer) []string {
		return []string{d.Slug, d.Name, join(d.Category), join(d.Location),
			flags(map[string]bool{"featured": d.Featured, "sustainable": d.Sustainable})}
	},
	facets: func(cmd *cobra.Command) func() []filter.Facet {
		var c filter.DesignerCriteria
		f := cmd.Flags()
		f.StringVarP(&c.Search, "search", "q", "", "Match name or bio (case-insensitive)")
		f.StringVar(&c.Category, "category", "", "Only designers in this category")
		f.StringVar(&c.Subcategory, "subcategory", "", "Only designers in this subcategory")
		f.StringVar(&c.Location, "location", "", "Only designers in this country")
		f.BoolVar(&c.Sustainable, "sustainable", false, "Only sustainable designers")
		f.BoolVar(&c.Featured, "featured", false, "Only featured designers")
		return func() []filter.Facet { return c.Facets() }
	},
}

var eventCommand = entitySpec[*api.Event]{
	use:     "events",
	short:   "Manage events",
	coll:    func(c *catalog.Catalog) *catalog.Collection[*api.Event] { return c.Events },
	newT:    func() *api.Event { return new(api.Event) },
	order:   "starts_at",
	columns: []string{"SLUG", "TITLE", "STARTS", "LOCATION", "FLAGS"},
	row: func(e *api.Event) []string {
		return []string{e.Slug, e.Title, e.StartsAt.Format(time.DateOnly), join(e.Location),
			flags(map[string]bool{"featured": e.Featured, "virtual": e.Virtual})}
	},
	facets: func(cmd *cobra.Command) func() []filter.Facet {
		var (
			c        filter.EventCriteria
			upcoming bool
		)
		f := cmd.Flags()
		f.StringVarP(&c.Search, "search", "q", "", "Match title, description or venue (case-insensitive)")
		f.StringVar(&c.Category, "category", "", "Only events in this category")
		f.StringVar(&c.Location, "location", "", "Only events in this country")
		f.BoolVar(&c.Featured, "featured", false, "Only featured events")
		f.BoolVar(&c.Virtual, "virtual", false, "Only virtual events")
		f.BoolVar(&upcoming, "upcoming", false, "Hide events that have ended")
		return func() []filter.Facet {
			return append(c.Facets(), upcomingFacet{on: upcoming, now: time.Now()})
		}
	},
}

var postCommand = entitySpec[*api.BlogPost]{
	use:     "posts",
	short:   "Manage blog posts",
	coll:    func(c *catalog.Catalog) *catalog.Collection[*api.BlogPost] { return c.Posts },
	newT:    func() *api.BlogPost { return new(api.BlogPost) },
	order:   "created_at",
	desc:    true,
	columns: []string{"SLUG", "TITLE", "AUTHOR", "TAGS", "FLAGS"},
	row: func(p *api.BlogPost) []string {
		return []string{p.Slug, p.Title, p.Author, join(p.Tags),
			flags(map[string]bool{"featured": p.Featured, "published": p.Published})}
	},
	facets: func(cmd *cobra.Command) func() []filter.Facet {
		var c filter.PostCriteria
		f := cmd.Flags()
		f.StringVarP(&c.Search, "search", "q", "", "Match title, excerpt, body or author (case-insensitive)")
		f.StringVar(&c.Category, "category", "", "Only posts in this category")
		f.StringVar(&c.Tag, "tag", "", "Only posts with this tag")
		f.BoolVar(&c.Featured, "featured", false, "Only featured posts")
		f.BoolVar(&c.PublishedOnly, "published", false, "Only published posts")
		return func() []filter.Facet { return c.Facets() }
	},
}

var categoryCommand = entitySpec[*api.Category]{
	use:     "categories",
	short:   "Manage categories and subcategories",
	coll:    func(c *catalog.Catalog) *catalog.Collection[*api.Category] { return c.Categories },
	newT:    func() *api.Category { return new(api.Category) },
	order:   "name",
	columns: []string{"SLUG", "NAME", "SCOPE", "PARENT"},
	row: func(c *api.Category) []string {
		return []string{c.Slug, c.Name, string(c.Scope), c.Parent}
	},
	facets: func(cmd *cobra.Command) func() []filter.Facet {
		var search, scope, parent string
		f := cmd.Flags()
		f.StringVarP(&search, "search", "q", "", "Match name or description (case-insensitive)")
		f.StringVar(&scope, "scope", "", "Only categories for designer, event or post")
		f.StringVar(&parent, "parent", "", "Only subcategories of this category slug")
		return func() []filter.Facet {
			return []filter.Facet{
				filter.Search(search, "name", "description"),
				filter.Contains("scope", scope),
				filter.Contains("parent", parent),
			}
		}
	},
}

// upcomingFacet keeps events that have not finished.
type upcomingFacet struct {
	on  bool
	now time.Time
}

func (f upcomingFacet) Active() bool { return f.on }

func (f upcomingFacet) Match(r filter.Record) bool {
	e, ok := r.(*api.Event)
	return ok && e.Upcoming(f.now)
}

func join(vs []string) string { return strings.Join(vs, ", ") }

func flags(set map[string]bool) string {
	var on []string
	for _, name := range []string{"featured", "sustainable", "virtual", "published"} {
		if set[name] {
			on = append(on, name)
		}
	}
	return strings.Join(on, ",")
}

func newEntityCmd[T catalog.Item](a *app, spec entitySpec[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
	}
	cmd.AddCommand(
		newListCmd(a, spec),
		newAddCmd(a, spec),
		newUpdateCmd(a, spec),
		newShowCmd(a, spec),
		newRemoveCmd(a, spec),
	)
	return cmd
}

func newListCmd[T catalog.Item](a *app, spec entitySpec[T]) *cobra.Command {
	var (
		q       = store.Query{OrderBy: spec.order, Desc: spec.desc}
		asJSON  bool
		countBy string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + spec.use + ", narrowed by filter flags",
		Args:  cobra.NoArgs,
	}
	facets := spec.facets(cmd)
	cmd.Flags().StringVar(&q.OrderBy, "order", q.OrderBy, "Field to order by")
	cmd.Flags().BoolVar(&q.Desc, "desc", q.Desc, "Reverse the order")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "Maximum number of records read from the store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().StringVar(&countBy, "counts", "", "Print value counts of this field instead of rows")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		items, err := spec.coll(a.catalog).Filter(cmd.Context(), q, facets()...)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch {
		case countBy != "":
			counts := filter.Counts(items, countBy)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, v := range filter.Options(items, countBy) {
				_, _ = fmt.Fprintf(tw, "%s\t%d\n", v, counts[v])
			}
			return tw.Flush()
		case asJSON:
			return printJSON(out, items)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, strings.Join(spec.columns, "\t"))
		for _, item := range items {
			_, _ = fmt.Fprintln(tw, strings.Join(spec.row(item), "\t"))
		}
		return tw.Flush()
	}
	return cmd
}

func newAddCmd[T catalog.Item](a *app, spec entitySpec[T]) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a record from JSON; the slug is derived from its name",
		Example: fmt.Sprintf("  afri %s add --data '{\"name\": \"Amara & Co.\"}'\n  afri %s add --file amara.jsonc",
			spec.use, spec.use),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			item := spec.newT()
			if err := decodeInput(cmd.InOrStdin(), data, file, item); err != nil {
				return err
			}
			item, err := spec.coll(a.catalog).Create(cmd.Context(), item)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), item.Base().Slug)
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON document (use - to read stdin)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSONC file")
	return cmd
}

func newUpdateCmd[T catalog.Item](a *app, spec entitySpec[T]) *cobra.Command {
	var (
		data, file string
		opts       catalog.UpdateOptions
	)
	cmd := &cobra.Command{
		Use:   "update <slug|id>",
		Short: "Overlay JSON fields onto a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := spec.coll(a.catalog)
			item, err := coll.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			meta := *item.Base()
			if err := decodeInput(cmd.InOrStdin(), data, file, item); err != nil {
				return err
			}
			*item.Base() = meta
			item, err = coll.Update(cmd.Context(), item, opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), item.Base().Slug)
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON fields to change (use - to read stdin)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSONC file with fields to change")
	cmd.Flags().BoolVar(&opts.RegenerateSlug, "regenerate-slug", false, "Derive a new slug from the current name")
	return cmd
}

func newShowCmd[T catalog.Item](a *app, spec entitySpec[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug|id>",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := spec.coll(a.catalog).Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}
}

func newRemoveCmd[T catalog.Item](a *app, spec entitySpec[T]) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <slug|id>",
		Aliases: []string{"delete"},
		Short:   "Delete a record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll := spec.coll(a.catalog)
			item, err := coll.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return coll.Delete(cmd.Context(), item.Base().ID)
		},
	}
}

// decodeInput reads a JSONC document from data (or stdin when data is "-")
// or file and decodes it into v. Unknown fields are rejected.
func decodeInput(stdin io.Reader, data, file string, v any) error {
	var raw []byte
	switch {
	case data == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	case data != "":
		raw = []byte(data)
	case file != "":
		b, err := os.ReadFile(file) //nolint:gosec // path is intentionally user-controlled
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		raw = b
	default:
		return fmt.Errorf("one of --data or --file is required")
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return fmt.Errorf("invalid JSONC input: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(std))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
