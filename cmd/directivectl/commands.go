package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	directives "github.com/goliatone/go-directives"
)

type parsedReference struct {
	ID       string         `json:"id"`
	Order    int            `json:"order"`
	Content  map[string]any `json:"content,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

type parseResult struct {
	References  []parsedReference `json:"references"`
	Diagnostics []string          `json:"diagnostics,omitempty"`
}

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "List the component references found in page content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			engine, err := opts.engine(false)
			if err != nil {
				return err
			}
			refs, diagnostics := engine.ParseWithDiagnostics(content)
			result := parseResult{References: make([]parsedReference, 0, len(refs))}
			for _, ref := range refs {
				parsed := parsedReference{ID: ref.ID, Order: ref.Order}
				if ref.Options != nil {
					parsed.Content = ref.Options.Content
					parsed.Settings = ref.Options.Settings
				}
				result.References = append(result.References, parsed)
			}
			for _, diagnostic := range diagnostics {
				result.Diagnostics = append(result.Diagnostics, diagnostic.Error())
			}
			return opts.writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func addPageFlags(cmd *cobra.Command, opts *rootOptions) {
	cmd.Flags().StringVar(&opts.slug, "slug", "", "slug of the page being rendered")
	cmd.Flags().BoolVar(&opts.homepage, "homepage", false, "render as the homepage")
	cmd.Flags().BoolVar(&opts.published, "published", false, "render as a published page")
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Resolve, enrich and filter the components of page content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			engine, err := opts.engine(true)
			if err != nil {
				return err
			}
			descriptors, err := engine.Render(cmd.Context(), content, opts.page())
			if err != nil {
				return err
			}
			return opts.writeJSON(cmd.OutOrStdout(), descriptors)
		},
	}
	addPageFlags(cmd, opts)
	return cmd
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show which keys each directive overrides",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			engine, err := opts.engine(true)
			if err != nil {
				return err
			}
			explanations := make([]directives.Explanation, 0)
			for _, ref := range engine.Parse(content) {
				explanation, err := engine.Explain(cmd.Context(), ref)
				if err != nil {
					return err
				}
				if explanation != nil {
					explanations = append(explanations, *explanation)
				}
			}
			return opts.writeJSON(cmd.OutOrStdout(), explanations)
		},
	}
}

func newSerializeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serialize [file]",
		Short: "Turn a JSON array of edited components into inline directives",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var components []directives.ResolvedComponent
			dec := json.NewDecoder(strings.NewReader(input))
			dec.UseNumber()
			if err := dec.Decode(&components); err != nil {
				return fmt.Errorf("decode components: %w", err)
			}
			out, err := directives.Serialize(components)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newPaletteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "palette",
		Short: "List active catalog components and their override fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := opts.engine(true)
			if err != nil {
				return err
			}
			entries, err := engine.Palette(cmd.Context())
			if err != nil {
				return err
			}
			return opts.writeJSON(cmd.OutOrStdout(), entries)
		},
	}
}
