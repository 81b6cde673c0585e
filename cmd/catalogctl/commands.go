package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/listview"
	"github.com/DukeRupert/catalog-admin/internal/service"
)

func newListCmd(opts *options) *cobra.Command {
	view := listview.DefaultView()
	var desc bool
	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List records with search, filter, sort and paging",
		Example: `  catalogctl list products --search drill --sort price --desc
  catalogctl list categories --filter inactive --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			if desc {
				view.SortDir = listview.Desc
			}
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			out, err := e.list(cmd.Context(), cat, view)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			for _, warning := range out.Warnings {
				fmt.Fprintln(w, "warning:", warning)
			}
			if len(out.rows) == 0 {
				name := strings.ToLower(args[0])
				if out.Total == 0 {
					_, err = fmt.Fprintf(w, "No %s yet.\n", name)
				} else {
					_, err = fmt.Fprintf(w, "No %s match your search.\n", name)
				}
				return err
			}
			if err := printTable(w, e.headers, out.rows); err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "Showing %d–%d of %d (page %d of %d)\n", out.first, out.last, out.Filtered, out.Page, out.TotalPages)
			return err
		},
	}
	cmd.Flags().StringVarP(&view.Search, "search", "s", "", "case-insensitive text search")
	cmd.Flags().StringVarP(&view.Filter, "filter", "f", listview.FilterAll, "filter value, e.g. active, inactive, published, draft or a parent id")
	cmd.Flags().StringVar(&view.SortKey, "sort", "", "sort key, e.g. name or createdAt")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().IntVarP(&view.Page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&opts.pageSize, "per-page", 20, "rows per page")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entity> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			raw, pairs, err := e.get(cmd.Context(), cat, args[1])
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), raw)
			}
			return printTable(cmd.OutOrStdout(), []string{"Field", "Value"}, pairs)
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s %s without --yes", args[0], args[1])
			}
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			if err := e.delete(cmd.Context(), cat, args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", args[0], args[1])
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

func newCreateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category or subcategory",
	}
	cmd.AddCommand(newCreateCategoryCmd(opts), newCreateSubcategoryCmd(opts))
	return cmd
}

func newCreateCategoryCmd(opts *options) *cobra.Command {
	var (
		in        domain.CategoryInput
		inactive  bool
		imagePath string
	)
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.IsActive = !inactive

			var upload *domain.Upload
			if imagePath != "" {
				up, err := prepareImage(cmd, opts, imagePath, 0)
				if err != nil {
					return err
				}
				upload = up
			}

			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			created, err := cat.Categories.Create(cmd.Context(), service.PrepareInput(&in), upload)
			if err != nil {
				return err
			}
			return emitCreated(cmd, opts, created, created.ID, created.Name)
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "category name (required)")
	cmd.Flags().StringVar(&in.Slug, "slug", "", "URL slug; derived from the name when empty")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the category hidden from the storefront")
	cmd.Flags().StringVar(&imagePath, "image", "", "image file to upload and attach")
	return cmd
}

func newCreateSubcategoryCmd(opts *options) *cobra.Command {
	var (
		in       domain.SubcategoryInput
		inactive bool
	)
	cmd := &cobra.Command{
		Use:   "subcategory",
		Short: "Create a subcategory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.IsActive = !inactive
			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			created, err := cat.Subcategories.Create(cmd.Context(), service.PrepareInput(&in), nil)
			if err != nil {
				return err
			}
			return emitCreated(cmd, opts, created, created.ID, created.Name)
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "subcategory name (required)")
	cmd.Flags().StringVar(&in.Slug, "slug", "", "URL slug; derived from the name when empty")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.CategoryID, "category", "", "parent category id (required)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the subcategory hidden from the storefront")
	return cmd
}

func emitCreated(cmd *cobra.Command, opts *options, raw any, id, name string) error {
	if opts.json {
		return printJSON(cmd.OutOrStdout(), raw)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s)\n", name, id)
	return err
}

// prepareImage reads and normalizes a file the way the dashboard's upload
// field does.
func prepareImage(cmd *cobra.Command, opts *options, path string, maxDimension int) (*domain.Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	preparer := service.NewImagePreparer(service.ImagePrepConfig{MaxDimension: maxDimension}, opts.logger(cmd))
	up, err := preparer.Prepare(filepath.Base(path), "", f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, domain.ErrorMessage(err))
	}
	return up, nil
}

func newUploadCmd(opts *options) *cobra.Command {
	var (
		alt          string
		maxDimension int
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image",
		Long: `Upload an image the way the dashboard does: the type is sniffed,
oversized files are rejected and large images are downscaled first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, err := prepareImage(cmd, opts, args[0], maxDimension)
			if err != nil {
				return err
			}
			up.AltText = alt

			cat, err := opts.catalog(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			img, err := cat.Images.Create(cmd.Context(), up, nil)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), img)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n%s\n", img.Filename, img.ID, img.URL)
			return err
		},
	}
	cmd.Flags().StringVar(&alt, "alt", "", "alt text")
	cmd.Flags().IntVar(&maxDimension, "max-dimension", 2048, "downscale so the longest edge fits; 0 keeps the original")
	return cmd
}
