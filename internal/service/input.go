package service

import "github.com/DukeRupert/catalog-admin/internal/domain"

// PrepareInput normalizes a create/update payload before it is validated and
// sent: slugs are derived or cleaned, blog content is sanitized and a blank
// excerpt is filled from the content. Payloads of other types pass through.
func PrepareInput(payload any) any {
	switch in := payload.(type) {
	case *domain.CategoryInput:
		fillSlug(&in.Slug, in.Name)
	case *domain.SubcategoryInput:
		fillSlug(&in.Slug, in.Name)
	case *domain.ProductInput:
		fillSlug(&in.Slug, in.Name)
	case *domain.BlogInput:
		fillSlug(&in.Slug, in.Title)
		in.Content = SanitizeHTML(in.Content)
		if in.Excerpt == "" {
			in.Excerpt = Excerpt(in.Content)
		}
	}
	return payload
}
