package handlers

import (
	"fmt"
	"net/url"
	"strings"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/partsdesk/partsdesk/internal/bom"
	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/services"
)

// FilterAll disables a filter, like an empty value
const FilterAll = "all"

// ProjectListParams are the query parameters of a project listing
type ProjectListParams struct {
	Search string `query:"search"`
	Client string `query:"client"`
	Status string `query:"status"`
}

// Validate checks the status filter names a known status
func (p ProjectListParams) Validate() error {
	if p.Status == "" || strings.EqualFold(p.Status, FilterAll) {
		return nil
	}
	if _, err := models.ParseProjectStatus(p.Status); err != nil {
		return err
	}
	return nil
}

// Filter converts the parameters into a project filter
func (p ProjectListParams) Filter() services.ProjectFilter {
	return services.ProjectFilter{
		Search: p.Search,
		Client: p.Client,
		Status: p.Status,
	}
}

// BOMQueryParams are the query parameters of a BOM listing. Status is a
// comma separated list. Category names are free text, so each one is a
// separate category parameter and is matched as given.
type BOMQueryParams struct {
	Search     string   `query:"search"`
	Status     string   `query:"status"`
	Categories []string `query:"-"`
}

// CategoryParam is the repeatable query parameter of the category filter
const CategoryParam = "category"

// Query validates the parameters and converts them into a BOM query
func (p BOMQueryParams) Query() (bom.Query, error) {
	q := bom.Query{
		Search: strings.TrimSpace(p.Search),
	}
	for _, name := range p.Categories {
		if name = strings.TrimSpace(name); name != "" {
			q.Categories = append(q.Categories, name)
		}
	}
	for _, s := range splitList(p.Status) {
		status, err := bom.ParseStatus(s)
		if err != nil {
			return bom.Query{}, fmt.Errorf("invalid status filter: %w", err)
		}
		q.Statuses = append(q.Statuses, status)
	}
	return q, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// pathParam returns the unescaped value of a route parameter
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	value, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return value
}
