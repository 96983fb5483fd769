package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/partsdesk/partsdesk/internal/bom"
	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/pkg/api/v1/handlers"
)

// BOM flag names
const (
	flagCategory         = "category"
	flagNewCategory      = "new-category"
	flagPartID           = "part-id"
	flagQuantity         = "quantity"
	flagDesc             = "desc"
	flagItem             = "item"
	flagPONumber         = "po-number"
	flagExpectedDelivery = "expected-delivery"
	flagVendor           = "vendor"
	flagVendorPrice      = "vendor-price"
	flagFrom             = "from"
	flagTo               = "to"
	flagFormat           = "format"
	flagOutput           = "output"
)

func newBOMCmd() *cobra.Command {
	bomCmd := &cobra.Command{
		Use:   "bom",
		Short: "Manage the bill of materials of a project",
	}
	addProjectFlag(bomCmd)

	bomCmd.AddCommand(newListBOMCmd())
	bomCmd.AddCommand(newBOMStatsCmd())
	bomCmd.AddCommand(newAddPartCmd())
	bomCmd.AddCommand(newUpdatePartCmd())
	bomCmd.AddCommand(newDeletePartCmd())
	bomCmd.AddCommand(newRenameCategoryCmd())
	bomCmd.AddCommand(newToggleCategoryCmd())
	bomCmd.AddCommand(newExportBOMCmd())
	bomCmd.AddCommand(newWatchBOMCmd())
	return bomCmd
}

func newListBOMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List BOM categories and parts, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			var params handlers.BOMQueryParams
			params.Search, _ = cmd.Flags().GetString(flagSearch)
			params.Status, _ = cmd.Flags().GetString(flagStatus)
			params.Categories, _ = cmd.Flags().GetStringArray(flagCategory)

			view, err := apiClient.GetBOM(cmd.Context(), projectID, params)
			if err != nil {
				return fmt.Errorf("error getting BOM: %w", err)
			}
			return printJSON(cmd, view)
		},
	}
	cmd.Flags().String(flagSearch, "", "Match part name, part ID or description")
	cmd.Flags().String(flagStatus, "", "Comma separated statuses (not-ordered, ordered, received, approved)")
	cmd.Flags().StringArray(flagCategory, nil, "Category name, repeat for several")
	return cmd
}

func newBOMStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count the parts of a project by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			stats, err := apiClient.GetBOMStats(cmd.Context(), projectID)
			if err != nil {
				return fmt.Errorf("error getting BOM stats: %w", err)
			}
			return printJSON(cmd, stats)
		},
	}
}

// parseDescription turns key=value flags into description rows
func parseDescription(values []string) ([]bom.DescriptionRow, error) {
	rows := make([]bom.DescriptionRow, 0, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("description %q must be key=value", v)
		}
		rows = append(rows, bom.DescriptionRow{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return rows, nil
}

func newAddPartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-part",
		Short: "Add a part to an existing category or to a new one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			draft := services.PartDraft{}
			draft.Category, _ = cmd.Flags().GetString(flagCategory)
			draft.NewCategory, _ = cmd.Flags().GetString(flagNewCategory)
			draft.Name, _ = cmd.Flags().GetString(flagName)
			draft.PartID, _ = cmd.Flags().GetString(flagPartID)
			draft.Quantity, _ = cmd.Flags().GetInt(flagQuantity)
			desc, _ := cmd.Flags().GetStringArray(flagDesc)
			if draft.Description, err = parseDescription(desc); err != nil {
				return err
			}

			item, err := apiClient.AddPart(cmd.Context(), projectID, draft)
			if err != nil {
				return fmt.Errorf("error adding part: %w", err)
			}
			return printJSON(cmd, item)
		},
	}
	cmd.Flags().String(flagCategory, "", "Existing category")
	cmd.Flags().String(flagNewCategory, "", "Category to create")
	cmd.Flags().StringP(flagName, "n", "", "Part name")
	cmd.Flags().String(flagPartID, "", "Part ID, unique within the project ignoring case")
	cmd.Flags().IntP(flagQuantity, "q", 1, "Quantity")
	cmd.Flags().StringArray(flagDesc, nil, "Description line as key=value, repeatable")
	cmd.MarkFlagsMutuallyExclusive(flagCategory, flagNewCategory)
	markRequired(cmd, flagName, flagPartID)
	return cmd
}

func newUpdatePartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-part",
		Short: "Change fields of a part",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			itemID, _ := cmd.Flags().GetString(flagItem)
			update, err := partUpdateFromFlags(cmd)
			if err != nil {
				return err
			}
			if update.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}

			tree, err := apiClient.UpdatePart(cmd.Context(), projectID, itemID, update)
			if err != nil {
				return fmt.Errorf("error updating part: %w", err)
			}
			item, ok := bom.FindItem(tree, itemID)
			if !ok {
				return fmt.Errorf("part %s not found", itemID)
			}
			return printJSON(cmd, item)
		},
	}
	cmd.Flags().String(flagItem, "", "Item id")
	cmd.Flags().StringP(flagName, "n", "", "Part name")
	cmd.Flags().String(flagPartID, "", "Part ID")
	cmd.Flags().String(flagDescription, "", "Description")
	cmd.Flags().IntP(flagQuantity, "q", 0, "Quantity")
	cmd.Flags().String(flagStatus, "", "Status (not-ordered, ordered, received, approved)")
	cmd.Flags().String(flagPONumber, "", "Purchase order number")
	cmd.Flags().String(flagExpectedDelivery, "", "Expected delivery date")
	cmd.Flags().String(flagVendor, "", "Finalized vendor name")
	cmd.Flags().Float64(flagVendorPrice, 0, "Finalized vendor unit price")
	markRequired(cmd, flagItem)
	return cmd
}

// partUpdateFromFlags sets the update fields whose flags were given
func partUpdateFromFlags(cmd *cobra.Command) (bom.ItemUpdate, error) {
	var update bom.ItemUpdate
	flags := cmd.Flags()
	stringField := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}

	update.Name = stringField(flagName)
	update.PartID = stringField(flagPartID)
	update.Description = stringField(flagDescription)
	update.PONumber = stringField(flagPONumber)
	update.ExpectedDelivery = stringField(flagExpectedDelivery)
	if flags.Changed(flagQuantity) {
		q, _ := flags.GetInt(flagQuantity)
		update.Quantity = &q
	}
	if flags.Changed(flagStatus) {
		v, _ := flags.GetString(flagStatus)
		status, err := bom.ParseStatus(v)
		if err != nil {
			return update, err
		}
		update.Status = &status
	}
	if flags.Changed(flagVendor) {
		name, _ := flags.GetString(flagVendor)
		price, _ := flags.GetFloat64(flagVendorPrice)
		update.FinalizedVendor = &bom.Vendor{Name: name, Price: price}
	}
	return update, nil
}

func newDeletePartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-part",
		Short: "Remove a part",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			itemID, _ := cmd.Flags().GetString(flagItem)
			if _, err := apiClient.DeletePart(cmd.Context(), projectID, itemID); err != nil {
				return fmt.Errorf("error deleting part: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Part %s deleted\n", itemID)
			return err
		},
	}
	cmd.Flags().String(flagItem, "", "Item id")
	markRequired(cmd, flagItem)
	return cmd
}

func newRenameCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename-category",
		Short: "Rename a category and move its parts along",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			from, _ := cmd.Flags().GetString(flagFrom)
			to, _ := cmd.Flags().GetString(flagTo)
			tree, err := apiClient.RenameCategory(cmd.Context(), projectID, from, to)
			if err != nil {
				return fmt.Errorf("error renaming category: %w", err)
			}
			return printJSON(cmd, tree.CategoryNames())
		},
	}
	cmd.Flags().String(flagFrom, "", "Current category name")
	cmd.Flags().String(flagTo, "", "New category name")
	markRequired(cmd, flagFrom, flagTo)
	return cmd
}

func newToggleCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle-category",
		Short: "Expand or collapse a category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString(flagName)
			tree, err := apiClient.ToggleCategory(cmd.Context(), projectID, name)
			if err != nil {
				return fmt.Errorf("error toggling category: %w", err)
			}
			for _, c := range tree {
				if c.Name == name {
					return printJSON(cmd, map[string]interface{}{"name": c.Name, "isExpanded": c.IsExpanded})
				}
			}
			return fmt.Errorf("category %s not found", name)
		},
	}
	cmd.Flags().StringP(flagName, "n", "", "Category name")
	markRequired(cmd, flagName)
	return cmd
}

func newExportBOMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the BOM as CSV or XLSX",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString(flagFormat)
			output, _ := cmd.Flags().GetString(flagOutput)
			if output == "" {
				output = handlers.ExportFileName + "." + format
			}

			data, err := apiClient.ExportBOM(cmd.Context(), projectID, services.ExportFormat(format))
			if err != nil {
				return fmt.Errorf("error exporting BOM: %w", err)
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("error writing export: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "BOM exported to %s\n", output)
			return err
		},
	}
	cmd.Flags().StringP(flagFormat, "f", string(services.ExportCSV), "Export format (csv, xlsx)")
	cmd.Flags().StringP(flagOutput, "o", "", "Output file, - for stdout (default bom_export.<format>)")
	return cmd
}

func newWatchBOMCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the BOM statistics every time the BOM changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			out := json.NewEncoder(cmd.OutOrStdout())
			return apiClient.WatchBOM(cmd.Context(), projectID, func(update services.BOMUpdate) {
				_ = out.Encode(map[string]interface{}{
					"version":    update.Version,
					"categories": update.Categories.CategoryNames(),
					"stats":      update.Stats,
				})
			})
		},
	}
}
