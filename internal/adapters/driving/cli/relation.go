package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
)

var relationCmd = &cobra.Command{
	Use:   "relation",
	Short: "Manage relations",
	Long: `List, inspect and edit relations. Every read enriches the relation with
the documents it references and reports a Current, Outdated or Incomplete
status.`,
}

var relationListCmd = &cobra.Command{
	Use:   "list [entity]",
	Short: "List relations of an entity",
	Long: `List the relations of one entity.

Filters are field=value, field!=value or a bare field that must be present.
Nested fields use dots, for example party.name=Ada Lovelace.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelationList,
}

var relationGetCmd = &cobra.Command{
	Use:   "get [entity] [id]",
	Short: "Show one relation with its role slots",
	Args:  cobra.ExactArgs(2),
	RunE:  runRelationGet,
}

var relationAddCmd = &cobra.Command{
	Use:   "add [entity]",
	Short: "Add a relation under a new id",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelationAdd,
}

var relationSetCmd = &cobra.Command{
	Use:   "set [entity] [id]",
	Short: "Create or replace a relation",
	Args:  cobra.ExactArgs(2),
	RunE:  runRelationSet,
}

var relationUpdateCmd = &cobra.Command{
	Use:   "update [entity] [id]",
	Short: "Patch a relation",
	Long: `Patch a relation with a JSON object. The patch may be written against the
enriched output; derived fields and role slots are ignored.`,
	Args: cobra.ExactArgs(2),
	RunE: runRelationUpdate,
}

var relationDeleteCmd = &cobra.Command{
	Use:   "delete [entity] [id]",
	Short: "Delete a relation",
	Args:  cobra.ExactArgs(2),
	RunE:  runRelationDelete,
}

var relationWatchCmd = &cobra.Command{
	Use:   "watch [entity] [id]",
	Short: "Print a fresh snapshot after every change",
	Long: `Watch an entity, or a single relation, and print a new snapshot whenever
the relation or any document changes. Stop with Ctrl-C.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRelationWatch,
}

var relationEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List registered entities",
	Args:  cobra.NoArgs,
	RunE:  runRelationEntities,
}

var (
	relationWhere []string
	relationOrder string
	relationDesc  bool
	relationLimit int
	relationJSON  bool
	relationFile  string
)

func init() {
	relationListCmd.Flags().StringArrayVarP(&relationWhere, "where", "w", nil, "Filter expression (repeatable)")
	relationListCmd.Flags().StringVar(&relationOrder, "order", "", "Field to order by")
	relationListCmd.Flags().BoolVar(&relationDesc, "desc", false, "Order descending")
	relationListCmd.Flags().IntVarP(&relationLimit, "limit", "n", 0, "Maximum relations to list (0 = all)")
	relationListCmd.Flags().BoolVar(&relationJSON, "json", false, "Print JSON")
	relationGetCmd.Flags().BoolVar(&relationJSON, "json", false, "Print JSON")
	relationWatchCmd.Flags().BoolVar(&relationJSON, "json", false, "Print JSON")

	for _, cmd := range []*cobra.Command{relationAddCmd, relationSetCmd, relationUpdateCmd} {
		cmd.Flags().StringVarP(&relationFile, "file", "f", "", "JSON file with the record (- for stdin)")
	}

	relationCmd.AddCommand(relationListCmd)
	relationCmd.AddCommand(relationGetCmd)
	relationCmd.AddCommand(relationAddCmd)
	relationCmd.AddCommand(relationSetCmd)
	relationCmd.AddCommand(relationUpdateCmd)
	relationCmd.AddCommand(relationDeleteCmd)
	relationCmd.AddCommand(relationWatchCmd)
	relationCmd.AddCommand(relationEntitiesCmd)
	rootCmd.AddCommand(relationCmd)
}

func relationQuery() (domain.Query, error) {
	q := domain.Query{OrderBy: relationOrder, Descending: relationDesc, Limit: relationLimit}
	for _, expr := range relationWhere {
		f, err := domain.ParseFilter(expr)
		if err != nil {
			return domain.Query{}, err
		}
		q.Filters = append(q.Filters, f)
	}
	return q, nil
}

func runRelationList(cmd *cobra.Command, args []string) error {
	if relationService == nil {
		return errNoRelations
	}

	q, err := relationQuery()
	if err != nil {
		return err
	}

	entity := domain.Entity(args[0])
	snap, err := relationService.List(cmd.Context(), entity, q)
	if err != nil {
		return fmt.Errorf("failed to list relations: %w", err)
	}

	if relationJSON {
		return printJSON(cmd.OutOrStdout(), snapshotItems(snap.Items))
	}

	printSnapshot(cmd, entity, snap.Items)
	return nil
}

func printSnapshot(cmd *cobra.Command, entity domain.Entity, items []driving.QueryItem) {
	if len(items) == 0 {
		cmd.Printf("No %s relations found\n", entity)
		return
	}

	out := cmd.OutOrStdout()
	cmd.Printf("%s relations:\n\n", entity)
	for _, item := range items {
		if item.Err != nil {
			cmd.Printf("  %s  error: %v\n\n", item.ID, item.Err)
			continue
		}
		printRelation(cmd, out, item.Data, "  ")
		cmd.Println()
	}
	cmd.Printf("Total: %d relations\n", len(items))
}

// snapshotItems shapes a snapshot for JSON output.
func snapshotItems(items []driving.QueryItem) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, item := range items {
		if item.Err != nil {
			out[i] = map[string]any{"id": item.ID, "error": item.Err.Error()}
			continue
		}
		out[i] = map[string]any{"id": item.ID, "relation": item.Data}
	}
	return out
}

func printRelation(cmd *cobra.Command, out io.Writer, rel *domain.EnrichedRelation, indent string) {
	if rel.Enriched {
		cmd.Printf("%s%s  %s\n", indent, rel.ID, statusBadge(out, rel.Status))
	} else {
		cmd.Printf("%s%s\n", indent, rel.ID)
	}
	for _, kv := range relationFields(&rel.Relation) {
		cmd.Printf("%s  %s: %s\n", indent, kv[0], kv[1])
	}
	for _, slot := range rel.Slots {
		if slot.IsMissing() {
			cmd.Printf("%s  %s: MISSING (%s)\n", indent, slot.Role, slot.DocType.Describe().Long)
			continue
		}
		cmd.Printf("%s  %s: %s (%s)\n", indent, slot.Role, slot.Doc.ID, slot.Doc.StartDate.UTC().Format(dateLayout))
	}
}

// relationFields lists the populated display fields of r in field order.
func relationFields(r *domain.Relation) [][2]string {
	var out [][2]string
	add := func(name, value string) {
		if value != "" {
			out = append(out, [2]string{name, value})
		}
	}
	if r.Party != nil {
		add(domain.FieldParty, r.Party.Name)
	}
	add(domain.FieldState, r.State)
	add(domain.FieldJurisdiction, r.Jurisdiction)
	add(domain.FieldFundraisingRound, r.FundraisingRound)
	add(domain.FieldStartDate, metadataString(r.StartDate))
	add(domain.FieldEndDate, metadataString(r.EndDate))
	add(domain.FieldSalary, metadataString(r.Salary))
	add(domain.FieldInvestment, metadataString(r.Investment))
	add(domain.FieldSharePrice, metadataString(r.SharePrice))
	add(domain.FieldValuation, metadataString(r.Valuation))
	add(domain.FieldShares, metadataString(r.Shares))
	add(domain.FieldPoolSize, metadataString(r.PoolSize))
	return out
}

func metadataString[T domain.MetadataValue](m *domain.Metadata[T]) string {
	if m == nil {
		return ""
	}
	if m.Kind == domain.MetadataComputed {
		return m.String() + " (computed)"
	}
	return m.String()
}

func runRelationGet(cmd *cobra.Command, args []string) error {
	if relationService == nil {
		return errNoRelations
	}

	rel, err := relationService.Get(cmd.Context(), domain.Entity(args[0]), args[1])
	if err != nil {
		return fmt.Errorf("failed to get relation: %w", err)
	}

	if relationJSON {
		return printJSON(cmd.OutOrStdout(), rel)
	}

	printRelation(cmd, cmd.OutOrStdout(), rel, "")
	if rel.Enriched {
		cmd.Printf("  documents: %d referenced, %d resolved\n", len(rel.DocRefs), countResolved(rel.Docs))
	}
	return nil
}

func countResolved(docs []*domain.Document) int {
	n := 0
	for _, d := range docs {
		if d != nil {
			n++
		}
	}
	return n
}

func runRelationAdd(cmd *cobra.Command, args []string) error {
	if relationService == nil {
		return errNoRelations
	}

	data, err := readRecord(cmd.InOrStdin(), relationFile)
	if err != nil {
		return err
	}

	id, err := relationService.Add(cmd.Context(), domain.Entity(args[0]), data)
	if err != nil {
		return fmt.Errorf("failed to add relation: %w", err)
	}

	cmd.Printf("Added %s relation: %s\n", args[0], id)
	return nil
}

func runRelationSet(cmd *cobra.Command, args []string) error {
	if relationService == nil {
		return errNoRelations
	}

	data, err := readRecord(cmd.InOrStdin(), relationFile)
	if err != nil {
		return err
	}

	if err := relationService.Set(cmd.Context(), domain.Entity(args[0]), args[1], data); err != nil {
		return fmt.Errorf("failed to set relation: %w", err)
	}

	cmd.Printf("Saved %s relation: %s\n", args[0], args[1])
	return nil
}

func runRelationUpdate(cmd *cobra.Command, args []string) error {
	if relationService == nil {
		return errNoRelations
	}

	patch, err := readRecord(cmd.InOrStdin(), relationFile)
	if err != nil {
		return err
	}

	if err := relationService.Update(cmd.Context(), domain.Entity(args[0]), args[1], patch); err != nil {
		return fmt.Errorf("failed to update relation: %w", err)
	}

	cmd.Printf("Updated %s relation: %s\n", args[0], args[1])
	return nil
}

func runRelationDelete(cmd *cobra.Command, args []string) error {
	if relationService == nil {
		return errNoRelations
	}

	if err := relationService.Delete(cmd.Context(), domain.Entity(args[0]), args[1]); err != nil {
		return fmt.Errorf("failed to delete relation: %w", err)
	}

	cmd.Printf("Deleted %s relation: %s\n", args[0], args[1])
	return nil
}

func runRelationWatch(cmd *cobra.Command, args []string) error {
	if relationService == nil {
		return errNoRelations
	}

	ctx := cmd.Context()
	entity := domain.Entity(args[0])

	if len(args) == 2 {
		snapshots, err := relationService.WatchOne(ctx, entity, args[1])
		if err != nil {
			return fmt.Errorf("failed to watch relation: %w", err)
		}
		for snap := range snapshots {
			if err := printDocumentSnapshot(cmd, snap); err != nil {
				return err
			}
		}
		return nil
	}

	snapshots, err := relationService.WatchQuery(ctx, entity, domain.Query{})
	if err != nil {
		return fmt.Errorf("failed to watch relations: %w", err)
	}
	for snap := range snapshots {
		switch {
		case relationJSON:
			if err := printJSON(cmd.OutOrStdout(), snapshotItems(snap.Items)); err != nil {
				return err
			}
		case snap.Err != nil:
			cmd.Printf("error: %v\n", snap.Err)
		default:
			printSnapshot(cmd, entity, snap.Items)
			cmd.Println("---")
		}
	}
	return nil
}

func printDocumentSnapshot(cmd *cobra.Command, snap driving.DocumentSnapshot) error {
	if relationJSON {
		return printJSON(cmd.OutOrStdout(), map[string]any{"id": snap.ID, "relation": snap.Data})
	}
	switch {
	case snap.Err != nil:
		cmd.Printf("%s  error: %v\n", snap.ID, snap.Err)
	case snap.Data == nil:
		cmd.Printf("%s  deleted\n", snap.ID)
	default:
		printRelation(cmd, cmd.OutOrStdout(), snap.Data, "")
	}
	cmd.Println("---")
	return nil
}

func runRelationEntities(cmd *cobra.Command, _ []string) error {
	if relationService == nil {
		return errNoRelations
	}

	for _, entity := range relationService.Entities() {
		schema, err := relationService.Schema(entity)
		if err != nil {
			return err
		}
		roles := make([]string, len(schema.Roles))
		for i, r := range schema.Roles {
			roles[i] = r.Name
		}
		if len(roles) == 0 {
			cmd.Printf("  %s\n", entity)
			continue
		}
		cmd.Printf("  %s  roles: %v\n", entity, roles)
	}
	return nil
}
