package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage filed documents",
	Long:  `List, search and file corporate documents and their version groups.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List document version groups",
	Long: `List documents grouped by version, latest first.

Filter by document type and by the state of the latest version
(active, inactive or outdated). Filters are repeatable.`,
	Args: cobra.NoArgs,
	RunE: runDocumentList,
}

var documentSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search documents by type, label or party",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentSearch,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentActionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List documents that need attention",
	Long:  `List outdated documents and uploads that have not been categorised yet.`,
	Args:  cobra.NoArgs,
	RunE:  runDocumentActions,
}

var documentTypesCmd = &cobra.Command{
	Use:         "types",
	Short:       "List known document types",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsNothing},
	RunE:        runDocumentTypes,
}

var documentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "File a new document",
	Args:  cobra.NoArgs,
	RunE:  runDocumentAdd,
}

var documentRecategorizeCmd = &cobra.Command{
	Use:   "recategorize [doc-id]",
	Short: "Categorise an uploaded document",
	Long:  `Replace an uncategorised or processing document with a typed one.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRecategorize,
}

var documentUpdateCmd = &cobra.Command{
	Use:   "update [doc-id]",
	Short: "Edit document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentUpdate,
}

var (
	documentTypes  []string
	documentStates []string
	documentJSON   bool
	documentFile   string
)

func init() {
	documentListCmd.Flags().StringArrayVarP(&documentTypes, "type", "t", nil, "Document type (repeatable)")
	documentListCmd.Flags().StringArrayVarP(&documentStates, "state", "s", nil, "Latest version state (repeatable)")
	for _, cmd := range []*cobra.Command{documentListCmd, documentSearchCmd, documentGetCmd, documentActionsCmd} {
		cmd.Flags().BoolVar(&documentJSON, "json", false, "Print JSON")
	}
	for _, cmd := range []*cobra.Command{documentAddCmd, documentRecategorizeCmd, documentUpdateCmd} {
		cmd.Flags().StringVarP(&documentFile, "file", "f", "", "JSON file with the document (- for stdin)")
	}

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentSearchCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentActionsCmd)
	documentCmd.AddCommand(documentTypesCmd)
	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentRecategorizeCmd)
	documentCmd.AddCommand(documentUpdateCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	var q domain.DocQuery
	for _, t := range documentTypes {
		dt := domain.DocType(t)
		if !dt.IsValid() {
			return fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, t)
		}
		q.Types = append(q.Types, dt)
	}
	for _, s := range documentStates {
		state := domain.DocState(s)
		if !state.IsValid() {
			return fmt.Errorf("%w: unknown document state %q", domain.ErrInvalidInput, s)
		}
		q.States = append(q.States, state)
	}

	groups, err := documentService.Groups(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	return printGroups(cmd, groups, "No documents found")
}

func runDocumentSearch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	groups, err := documentService.Search(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to search documents: %w", err)
	}
	return printGroups(cmd, groups, fmt.Sprintf("No documents match %q", args[0]))
}

func runDocumentActions(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	groups, err := documentService.ActionItems(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list action items: %w", err)
	}
	return printGroups(cmd, groups, "Nothing needs attention")
}

func printGroups(cmd *cobra.Command, groups []domain.DocumentGroup, empty string) error {
	if documentJSON {
		return printJSON(cmd.OutOrStdout(), groups)
	}

	if len(groups) == 0 {
		cmd.Println(empty)
		return nil
	}

	now := time.Now()
	out := cmd.OutOrStdout()
	for _, g := range groups {
		doc := g.Latest
		label := doc.Type.Describe().Long
		if !doc.IsContentful() {
			cmd.Printf("  %s  %s\n", doc.ID, label)
			continue
		}
		state, _ := g.State(now)
		cmd.Printf("  %s  %s  %s\n", doc.ID, label, stateBadge(out, state))
		cmd.Printf("    Party: %s\n", partyName(doc.Party))
		cmd.Printf("    Start: %s\n", doc.StartDate.UTC().Format(dateLayout))
		if doc.EndDate != nil {
			cmd.Printf("    End: %s\n", doc.EndDate.UTC().Format(dateLayout))
		}
		if len(g.Previous) > 0 {
			cmd.Printf("    Previous versions: %d\n", len(g.Previous))
		}
	}

	cmd.Printf("\nTotal: %d groups\n", len(groups))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if documentJSON {
		return printJSON(cmd.OutOrStdout(), doc)
	}

	cmd.Printf("ID: %s\n", doc.ID)
	cmd.Printf("Ref: %s\n", doc.Ref)
	cmd.Printf("Type: %s (%s)\n", doc.Type.Describe().Long, doc.Type)
	if !doc.IsContentful() {
		return nil
	}
	cmd.Printf("Party: %s\n", partyName(doc.Party))
	cmd.Printf("Start: %s\n", doc.StartDate.UTC().Format(dateLayout))
	if doc.EndDate != nil {
		cmd.Printf("End: %s\n", doc.EndDate.UTC().Format(dateLayout))
	}
	if doc.Group != "" {
		cmd.Printf("Group: %s\n", doc.Group)
	}
	for _, p := range doc.Properties {
		cmd.Printf("  %s: %s\n", p.Key, p.Value)
	}
	return nil
}

func runDocumentTypes(cmd *cobra.Command, _ []string) error {
	for _, t := range domain.DocTypes() {
		labels := t.Describe()
		suffix := ""
		if !t.IsContentful() {
			suffix = "  (placeholder)"
		}
		cmd.Printf("  %-48s %s%s\n", t, labels.Long, suffix)
	}
	return nil
}

func runDocumentAdd(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	data, err := readRecord(cmd.InOrStdin(), documentFile)
	if err != nil {
		return err
	}

	id, err := documentService.Add(cmd.Context(), data)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("Added document: %s\n", id)
	return nil
}

func runDocumentRecategorize(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	data, err := readRecord(cmd.InOrStdin(), documentFile)
	if err != nil {
		return err
	}

	if err := documentService.Recategorize(cmd.Context(), args[0], data); err != nil {
		return fmt.Errorf("failed to recategorize document: %w", err)
	}

	cmd.Printf("Recategorized document: %s\n", args[0])
	return nil
}

func runDocumentUpdate(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	patch, err := readRecord(cmd.InOrStdin(), documentFile)
	if err != nil {
		return err
	}

	if err := documentService.Update(cmd.Context(), args[0], patch); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	cmd.Printf("Updated document: %s\n", args[0])
	return nil
}
