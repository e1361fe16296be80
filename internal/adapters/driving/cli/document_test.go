package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commands := documentCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	for _, name := range []string{"list", "search", "get", "actions", "types", "add", "recategorize", "update"} {
		assert.Contains(t, commandNames, name)
	}
}

func TestDocumentGetCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := executeCommand(context.Background(), "document", "get")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDocumentListCmd_ByType(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(context.Background(), "document", "list", "--type", "BUSINESS_LICENSE")

	require.NoError(t, err)
	assert.Contains(t, out, "ca-license-2024  Business License")
	assert.Contains(t, out, "wa-license-2022  Business License")
	assert.Contains(t, out, "Previous versions: 2")
	assert.Contains(t, out, "Total: 3 groups")
	assert.NotContains(t, out, "offer-ada")
}

func TestDocumentListCmd_InvalidFilters(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(context.Background(), "document", "list", "-t", "NAPKIN")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown document type "NAPKIN"`)

	_, err = executeCommand(context.Background(), "document", "list", "-s", "stale")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown document state "stale"`)
}

func TestDocumentSearchCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(context.Background(), "document", "search", "lovelace", "--json")
	require.NoError(t, err)

	var groups []struct {
		Latest struct {
			ID string `json:"id"`
		} `json:"latest"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 4)
	assert.Equal(t, "ciiaa-ada", groups[0].Latest.ID)

	out, err = executeCommand(context.Background(), "document", "search", "zeppelin")
	require.NoError(t, err)
	assert.Contains(t, out, `No documents match "zeppelin"`)
}

func TestDocumentActionsCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(context.Background(), "document", "actions")

	require.NoError(t, err)
	assert.Contains(t, out, "scan-0001  Uncategorized")
	assert.Contains(t, out, "ca-agent  Registered Agent")
}

func TestDocumentGetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(context.Background(), "document", "get", "contractor-barbara")
	require.NoError(t, err)
	assert.Contains(t, out, "Ref: org/acme/doc/contractor-barbara")
	assert.Contains(t, out, "Type: Contractor Agreement (CONTRACTOR_AGREEMENT)")
	assert.Contains(t, out, "Party: Barbara Liskov")
	assert.Contains(t, out, "End: 11/1/2022")
	assert.Contains(t, out, "rate: $150/hour")

	out, err = executeCommand(context.Background(), "document", "get", "scan-0002")
	require.NoError(t, err)
	assert.Contains(t, out, "Type: Processing (PROCESSING)")
	assert.NotContains(t, out, "Party:")

	_, err = executeCommand(context.Background(), "document", "get", "missing")
	assert.Error(t, err)
}

func TestDocumentTypesCmd_NeedsNoServices(t *testing.T) {
	SetServices(&Services{})

	out, err := executeCommand(context.Background(), "document", "types")

	require.NoError(t, err)
	assert.Contains(t, out, "BUSINESS_LICENSE")
	assert.Contains(t, out, "Uncategorized  (placeholder)")
}

func TestDocumentWriteCmds(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	ctx := context.Background()

	out, err := executeCommand(ctx, "document", "add",
		"-f", writeRecordFile(t, `{"type":"BOARD_CONSENT_AND_MINUTES","startDate":"2022-03-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Added document: ")

	out, err = executeCommand(ctx, "document", "recategorize", "scan-0001",
		"-f", writeRecordFile(t, `{"type":"BOARD_CONSENT_AND_MINUTES","startDate":"2022-02-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Recategorized document: scan-0001")

	out, err = executeCommand(ctx, "document", "update", "scan-0001",
		"-f", writeRecordFile(t, `{"group":"board-consents"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Updated document: scan-0001")

	out, err = executeCommand(ctx, "document", "get", "scan-0001")
	require.NoError(t, err)
	assert.Contains(t, out, "Group: board-consents")

	_, err = executeCommand(ctx, "document", "add", "-f", writeRecordFile(t, `{"type":"BOARD_CONSENT_AND_MINUTES"}`))
	assert.Error(t, err)
}
