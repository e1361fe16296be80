package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

const dateLayout = "1/2/2006"

var (
	currentStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	outdatedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	incompleteStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// isTerminal reports whether w writes to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// statusBadge renders a relation status, coloured on terminals.
func statusBadge(w io.Writer, status domain.Status) string {
	label := string(status)
	if !isTerminal(w) {
		return label
	}
	switch status {
	case domain.StatusCurrent:
		return currentStyle.Render(label)
	case domain.StatusOutdated:
		return outdatedStyle.Render(label)
	case domain.StatusIncomplete:
		return incompleteStyle.Render(label)
	default:
		return label
	}
}

// stateBadge renders a document state, coloured on terminals.
func stateBadge(w io.Writer, state domain.DocState) string {
	label := string(state)
	if !isTerminal(w) {
		return label
	}
	switch state {
	case domain.DocStateActive:
		return currentStyle.Render(label)
	case domain.DocStateOutdated:
		return outdatedStyle.Render(label)
	default:
		return dimStyle.Render(label)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readRecord decodes a JSON object from path, or from stdin when path is "-".
func readRecord(stdin io.Reader, path string) (domain.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: --file is required", domain.ErrInvalidInput)
	}

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var rec domain.Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: decoding record: %v", domain.ErrInvalidInput, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: record must be a JSON object", domain.ErrInvalidInput)
	}
	return rec, nil
}

func partyName(p *domain.Party) string {
	if p == nil {
		return "-"
	}
	return p.Name
}
