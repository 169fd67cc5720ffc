// Package report renders retrieved sources for people reading a terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const Title = "# Semantic Page Table (top-k)"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
)

// Snippet returns the first n characters of text with newlines flattened.
func Snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.ReplaceAll(string(runes), "\n", " ")
}

// Line formats one source the way the plain page table prints it.
func Line(s jobModel.Source) string {
	return fmt.Sprintf("%2d. idx=%6d  L2^2=%.4f  %s#p%d  '%s'",
		s.Rank, s.Position, s.Distance, s.Document, s.Page, s.Snippet)
}

// WritePageTable prints the title and one Line per source.
func WritePageTable(w io.Writer, sources []jobModel.Source) error {
	if _, err := fmt.Fprintln(w, Title); err != nil {
		return err
	}
	for _, s := range sources {
		if _, err := fmt.Fprintln(w, Line(s)); err != nil {
			return err
		}
	}
	return nil
}

// RenderTable draws the sources as a bordered table.
func RenderTable(sources []jobModel.Source) string {
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		rows = append(rows, []string{
			strconv.Itoa(s.Rank),
			strconv.Itoa(s.Position),
			strconv.FormatFloat(float64(s.Distance), 'f', 4, 32),
			fmt.Sprintf("%s#p%d", s.Document, s.Page),
			strconv.Itoa(s.ChunkOrdinal),
			Snippet(s.Snippet, config.SnippetLen),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("#", "IDX", "L2^2", "SOURCE", "CHUNK", "SNIPPET").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 5:
				return dimStyle
			default:
				return cellStyle
			}
		})

	return titleStyle.Render(Title) + "\n" + t.String()
}
