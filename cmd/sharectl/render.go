package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sonvt1710/graylog2-server/internal/shares"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// renderState writes the selected grantees of state as a table followed by missing
// dependencies and validation errors.
func renderState(w io.Writer, state *shares.EntityShareState) error {
	titles := map[string]string{}
	for _, c := range state.AvailableCapabilities() {
		titles[c.ID] = c.Title
	}

	active := state.ActiveShares()
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("Grantee", "Type", "Capability", "State").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})

	for _, g := range state.SelectedGrantees() {
		capability := titles[g.CapabilityID]
		if capability == "" {
			capability = g.CapabilityID
		}
		t.Row(g.Title, string(g.Type), capability, string(g.CurrentState(active)))
	}

	if _, err := fmt.Fprintf(w, "%s\n%s\n", mutedStyle.Render(state.Entity()), t.String()); err != nil {
		return err
	}

	missing := state.MissingDependencies()
	grantees := make([]string, 0, len(missing))
	for granteeID := range missing {
		grantees = append(grantees, granteeID)
	}
	slices.Sort(grantees)
	for _, granteeID := range grantees {
		names := make([]string, 0, len(missing[granteeID]))
		for _, entity := range missing[granteeID] {
			names = append(names, entity.Title)
		}
		line := fmt.Sprintf("%s cannot see: %s", granteeID, strings.Join(names, ", "))
		if _, err := fmt.Fprintln(w, warningStyle.Render(line)); err != nil {
			return err
		}
	}

	result := state.ValidationResult()
	if !result.Failed {
		return nil
	}
	fields := make([]string, 0, len(result.Errors))
	for field := range result.Errors {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	for _, field := range fields {
		for _, msg := range result.Errors[field] {
			if _, err := fmt.Fprintln(w, errorStyle.Render(msg)); err != nil {
				return err
			}
		}
	}
	return nil
}
