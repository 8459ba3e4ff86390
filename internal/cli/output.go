package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ovenrush/matchcore/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintRoster outputs the spawned participants
func (o *Output) PrintRoster(players []model.ReplicatedPlayer) {
	if o.format == "json" {
		o.printJSON(players)
		return
	}

	fmt.Printf("Participants (%d):\n", len(players))
	for _, p := range players {
		team := "unassigned"
		if p.TeamID != model.UnassignedTeam {
			team = fmt.Sprintf("team %d", p.TeamID)
		}
		fmt.Printf("  - %s (%s) - %s, spawn point %d\n",
			p.DisplayName, p.PlayerID, team, p.SpawnPointID)
	}
}

// PrintTeams outputs the team state
func (o *Output) PrintTeams(state model.TeamState) {
	if o.format == "json" {
		o.printJSON(state)
		return
	}

	for _, team := range state.Teams {
		members := make([]string, len(team.MemberIDs))
		for i, m := range team.MemberIDs {
			members[i] = string(m)
		}
		fmt.Printf("Team %d (%d points): %s\n",
			team.ID, team.Score, strings.Join(members, ", "))
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}
