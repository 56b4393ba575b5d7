package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
)

// ReachOverlay contains the outcome of a reachability query to visualize on the graph.
type ReachOverlay struct {
	Origin domain.LocationID
	Reach  domain.Reach
}

// GenerateMermaid produces a Mermaid flowchart of the given locations and their exits.
// Locations are labeled with the entities present. Exits are drawn as labeled
// arrows; the exit through which a location was first reached is drawn thick.
// It also applies overlay styles (origin/reached) and distances if provided.
func GenerateMermaid(ctx context.Context, world ports.World, locations []domain.LocationID, overlay *ReachOverlay) (string, error) {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	firstExits := make(map[string]bool)
	if overlay != nil {
		for _, hop := range overlay.Reach {
			if hop.Via != nil {
				firstExits[hop.Via.ID] = true
			}
		}
	}

	for _, loc := range locations {
		safeID := sanitizeMermaidID(string(loc))

		present, err := world.EntitiesAt(ctx, loc)
		if err != nil {
			return "", fmt.Errorf("entities at %s: %w", loc, err)
		}
		label := escapeLabel(string(loc))
		if overlay != nil {
			if hop, ok := overlay.Reach[loc]; ok {
				label = fmt.Sprintf("%s <br/> d=%d", label, hop.Distance)
			}
		}
		if len(present) > 0 {
			names := make([]string, len(present))
			for i, e := range present {
				names[i] = escapeLabel(string(e))
			}
			label = fmt.Sprintf("%s <br/> %s", label, strings.Join(names, ", "))
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, label))

		exits, err := world.ExitsOf(ctx, loc)
		if err != nil {
			return "", fmt.Errorf("exits of %s: %w", loc, err)
		}
		for _, exit := range exits {
			name := exit.Name
			if names := exit.Names(); len(names) > 0 {
				name = names[0]
			}
			arrow := "-->"
			if firstExits[exit.ID] {
				arrow = "==>"
			}
			sb.WriteString(fmt.Sprintf("    %s %s|\"%s\"| %s\n", safeID, arrow, escapeLabel(name), sanitizeMermaidID(string(exit.To))))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef reached fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef origin fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		reached := make([]string, 0, len(overlay.Reach))
		for loc := range overlay.Reach {
			if loc != overlay.Origin {
				reached = append(reached, sanitizeMermaidID(string(loc)))
			}
		}
		sort.Strings(reached)
		for _, id := range reached {
			sb.WriteString(fmt.Sprintf("    class %s reached;\n", id))
		}
		if overlay.Origin != "" {
			sb.WriteString(fmt.Sprintf("    class %s origin;\n", sanitizeMermaidID(string(overlay.Origin))))
		}
	}

	return sb.String(), nil
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", ":", "_", " ", "_", "#", "_")
	return r.Replace(id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
