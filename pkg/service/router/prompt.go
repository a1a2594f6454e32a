package router

import (
	"fmt"
	"strings"
)

// buildSystemPrompt lists the known agents so the classifier can only pick
// from the configured set.
func (r *Router) buildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("Tu es le routeur d'un assistant pour les PME françaises.\n")
	sb.WriteString("Ton rôle est de choisir quel agent spécialisé doit répondre à la question de l'utilisateur.\n\n")
	sb.WriteString("Agents disponibles:\n")
	for _, a := range r.registry.List() {
		if !a.Enabled {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s: %s\n", a.ID, a.Description))
	}
	sb.WriteString("\nRéponds uniquement en JSON avec les champs \"agent\", \"confidence\" et \"reason\".\n")
	sb.WriteString("Si aucun agent ne correspond, utilise \"none\".")
	return sb.String()
}

func buildUserPrompt(query string) string {
	return "Question de l'utilisateur:\n" + query
}
