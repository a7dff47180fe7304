package command

import (
	"fmt"
	"strings"

	"souschef/internal/domain"
)

// answerIngredientQuery resolves a spoken ingredient name against the recipe.
// Resolution order: an exact bidirectional substring match that hits exactly
// one ingredient wins outright; otherwise a token-level pass collects every
// candidate whose name shares a mutually-containing token with the query.
func answerIngredientQuery(recipe *domain.Recipe, query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return "Which ingredient do you mean?"
	}

	if exact := substringMatches(recipe.Ingredients, query); len(exact) == 1 {
		return "You need " + formatIngredient(exact[0]) + "."
	}

	candidates := tokenMatches(recipe.Ingredients, query)
	switch len(candidates) {
	case 0:
		return fmt.Sprintf("I couldn't find %s in this recipe. Say read ingredients to hear the full list.", query)
	case 1:
		return "You need " + formatIngredient(candidates[0]) + "."
	default:
		names := make([]string, 0, len(candidates))
		for _, ing := range candidates {
			names = append(names, ing.Name)
		}
		return fmt.Sprintf("I found a few matches: %s. Which one do you mean?", strings.Join(names, ", "))
	}
}

func substringMatches(ingredients []domain.Ingredient, query string) []domain.Ingredient {
	var hits []domain.Ingredient
	for _, ing := range ingredients {
		name := strings.ToLower(ing.Name)
		if strings.Contains(name, query) || strings.Contains(query, name) {
			hits = append(hits, ing)
		}
	}
	return hits
}

func tokenMatches(ingredients []domain.Ingredient, query string) []domain.Ingredient {
	queryTokens := strings.Fields(query)
	var hits []domain.Ingredient
	for _, ing := range ingredients {
		if tokensOverlap(queryTokens, strings.Fields(strings.ToLower(ing.Name))) {
			hits = append(hits, ing)
		}
	}
	return hits
}

// tokensOverlap reports whether any token pair is mutually containing, e.g.
// "onions" matches "onion" in either direction.
func tokensOverlap(queryTokens, nameTokens []string) bool {
	for _, q := range queryTokens {
		for _, n := range nameTokens {
			if strings.Contains(n, q) || strings.Contains(q, n) {
				return true
			}
		}
	}
	return false
}
