package command

import (
	"fmt"
	"regexp"
	"strings"

	"souschef/internal/domain"
)

// Temperature patterns in priority order. Within one step the first pattern
// kind that matches wins, so an explicit "350 degrees F" beats a "medium
// heat" that happens to appear later in the same sentence.
var (
	explicitDegreesRe = regexp.MustCompile(`(?i)(\d{2,3})\s*(?:°|degrees?)\s*(fahrenheit|celsius|f\b|c\b)?`)
	heatLevelRe       = regexp.MustCompile(`(?i)\b(medium[\s-](?:low|high)|low|medium|high)\s+heat\b`)
	ovenDirectiveRe   = regexp.MustCompile(`(?i)\b(?:preheat|bake|roast|cook)\b[^.]*?\b(?:to|at)\s+(\d{2,3})\b`)
	simmerRe          = regexp.MustCompile(`(?i)\bsimmer`)
	boilRe            = regexp.MustCompile(`(?i)\bboil`)
)

// answerTemperatureQuery scans the current step first, then every step in
// order, reporting the first hit with its step number when it lives elsewhere.
func answerTemperatureQuery(recipe *domain.Recipe, currentStep int) string {
	if len(recipe.Instructions) == 0 {
		return "I couldn't find any temperature information in this recipe."
	}

	if desc, ok := scanForTemperature(recipe.Instructions[currentStep].Text); ok {
		return fmt.Sprintf("This step calls for %s.", desc)
	}

	for i, step := range recipe.Instructions {
		if i == currentStep {
			continue
		}
		if desc, ok := scanForTemperature(step.Text); ok {
			return fmt.Sprintf("Step %d calls for %s.", i+1, desc)
		}
	}

	return "I couldn't find any temperature information in this recipe."
}

func scanForTemperature(text string) (string, bool) {
	if m := explicitDegreesRe.FindStringSubmatch(text); m != nil {
		return m[1] + degreeSuffix(m[2]), true
	}
	if m := heatLevelRe.FindStringSubmatch(text); m != nil {
		level := strings.ReplaceAll(strings.ToLower(m[1]), " ", "-")
		return level + " heat", true
	}
	if m := ovenDirectiveRe.FindStringSubmatch(text); m != nil {
		return m[1] + "°F", true
	}
	if simmerRe.MatchString(text) {
		return "a simmer", true
	}
	if boilRe.MatchString(text) {
		return "a boil", true
	}
	return "", false
}

// degreeSuffix normalizes to Fahrenheit unless the matched unit token
// indicates Celsius.
func degreeSuffix(unit string) string {
	if strings.Contains(strings.ToLower(unit), "c") {
		return "°C"
	}
	return "°F"
}
