// Package intent turns a raw transcript into a recipe voice command.
//
// Detection is deterministic pattern matching, not language understanding.
// The pattern table is evaluated top to bottom and the first match wins, so
// ordering is load-bearing: timer phrases must be tried before the bare
// "stop" that cancels speech, and "read the ingredients" before the
// quantity-question patterns that would otherwise swallow it.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"souschef/internal/domain"
)

type matcher struct {
	re     *regexp.Regexp
	intent domain.Intent
	slots  func(text string, match []string) domain.Slots
}

// Table order (first match wins):
//  1. stop timer        — must precede stop-speaking ("stop the timer" contains "stop")
//  2. set timer         — numeric duration phrasing
//  3. pause             — "stop listening" must not hit stop-speaking's bare "stop"
//  4. stop speaking     — bare "stop", "be quiet"
//  5. help
//  6. read ingredients  — must precede ingredient quantity questions
//  7. ingredient query  — "how much/many X"
//  8. temperature query
//  9. restart           — must precede what-step ("start" vs "step" overlap is none,
//     but "go back to the beginning" must not hit previous-step)
// 10. next / previous / repeat / what step
var matchers = []matcher{
	{re: regexp.MustCompile(`\b(stop|cancel|turn off)\b.*\btimer\b`), intent: domain.IntentStopTimer},
	{re: regexp.MustCompile(`\btimer\b|\bremind me in\b|\bset\b.*\b(minutes?|seconds?)\b`), intent: domain.IntentSetTimer, slots: timerSlots},
	{re: regexp.MustCompile(`\bpause\b|\bstop listening\b|\bhold on\b`), intent: domain.IntentPause},
	{re: regexp.MustCompile(`\bstop (talking|speaking|reading)\b|\bbe quiet\b|\bshut up\b|\bnever mind\b|^stop\b`), intent: domain.IntentStopSpeaking},
	{re: regexp.MustCompile(`\bhelp\b|\bwhat can (i say|you do)\b`), intent: domain.IntentHelp},
	{re: regexp.MustCompile(`\b(read|list|what are)( me)?( all)?( of)? the ingredients\b|\bingredient list\b|\bread ingredients\b`), intent: domain.IntentReadIngredients},
	{re: regexp.MustCompile(`\bhow (much|many) (.+)`), intent: domain.IntentIngredientQuery, slots: ingredientSlots(2)},
	{re: regexp.MustCompile(`\bdo i need (?:any |some )?(.+)`), intent: domain.IntentIngredientQuery, slots: ingredientSlots(1)},
	{re: regexp.MustCompile(`\b(what|which) temperature\b|\bhow hot\b|\btemperature\b`), intent: domain.IntentTemperature},
	{re: regexp.MustCompile(`\b(restart|start over|start again|from the beginning|back to the beginning|first step)\b`), intent: domain.IntentRestart},
	{re: regexp.MustCompile(`\bwhat step\b|\bwhich step\b|\bwhere (am i|are we)\b`), intent: domain.IntentWhatStep},
	{re: regexp.MustCompile(`\b(next step|next|continue|go on|keep going|move on)\b`), intent: domain.IntentNextStep},
	{re: regexp.MustCompile(`\b(previous step|previous|go back|last step|back up)\b`), intent: domain.IntentPreviousStep},
	{re: regexp.MustCompile(`\b(repeat|again|say that again|one more time|current step|read (that|this|the step))\b`), intent: domain.IntentRepeatStep},
}

var hasWord = regexp.MustCompile(`[a-z0-9]`)

// Detect extracts an intent and its slots from a transcript. It is pure,
// case-insensitive, and never fails: anything unrecognized, including
// whitespace or punctuation-only input, resolves to IntentUnknown.
func Detect(transcript string) domain.IntentResult {
	text := normalize(transcript)
	if !hasWord.MatchString(text) {
		return domain.IntentResult{Intent: domain.IntentUnknown}
	}

	for _, m := range matchers {
		match := m.re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		result := domain.IntentResult{Intent: m.intent}
		if m.slots != nil {
			result.Slots = m.slots(text, match)
		}
		return result
	}
	return domain.IntentResult{Intent: domain.IntentUnknown}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	minutesRe = regexp.MustCompile(`\b([a-z]+|\d+)\s+minutes?\b`)
	secondsRe = regexp.MustCompile(`\b([a-z]+|\d+)\s+seconds?\b`)
)

// timerSlots re-scans the whole transcript for durations because the trigger
// keyword and the duration phrase can sit anywhere relative to each other.
func timerSlots(text string, _ []string) domain.Slots {
	var slots domain.Slots
	if m := minutesRe.FindStringSubmatch(text); m != nil {
		slots.TimerMinutes = parseNumber(m[1])
	}
	if m := secondsRe.FindStringSubmatch(text); m != nil {
		slots.TimerSeconds = parseNumber(m[1])
	}
	return slots
}

func ingredientSlots(group int) func(string, []string) domain.Slots {
	return func(_ string, match []string) domain.Slots {
		return domain.Slots{Ingredient: cleanIngredient(match[group])}
	}
}

// cleanIngredient strips the conversational tail from a quantity question,
// e.g. "flour do i need" -> "flour".
func cleanIngredient(raw string) string {
	name := strings.TrimSpace(raw)
	for _, tail := range []string{
		"do i need", "do we need", "is needed", "should i use",
		"should i add", "does it need", "goes in", "in this recipe",
		"for this recipe", "in the recipe",
	} {
		if idx := strings.Index(name, tail); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}
	}
	name = strings.Trim(name, " ?.!,")
	name = strings.TrimPrefix(name, "of ")
	return strings.TrimSpace(name)
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50, "sixty": 60,
	"seventy": 70, "eighty": 80, "ninety": 90,
}

func parseNumber(token string) int {
	if n, err := strconv.Atoi(token); err == nil && n >= 0 {
		return n
	}
	if n, ok := numberWords[token]; ok {
		return n
	}
	return 0
}
