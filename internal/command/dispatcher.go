// Package command maps a recognized intent onto a spoken response and, for
// the few commands with side effects, one host callback invocation.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"souschef/internal/domain"
	"souschef/internal/ports"
)

const noRecipeResponse = "There's no active recipe. Open a recipe to use voice control."

const helpResponse = "You can say: next step, previous step, repeat that, " +
	"start over, what step am I on, read the ingredients, how much of an ingredient, " +
	"what temperature, set a timer, or stop the timer."

// Dispatcher turns intents into responses. It is stateless; the only side
// effects are the injected host hooks, each invoked at most once per command.
type Dispatcher struct {
	hooks ports.HostHooks
}

func NewDispatcher(hooks ports.HostHooks) *Dispatcher {
	return &Dispatcher{hooks: hooks}
}

// Handle resolves one command against the recipe and the host's current step.
// The step index is read at invocation time, never captured earlier in the
// utterance.
func (d *Dispatcher) Handle(result domain.IntentResult, recipe *domain.Recipe, currentStep int) domain.CommandResponse {
	if recipe == nil {
		return domain.CommandResponse{Text: noRecipeResponse}
	}

	total := len(recipe.Instructions)
	step := clampStep(currentStep, total)

	switch result.Intent {
	case domain.IntentNextStep:
		if step >= total-1 {
			return domain.CommandResponse{Text: "You're on the last step already."}
		}
		return d.setStep(recipe, step+1, "")

	case domain.IntentPreviousStep:
		if step <= 0 {
			return domain.CommandResponse{Text: "You're already on the first step."}
		}
		return d.setStep(recipe, step-1, "")

	case domain.IntentRestart:
		return d.setStep(recipe, 0, "Starting over. ")

	case domain.IntentRepeatStep:
		return domain.CommandResponse{Text: stepText(recipe, step)}

	case domain.IntentWhatStep:
		return domain.CommandResponse{Text: fmt.Sprintf("You're on step %d of %d.", step+1, total)}

	case domain.IntentReadIngredients:
		return domain.CommandResponse{Text: readIngredients(recipe)}

	case domain.IntentIngredientQuery:
		return domain.CommandResponse{Text: answerIngredientQuery(recipe, result.Slots.Ingredient)}

	case domain.IntentTemperature:
		return domain.CommandResponse{Text: answerTemperatureQuery(recipe, step)}

	case domain.IntentSetTimer:
		return d.setTimer(result.Slots)

	case domain.IntentStopTimer:
		if d.hooks.OnTimerStop != nil {
			d.hooks.OnTimerStop()
		}
		return domain.CommandResponse{Text: "Timer stopped.", Action: domain.ActionStopTimer}

	case domain.IntentStopSpeaking:
		// Barge-in is handled by the engine before dispatch; nothing to say.
		return domain.CommandResponse{}

	case domain.IntentPause:
		return domain.CommandResponse{Text: "Okay, pausing voice control. Tap the microphone when you need me."}

	case domain.IntentHelp:
		return domain.CommandResponse{Text: helpResponse}

	default:
		return domain.CommandResponse{Text: "Sorry, I didn't catch that. Say help to hear what I understand."}
	}
}

func (d *Dispatcher) setStep(recipe *domain.Recipe, index int, prefix string) domain.CommandResponse {
	if d.hooks.OnStepChange != nil {
		d.hooks.OnStepChange(index)
	}
	return domain.CommandResponse{
		Text:      prefix + stepText(recipe, index),
		Action:    domain.ActionSetStep,
		StepIndex: index,
	}
}

func (d *Dispatcher) setTimer(slots domain.Slots) domain.CommandResponse {
	total := slots.TimerMinutes*60 + slots.TimerSeconds
	if total <= 0 {
		return domain.CommandResponse{Text: "For how long? Say something like, set a timer for five minutes."}
	}
	if d.hooks.OnTimerStart != nil {
		d.hooks.OnTimerStart(total)
	}
	return domain.CommandResponse{
		Text:         fmt.Sprintf("Timer set for %s.", formatDuration(slots.TimerMinutes, slots.TimerSeconds)),
		Action:       domain.ActionStartTimer,
		TimerSeconds: total,
	}
}

func stepText(recipe *domain.Recipe, index int) string {
	if len(recipe.Instructions) == 0 {
		return "This recipe has no steps."
	}
	return fmt.Sprintf("Step %d. %s", index+1, recipe.Instructions[index].Text)
}

func readIngredients(recipe *domain.Recipe) string {
	if len(recipe.Ingredients) == 0 {
		return "This recipe has no ingredients listed."
	}
	parts := make([]string, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		parts = append(parts, formatIngredient(ing))
	}
	return "You need: " + strings.Join(parts, ", ") + "."
}

func formatIngredient(ing domain.Ingredient) string {
	if ing.Quantity <= 0 {
		return ing.Name
	}
	qty := formatQuantity(ing.Quantity)
	if ing.Unit == "" {
		return fmt.Sprintf("%s %s", qty, ing.Name)
	}
	return fmt.Sprintf("%s %s of %s", qty, ing.Unit, ing.Name)
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatDuration(minutes, seconds int) string {
	switch {
	case minutes > 0 && seconds > 0:
		return fmt.Sprintf("%s and %s", plural(minutes, "minute"), plural(seconds, "second"))
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return plural(seconds, "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func clampStep(step, total int) int {
	if step < 0 {
		return 0
	}
	if total > 0 && step > total-1 {
		return total - 1
	}
	return step
}
