package generate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"clipforge/internal/infra"
)

const defaultClipSeconds = 10

// TextPlanner is the external text-planning collaborator: plain text in,
// plain text out. Scene planning is its only consumer.
type TextPlanner interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ScenePlanner decomposes a long requested duration into an ordered list of
// shorter scene prompts. Planning never fails: every parse or collaborator
// problem degrades to a single scene with the original prompt.
type ScenePlanner struct {
	Planner     TextPlanner
	ClipSeconds int
	Logger      *infra.Logger
}

// Plan returns the ordered scenes for basePrompt over totalDuration seconds.
// Durations at or under one clip length yield exactly one scene.
func (p *ScenePlanner) Plan(ctx context.Context, basePrompt string, totalDuration int) []Scene {
	clip := p.clipSeconds()
	single := []Scene{{Prompt: basePrompt, DurationSeconds: totalDuration}}
	if totalDuration <= clip {
		return single
	}
	if p.Planner == nil {
		return single
	}

	numScenes := totalDuration / clip
	if numScenes < 1 {
		numScenes = 1
	}
	system := fmt.Sprintf(
		"Break this video concept into %d sequential scenes that tell a coherent story. "+
			"Each scene should flow naturally into the next and maintain visual consistency. "+
			"Respond with one scene description per line.", numScenes)
	content, err := p.Planner.Complete(ctx, system, "Base concept: "+basePrompt)
	if err != nil {
		log := p.logger()
		log.Warn().Err(err).Msg("planner: collaborator failed, using single scene")
		return single
	}

	var scenes []Scene
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-* ")
		if line == "" {
			continue
		}
		scenes = append(scenes, Scene{
			Prompt:          basePrompt + ". " + line,
			DurationSeconds: clip,
		})
	}
	if len(scenes) == 0 {
		return single
	}
	return scenes
}

// PlanPair produces exactly two narratively continuous scenes for paired
// hook/payoff formats. The collaborator is asked for tagged descriptions; on
// parse failure generic beginning/continuation prompts are synthesized.
func (p *ScenePlanner) PlanPair(ctx context.Context, basePrompt string, sceneDuration int) [2]Scene {
	if sceneDuration <= 0 {
		sceneDuration = 8
	}
	fallback := [2]Scene{
		{Prompt: basePrompt + ". Scene 1: the beginning, establishing the subject.", DurationSeconds: sceneDuration},
		{Prompt: basePrompt + ". Scene 2: the continuation, same subject and setting, building to the payoff.", DurationSeconds: sceneDuration},
	}
	if p.Planner == nil {
		return fallback
	}

	system := "Describe exactly two sequential video scenes for this concept. " +
		"The second scene must continue directly from the first with the same subject, " +
		"setting and visual style. Respond with exactly two lines, the first starting " +
		"with 'Scene 1:' and the second with 'Scene 2:'."
	content, err := p.Planner.Complete(ctx, system, "Concept: "+basePrompt)
	if err != nil {
		log := p.logger()
		log.Warn().Err(err).Msg("planner: pair collaborator failed, using synthesized scenes")
		return fallback
	}

	var first, second string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "scene 1:") && first == "":
			first = strings.TrimSpace(line[len("scene 1:"):])
		case strings.HasPrefix(lower, "scene 2:") && second == "":
			second = strings.TrimSpace(line[len("scene 2:"):])
		}
	}
	if first == "" || second == "" {
		return fallback
	}
	return [2]Scene{
		{Prompt: basePrompt + ". " + first, DurationSeconds: sceneDuration},
		{Prompt: basePrompt + ". " + second, DurationSeconds: sceneDuration},
	}
}

func (p *ScenePlanner) clipSeconds() int {
	if p.ClipSeconds > 0 {
		return p.ClipSeconds
	}
	return defaultClipSeconds
}

func (p *ScenePlanner) logger() infra.Logger {
	if p.Logger != nil {
		return *p.Logger
	}
	return zerolog.New(io.Discard)
}
