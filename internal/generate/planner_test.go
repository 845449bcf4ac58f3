package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeTextPlanner struct {
	reply string
	err   error
	calls int
}

func (f *fakeTextPlanner) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestPlanShortDurationIsSingleScene(t *testing.T) {
	collab := &fakeTextPlanner{reply: "should not be consulted"}
	p := &ScenePlanner{Planner: collab}

	scenes := p.Plan(context.Background(), "a fox in snow", 10)
	if len(scenes) != 1 {
		t.Fatalf("scenes = %d, want 1", len(scenes))
	}
	if scenes[0].Prompt != "a fox in snow" || scenes[0].DurationSeconds != 10 {
		t.Fatalf("scene = %+v", scenes[0])
	}
	if collab.calls != 0 {
		t.Fatalf("collaborator consulted for a single-clip duration")
	}
}

func TestPlanSplitsLongDurationPerLine(t *testing.T) {
	collab := &fakeTextPlanner{reply: "- The fox wakes at dawn.\n\n* It crosses a frozen river.\nIt reaches the den.\n"}
	p := &ScenePlanner{Planner: collab}

	scenes := p.Plan(context.Background(), "a fox in snow", 30)
	if len(scenes) != 3 {
		t.Fatalf("scenes = %d, want 3", len(scenes))
	}
	wantPrompts := []string{
		"a fox in snow. The fox wakes at dawn.",
		"a fox in snow. It crosses a frozen river.",
		"a fox in snow. It reaches the den.",
	}
	for i, want := range wantPrompts {
		if scenes[i].Prompt != want {
			t.Fatalf("scene %d prompt = %q, want %q", i, scenes[i].Prompt, want)
		}
		if scenes[i].DurationSeconds != 10 {
			t.Fatalf("scene %d duration = %d, want 10", i, scenes[i].DurationSeconds)
		}
	}
}

func TestPlanDegradesToSingleScene(t *testing.T) {
	cases := []struct {
		name   string
		collab TextPlanner
	}{
		{"collaborator error", &fakeTextPlanner{err: errors.New("upstream down")}},
		{"blank reply", &fakeTextPlanner{reply: "  \n\t\n"}},
		{"no collaborator", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &ScenePlanner{Planner: tc.collab}
			scenes := p.Plan(context.Background(), "city at night", 25)
			if len(scenes) != 1 {
				t.Fatalf("scenes = %d, want 1", len(scenes))
			}
			if scenes[0].Prompt != "city at night" || scenes[0].DurationSeconds != 25 {
				t.Fatalf("scene = %+v", scenes[0])
			}
		})
	}
}

func TestPlanPairParsesTaggedScenes(t *testing.T) {
	collab := &fakeTextPlanner{reply: "SCENE 1: A kicker lines up the field goal.\nScene 2: The ball sails through as the crowd erupts."}
	p := &ScenePlanner{Planner: collab}

	pair := p.PlanPair(context.Background(), "stadium ad", 8)
	if got := pair[0].Prompt; got != "stadium ad. A kicker lines up the field goal." {
		t.Fatalf("first = %q", got)
	}
	if got := pair[1].Prompt; got != "stadium ad. The ball sails through as the crowd erupts." {
		t.Fatalf("second = %q", got)
	}
	for i, s := range pair {
		if s.DurationSeconds != 8 {
			t.Fatalf("scene %d duration = %d", i, s.DurationSeconds)
		}
	}
}

func TestPlanPairSynthesizesOnParseFailure(t *testing.T) {
	collab := &fakeTextPlanner{reply: "here are two great scenes without tags"}
	p := &ScenePlanner{Planner: collab}

	pair := p.PlanPair(context.Background(), "stadium ad", 0)
	if !strings.Contains(pair[0].Prompt, "beginning") || !strings.Contains(pair[1].Prompt, "continuation") {
		t.Fatalf("pair = %+v, want synthesized prompts", pair)
	}
	if pair[0].DurationSeconds != 8 || pair[1].DurationSeconds != 8 {
		t.Fatalf("default duration not applied: %+v", pair)
	}
}
