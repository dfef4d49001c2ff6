package game

import "testing"

func TestScore_MissingAndWrongBothCountMissed(t *testing.T) {
	tasks := []Task{
		{ID: "a", IsVulnerable: true},
		{ID: "b", IsVulnerable: true},
		{ID: "c", IsVulnerable: false},
	}
	answers := map[string]Answer{
		"b": {TaskID: "b", UserChoice: ChoiceSabotaged},
		"c": {TaskID: "c", UserChoice: ChoiceSabotaged},
	}

	tally := Score(tasks, answers)
	if tally.Correct != 1 {
		t.Fatalf("expected correct=1, got %d", tally.Correct)
	}
	if tally.Incorrect != 2 {
		t.Fatalf("expected incorrect=2, got %d", tally.Incorrect)
	}
	if len(tally.MissedTaskIDs) != 2 || tally.MissedTaskIDs[0] != "a" || tally.MissedTaskIDs[1] != "c" {
		t.Fatalf("expected missed [a c] in task order, got %v", tally.MissedTaskIDs)
	}
}

func TestScore_AllCorrect(t *testing.T) {
	tasks := []Task{
		{ID: "a", IsVulnerable: true},
		{ID: "b", IsVulnerable: false},
	}
	answers := map[string]Answer{
		"a": {TaskID: "a", UserChoice: ChoiceSabotaged},
		"b": {TaskID: "b", UserChoice: ChoiceClean},
	}

	tally := Score(tasks, answers)
	if tally.Correct != 2 || tally.Incorrect != 0 || len(tally.MissedTaskIDs) != 0 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
}

func TestScore_NoAnswers(t *testing.T) {
	tasks := []Task{{ID: "a", IsVulnerable: true}, {ID: "b", IsVulnerable: false}}

	tally := Score(tasks, map[string]Answer{})
	if tally.Correct != 0 || tally.Incorrect != 2 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
	if tally.MissedTaskIDs[0] != "a" || tally.MissedTaskIDs[1] != "b" {
		t.Fatalf("missed ids must follow task order, got %v", tally.MissedTaskIDs)
	}
}
