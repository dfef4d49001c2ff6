package game

// Tally is the result of scoring a session.
type Tally struct {
	Correct       int      `json:"correct"`
	Incorrect     int      `json:"incorrect"`
	MissedTaskIDs []string `json:"missed_task_ids"`
}

// Score compares answers against tasks in task order. Unanswered and
// wrongly answered tasks both land in MissedTaskIDs; Incorrect is always
// its length.
func Score(tasks []Task, answers map[string]Answer) Tally {
	tally := Tally{MissedTaskIDs: []string{}}

	for _, task := range tasks {
		answer, answered := answers[task.ID]
		if !answered {
			tally.MissedTaskIDs = append(tally.MissedTaskIDs, task.ID)
			continue
		}

		expected := ChoiceClean
		if task.IsVulnerable {
			expected = ChoiceSabotaged
		}
		if answer.UserChoice == expected {
			tally.Correct++
		} else {
			tally.MissedTaskIDs = append(tally.MissedTaskIDs, task.ID)
		}
	}

	tally.Incorrect = len(tally.MissedTaskIDs)
	return tally
}
