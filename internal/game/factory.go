package game

import "github.com/google/uuid"

// BuildTasks turns a validated batch into wire tasks. Each task gets a
// fresh id; tasks the generator left unlabeled take the next subsystem
// from a single round-robin counter spanning the whole call, so labels
// stay evenly distributed. Vulnerability types are made self-consistent:
// a clean task is always SAFE, and a vulnerable task claiming SAFE gets
// the default class.
func BuildTasks(batch *TaskBatch, language string) []GeneratedTask {
	tasks := make([]GeneratedTask, 0, len(batch.Tasks))
	cursor := 0

	for _, item := range batch.Tasks {
		systemName := item.SystemName
		if systemName == "" {
			systemName = SystemNames[cursor%len(SystemNames)]
			cursor++
		}

		hints := item.Hints
		if hints == nil {
			hints = []string{}
		}

		tasks = append(tasks, GeneratedTask{
			ID:                uuid.NewString(),
			SystemName:        systemName,
			Code:              item.Code,
			Language:          language,
			IsVulnerable:      item.IsVulnerable,
			VulnerabilityType: canonicalVulnType(item.IsVulnerable, item.VulnerabilityType),
			VulnerabilityLine: item.VulnerabilityLine,
			Hints:             hints,
			Status:            "pending",
		})
	}

	return tasks
}

func canonicalVulnType(isVulnerable bool, vulnType string) string {
	if !isVulnerable {
		return VulnTypeSafe
	}
	if vulnType == VulnTypeSafe {
		return VulnTypeXSS
	}
	return vulnType
}
