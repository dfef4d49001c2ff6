package game

// ValidateBatch enforces the generator contract: exactly count tasks, and
// exactly max(1, round(count*density)) of them vulnerable. No tolerance.
func ValidateBatch(batch *TaskBatch, count int, density float64) error {
	if len(batch.Tasks) != count {
		return &CountMismatchError{What: "task count", Expected: count, Actual: len(batch.Tasks)}
	}

	vulnerable := 0
	for _, task := range batch.Tasks {
		if task.IsVulnerable {
			vulnerable++
		}
	}
	target := VulnerableTarget(count, density)
	if vulnerable != target {
		return &CountMismatchError{What: "vulnerable count", Expected: target, Actual: vulnerable}
	}

	return nil
}
