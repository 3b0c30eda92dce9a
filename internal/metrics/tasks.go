package metrics

import "time"

// TaskCompleted records a successful periodic task run.
func TaskCompleted(task string, duration time.Duration) {
	TaskRunsTotal.WithLabelValues(task, "completed").Inc()
	TaskDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// TaskFailed records a failed periodic task run.
func TaskFailed(task string) {
	TaskRunsTotal.WithLabelValues(task, "failed").Inc()
}

// AIUsage records token consumption and cost for one engine call.
func AIUsage(inputTokens, outputTokens, costCents int) {
	AITokensTotal.WithLabelValues("input").Add(float64(inputTokens))
	AITokensTotal.WithLabelValues("output").Add(float64(outputTokens))
	AICostCentsTotal.Add(float64(costCents))
}
