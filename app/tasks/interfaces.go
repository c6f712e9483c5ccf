package tasks

// TaskSchedulerInterface is the task queue surface used by the main
// application and the API handlers.
// Example usage:
//
//	scheduler := NewScheduler(ruleRepo, eventRepo, ingestService, interval, workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewSyncCommunityTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
