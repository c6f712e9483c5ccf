package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	CommunitiesDir    string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	SyncBatchSize     int
	SyncBatchDelay    int
	APIAccessKey      string

	// Upstream rule source
	RuleSourceURL string
	UserAgent     string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
