package schemas

// BatchItem is one error queued for batch fixing together with the optional
// signals used to prioritize it. Zero values are treated as weight 1.
type BatchItem struct {
	Request      ErrorFixRequest `json:"request" mapstructure:"request"`
	Severity     Severity        `json:"severity,omitempty" mapstructure:"severity"`
	Frequency    int             `json:"frequency,omitempty" mapstructure:"frequency"`
	Dependencies int             `json:"dependencies,omitempty" mapstructure:"dependencies"`
	Complexity   Complexity      `json:"complexity,omitempty" mapstructure:"complexity"`
}

// BatchFailure records why a single item did not produce a validated fix.
type BatchFailure struct {
	Request ErrorFixRequest `json:"request"`
	Reason  string          `json:"reason"`
}

// BatchResult partitions a batch run into validated fixes and failures.
type BatchResult struct {
	BatchID string            `json:"batchId"`
	Fixes   []RankedFixResult `json:"fixes"`
	Failed  []BatchFailure    `json:"failed"`
}
