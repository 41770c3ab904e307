package scenario

// Case is one message under test. History is the sender's earlier messages
// in the same channel, oldest first.
type Case struct {
	Text       string   `yaml:"text"`
	Channel    string   `yaml:"channel,omitempty"`
	Sender     string   `yaml:"sender,omitempty"`
	Restricted bool     `yaml:"restricted,omitempty"`
	Bypass     bool     `yaml:"bypass,omitempty"`
	History    []string `yaml:"history,omitempty"`
	Expect     string   `yaml:"expect"`
	// Patterns lists tags that must all be present in the verdict.
	Patterns       []string `yaml:"patterns,omitempty"`
	ReasonContains string   `yaml:"reason_contains,omitempty"`
}

// Scenario is a named collection of filter test cases.
type Scenario struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index     int      `json:"index"`
	Passed    bool     `json:"passed"`
	Text      string   `json:"text"`
	Expected  string   `json:"expected"`
	Actual    string   `json:"actual"`
	RiskScore int      `json:"risk_score"`
	Patterns  []string `json:"patterns"`
	Reason    string   `json:"reason,omitempty"`
	Failure   string   `json:"failure,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
