package detect

// Risk weights. These are hand-tuned and kept exactly as deployed; there is
// no labelled data to re-derive them against.
const (
	IntentWeight           = 15
	SplitPhoneWeight       = 30
	SplitDomainWeight      = 25
	SplitEmailWeight       = 25
	SplitSocialWeight      = 20
	NumberSequenceWeight   = 40
	NumberWithIntentWeight = 25
	SpacingWeight          = 20

	// BlockThreshold is the conversation score at which a message is blocked.
	BlockThreshold = 40

	// MaxRisk is assigned to any single-message evidence hit.
	MaxRisk = 100
)

const (
	// AnalysisWindow is how many buffered messages are joined with the new one.
	AnalysisWindow = 5

	// minSplitPhoneRules is how many distinct phone fragment rules must fire.
	minSplitPhoneRules = 2
)
