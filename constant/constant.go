package constant

type ProcessingStatus string

const (
	ProcessingStatusUploading ProcessingStatus = "uploading"
	ProcessingStatusUploaded  ProcessingStatus = "uploaded"
	// ProcessingStatusAnalyzing is implicit while the model runs and is never persisted.
	ProcessingStatusAnalyzing ProcessingStatus = "analyzing"
	ProcessingStatusCompleted ProcessingStatus = "completed"
	ProcessingStatusFailed    ProcessingStatus = "failed"
)

func (s ProcessingStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition may leave s.
func (s ProcessingStatus) IsTerminal() bool {
	return s == ProcessingStatusCompleted || s == ProcessingStatusFailed
}

// CanTransitionTo reports whether next is a legal persisted successor of s.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	for _, p := range Predecessors(next) {
		if p == s {
			return true
		}
	}
	return false
}

// Predecessors lists the persisted statuses from which next may be reached.
func Predecessors(next ProcessingStatus) []ProcessingStatus {
	switch next {
	case ProcessingStatusUploaded:
		return []ProcessingStatus{ProcessingStatusUploading}
	case ProcessingStatusCompleted:
		return []ProcessingStatus{ProcessingStatusUploaded}
	case ProcessingStatusFailed:
		return []ProcessingStatus{ProcessingStatusUploading, ProcessingStatusUploaded}
	default:
		return nil
	}
}

func TerminalStatuses() []ProcessingStatus {
	return []ProcessingStatus{ProcessingStatusCompleted, ProcessingStatusFailed}
}

type TargetAudience string

const (
	TargetAudienceHost        TargetAudience = "host"
	TargetAudienceGuest       TargetAudience = "guest"
	TargetAudienceUnspecified TargetAudience = "unspecified"
)

type PromptCategory string

const (
	PromptCategoryHost    PromptCategory = "host_analysis"
	PromptCategoryGuest   PromptCategory = "guest_analysis"
	PromptCategoryGeneral PromptCategory = "general_analysis"
	PromptCategoryMerge   PromptCategory = "merge_analysis"
)

func (c PromptCategory) String() string {
	return string(c)
}

func (c PromptCategory) IsValid() bool {
	switch c {
	case PromptCategoryHost, PromptCategoryGuest, PromptCategoryGeneral, PromptCategoryMerge:
		return true
	default:
		return false
	}
}

// CategoryFor maps an audience to its prompt category, falling back to the
// general category for anything unrecognized.
func CategoryFor(audience TargetAudience) PromptCategory {
	switch audience {
	case TargetAudienceHost:
		return PromptCategoryHost
	case TargetAudienceGuest:
		return PromptCategoryGuest
	default:
		return PromptCategoryGeneral
	}
}

type ErrorKind string

const (
	ErrorKindCreation        ErrorKind = "CreationFailure"
	ErrorKindUpload          ErrorKind = "UploadFailure"
	ErrorKindPromptFetch     ErrorKind = "PromptFetchFailure"
	ErrorKindModelValidation ErrorKind = "ModelValidationFailure"
	ErrorKindModelInvocation ErrorKind = "ModelInvocationFailure"
	ErrorKindMerge           ErrorKind = "MergeFailure"
	ErrorKindTranscode       ErrorKind = "TranscodeFailure"
	ErrorKindCancellation    ErrorKind = "CancellationAbort"
)

func (k ErrorKind) String() string {
	return string(k)
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
