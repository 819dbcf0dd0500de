package hooks

// Name identifies a lifecycle hook.
type Name string

// Lifecycle hooks fired by the dispatch pipeline.
const (
	RequestStarted     Name = "RequestStarted"
	SessionStarted     Name = "SessionStarted"
	SessionEnded       Name = "SessionEnded"
	Error              Name = "Error"
	BeforeStateChanged Name = "BeforeStateChanged"
	AfterStateChanged  Name = "AfterStateChanged"
	BeforeReplySent    Name = "BeforeReplySent"
	UnhandledState     Name = "UnhandledState"
)

func (n Name) String() string { return string(n) }
