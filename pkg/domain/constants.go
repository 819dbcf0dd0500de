package domain

// Reserved state names.
const (
	// StateEntry is the synthetic root state every fresh session starts from.
	// It is also the Enter key holding a state's default handler.
	StateEntry = "entry"

	// StateDie is the terminal sentinel. A persisted "die" resumes at StateEntry.
	StateDie = "die"
)

// Session attribute layout.
const (
	// KeyModel is the session attribute holding the serialized conversation model.
	KeyModel = "model"

	// KeyState is the field inside the serialized model naming the last resolved state.
	KeyState = "_state"
)

// Standard request types understood by the dispatch pipeline.
const (
	RequestIntent       = "IntentRequest"
	RequestSessionEnded = "SessionEndedRequest"
	RequestLaunch       = "LaunchRequest"
)

// SessionEndedReasonError is reported by a transport when the session ended abnormally.
const SessionEndedReasonError = "ERROR"

// IntentLaunch is the intent name transports map LaunchRequest events onto.
const IntentLaunch = "LaunchIntent"
