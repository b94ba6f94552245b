package manifest

// DefaultSchemaVersion is applied to a manifest that omits schema_version,
// after validation of the remaining fields has succeeded.
const DefaultSchemaVersion = "1.0"

type InteractionMode string

const (
	InteractionModeMention   InteractionMode = "mention"
	InteractionModeReply     InteractionMode = "reply"
	InteractionModeDM        InteractionMode = "dm"
	InteractionModeScheduled InteractionMode = "scheduled"
)

// InteractionModes lists every accepted interaction mode in declaration order.
func InteractionModes() []InteractionMode {
	return []InteractionMode{
		InteractionModeMention,
		InteractionModeReply,
		InteractionModeDM,
		InteractionModeScheduled,
	}
}

func validInteractionMode(value string) bool {
	for _, mode := range InteractionModes() {
		if value == string(mode) {
			return true
		}
	}
	return false
}

type DMRetention string

const (
	DMRetentionNone     DMRetention = "none"
	DMRetentionSevenDay DMRetention = "7d"
	DMRetentionThirtyDay DMRetention = "30d"
)

func validDMRetention(value string) bool {
	switch DMRetention(value) {
	case DMRetentionNone, DMRetentionSevenDay, DMRetentionThirtyDay:
		return true
	}
	return false
}

// Command describes one invocable capability advertised by a bot. ArgsSchema
// is carried as an opaque mapping; its shape is the operator's contract with
// callers, not something this package interprets.
type Command struct {
	Name             string
	Description      string
	ArgsSchema       map[string]any
	ExampleMention   string
	ResponseContract string
}

type DMPolicy struct {
	Enabled            bool
	PrivacyNote        string
	Retention          DMRetention
	OptOutInstructions string
}

type Safety struct {
	RefusalPolicy     string
	DisallowedContent []string
	EscalationChannel string
}

// Manifest is the validated capability document a bot operator hosts. A value
// of this type only exists when every required field type-checked and every
// enum field matched its enumerated set; there is no partially-valid Manifest.
type Manifest struct {
	Name             string
	DID              string
	Operator         string
	Commands         []Command
	InteractionModes []InteractionMode
	DM               *DMPolicy
	RateLimits       map[string]any
	Tools            []string
	Safety           *Safety
	SchemaVersion    string
}

// DMEnabled reports whether the manifest opts the bot into direct messages.
func (m Manifest) DMEnabled() bool {
	return m.DM != nil && m.DM.Enabled
}

// DMRetentionValue returns the declared retention window, empty when the
// manifest carries no DM policy.
func (m Manifest) DMRetentionValue() string {
	if m.DM == nil {
		return ""
	}
	return string(m.DM.Retention)
}

// InteractionModeStrings returns the declared modes as plain strings, in
// document order and without dedup.
func (m Manifest) InteractionModeStrings() []string {
	if len(m.InteractionModes) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(m.InteractionModes))
	for _, mode := range m.InteractionModes {
		out = append(out, string(mode))
	}
	return out
}
