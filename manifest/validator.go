package manifest

import (
	"strconv"
	"strings"
)

// Validate checks an arbitrary decoded JSON value against the manifest
// schema. It is pure and total: for any input it returns either a fully
// populated Manifest or a *ValidationError listing every field failure in
// document order, and it never panics.
//
// The schema_version default is applied only after validation succeeds; a
// missing schema_version is not a validation failure, and a present one must
// still be a string.
func Validate(input any) (Manifest, error) {
	verr := &ValidationError{}

	doc, ok := input.(map[string]any)
	if !ok {
		verr.add("", "expected an object")
		return Manifest{}, verr
	}

	out := Manifest{}
	out.Name = requireString(doc, "name", verr)
	out.DID = requireString(doc, "did", verr)
	out.Operator = requireString(doc, "operator", verr)
	out.Commands = validateCommands(doc, verr)
	out.InteractionModes = validateInteractionModes(doc, verr)
	out.DM = validateDMPolicy(doc, verr)
	out.RateLimits = optionalMapping(doc, "rate_limits", verr)
	out.Tools = optionalStringSlice(doc, "tools", verr)
	out.Safety = validateSafety(doc, verr)
	out.SchemaVersion = optionalString(doc, "schema_version", verr)

	if len(verr.Fields) > 0 {
		return Manifest{}, verr
	}
	if strings.TrimSpace(out.SchemaVersion) == "" {
		out.SchemaVersion = DefaultSchemaVersion
	}
	return out, nil
}

func validateCommands(doc map[string]any, verr *ValidationError) []Command {
	raw, present := doc["commands"]
	if !present {
		verr.add("commands", "is required")
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		verr.add("commands", "must be an array")
		return nil
	}
	commands := make([]Command, 0, len(items))
	for i, item := range items {
		path := "commands." + strconv.Itoa(i)
		entry, ok := item.(map[string]any)
		if !ok {
			verr.add(path, "must be an object")
			continue
		}
		cmd := Command{
			Name:             requireString(entry, joinPath(path, "name"), verr, "name"),
			Description:      requireString(entry, joinPath(path, "description"), verr, "description"),
			ExampleMention:   optionalString(entry, joinPath(path, "example_mention"), verr, "example_mention"),
			ResponseContract: optionalString(entry, joinPath(path, "response_contract"), verr, "response_contract"),
		}
		cmd.ArgsSchema = optionalMapping(entry, joinPath(path, "args_schema"), verr, "args_schema")
		commands = append(commands, cmd)
	}
	return commands
}

func validateInteractionModes(doc map[string]any, verr *ValidationError) []InteractionMode {
	raw, present := doc["interaction_modes"]
	if !present {
		verr.add("interaction_modes", "is required")
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		verr.add("interaction_modes", "must be an array")
		return nil
	}
	modes := make([]InteractionMode, 0, len(items))
	for i, item := range items {
		path := "interaction_modes." + strconv.Itoa(i)
		value, ok := item.(string)
		if !ok {
			verr.add(path, "must be a string")
			continue
		}
		if !validInteractionMode(value) {
			verr.add(path, "must be one of mention, reply, dm, scheduled")
			continue
		}
		modes = append(modes, InteractionMode(value))
	}
	return modes
}

func validateDMPolicy(doc map[string]any, verr *ValidationError) *DMPolicy {
	raw, present := doc["dm"]
	if !present || raw == nil {
		return nil
	}
	entry, ok := raw.(map[string]any)
	if !ok {
		verr.add("dm", "must be an object")
		return nil
	}

	policy := &DMPolicy{
		PrivacyNote:        optionalString(entry, "dm.privacy_note", verr, "privacy_note"),
		OptOutInstructions: optionalString(entry, "dm.opt_out_instructions", verr, "opt_out_instructions"),
	}

	enabledRaw, present := entry["enabled"]
	if !present {
		verr.add("dm.enabled", "is required")
	} else if enabled, ok := enabledRaw.(bool); ok {
		policy.Enabled = enabled
	} else {
		verr.add("dm.enabled", "must be a boolean")
	}

	retentionRaw, present := entry["retention"]
	if !present {
		verr.add("dm.retention", "is required")
	} else if retention, ok := retentionRaw.(string); !ok {
		verr.add("dm.retention", "must be a string")
	} else if !validDMRetention(retention) {
		verr.add("dm.retention", "must be one of none, 7d, 30d")
	} else {
		policy.Retention = DMRetention(retention)
	}

	return policy
}

func validateSafety(doc map[string]any, verr *ValidationError) *Safety {
	raw, present := doc["safety"]
	if !present || raw == nil {
		return nil
	}
	entry, ok := raw.(map[string]any)
	if !ok {
		verr.add("safety", "must be an object")
		return nil
	}
	return &Safety{
		RefusalPolicy:     optionalString(entry, "safety.refusal_policy", verr, "refusal_policy"),
		DisallowedContent: optionalStringSlice(entry, "safety.disallowed_content", verr, "disallowed_content"),
		EscalationChannel: optionalString(entry, "safety.escalation_channel", verr, "escalation_channel"),
	}
}

// requireString reads doc[key] where key defaults to the last path segment.
// The optional override carries the lookup key when path and key differ.
func requireString(doc map[string]any, path string, verr *ValidationError, key ...string) string {
	lookup := lookupKey(path, key...)
	raw, present := doc[lookup]
	if !present {
		verr.add(path, "is required")
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		verr.add(path, "must be a string")
		return ""
	}
	return value
}

func optionalString(doc map[string]any, path string, verr *ValidationError, key ...string) string {
	lookup := lookupKey(path, key...)
	raw, present := doc[lookup]
	if !present || raw == nil {
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		verr.add(path, "must be a string")
		return ""
	}
	return value
}

func optionalMapping(doc map[string]any, path string, verr *ValidationError, key ...string) map[string]any {
	lookup := lookupKey(path, key...)
	raw, present := doc[lookup]
	if !present || raw == nil {
		return nil
	}
	value, ok := raw.(map[string]any)
	if !ok {
		verr.add(path, "must be an object")
		return nil
	}
	return value
}

func optionalStringSlice(doc map[string]any, path string, verr *ValidationError, key ...string) []string {
	lookup := lookupKey(path, key...)
	raw, present := doc[lookup]
	if !present || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		verr.add(path, "must be an array")
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		value, ok := item.(string)
		if !ok {
			verr.add(path+"."+strconv.Itoa(i), "must be a string")
			continue
		}
		out = append(out, value)
	}
	return out
}

func joinPath(path, segment string) string {
	if path == "" {
		return segment
	}
	return path + "." + segment
}

func lookupKey(path string, key ...string) string {
	if len(key) > 0 && key[0] != "" {
		return key[0]
	}
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
