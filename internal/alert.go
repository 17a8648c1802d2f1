package internal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome classifies how the relay disposed of one inbound webhook.
type Outcome string

const (
	OutcomeForwarded          Outcome = "forwarded"
	OutcomeSkippedEnvironment Outcome = "skipped_environment"
	OutcomeSkippedRules       Outcome = "skipped_rules"
	OutcomeValidationFailed   Outcome = "validation_failed"
	OutcomeDeliveryFailed     Outcome = "delivery_failed"
)

// Alert is the subset of a Sentry alert webhook payload the relay consumes.
// Environment, Project and Title are always present on a parsed alert; the
// remaining fields are empty when the payload does not carry them.
type Alert struct {
	ID          string
	Project     string
	Title       string
	Environment string
	Level       string
	Culprit     string
	URL         string
	Platform    string

	// RawObject is the decoded payload, used by JSONPath rule references.
	RawObject any
	// Data is the flattened payload, used by bare dotted rule references.
	Data map[string]any
}

// environmentPaths are the flattened keys probed for the deployment
// environment, most specific first.
var environmentPaths = []string{
	"event.environment",
	"event.tags.environment",
	"tags.environment",
	"environment",
}

// ParseAlert decodes a Sentry webhook body and extracts the fields the chat
// message is built from. It returns an error when the body is not a JSON
// object or when a required field (environment, project, title) is absent.
func ParseAlert(raw []byte) (Alert, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Alert{}, fmt.Errorf("body is not valid JSON: %w", err)
	}
	object, ok := decoded.(map[string]any)
	if !ok {
		return Alert{}, fmt.Errorf("body is not a JSON object")
	}

	data := Flatten(object)

	alert := Alert{
		ID:          stringAt(data, "id"),
		Project:     firstStringAt(data, "project_name", "project"),
		Title:       firstStringAt(data, "issue", "message", "event.title", "event.message"),
		Environment: strings.TrimSpace(firstStringAt(data, environmentPaths...)),
		Level:       firstStringAt(data, "level", "event.level"),
		Culprit:     firstStringAt(data, "culprit", "event.culprit"),
		URL:         stringAt(data, "url"),
		Platform:    firstStringAt(data, "event.platform", "platform"),
		RawObject:   decoded,
		Data:        data,
	}

	var missing []string
	if alert.Environment == "" {
		missing = append(missing, "environment")
	}
	if alert.Project == "" {
		missing = append(missing, "project")
	}
	if alert.Title == "" {
		missing = append(missing, "issue title")
	}
	if len(missing) > 0 {
		return Alert{}, fmt.Errorf("payload is missing required fields: %s", strings.Join(missing, ", "))
	}

	return alert, nil
}

func stringAt(data map[string]any, key string) string {
	value, ok := data[key].(string)
	if !ok {
		return ""
	}
	return value
}

func firstStringAt(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringAt(data, key); value != "" {
			return value
		}
	}
	return ""
}

// EnvironmentSet is the immutable allow-list of deployment environments.
// Membership is case-insensitive and whitespace-trimmed. The empty set
// contains nothing, so an unconfigured allow-list fails closed.
type EnvironmentSet struct {
	names   []string
	members map[string]bool
}

// NewEnvironmentSet builds an EnvironmentSet from already-normalized names.
func NewEnvironmentSet(names []string) *EnvironmentSet {
	set := &EnvironmentSet{
		names:   append([]string(nil), names...),
		members: make(map[string]bool, len(names)),
	}
	for _, name := range names {
		set.members[name] = true
	}
	return set
}

// Contains reports whether env is allow-listed.
func (s *EnvironmentSet) Contains(env string) bool {
	return s.members[strings.ToLower(strings.TrimSpace(env))]
}

// Names returns the configured environments in their original order.
func (s *EnvironmentSet) Names() []string {
	return append([]string(nil), s.names...)
}
