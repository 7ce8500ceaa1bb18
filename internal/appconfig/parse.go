package appconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// configPayload is the wrapper shape used by the console API and by seed
// files: the groups live under a configGroups key.
type configPayload struct {
	ConfigGroups []ConfigGroup `json:"configGroups" yaml:"config_groups"`
}

// ParseGroups decodes a schema tree from raw payload data. JSON payloads are
// detected by their leading byte; everything else is treated as YAML. Both a
// bare group list and the {configGroups: [...]} wrapper are accepted.
func ParseGroups(data []byte) ([]ConfigGroup, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty config payload")
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		return parseJSONGroups(trimmed)
	}
	return parseYAMLGroups(trimmed)
}

func parseJSONGroups(data []byte) ([]ConfigGroup, error) {
	if data[0] == '[' {
		var groups []ConfigGroup
		if err := json.Unmarshal(data, &groups); err != nil {
			return nil, fmt.Errorf("failed to parse config groups: %w", err)
		}
		return groups, nil
	}

	var payload configPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse config payload: %w", err)
	}
	if payload.ConfigGroups == nil {
		return nil, fmt.Errorf("config payload has no configGroups key")
	}
	return payload.ConfigGroups, nil
}

func parseYAMLGroups(data []byte) ([]ConfigGroup, error) {
	// Try the wrapper shape first, then a bare list.
	var payload configPayload
	if err := yaml.Unmarshal(data, &payload); err == nil && payload.ConfigGroups != nil {
		return payload.ConfigGroups, nil
	}

	var groups []ConfigGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse config payload: %w", err)
	}
	return groups, nil
}

// ValidateGroups checks the schema-tree invariants after deserializing a
// server payload. Returns a slice of violations (empty if valid):
//   - group names are unique within the tree
//   - item names are unique within their group
//   - per-instance keys are unique per ValuesByGroup bucket (guaranteed by
//     the map shape, but counts must not disagree with bucket sizes)
func ValidateGroups(groups []ConfigGroup) []error {
	var errs []error

	seenGroups := make(map[string]bool, len(groups))
	for gi := range groups {
		group := &groups[gi]
		if group.Name == "" {
			errs = append(errs, fmt.Errorf("group at index %d has no name", gi))
			continue
		}
		if seenGroups[group.Name] {
			errs = append(errs, fmt.Errorf("duplicate group name %q", group.Name))
		}
		seenGroups[group.Name] = true

		seenItems := make(map[string]bool, len(group.Items))
		for ii := range group.Items {
			item := &group.Items[ii]
			if item.Name == "" {
				errs = append(errs, fmt.Errorf("group %q: item at index %d has no name", group.Name, ii))
				continue
			}
			if seenItems[item.Name] {
				errs = append(errs, fmt.Errorf("group %q: duplicate item name %q", group.Name, item.Name))
			}
			seenItems[item.Name] = true

			for bucketGroup, bucket := range item.ValuesByGroup {
				count, ok := item.CountByGroup[bucketGroup]
				if ok && count < len(bucket) {
					errs = append(errs, fmt.Errorf("group %q: item %q: count %d below %d live instances for group %q",
						group.Name, item.Name, count, len(bucket), bucketGroup))
				}
			}
		}
	}

	return errs
}

// MarshalPayload encodes a tree in the wrapper shape used by the console API.
func MarshalPayload(groups []ConfigGroup) ([]byte, error) {
	data, err := json.Marshal(configPayload{ConfigGroups: groups})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config payload: %w", err)
	}
	return data, nil
}
