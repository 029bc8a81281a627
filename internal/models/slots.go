// ABOUTME: Slot names, per-intent slot schemas and the SlotSet mapping
// ABOUTME: Slots outside an intent's schema are dropped, never routed
package models

import "sort"

// SlotName is a named parameter extracted from a query
type SlotName string

const (
	SlotBranchID     SlotName = "branch_id"
	SlotTimeRange    SlotName = "time_range"
	SlotKPIType      SlotName = "kpi_type"
	SlotEventType    SlotName = "event_type"
	SlotEmployeeName SlotName = "employee_name"
	SlotProductName  SlotName = "product_name"
)

var slotSchemas = map[Intent][]SlotName{
	IntentKPIQuery:       {SlotBranchID, SlotTimeRange, SlotKPIType},
	IntentBranchStatus:   {SlotBranchID, SlotTimeRange},
	IntentTaskQuery:      {SlotEmployeeName, SlotBranchID},
	IntentEventQuery:     {SlotEventType, SlotTimeRange, SlotBranchID},
	IntentPromotionQuery: {SlotProductName, SlotTimeRange, SlotBranchID},
}

// SlotSchema returns the legal slot names for an intent (empty for chitchat and friends)
func SlotSchema(intent Intent) []SlotName {
	schema := slotSchemas[intent]
	out := make([]SlotName, len(schema))
	copy(out, schema)
	return out
}

// InSchema reports whether name is legal for intent
func InSchema(intent Intent, name SlotName) bool {
	for _, n := range slotSchemas[intent] {
		if n == name {
			return true
		}
	}
	return false
}

// SlotSet maps slot names to normalized values
type SlotSet map[SlotName]string

// Filter returns a copy holding only the non-empty slots legal for intent
func (s SlotSet) Filter(intent Intent) SlotSet {
	out := SlotSet{}
	for name, value := range s {
		if value != "" && InSchema(intent, name) {
			out[name] = value
		}
	}
	return out
}

// Clone returns an independent copy
func (s SlotSet) Clone() SlotSet {
	out := make(SlotSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Names returns slot names in sorted order
func (s SlotSet) Names() []SlotName {
	names := make([]SlotName, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Values returns slot values ordered by slot name
func (s SlotSet) Values() []string {
	values := make([]string, 0, len(s))
	for _, name := range s.Names() {
		values = append(values, s[name])
	}
	return values
}

// Strings converts the set to a plain string map for output
func (s SlotSet) Strings() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[string(k)] = v
	}
	return out
}
