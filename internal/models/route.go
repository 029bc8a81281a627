// ABOUTME: Route descriptor produced by the query router
// ABOUTME: A pure derivation of intent and slots, never an external call
package models

// QueryParam is one rendered query-string parameter; order is significant
type QueryParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RouteDescriptor names the backend endpoint a query resolves to
type RouteDescriptor struct {
	Intent      Intent            `json:"intent"`
	Method      string            `json:"method,omitempty"`
	Template    string            `json:"template"`
	PathParams  map[string]string `json:"path_params,omitempty"`
	QueryParams []QueryParam      `json:"query_params,omitempty"`
	Endpoint    string            `json:"endpoint"`
	// Defaulted lists required slots the router filled with default tokens
	Defaulted []SlotName `json:"defaulted,omitempty"`
	NoOp      bool       `json:"no_op"`
}

// DefaultedNames returns the defaulted slot names as strings
func (r RouteDescriptor) DefaultedNames() []string {
	out := make([]string, len(r.Defaulted))
	for i, n := range r.Defaulted {
		out[i] = string(n)
	}
	return out
}
