// ABOUTME: Query router mapping an intent and its slots to a backend endpoint
// ABOUTME: Pure and total: every intent and slot combination yields a descriptor
package router

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/harper/retail-nlp/internal/models"
)

type requiredSlot struct {
	name     models.SlotName
	fallback string
	// param is the query-string name; empty means the slot fills a path placeholder
	param string
}

type optionalSlot struct {
	name  models.SlotName
	param string
}

type routeSpec struct {
	template string
	required []requiredSlot
	optional []optionalSlot
}

var routes = map[models.Intent]routeSpec{
	models.IntentKPIQuery: {
		template: "/kpis/branch/{branch_id}",
		required: []requiredSlot{
			{name: models.SlotBranchID, fallback: "all"},
			{name: models.SlotTimeRange, fallback: "today", param: "date"},
			{name: models.SlotKPIType, fallback: "general", param: "kpi_type"},
		},
	},
	models.IntentBranchStatus: {
		template: "/branches/{branch_id}",
		required: []requiredSlot{
			{name: models.SlotBranchID, fallback: "all"},
		},
		optional: []optionalSlot{
			{name: models.SlotTimeRange, param: "date"},
		},
	},
	models.IntentTaskQuery: {
		template: "/tasks",
		optional: []optionalSlot{
			{name: models.SlotEmployeeName, param: "assigned_to"},
			{name: models.SlotBranchID, param: "branch"},
		},
	},
	models.IntentEventQuery: {
		template: "/events",
		optional: []optionalSlot{
			{name: models.SlotEventType, param: "type"},
			{name: models.SlotTimeRange, param: "date"},
			{name: models.SlotBranchID, param: "branch"},
		},
	},
	models.IntentPromotionQuery: {
		template: "/promotions",
		optional: []optionalSlot{
			{name: models.SlotProductName, param: "product"},
			{name: models.SlotTimeRange, param: "date"},
			{name: models.SlotBranchID, param: "branch"},
		},
	},
}

// Route resolves the endpoint for intent. Intents without a route
// (chitchat, out_of_scope, unknown) yield a no-op descriptor.
func Route(intent models.Intent, slots models.SlotSet) models.RouteDescriptor {
	spec, ok := routes[intent]
	if !ok {
		return models.RouteDescriptor{Intent: intent, NoOp: true}
	}

	desc := models.RouteDescriptor{
		Intent:   intent,
		Method:   http.MethodGet,
		Template: spec.template,
	}

	path := spec.template
	for _, req := range spec.required {
		value := slots[req.name]
		if value == "" {
			value = req.fallback
			desc.Defaulted = append(desc.Defaulted, req.name)
		}
		if req.param == "" {
			if desc.PathParams == nil {
				desc.PathParams = map[string]string{}
			}
			desc.PathParams[string(req.name)] = value
			path = strings.ReplaceAll(path, "{"+string(req.name)+"}", url.PathEscape(value))
			continue
		}
		desc.QueryParams = append(desc.QueryParams, models.QueryParam{Name: req.param, Value: value})
	}

	for _, opt := range spec.optional {
		if value := slots[opt.name]; value != "" {
			desc.QueryParams = append(desc.QueryParams, models.QueryParam{Name: opt.param, Value: value})
		}
	}

	desc.Endpoint = path + encodeQuery(desc.QueryParams)
	return desc
}

// Required returns the slot names the route for intent needs
func Required(intent models.Intent) []models.SlotName {
	spec := routes[intent]
	out := make([]models.SlotName, len(spec.required))
	for i, r := range spec.required {
		out[i] = r.name
	}
	return out
}

// encodeQuery renders params in order; url.Values would sort them
func encodeQuery(params []models.QueryParam) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}
