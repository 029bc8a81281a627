// ABOUTME: Tests for slot schemas, SlotSet filtering and result cloning
// ABOUTME: Verifies out-of-schema slots are dropped and clones are independent

package models

import (
	"reflect"
	"testing"
)

func TestSlotSet_Filter(t *testing.T) {
	set := SlotSet{
		SlotBranchID:     "A",
		SlotTimeRange:    "yesterday",
		SlotEmployeeName: "John",
		SlotKPIType:      "",
	}

	got := set.Filter(IntentKPIQuery)
	want := SlotSet{SlotBranchID: "A", SlotTimeRange: "yesterday"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}

	if len(set.Filter(IntentChitchat)) != 0 {
		t.Error("chitchat has no slot schema")
	}
}

func TestSlotSchema_ReturnsCopy(t *testing.T) {
	schema := SlotSchema(IntentKPIQuery)
	schema[0] = "tampered"
	if SlotSchema(IntentKPIQuery)[0] != SlotBranchID {
		t.Error("SlotSchema should not expose its backing table")
	}
}

func TestSlotSet_ValuesSortedByName(t *testing.T) {
	set := SlotSet{SlotTimeRange: "today", SlotBranchID: "B", SlotKPIType: "sales"}
	got := set.Values()
	want := []string{"B", "sales", "today"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
}

func TestPipelineResult_Clone(t *testing.T) {
	orig := PipelineResult{
		Intent:  IntentKPIQuery,
		Slots:   map[string]string{"branch_id": "A"},
		Sources: []string{"kpi_definitions"},
	}
	clone := orig.Clone()
	clone.Slots["branch_id"] = "B"
	clone.Sources[0] = "other"

	if orig.Slots["branch_id"] != "A" || orig.Sources[0] != "kpi_definitions" {
		t.Error("mutating the clone changed the original")
	}
}

func TestCollections(t *testing.T) {
	passages := []RetrievedPassage{
		{DocumentID: "1", Collection: "kpi_definitions"},
		{DocumentID: "2", Collection: "business_rules"},
		{DocumentID: "3", Collection: "kpi_definitions"},
	}
	got := Collections(passages)
	want := []string{"kpi_definitions", "business_rules"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Collections() = %v, want %v", got, want)
	}
	if got := Collections(nil); got == nil || len(got) != 0 {
		t.Errorf("Collections(nil) = %v, want empty non-nil slice", got)
	}
}
