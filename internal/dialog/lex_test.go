package dialog

import (
	"encoding/json"
	"testing"
)

func TestSlotValue_Decode(t *testing.T) {
	raw := `{
		"Location": {"shape":"Scalar","value":{"originalValue":"nyc","interpretedValue":"New York","resolvedValues":["New York"]}},
		"Cuisine": "Italian",
		"DiningTime": null,
		"NumberOfPeople": {"value":{"originalValue":"x"}},
		"Email": "   "
	}`
	var slots Slots
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := slots["Location"].Value(); !ok || v != "New York" {
		t.Fatalf("Location = %q,%v", v, ok)
	}
	if v, ok := slots["Cuisine"].Value(); !ok || v != "Italian" {
		t.Fatalf("Cuisine = %q,%v", v, ok)
	}
	if slots["DiningTime"] != nil {
		t.Fatalf("null slot should decode to nil")
	}
	if _, ok := slots["NumberOfPeople"].Value(); ok {
		t.Fatalf("wrapper without interpretedValue should be unset")
	}
	if slots["Email"].Ptr() != nil {
		t.Fatalf("blank slot should be unset")
	}
	if _, ok := slots["Missing"].Value(); ok {
		t.Fatalf("absent slot should be unset")
	}
}

func TestSlotValue_EchoesRawJSON(t *testing.T) {
	in := `{"Location":{"shape":"Scalar","value":{"interpretedValue":"Boston"}},"Cuisine":"Chinese","Email":null}`
	var slots Slots
	if err := json.Unmarshal([]byte(in), &slots); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(slots)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var a, b map[string]any
	_ = json.Unmarshal([]byte(in), &a)
	_ = json.Unmarshal(out, &b)
	if len(a) != len(b) {
		t.Fatalf("echo changed slot set: %s", out)
	}
	loc := b["Location"].(map[string]any)
	if loc["shape"] != "Scalar" {
		t.Fatalf("wrapper fields not echoed: %s", out)
	}
	if b["Cuisine"] != "Chinese" || b["Email"] != nil {
		t.Fatalf("unexpected echo: %s", out)
	}
}

func TestNewSlotValue_WrapperShape(t *testing.T) {
	b, err := json.Marshal(NewSlotValue("Seattle"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back SlotValue
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := back.Value(); !ok || v != "Seattle" {
		t.Fatalf("round trip = %q,%v (json %s)", v, ok, b)
	}
}

func TestResponse_Helpers(t *testing.T) {
	r := Response{SessionState: SessionState{DialogAction: &DialogAction{Type: ActionClose}}, Messages: plainText("bye")}
	if !r.Terminal() {
		t.Fatalf("Close should be terminal")
	}
	if m, ok := r.FirstMessage(); !ok || m != "bye" {
		t.Fatalf("FirstMessage = %q,%v", m, ok)
	}
	if _, ok := (Response{}).FirstMessage(); ok {
		t.Fatalf("empty response has no message")
	}
	if (Response{}).Terminal() {
		t.Fatalf("missing action is not terminal")
	}
}
