package jsonval

import (
	"testing"
)

func TestDecodePreservesMemberOrder(t *testing.T) {
	doc := []byte(`{"zeta":1,"alpha":{"nested":"x"},"beta":[true,null,"s"]}`)
	v, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if v.Kind() != Object {
		t.Fatalf("kind = %v, want object", v.Kind())
	}
	members := v.Members()
	if len(members) != 3 {
		t.Fatalf("member count = %d, want 3", len(members))
	}
	wantKeys := []string{"zeta", "alpha", "beta"}
	for i, key := range wantKeys {
		if members[i].Key != key {
			t.Fatalf("member[%d].Key = %q, want %q", i, members[i].Key, key)
		}
	}
}

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind Kind
	}{
		{"null", `null`, Null},
		{"bool", `true`, Bool},
		{"number", `42.5`, Number},
		{"string", `"hi"`, String},
		{"array", `[1,2]`, Array},
		{"object", `{"a":1}`, Object},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Decode([]byte(tc.doc))
			if err != nil {
				t.Fatalf("Decode(%q) returned error: %v", tc.doc, err)
			}
			if v.Kind() != tc.kind {
				t.Fatalf("kind = %v, want %v", v.Kind(), tc.kind)
			}
		})
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	if _, err := Decode([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Fatalf("expected error for trailing data")
	}
}

func TestWalkVisitsDocumentOrder(t *testing.T) {
	doc := []byte(`{"first":"a","wrap":{"second":"b"},"list":["c","d"]}`)
	v, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	var got []string
	v.Walk(func(node Value) bool {
		if s, ok := node.Str(); ok {
			got = append(got, s)
		}
		return true
	})
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("visited %d strings, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visit order[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalkStopsEarly(t *testing.T) {
	v := ArrayValue(StringValue("a"), StringValue("b"), StringValue("c"))
	var seen int
	completed := v.Walk(func(node Value) bool {
		if _, ok := node.Str(); !ok {
			return true
		}
		seen++
		return seen < 2
	})
	if completed {
		t.Fatalf("expected early stop")
	}
	if seen != 2 {
		t.Fatalf("visited %d strings before stop, want 2", seen)
	}
}

func TestFieldLookup(t *testing.T) {
	v, err := Decode([]byte(`{"status":"queued","id":"job-1"}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	status, ok := v.FieldString("status")
	if !ok || status != "queued" {
		t.Fatalf("FieldString(status) = %q, %v", status, ok)
	}
	if _, ok := v.Field("missing"); ok {
		t.Fatalf("Field(missing) should not be found")
	}
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	doc := `{"b":1,"a":[true,null,"x"],"c":{"z":"y"}}`
	v, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON returned error: %v", err)
	}
	if string(out) != doc {
		t.Fatalf("MarshalJSON = %s, want %s", out, doc)
	}
}
