package workflow

import "testing"

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```json\n{\"sql\": \"select 1\"}\n```", "{\"sql\": \"select 1\"}"},
		{"```\nplain\n```", "plain"},
		{"no fences here", "no fences here"},
		{"```json\n{\"a\": 1}", "{\"a\": 1}"}, // unterminated fence
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeModelJSONDirect(t *testing.T) {
	var parsed generationResponse
	if !decodeModelJSON(`{"sql": "select * from orders", "explanation": "ok"}`, &parsed) {
		t.Fatal("direct parse failed")
	}
	if parsed.SQL != "select * from orders" || parsed.Explanation != "ok" {
		t.Errorf("unexpected parse result: %+v", parsed)
	}
}

func TestDecodeModelJSONEmbedded(t *testing.T) {
	text := `Sure! Here is the query you asked for:
{"sql": "select name from customers", "explanation": "braces { inside } strings"}
Let me know if you need anything else.`

	var parsed generationResponse
	if !decodeModelJSON(text, &parsed) {
		t.Fatal("embedded object parse failed")
	}
	if parsed.SQL != "select name from customers" {
		t.Errorf("unexpected sql: %q", parsed.SQL)
	}
}

func TestDecodeModelJSONFailure(t *testing.T) {
	var parsed generationResponse
	if decodeModelJSON("SELECT * FROM orders", &parsed) {
		t.Error("plain sql must not parse as JSON")
	}
	if decodeModelJSON("{broken json", &parsed) {
		t.Error("unbalanced braces must not parse")
	}
}

func TestFirstJSONObject(t *testing.T) {
	obj, ok := firstJSONObject(`prefix {"a": {"b": "}"}} suffix`)
	if !ok {
		t.Fatal("expected to find an object")
	}
	if obj != `{"a": {"b": "}"}}` {
		t.Errorf("unexpected object: %q", obj)
	}

	if _, ok := firstJSONObject("no braces"); ok {
		t.Error("expected no object without braces")
	}
	if _, ok := firstJSONObject(`{"never": "closed"`); ok {
		t.Error("expected no object for unbalanced input")
	}
}

func TestFencedResponseRecovery(t *testing.T) {
	// Full pipeline of the generation recovery: fenced strict JSON
	raw := "```json\n{\"sql\":\"select * from orders\",\"explanation\":\"ok\"}\n```"

	text := stripCodeFences(raw)
	var parsed generationResponse
	if !decodeModelJSON(text, &parsed) {
		t.Fatal("fenced response must parse after stripping")
	}
	if parsed.SQL != "select * from orders" {
		t.Errorf("expected exact sql recovery, got %q", parsed.SQL)
	}
}

func TestEnforceSelectPrefix(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"  select * from t", "select * from t"},
		{"WITH x AS (SELECT 1) SELECT * FROM x", "SELECT WITH x AS (SELECT 1) SELECT * FROM x"},
		{"region FROM sales", "SELECT region FROM sales"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := enforceSelectPrefix(tc.in); got != tc.want {
			t.Errorf("enforceSelectPrefix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
