package cache

import (
	"strings"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "procedure with null input",
			key: Key{
				Procedure: "mobile.getGames",
				Input:     `{"0":{"json":null}}`,
			},
			want: `emuready:mobile.getGames:{"0":{"json":null}}`,
		},
		{
			name: "procedure with paging input",
			key: Key{
				Procedure: "mobile.getListings",
				Input:     `{"0":{"json":{"limit":20,"page":2}}}`,
			},
			want: `emuready:mobile.getListings:{"0":{"json":{"limit":20,"page":2}}}`,
		},
		{
			name: "empty input",
			key: Key{
				Procedure: "mobile.getGameById",
			},
			want: "emuready:mobile.getGameById:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_String_LongInputHashed(t *testing.T) {
	long := `{"0":{"json":{"search":"` + strings.Repeat("x", 300) + `"}}}`
	key := Key{Procedure: "mobile.getGames", Input: long}

	got := key.String()
	if !strings.HasPrefix(got, "emuready:mobile.getGames:sha256=") {
		t.Errorf("String() = %q, want hashed input", got)
	}
	if len(got) > 120 {
		t.Errorf("hashed key too long: %d", len(got))
	}

	other := Key{Procedure: "mobile.getGames", Input: long + " "}
	if other.String() == got {
		t.Error("different inputs must give different keys")
	}
}

func TestKey_Deterministic(t *testing.T) {
	key := Key{Procedure: "mobile.getGames", Input: `{"0":{"json":{"limit":20}}}`}

	first := key.String()
	for i := 0; i < 100; i++ {
		if got := key.String(); got != first {
			t.Errorf("iteration %d: String() = %q, want %q", i, got, first)
		}
	}
}

func TestProcedurePattern(t *testing.T) {
	if got := procedurePattern(""); got != "emuready:*" {
		t.Errorf("procedurePattern(\"\") = %q", got)
	}
	if got := procedurePattern("mobile.getGames"); got != "emuready:mobile.getGames:*" {
		t.Errorf("procedurePattern() = %q", got)
	}
}
