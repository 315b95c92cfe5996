package port

import (
	"reflect"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
)

func ruleList(listens ...string) []rules.Rule {
	list := make([]rules.Rule, len(listens))
	for i, l := range listens {
		list[i] = rules.Rule{Index: i + 1, Listen: l, Remote: "1.2.3.4:80"}
	}
	return list
}

func TestParse(t *testing.T) {
	tests := []struct {
		listen   string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"0.0.0.0:80", "0.0.0.0", 80, false},
		{"[::]:8080", "::", 8080, false},
		{"[0:0::0]:8080", "::", 8080, false},
		{"Example.COM:443", "example.com", 443, false},
		{"0.0.0.0", "", 0, true},
		{"0.0.0.0:0", "", 0, true},
		{"0.0.0.0:http", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.listen, func(t *testing.T) {
			host, p, err := Parse(tt.listen)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.listen, err, tt.wantErr)
			}
			if host != tt.wantHost || p != tt.wantPort {
				t.Errorf("Parse(%q) = %q, %d, want %q, %d", tt.listen, host, p, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestConflicts(t *testing.T) {
	tests := []struct {
		name string
		list []rules.Rule
		want []Conflict
	}{
		{
			name: "none",
			list: ruleList("0.0.0.0:80", "0.0.0.0:81", "[::]:82"),
			want: nil,
		},
		{
			name: "same address",
			list: ruleList("0.0.0.0:80", "0.0.0.0:80"),
			want: []Conflict{{Port: 80, Rules: []int{1, 2}}},
		},
		{
			name: "wildcard covers specific host",
			list: ruleList("10.0.0.1:80", "0.0.0.0:81", "[::]:80"),
			want: []Conflict{{Port: 80, Rules: []int{1, 3}}},
		},
		{
			name: "distinct hosts on one port",
			list: ruleList("10.0.0.1:80", "10.0.0.2:80"),
			want: nil,
		},
		{
			name: "grouped and sorted by port",
			list: ruleList("0.0.0.0:90", "0.0.0.0:80", "0.0.0.0:90", "1.1.1.1:80", "0.0.0.0:90"),
			want: []Conflict{
				{Port: 80, Rules: []int{2, 4}},
				{Port: 90, Rules: []int{1, 3, 5}},
			},
		},
		{
			name: "unparsable ignored",
			list: ruleList("", "0.0.0.0:80", "garbage"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Conflicts(tt.list)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Conflicts() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConflictString(t *testing.T) {
	c := Conflict{Port: 8080, Rules: []int{1, 3}}
	if got := c.String(); got != "port 8080 is used by rules 1, 3" {
		t.Errorf("String() = %q", got)
	}
}

func TestFree(t *testing.T) {
	list := ruleList("0.0.0.0:10000", "[::]:10001", "1.2.3.4:10003")

	p, err := Free(list, 10000, 10010)
	if err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	if p != 10002 {
		t.Errorf("Free() = %d, want 10002", p)
	}

	if _, err := Free(list, 10000, 10001); err == nil {
		t.Error("expected error when the range is exhausted")
	}

	p, err = Free(nil, 20000, 20000)
	if err != nil || p != 20000 {
		t.Errorf("Free(nil) = %d, %v", p, err)
	}
}
