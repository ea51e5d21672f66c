package http

import (
	"sort"
	"testing"
)

func TestVoteFilter(t *testing.T) {
	f := &voteFilter{ids: map[string]struct{}{}}

	if !f.allows("any") {
		t.Fatal("empty filter must allow every fountain")
	}

	f.add("f1")
	f.add("f2")
	if !f.allows("f1") || f.allows("f3") {
		t.Error("filter must only allow subscribed fountains")
	}

	got := f.list()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "f1" || got[1] != "f2" {
		t.Errorf("unexpected list %v", got)
	}

	f.remove("f1")
	if f.allows("f1") || !f.allows("f2") {
		t.Error("remove must drop only f1")
	}

	f.remove("")
	if !f.allows("f3") {
		t.Error("clearing the filter must allow every fountain again")
	}
}
