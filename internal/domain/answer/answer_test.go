package answer

import (
	"testing"

	"github.com/kailas-cloud/bylawbot/internal/domain/bylaw"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		topic string
		want  Topic
	}{
		{"What permits do I need for a renovation?", ConstructionNoise},
		{"When can contractors start work?", ConstructionNoise},
		{"Can I use my leaf blower on Sunday?", LeafBlowers},
		{"My neighbour plays loud music", GeneralNoise},
		{"Do I need a permit to cut down a tree?", TreeRemoval},
		{"Where can my dog go off-leash?", DogControl},
		{"What is the setback for a garage?", Zoning},
		{"Street parking overnight", NoMatch},
		{"Removing two trees in the back yard", TreeRemoval},
		{"xyzzy", NoMatch},
		{"", NoMatch},
	}
	for _, tc := range tests {
		if got := Classify(tc.topic); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.topic, got, tc.want)
		}
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// Mentions construction, noise and trees: construction is checked first.
	if got := Classify("construction noise near a tree"); got != ConstructionNoise {
		t.Errorf("got %q, want %q", got, ConstructionNoise)
	}
	// "leaf blower noise" hits leaf blowers before general noise.
	if got := Classify("Leaf blower noise"); got != LeafBlowers {
		t.Errorf("got %q, want %q", got, LeafBlowers)
	}
}

func TestFor_NoMatchDefault(t *testing.T) {
	a := For("xyzzy")
	if a.Topic != NoMatch {
		t.Errorf("Topic = %q", a.Topic)
	}
	if len(a.Citations) != 0 {
		t.Errorf("no-match answer must not cite bylaws, got %v", a.Citations)
	}
}

func TestAnswers_CitationsAreVerified(t *testing.T) {
	for _, topic := range Topics() {
		a := Get(topic)
		if a.Topic != topic {
			t.Errorf("answer for %q has topic %q", topic, a.Topic)
		}
		if len(a.Citations) == 0 {
			t.Errorf("answer for %q has no citations", topic)
		}
		for _, c := range a.Citations {
			if !bylaw.IsVerified(c.BylawNumber) {
				t.Errorf("answer %q cites unverified bylaw %s", topic, c.BylawNumber)
			}
			if c.Title != bylaw.Title(c.BylawNumber) {
				t.Errorf("answer %q: title %q does not match table title %q",
					topic, c.Title, bylaw.Title(c.BylawNumber))
			}
			if c.Section == "" {
				t.Errorf("answer %q: citation of %s has no section", topic, c.BylawNumber)
			}
		}
	}
}

func TestTopics_SixInPriorityOrder(t *testing.T) {
	want := []Topic{ConstructionNoise, LeafBlowers, GeneralNoise, TreeRemoval, DogControl, Zoning}
	got := Topics()
	if len(got) != len(want) {
		t.Fatalf("expected %d topics, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Topics()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	a := Get(TreeRemoval)
	a.Details[0] = "changed"
	a.Citations[0].Section = "99"

	fresh := Get(TreeRemoval)
	if fresh.Details[0] == "changed" || fresh.Citations[0].Section == "99" {
		t.Errorf("canned answer mutated through a returned copy: %+v", fresh)
	}
}
