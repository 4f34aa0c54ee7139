package swarm

import "testing"

func TestAchieveConsensus_Unanimous(t *testing.T) {
	res := AchieveConsensus([]any{"yes", "yes", "yes"}, 0.66)

	if !res.Achieved || res.Confidence != 1.0 || res.Votes != 3 || res.Total != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Result != "yes" {
		t.Errorf("expected yes, got %v", res.Result)
	}
}

func TestAchieveConsensus_SplitBelowThreshold(t *testing.T) {
	res := AchieveConsensus([]any{"A", "B", "A"}, 0.7)

	if res.Achieved {
		t.Error("2/3 must not reach threshold 0.7")
	}
	if res.Votes != 2 || res.Total != 3 || res.Result != "A" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestAchieveConsensus_TieBreakFirstOccurrence(t *testing.T) {
	res := AchieveConsensus([]any{"B", "A", "A", "B"}, 0.5)

	if res.Result != "B" {
		t.Errorf("expected first-seen B to win tie, got %v", res.Result)
	}
	if !res.Achieved || res.Confidence != 0.5 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestAchieveConsensus_CanonicalMaps(t *testing.T) {
	// Одинаковые map с разным порядком вставки и int/float64 представлением
	a := map[string]any{"x": 1, "y": "z"}
	b := map[string]any{"y": "z", "x": 1.0}

	res := AchieveConsensus([]any{a, b, "other"}, 0.6)
	if res.Votes != 2 || !res.Achieved {
		t.Errorf("expected maps to be equal votes, got %+v", res)
	}
}

func TestAchieveConsensus_Empty(t *testing.T) {
	res := AchieveConsensus(nil, 0.5)
	if res.Achieved || res.Confidence != 0 || res.Total != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}
