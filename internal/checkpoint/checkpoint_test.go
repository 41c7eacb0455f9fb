package checkpoint

import "testing"

func TestIsAI(t *testing.T) {
	human := Checkpoint{Kind: Human}
	ai := Checkpoint{Kind: AI}
	if human.IsAI() {
		t.Fatal("human checkpoint reported as AI")
	}
	if !ai.IsAI() {
		t.Fatal("AI checkpoint not reported as AI")
	}
}
