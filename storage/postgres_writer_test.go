package storage

import "testing"

func TestCandidateArgsMatchInsertColumns(t *testing.T) {
	c := sampleCandidate()
	args := candidateArgs("run-1", c)

	if len(args) != len(candidateInsertColumns) {
		t.Fatalf("args = %d values for %d columns", len(args), len(candidateInsertColumns))
	}

	byColumn := make(map[string]interface{}, len(args))
	for i, col := range candidateInsertColumns {
		byColumn[col] = args[i]
	}

	if byColumn["run_id"] != "run-1" || byColumn["listing_id"] != "2401" {
		t.Errorf("identity columns misaligned: %v / %v", byColumn["run_id"], byColumn["listing_id"])
	}
	if byColumn["sale_won"] != int64(300_000_000) {
		t.Errorf("sale_won = %v", byColumn["sale_won"])
	}
	if byColumn["gap_amount_won"] != int64(-50_000_000) {
		t.Errorf("gap_amount_won = %v", byColumn["gap_amount_won"])
	}
	// The stored ratio is the candidate's own (gap over sale), never a
	// re-derivation.
	if byColumn["gap_ratio"] != c.GapRatio {
		t.Errorf("gap_ratio = %v, want %v", byColumn["gap_ratio"], c.GapRatio)
	}
	if byColumn["prev_lease_won"] != interface{}(int64(350_000_000)) {
		t.Errorf("prev_lease_won = %v", byColumn["prev_lease_won"])
	}
}

func TestCandidateArgsAbsentFactsAreNull(t *testing.T) {
	c := sampleCandidate()
	c.Detail.HasPrevLease = false
	c.Detail.HasLeaseMax = false
	c.Detail.HasLeaseMin = false

	args := candidateArgs("run-1", c)
	byColumn := make(map[string]interface{}, len(args))
	for i, col := range candidateInsertColumns {
		byColumn[col] = args[i]
	}

	for _, col := range []string{"prev_lease_won", "lease_max_won", "lease_min_won"} {
		if byColumn[col] != nil {
			t.Errorf("%s = %v, want NULL for absent fact", col, byColumn[col])
		}
	}
}
