package schema

import "testing"

func TestVocabularyCode(t *testing.T) {
	cases := []struct {
		v     Vocabulary
		in    string
		want  int
		found bool
	}{
		{Sex, "Male", 1, true},
		{Sex, " f ", 0, true},
		{Smoker, "yes", 1, true},
		{Smoker, "non-smoker", 0, true},
		{Region, "SOUTHWEST", 3, true},
		{Region, "midwest", 0, false},
		{Claim, "no", 0, true},
	}
	for _, c := range cases {
		got, ok := c.v.Code(c.in)
		if ok != c.found || (ok && got != c.want) {
			t.Errorf("%s.Code(%q) = %d, %v", c.v.Column, c.in, got, ok)
		}
	}
}

func TestVocabulariesBindTarget(t *testing.T) {
	vs := Vocabularies("CLAIM_STATUS")
	if vs[len(vs)-1].Column != "CLAIM_STATUS" {
		t.Fatalf("claim vocabulary column = %q", vs[len(vs)-1].Column)
	}
	if Claim.Column != ColClaim {
		t.Fatal("package-level Claim vocabulary was modified")
	}
	if got := Region.Codes(); len(got) != 4 || got[0] != 0 || got[3] != 3 {
		t.Fatalf("Codes = %v", got)
	}
}
