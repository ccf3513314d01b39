package expr

import (
	"errors"
	"testing"
)

func TestRecodeSex(t *testing.T) {
	type expectation struct {
		Code string
		Want string
		Err  bool
	}

	for _, v := range []expectation{
		{"1", SexMale, false},
		{"2", SexFemale, false},
		{"0", "", true},
		{"3", "", true},
		{"male", "", true},
		{"", "", true},
	} {
		md := Metadata{{SampleID: "S1", SubjectID: "P1", Sex: v.Code}}
		out, err := RecodeSex(md)

		if v.Err {
			if err == nil {
				t.Errorf("code %q: expected error, got none", v.Code)
			} else if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("code %q: expected ErrInvalidInput, got %v", v.Code, err)
			}
			continue
		}

		if err != nil {
			t.Fatalf("code %q: unexpected error %v", v.Code, err)
		}
		if out[0].Sex != v.Want {
			t.Errorf("code %q: got %q, want %q", v.Code, out[0].Sex, v.Want)
		}
	}
}

func TestRecodeSexDoesNotMutateInput(t *testing.T) {
	md := Metadata{{SampleID: "S1", SubjectID: "P1", Sex: "1"}}
	if _, err := RecodeSex(md); err != nil {
		t.Fatal(err)
	}
	if md[0].Sex != "1" {
		t.Errorf("input metadata was mutated: %q", md[0].Sex)
	}
}

func TestFilterTissue(t *testing.T) {
	md := Metadata{
		{SampleID: "S1", TissueSubsite: "Kidney - Cortex"},
		{SampleID: "S2", TissueSubsite: "Kidney - Medulla"},
		{SampleID: "S3", TissueSubsite: "Kidney - Cortex"},
	}

	got := md.FilterTissue("Kidney - Cortex")
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	for _, s := range got {
		if s.TissueSubsite != "Kidney - Cortex" {
			t.Errorf("sample %q has subsite %q after filtering", s.SampleID, s.TissueSubsite)
		}
	}
	if got[0].SampleID != "S1" || got[1].SampleID != "S3" {
		t.Errorf("order not preserved: %v", got.SampleIDs())
	}
}

func TestDedupSubjects(t *testing.T) {
	md := Metadata{
		{SampleID: "S1", SubjectID: "P1"},
		{SampleID: "S2", SubjectID: "P2"},
		{SampleID: "S3", SubjectID: "P1"},
		{SampleID: "S4", SubjectID: "P3"},
		{SampleID: "S5", SubjectID: "P2"},
	}

	got := md.DedupSubjects()

	counts := make(map[string]int)
	for _, s := range got {
		counts[s.SubjectID]++
	}
	for subject, n := range counts {
		if n != 1 {
			t.Errorf("subject %q retained %d samples, want exactly 1", subject, n)
		}
	}

	// First sample per subject, in original order.
	want := []string{"S1", "S2", "S4"}
	ids := got.SampleIDs()
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestSplitBySex(t *testing.T) {
	md := Metadata{
		{SampleID: "S1", Sex: SexFemale},
		{SampleID: "S2", Sex: SexMale},
		{SampleID: "S3", Sex: SexFemale},
	}

	female, male := md.SplitBySex()
	if len(female) != 2 || female[0] != 0 || female[1] != 2 {
		t.Errorf("female indices: got %v, want [0 2]", female)
	}
	if len(male) != 1 || male[0] != 1 {
		t.Errorf("male indices: got %v, want [1]", male)
	}
}
