package expr

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// Sex labels after recoding from the numeric GTEx codes.
const (
	SexMale   = "male"
	SexFemale = "female"
)

// Sample is one row of per-sample annotation. Sex arrives from the catalog as
// the numeric code "1" or "2" and is recoded before any downstream use.
type Sample struct {
	SampleID      string `csv:"sample_id"`
	SubjectID     string `csv:"subject_id"`
	AgeBracket    string `csv:"age_bracket"`
	Sex           string `csv:"sex"`
	TissueSubsite string `csv:"tissue_subsite"`
}

// Metadata is an ordered collection of sample annotations. Order is
// meaningful: subject deduplication keeps the first sample per subject in
// this order.
type Metadata []Sample

// RecodeSex maps the numeric sex codes "1" and "2" to "male" and "female".
// Any other code indicates upstream corruption and fails rather than being
// coerced.
func RecodeSex(md Metadata) (Metadata, error) {
	out := make(Metadata, len(md))
	for i, s := range md {
		switch s.Sex {
		case "1":
			s.Sex = SexMale
		case "2":
			s.Sex = SexFemale
		default:
			return nil, pfx.Err(fmt.Errorf("%w: sample %q has unrecognized sex code %q", ErrInvalidInput, s.SampleID, s.Sex))
		}
		out[i] = s
	}
	return out, nil
}

// FilterTissue retains only samples whose tissue subsite equals subsite.
func (md Metadata) FilterTissue(subsite string) Metadata {
	out := make(Metadata, 0, len(md))
	for _, s := range md {
		if s.TissueSubsite == subsite {
			out = append(out, s)
		}
	}
	return out
}

// DedupSubjects retains the first sample per subject, in the original
// metadata order, guaranteeing at most one sample per subject.
func (md Metadata) DedupSubjects() Metadata {
	seen := make(map[string]struct{}, len(md))
	out := make(Metadata, 0, len(md))
	for _, s := range md {
		if _, dup := seen[s.SubjectID]; dup {
			continue
		}
		seen[s.SubjectID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SampleIDs returns the ordered sample identifier sequence.
func (md Metadata) SampleIDs() []string {
	ids := make([]string, len(md))
	for i, s := range md {
		ids[i] = s.SampleID
	}
	return ids
}

// SplitBySex partitions the column indices of samples (in metadata order)
// into female and male groups.
func (md Metadata) SplitBySex() (female, male []int) {
	for i, s := range md {
		switch s.Sex {
		case SexFemale:
			female = append(female, i)
		case SexMale:
			male = append(male, i)
		}
	}
	return female, male
}
