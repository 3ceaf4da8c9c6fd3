package domain

// ReviewReason explains why a case was flagged for manual review
type ReviewReason string

const (
	ReviewNone               ReviewReason = ""
	ReviewBothEmpty          ReviewReason = "both_empty"
	ReviewMissingInput       ReviewReason = "missing_input"
	ReviewMissingOutput      ReviewReason = "missing_output"
	ReviewCrossContamination ReviewReason = "cross_contamination"
	ReviewLowConfidence      ReviewReason = "low_confidence"
)

// Message returns the text shown in the review banner
func (r ReviewReason) Message() string {
	switch r {
	case ReviewBothEmpty:
		return "input and output are both empty"
	case ReviewMissingInput:
		return "input is missing"
	case ReviewMissingOutput:
		return "output is missing"
	case ReviewCrossContamination:
		return "input and output sections look mixed up"
	case ReviewLowConfidence:
		return "split point was guessed, check where the input ends"
	default:
		return ""
	}
}

// ReviewNotice is one line of the review banner
type ReviewNotice struct {
	Index   int          `json:"index"` // zero-based position in the list
	Reason  ReviewReason `json:"reason"`
	Message string       `json:"message"`
}

// ReviewReason returns why the case is flagged, or ReviewNone
func (c TestCase) ReviewReason() ReviewReason {
	if !c.NeedsManualReview {
		return ReviewNone
	}
	switch {
	case c.IsEmpty():
		return ReviewBothEmpty
	case c.Input == "":
		return ReviewMissingInput
	case c.Output == "":
		return ReviewMissingOutput
	case c.contaminated():
		return ReviewCrossContamination
	default:
		return ReviewLowConfidence
	}
}

// ReviewNotices lists every flagged case with its reason
func (l TestCaseList) ReviewNotices() []ReviewNotice {
	var notices []ReviewNotice
	for i, c := range l {
		reason := c.ReviewReason()
		if reason == ReviewNone {
			continue
		}
		notices = append(notices, ReviewNotice{
			Index:   i,
			Reason:  reason,
			Message: reason.Message(),
		})
	}
	return notices
}
