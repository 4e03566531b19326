package models

import "slices"

// Status is a prospect's position in the outreach lifecycle.
type Status string

const (
	StatusNew              Status = "new"
	StatusEnriched         Status = "enriched"
	StatusScoring          Status = "scoring"
	StatusQualified        Status = "qualified"
	StatusContacted        Status = "contacted"
	StatusMeetingScheduled Status = "meeting_scheduled"
	StatusCompleted        Status = "completed"
	StatusRejected         Status = "rejected"
)

// transitions is the complete lifecycle graph. Any pair not listed here is
// illegal; completed and rejected have no outgoing edges.
var transitions = map[Status][]Status{
	StatusNew:              {StatusEnriched, StatusRejected},
	StatusEnriched:         {StatusScoring, StatusRejected},
	StatusScoring:          {StatusQualified, StatusRejected},
	StatusQualified:        {StatusContacted, StatusRejected},
	StatusContacted:        {StatusMeetingScheduled, StatusRejected},
	StatusMeetingScheduled: {StatusCompleted, StatusRejected},
	StatusCompleted:        nil,
	StatusRejected:         nil,
}

// AllStatuses lists every lifecycle state in pipeline order.
func AllStatuses() []Status {
	return []Status{
		StatusNew, StatusEnriched, StatusScoring, StatusQualified,
		StatusContacted, StatusMeetingScheduled, StatusCompleted, StatusRejected,
	}
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// AllowedTargets returns a copy of the states reachable from s in one step.
func (s Status) AllowedTargets() []Status {
	return slices.Clone(transitions[s])
}

func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(transitions[s], target)
}

func (s Status) String() string { return string(s) }

// Intent classifies a prospect's reply to outreach.
type Intent string

const (
	IntentInterestedNow   Intent = "interested_now"
	IntentInterestedLater Intent = "interested_later"
	IntentObjectionPrice  Intent = "objection_price"
	IntentObjectionTiming Intent = "objection_timing"
	IntentPoliteDecline   Intent = "polite_decline"
	IntentNotInterested   Intent = "not_interested"
	IntentOutOfOffice     Intent = "out_of_office"
	IntentWrongPerson     Intent = "wrong_person"
)

func (i Intent) IsValid() bool {
	switch i {
	case IntentInterestedNow, IntentInterestedLater, IntentObjectionPrice, IntentObjectionTiming,
		IntentPoliteDecline, IntentNotInterested, IntentOutOfOffice, IntentWrongPerson:
		return true
	}
	return false
}
