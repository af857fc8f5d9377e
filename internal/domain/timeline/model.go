package timeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// APITimeLayout matches the timestamp format of the timeline endpoint.
const APITimeLayout = "2006-01-02T15:04:05-0700"

// Subject identifies the kind of item a timeline event refers to.
type Subject string

const (
	SubjectUserStory Subject = "userstory"
	SubjectTask      Subject = "task"
	SubjectIssue     Subject = "issue"
)

// Label returns the name used in rendered descriptions.
func (s Subject) Label() string {
	switch s {
	case SubjectUserStory:
		return "User Story"
	case SubjectTask:
		return "Task"
	case SubjectIssue:
		return "Issue"
	}
	return string(s)
}

// Action identifies what happened to the item.
type Action string

const (
	ActionCreate Action = "create"
	ActionChange Action = "change"
	ActionDelete Action = "delete"
)

// EventType is the parsed form of the wire tag, e.g. "tasks.task.change".
// Only the nine subject/action combinations below are recognized.
type EventType struct {
	Subject Subject
	Action  Action
}

var subjectPrefixes = map[Subject]string{
	SubjectUserStory: "userstories.userstory",
	SubjectTask:      "tasks.task",
	SubjectIssue:     "issues.issue",
}

var eventTypes = func() map[string]EventType {
	m := make(map[string]EventType, 9)
	for subject, prefix := range subjectPrefixes {
		for _, action := range []Action{ActionCreate, ActionChange, ActionDelete} {
			m[prefix+"."+string(action)] = EventType{Subject: subject, Action: action}
		}
	}
	return m
}()

// ParseEventType maps a wire tag to its EventType.
func ParseEventType(s string) (EventType, error) {
	et, ok := eventTypes[s]
	if !ok {
		return EventType{}, fmt.Errorf("%w: %q", ErrUnknownEventType, s)
	}
	return et, nil
}

func (t EventType) String() string {
	return subjectPrefixes[t.Subject] + "." + string(t.Action)
}

// Item is the backlog item a timeline event refers to.
type Item struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
	Ref     int    `json:"ref"`
}

// Member is the user who performed the event.
type Member struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo,omitempty"`
}

// Event is the variant payload of a timeline entry. Exactly one concrete
// type exists per subject kind, so a mismatched item cannot be dereferenced.
type Event interface {
	Item() Item
	subject() Subject
}

// UserStoryEvent carries the user story an event refers to.
type UserStoryEvent struct {
	UserStory Item
}

func (e UserStoryEvent) Item() Item       { return e.UserStory }
func (e UserStoryEvent) subject() Subject { return SubjectUserStory }

// TaskEvent carries the task an event refers to.
type TaskEvent struct {
	Task Item
}

func (e TaskEvent) Item() Item       { return e.Task }
func (e TaskEvent) subject() Subject { return SubjectTask }

// IssueEvent carries the issue an event refers to.
type IssueEvent struct {
	Issue Item
}

func (e IssueEvent) Item() Item       { return e.Issue }
func (e IssueEvent) subject() Subject { return SubjectIssue }

// Entry is a single audit-log record of a project's timeline. Timestamps
// carry second precision; listings order by calendar date only.
type Entry struct {
	ID          int
	ContentType int
	EventType   EventType
	CreatedAt   time.Time
	Actor       Member
	Event       Event
	ProjectID   int
}

// Description renders the entry for display, dereferencing the item carried
// by the populated event variant.
func (e *Entry) Description() string {
	if e.Event == nil {
		return "Unable to parse timeline entry details"
	}

	var verb string
	switch e.EventType.Action {
	case ActionCreate:
		verb = "Created a new"
	case ActionChange:
		verb = "Updated the"
	case ActionDelete:
		verb = "Deleted the"
	default:
		return "Unable to parse timeline entry details"
	}

	item := e.Event.Item()
	return fmt.Sprintf("%s %s #%d %s", verb, e.EventType.Subject.Label(), item.Ref, item.Subject)
}

type wireData struct {
	User      Member `json:"user"`
	UserStory *Item  `json:"userstory,omitempty"`
	Task      *Item  `json:"task,omitempty"`
	Issue     *Item  `json:"issue,omitempty"`
}

func (d *wireData) event(et EventType) (Event, error) {
	switch et.Subject {
	case SubjectUserStory:
		if d.UserStory == nil {
			return nil, fmt.Errorf("%w: no userstory item for %s", ErrPayloadMismatch, et)
		}
		return UserStoryEvent{UserStory: *d.UserStory}, nil
	case SubjectTask:
		if d.Task == nil {
			return nil, fmt.Errorf("%w: no task item for %s", ErrPayloadMismatch, et)
		}
		return TaskEvent{Task: *d.Task}, nil
	case SubjectIssue:
		if d.Issue == nil {
			return nil, fmt.Errorf("%w: no issue item for %s", ErrPayloadMismatch, et)
		}
		return IssueEvent{Issue: *d.Issue}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, et)
}

func payloadOf(actor Member, ev Event) wireData {
	data := wireData{User: actor}
	item := ev.Item()
	switch ev.subject() {
	case SubjectUserStory:
		data.UserStory = &item
	case SubjectTask:
		data.Task = &item
	case SubjectIssue:
		data.Issue = &item
	}
	return data
}

// EncodePayload serializes the actor and event variant to the wire data
// object, as stored in the local data column.
func EncodePayload(e *Entry) ([]byte, error) {
	if e.Event == nil {
		return nil, fmt.Errorf("%w: entry %d has no event", ErrPayloadMismatch, e.ID)
	}
	return json.Marshal(payloadOf(e.Actor, e.Event))
}

// DecodePayload parses a stored data object, selecting the event variant
// dictated by the entry's event type.
func DecodePayload(raw []byte, et EventType) (Member, Event, error) {
	var data wireData
	if err := json.Unmarshal(raw, &data); err != nil {
		return Member{}, nil, fmt.Errorf("decoding timeline payload: %w", err)
	}
	ev, err := data.event(et)
	if err != nil {
		return Member{}, nil, err
	}
	return data.User, ev, nil
}

type wireEntry struct {
	ID          int      `json:"id"`
	ContentType int      `json:"content_type"`
	EventType   string   `json:"event_type"`
	Created     string   `json:"created"`
	Data        wireData `json:"data"`
	Project     int      `json:"project"`
}

// UnmarshalJSON decodes an entry from its API representation, verifying the
// populated payload field matches the event type.
func (e *Entry) UnmarshalJSON(raw []byte) error {
	var wire wireEntry
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}

	et, err := ParseEventType(wire.EventType)
	if err != nil {
		return err
	}

	created, err := time.Parse(APITimeLayout, wire.Created)
	if err != nil {
		return fmt.Errorf("parsing created date %q: %w", wire.Created, err)
	}

	ev, err := wire.Data.event(et)
	if err != nil {
		return err
	}

	*e = Entry{
		ID:          wire.ID,
		ContentType: wire.ContentType,
		EventType:   et,
		CreatedAt:   created,
		Actor:       wire.Data.User,
		Event:       ev,
		ProjectID:   wire.Project,
	}
	return nil
}

// MarshalJSON encodes an entry in its API representation.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Event == nil {
		return nil, fmt.Errorf("%w: entry %d has no event", ErrPayloadMismatch, e.ID)
	}
	return json.Marshal(wireEntry{
		ID:          e.ID,
		ContentType: e.ContentType,
		EventType:   e.EventType.String(),
		Created:     e.CreatedAt.Format(APITimeLayout),
		Data:        payloadOf(e.Actor, e.Event),
		Project:     e.ProjectID,
	})
}
