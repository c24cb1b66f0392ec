package entity

import "fmt"

// Status is the lifecycle state of a tracked URL.
type Status int

const (
	// StatusUnknown is the zero value and means "not set".
	StatusUnknown Status = iota
	StatusPending
	StatusSubmitted
	StatusChanged
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSubmitted:
		return "submitted"
	case StatusChanged:
		return "changed"
	case StatusError:
		return "error"
	case StatusUnknown:
		return ""
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts the text form of a status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "submitted":
		return StatusSubmitted, nil
	case "changed":
		return StatusChanged, nil
	case "error":
		return StatusError, nil
	case "":
		return StatusUnknown, nil
	}
	return StatusUnknown, fmt.Errorf("unknown url status %q", s)
}

// NeedsSubmission reports whether an entry in this state is due for submission.
func (s Status) NeedsSubmission() bool {
	switch s {
	case StatusPending, StatusChanged:
		return true
	case StatusSubmitted, StatusError, StatusUnknown:
		return false
	}
	return false
}

func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusPending, StatusSubmitted, StatusChanged, StatusError:
		return []byte(s.String()), nil
	case StatusUnknown:
		return []byte{}, nil
	}
	return nil, fmt.Errorf("cannot marshal %s", s)
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
