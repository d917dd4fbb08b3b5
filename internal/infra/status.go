// Package infra holds the desired infrastructure state written by the
// pipeline-trigger Lambda and read by pipeline build steps.
package infra

// Status is the desired infrastructure state.
type Status string

const (
	StatusOn  Status = "on"
	StatusOff Status = "off"
)

// DefaultStatus is assumed when no status has been stored yet.
const DefaultStatus = StatusOn

// ParseStatus accepts exactly "on" or "off".
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusOn, StatusOff:
		return Status(s), true
	}
	return "", false
}

func (s Status) String() string { return string(s) }
