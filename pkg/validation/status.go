package validation

// Status is the stable, numbered result taxonomy shared with generated-code
// callers. The numeric values are part of the wire contract: never reorder.
type Status int

const (
	StatusOK Status = iota
	StatusFileNotFound
	StatusOpenFailed
	StatusNotOpen
	StatusBlockNotFound
	StatusReadError
	StatusCloseError
	StatusRequired
	StatusEnumViolation
	StatusNotSet
	StatusPartlyFilled
	StatusBoundsViolation
	StatusInvalidName
	StatusInvalidIndex
)

var statusNames = map[Status]string{
	StatusOK:              "OK",
	StatusFileNotFound:    "FileNotFound",
	StatusOpenFailed:      "OpenFailed",
	StatusNotOpen:         "NotOpen",
	StatusBlockNotFound:   "BlockNotFound",
	StatusReadError:       "ReadError",
	StatusCloseError:      "CloseError",
	StatusRequired:        "Required",
	StatusEnumViolation:   "EnumViolation",
	StatusNotSet:          "NotSet",
	StatusPartlyFilled:    "PartlyFilled",
	StatusBoundsViolation: "BoundsViolation",
	StatusInvalidName:     "InvalidName",
	StatusInvalidIndex:    "InvalidIndex",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// OK reports success.
func (s Status) OK() bool {
	return s == StatusOK
}

// Statuses lists every status in numeric order, for emitters that mirror the
// taxonomy into generated code.
func Statuses() []Status {
	out := make([]Status, 0, len(statusNames))
	for s := StatusOK; s <= StatusInvalidIndex; s++ {
		out = append(out, s)
	}
	return out
}
