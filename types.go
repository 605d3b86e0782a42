package rapidmultipart

// State is the position of the Decoder within the multipart body.
type State int

const (
	StatePreamble    State = iota // before the opening boundary (initial)
	StateHeaders                  // opening or inner boundary seen, header block next
	StateData                     // header block read, part payload next
	StateEpilogue                 // terminal boundary seen
	StateEndOfStream              // nothing more will be decoded (terminal)
)

func (s State) String() string {
	switch s {
	case StatePreamble:
		return "preamble"
	case StateHeaders:
		return "headers"
	case StateData:
		return "data"
	case StateEpilogue:
		return "epilogue"
	case StateEndOfStream:
		return "end of stream"
	}
	return "unknown"
}

// Terminator is the kind of boundary that ended a part.
type Terminator int

const (
	TerminatorNone  Terminator = iota // no boundary observed
	TerminatorNext                    // "--boundary\r\n": another part follows
	TerminatorFinal                   // "--boundary--": last part
)

func (t Terminator) String() string {
	switch t {
	case TerminatorNext:
		return "next"
	case TerminatorFinal:
		return "final"
	}
	return "none"
}
