package param

import "fmt"

// ID identifies a registered parameter. Identifiers are dense and fixed at
// build time; add new ones before NumParams and nowhere else.
type ID uint8

const (
	Baud ID = iota
	OutputAmplitude
	MsgStartFcn
	FskF0
	FskF1
	ModDemodMethod
	Fc
	FhbfskFreqSpacing
	FhbfskDwellTime
	PrintEnabled
	FhbfskNumTones
	EvalModeOn
	EvalMessage
	ModemID
	StationaryFlag
	ErrorCorrection
	DemodulationDecision

	NumParams
)

var idNames = [NumParams]string{
	Baud:                 "baud",
	OutputAmplitude:      "output_amplitude",
	MsgStartFcn:          "msg_start_fcn",
	FskF0:                "fsk_f0",
	FskF1:                "fsk_f1",
	ModDemodMethod:       "mod_demod_method",
	Fc:                   "fc",
	FhbfskFreqSpacing:    "fhbfsk_freq_spacing",
	FhbfskDwellTime:      "fhbfsk_dwell_time",
	PrintEnabled:         "print_enabled",
	FhbfskNumTones:       "fhbfsk_num_tones",
	EvalModeOn:           "eval_mode_on",
	EvalMessage:          "eval_message",
	ModemID:              "modem_id",
	StationaryFlag:       "stationary_flag",
	ErrorCorrection:      "error_correction",
	DemodulationDecision: "demodulation_decision",
}

// String returns the identifier's key, e.g. "fsk_f0". It is stable and is
// used as the persistence and metrics label.
func (id ID) String() string {
	if id < NumParams {
		return idNames[id]
	}
	return fmt.Sprintf("param(%d)", uint8(id))
}

// ParseID resolves a key produced by ID.String.
func ParseID(s string) (ID, error) {
	for i, name := range idNames {
		if name == s {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParam, s)
}

// TaskID identifies a cooperating task that takes part in the start-up
// registration handshake.
type TaskID uint8

const (
	TaskComm TaskID = iota
	TaskMessage
	TaskModulate
	TaskDemodulate

	NumTasks
)

var taskNames = [NumTasks]string{"comm", "message", "modulate", "demodulate"}

func (id TaskID) String() string {
	if id < NumTasks {
		return taskNames[id]
	}
	return fmt.Sprintf("task(%d)", uint8(id))
}

const (
	MaxParameters = 32 // default table capacity
	NameLen       = 32 // parameter name field width, including terminator
	TaskNameLen   = 16
)

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
