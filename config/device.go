package config

import (
	"fmt"

	"github.com/ystepanoff/acomm/param"
)

// Device holds the live values of the modem's physical-layer tunables.
// The registry reads and writes these fields in place once RegisterParams
// has run, so a Device must not be copied after registration.
type Device struct {
	Baud                 float32 `yaml:"baud"`
	OutputAmplitude      float32 `yaml:"output_amplitude"`
	MsgStartFcn          uint8   `yaml:"msg_start_fcn"`
	FskF0                uint32  `yaml:"fsk_f0"`
	FskF1                uint32  `yaml:"fsk_f1"`
	ModDemodMethod       uint8   `yaml:"mod_demod_method"`
	Fc                   uint32  `yaml:"fc"`
	FhbfskFreqSpacing    uint8   `yaml:"fhbfsk_freq_spacing"`
	FhbfskDwellTime      uint8   `yaml:"fhbfsk_dwell_time"`
	PrintEnabled         uint8   `yaml:"print_enabled"`
	FhbfskNumTones       uint8   `yaml:"fhbfsk_num_tones"`
	EvalModeOn           uint8   `yaml:"eval_mode_on"`
	EvalMessage          uint32  `yaml:"eval_message"`
	DemodulationDecision uint8   `yaml:"demodulation_decision"`
}

// Modulation methods, message start functions and demodulation decisions.
const (
	MethodFSK uint8 = iota
	MethodFHBFSK
)

const (
	StartAmplitudeThreshold uint8 = iota
	StartOverlappingFFT
)

const (
	DecisionEnergy uint8 = iota
	DecisionHistorical
)

func DefaultDevice() Device {
	return Device{
		Baud:              100,
		OutputAmplitude:   1,
		MsgStartFcn:       StartAmplitudeThreshold,
		FskF0:             30000,
		FskF1:             31000,
		ModDemodMethod:    MethodFSK,
		Fc:                30500,
		FhbfskFreqSpacing: 1,
		FhbfskDwellTime:   1,
		FhbfskNumTones:    2,
		EvalMessage:       0xA5A5A5A5,
	}
}

// RegisterParams registers every tunable with its limits and fails if a
// current value lies outside them.
func (d *Device) RegisterParams(r *param.Registry) error {
	errs := []error{
		param.Register(r, param.Baud, "baud rate", &d.Baud, 1, 1000),
		param.Register(r, param.OutputAmplitude, "output amplitude", &d.OutputAmplitude, 0, 5),
		param.Register(r, param.MsgStartFcn, "message start function", &d.MsgStartFcn, StartAmplitudeThreshold, StartOverlappingFFT),
		param.Register(r, param.FskF0, "fsk frequency 0", &d.FskF0, 1000, 100000),
		param.Register(r, param.FskF1, "fsk frequency 1", &d.FskF1, 1000, 100000),
		param.Register(r, param.ModDemodMethod, "modulation method", &d.ModDemodMethod, MethodFSK, MethodFHBFSK),
		param.Register(r, param.Fc, "center frequency", &d.Fc, 1000, 100000),
		param.Register(r, param.FhbfskFreqSpacing, "fhbfsk frequency spacing", &d.FhbfskFreqSpacing, 1, 10),
		param.Register(r, param.FhbfskDwellTime, "fhbfsk dwell time", &d.FhbfskDwellTime, 1, 100),
		param.Register(r, param.PrintEnabled, "print received", &d.PrintEnabled, 0, 1),
		param.Register(r, param.FhbfskNumTones, "fhbfsk tones", &d.FhbfskNumTones, 1, 50),
		param.Register(r, param.EvalModeOn, "evaluation mode", &d.EvalModeOn, 0, 1),
		param.Register(r, param.EvalMessage, "evaluation message", &d.EvalMessage, 0, 0xFFFFFFFF),
		param.Register(r, param.DemodulationDecision, "demodulation decision", &d.DemodulationDecision, DecisionEnergy, DecisionHistorical),
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return checkCurrent(r, deviceParams)
}

var deviceParams = []param.ID{
	param.Baud, param.OutputAmplitude, param.MsgStartFcn, param.FskF0, param.FskF1,
	param.ModDemodMethod, param.Fc, param.FhbfskFreqSpacing, param.FhbfskDwellTime,
	param.PrintEnabled, param.FhbfskNumTones, param.EvalModeOn, param.EvalMessage,
	param.DemodulationDecision,
}

func checkCurrent(r *param.Registry, ids []param.ID) error {
	for _, id := range ids {
		v, err := r.GetValue(id)
		if err != nil {
			return err
		}
		lim, err := r.Limits(id)
		if err != nil {
			return err
		}
		if !lim.Contains(v) {
			return fmt.Errorf("%w: %s = %s, limits %s", param.ErrOutOfRange, id, v, lim)
		}
	}
	return nil
}
