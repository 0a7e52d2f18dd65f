// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is a verbosity threshold. It is a superset of the zapcore levels with
// an extra Verbo level below Debug for high-volume consensus traces.
type Level zapcore.Level

const (
	Verbo Level = iota - 2
	Debug
	Info
	Warn
	Error
	Fatal Level = 5
	Off   Level = 6
)

const (
	fatalStr = "FATAL"
	errorStr = "ERROR"
	warnStr  = "WARN"
	infoStr  = "INFO"
	debugStr = "DEBUG"
	verboStr = "VERBO"
	offStr   = "OFF"
)

var errUnknownLevel = fmt.Errorf("unknown log level")

func ToLevel(l string) (Level, error) {
	switch strings.ToUpper(l) {
	case offStr:
		return Off, nil
	case fatalStr:
		return Fatal, nil
	case errorStr:
		return Error, nil
	case warnStr:
		return Warn, nil
	case infoStr:
		return Info, nil
	case debugStr:
		return Debug, nil
	case verboStr:
		return Verbo, nil
	default:
		return Off, fmt.Errorf("%w: %q", errUnknownLevel, l)
	}
}

func (l Level) String() string {
	switch l {
	case Off:
		return offStr
	case Fatal:
		return fatalStr
	case Error:
		return errorStr
	case Warn:
		return warnStr
	case Info:
		return infoStr
	case Debug:
		return debugStr
	case Verbo:
		return verboStr
	default:
		// This should never happen
		return "UNKNO"
	}
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	var err error
	*l, err = ToLevel(str)
	return err
}
