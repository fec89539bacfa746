package domain

import (
	"encoding/json"
	"fmt"

	pkgerrors "soundsense/pkg/errors"
)

// SignalCode is the closed enumeration of measured signals. Sound is the only
// member today; the type exists so adding a signal means adding a constant and
// an alias row, not hunting string literals.
type SignalCode string

const SignalSound SignalCode = "sound"

// signalAliases maps the legacy spellings older firmware still sends onto the
// canonical value. Serialization is always canonical.
var signalAliases = map[string]SignalCode{
	"sound":       SignalSound,
	"Sound":       SignalSound,
	"SoundLevel":  SignalSound,
	"sound_level": SignalSound,
	"SOUND_LEVEL": SignalSound,
}

// ParseSignalCode resolves an input spelling to its canonical code. Unknown
// spellings fail clearly rather than defaulting.
func ParseSignalCode(s string) (SignalCode, error) {
	if code, ok := signalAliases[s]; ok {
		return code, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeBadRequest, fmt.Sprintf("unknown signal code %q", s))
}

// Display returns the human-readable label used in FHIR codings.
func (c SignalCode) Display() string {
	switch c {
	case SignalSound:
		return "Sound Level"
	default:
		return string(c)
	}
}

func (c SignalCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(c))
}

func (c *SignalCode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	code, err := ParseSignalCode(raw)
	if err != nil {
		return err
	}
	*c = code
	return nil
}
