package logjam

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	camelWordRe  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	camelUpperRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// CamelToDefine converts "camelCase" into "CAMEL_CASE".
func CamelToDefine(s string) string {
	s = camelWordRe.ReplaceAllString(s, "${1}_${2}")
	s = camelUpperRe.ReplaceAllString(s, "${1}_${2}")
	return strings.ToUpper(s)
}

// Identifier turns a space separated title such as "motor current" into
// "MotorCurrent".
func Identifier(title string) string {
	var sb strings.Builder
	for _, w := range strings.Fields(title) {
		r, n := utf8.DecodeRuneInString(w)
		sb.WriteRune(unicode.ToUpper(r))
		sb.WriteString(strings.ToLower(w[n:]))
	}
	return sb.String()
}

// Element kinds used in enum names.
const (
	KindVar   = "var"
	KindEvent = "evt"
)

// Naming derives every generated identifier from the record type prefix.
// All identifiers for a record come from here so struct layouts and accessors
// cannot disagree.
type Naming struct {
	prefix string
}

func NewNaming(prefix string) Naming {
	return Naming{prefix: prefix}
}

func (n Naming) Prefix() string {
	return n.prefix
}

// Enum returns e.g. LOG_MOTOR_VAR_PHASE_CURRENT.
func (n Naming) Enum(kind, name string) string {
	return fmt.Sprintf("LOG_%s_%s_%s", strings.ToUpper(n.prefix), strings.ToUpper(kind), CamelToDefine(name))
}

func (n Naming) BitfieldStruct() string {
	return fmt.Sprintf("Log%s_Bitfield_t", n.prefix)
}

func (n Naming) DataStruct() string {
	return fmt.Sprintf("Log%s_Data_t", n.prefix)
}

func (n Naming) HeaderDefine() string {
	return fmt.Sprintf("_LOG_%s_DEFS_H_", strings.ToUpper(n.prefix))
}

func (n Naming) HeaderFile() string {
	return fmt.Sprintf("log_%s_defs", strings.ToLower(n.prefix))
}

// Function returns e.g. LogMotor_AddSpeed for ("add", "Speed").
func (n Naming) Function(fn, name string) string {
	return fmt.Sprintf("Log%s_%s%s", n.prefix, capitalize(fn), name)
}

// EventFunction returns e.g. LogMotor_Event_Stall.
func (n Naming) EventFunction(name string) string {
	return fmt.Sprintf("Log%s_Event_%s", n.prefix, name)
}

// BitmapBytesDefine and DataBytesDefine name the size constants.
func (n Naming) BitmapBytesDefine() string {
	return fmt.Sprintf("LOG_%s_SELECTION_BYTES", strings.ToUpper(n.prefix))
}

func (n Naming) DataBytesDefine() string {
	return fmt.Sprintf("LOG_%s_DATA_BYTES", strings.ToUpper(n.prefix))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
