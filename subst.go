package sqlvars

import (
	"strings"
)

// Vars maps Query-Vars placeholder names to replacement text.
// Insertion order is irrelevant; lookup is by exact name.
type Vars map[string]string

// Substitute scans template left to right for non-overlapping
// placeholders of the form {$NAME}, {$NAME=} or {$NAME=DEFAULT} and
// resolves each against vars:
//
//  1. A supplied value wins. It is validated against the value grammar
//     (allow-listed bytes, never the substring "--") and substituted
//     verbatim on success; a violation returns a *VarError wrapping
//     ErrInvalidVarValue.
//  2. Otherwise a template default is substituted verbatim. Defaults
//     are authored, not user-supplied, and are not re-validated.
//  3. Otherwise a *VarError wrapping ErrMissingVar is returned.
//
// NAME is one or more of [A-Za-z0-9_.-]. Text outside matched
// placeholders — whitespace, newlines, comments — is preserved byte
// for byte, and malformed or unterminated sequences are left as
// literal text. The first offending placeholder aborts the whole
// substitution; no partial result is returned.
func Substitute(template string, vars Vars) (string, error) {
	var buf strings.Builder
	buf.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		if c != '{' || i+1 >= len(template) || template[i+1] != '$' {
			buf.WriteByte(c)
			i++
			continue
		}

		// Name
		j := i + 2
		k := j
		for k < len(template) && isNameByte(template[k]) {
			k++
		}
		if k == j {
			// "{$" with no name: literal text
			buf.WriteByte(c)
			i++
			continue
		}
		name := template[j:k]

		// Optional "=DEFAULT"
		hasDefault := false
		var def string
		if k < len(template) && template[k] == '=' {
			hasDefault = true
			k++
			start := k
			for k < len(template) && isValueByte(template[k]) {
				k++
			}
			def = template[start:k]
		}

		if k >= len(template) || template[k] != '}' {
			// Unterminated: emit the '{' and rescan from the next byte.
			buf.WriteByte(c)
			i++
			continue
		}

		v, ok := vars[name]
		switch {
		case ok:
			if !validVarValue(v) {
				return "", &VarError{Name: name, Template: template, reason: ErrInvalidVarValue}
			}
			buf.WriteString(v)
		case hasDefault:
			buf.WriteString(def)
		default:
			return "", &VarError{Name: name, Template: template, reason: ErrMissingVar}
		}
		i = k + 1
	}

	return buf.String(), nil
}

// isNameByte reports whether b may appear in a placeholder name.
func isNameByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' ||
		b >= '0' && b <= '9' || b == '_' || b == '.' || b == '-'
}

// isValueByte reports whether b may appear in a substituted value or
// in a template default.
func isValueByte(b byte) bool {
	switch b {
	case ' ', '\t', '?', '_', ':', '.', '<', '=', '>', '-':
		return true
	}
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// validVarValue enforces the value grammar on caller-supplied text.
// The "--" check guards against smuggling a SQL line comment through
// an otherwise allow-listed value.
func validVarValue(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isValueByte(s[i]) {
			return false
		}
	}
	return !strings.Contains(s, "--")
}
