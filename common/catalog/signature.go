package catalog

import "strings"

// ParseSignature splits a function signature name(arg1,arg2) into its name and
// argument names. name() has no arguments. Whitespace, empty argument names and
// nested parentheses make the signature malformed.
func ParseSignature(sig string) (string, []string, bool) {
	open := strings.IndexByte(sig, '(')
	if open <= 0 || !strings.HasSuffix(sig, ")") {
		return "", nil, false
	}
	if strings.ContainsAny(sig, " \t\r\n") {
		return "", nil, false
	}

	name := sig[:open]
	inner := sig[open+1 : len(sig)-1]
	if strings.ContainsAny(inner, "()") {
		return "", nil, false
	}

	if inner == "" {
		return name, []string{}, true
	}

	params := strings.Split(inner, ",")
	for _, p := range params {
		if p == "" {
			return "", nil, false
		}
	}
	return name, params, true
}

// FormatSignature joins a function name and its argument names as name(a,b)
func FormatSignature(name string, params []string) string {
	return name + "(" + strings.Join(params, ",") + ")"
}
