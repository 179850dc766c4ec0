package hierarchy

import "strings"

// JoinPath joins keys into an "a/b/c" path. A "/" or "\" inside a key is
// escaped with "\" so SplitPath can recover the keys.
func JoinPath(keys []string) string {
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = pathEscaper.Replace(k)
	}
	return strings.Join(escaped, "/")
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, "/", `\/`)

// SplitPath is the inverse of JoinPath. One leading and one trailing
// separator are ignored; a dangling "\" is kept as a literal.
func SplitPath(path string) []string {
	var (
		keys     []string
		cur      strings.Builder
		trailing bool
	)
	for i := 0; i < len(path); i++ {
		trailing = false
		switch c := path[i]; {
		case c == '\\' && i+1 < len(path):
			i++
			cur.WriteByte(path[i])
		case c == '/':
			keys = append(keys, cur.String())
			cur.Reset()
			trailing = true
		default:
			cur.WriteByte(c)
		}
	}
	if !trailing {
		keys = append(keys, cur.String())
	}
	if len(keys) > 0 && keys[0] == "" && strings.HasPrefix(path, "/") {
		keys = keys[1:]
	}
	if len(keys) == 0 || len(keys) == 1 && keys[0] == "" {
		return nil
	}
	return keys
}
