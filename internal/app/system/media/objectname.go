package media

import "strings"

// ObjectName derives the backend object name for a stored entry from its
// recorded URL and backend path. The URL's trailing segment wins, with any
// query string (transformation parameters and the like) stripped; the
// backend path's trailing segment is the fallback when the URL yields
// nothing. Returns "" when neither does.
func ObjectName(fileURL, filePath string) string {
	if name := trailingSegment(fileURL); name != "" {
		return name
	}
	return trailingSegment(filePath)
}

func trailingSegment(s string) string {
	if s == "" {
		return ""
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
